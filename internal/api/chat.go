package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/KumarSohan18/No-Code-platform/internal/storage"
	"github.com/KumarSohan18/No-Code-platform/internal/workflow"
)

const fallbackReply = "I'm sorry, I couldn't process your request."

type createSessionRequest struct {
	WorkflowID int `json:"workflow_id"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if _, err := s.db.GetWorkflow(req.WorkflowID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "workflow not found")
			return
		}
		log.Printf("Error fetching workflow %d: %v", req.WorkflowID, err)
		writeError(w, http.StatusInternalServerError, "failed to fetch workflow")
		return
	}

	session, err := s.db.CreateChatSession(req.WorkflowID)
	if err != nil {
		log.Printf("Error creating chat session: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}
	writeJSONResponse(w, http.StatusCreated, session)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sid := mux.Vars(r)["sid"]

	session, err := s.cache.Get(r.Context(), sid)
	if err != nil {
		session, err = s.db.GetChatSession(sid)
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		if err != nil {
			log.Printf("Error fetching session %s: %v", sid, err)
			writeError(w, http.StatusInternalServerError, "failed to fetch session")
			return
		}
		if err := s.cache.Set(r.Context(), session); err != nil {
			log.Printf("Warning: failed to cache session %s: %v", sid, err)
		}
	}
	writeJSONResponse(w, http.StatusOK, session)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sid := mux.Vars(r)["sid"]

	err := s.db.DeleteChatSession(sid)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		log.Printf("Error deleting session %s: %v", sid, err)
		writeError(w, http.StatusInternalServerError, "failed to delete session")
		return
	}
	if err := s.cache.Invalidate(r.Context(), sid); err != nil {
		log.Printf("Warning: failed to invalidate session %s: %v", sid, err)
	}
	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "session deleted"})
}

type sendMessageRequest struct {
	Content string `json:"content"`
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	sid := mux.Vars(r)["sid"]

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusBadRequest, "message content is required")
		return
	}

	session, err := s.db.GetChatSession(sid)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		log.Printf("Error fetching session %s: %v", sid, err)
		writeError(w, http.StatusInternalServerError, "failed to fetch session")
		return
	}

	wf, err := s.db.GetWorkflow(session.WorkflowID)
	if err != nil {
		log.Printf("Error fetching workflow %d: %v", session.WorkflowID, err)
		writeError(w, http.StatusInternalServerError, "failed to fetch workflow")
		return
	}
	if !wf.IsActive {
		writeError(w, http.StatusBadRequest, "workflow is not active")
		return
	}

	userMsg, err := s.db.AddChatMessage(session.ID, "user", req.Content, nil)
	if err != nil {
		log.Printf("Error persisting user message: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to store message")
		return
	}

	input := map[string]interface{}{
		"query":      req.Content,
		"session_id": sid,
	}
	start := time.Now()
	result := s.executor.Execute(r.Context(), wf.Nodes, wf.Edges, input)
	recordExecution(result.Status, time.Since(start))

	if _, err := s.db.RecordExecution(wf.ID, sid, input, result); err != nil {
		log.Printf("Error recording execution of workflow %d: %v", wf.ID, err)
	}

	reply := extractReply(result)
	aiMsg, err := s.db.AddChatMessage(session.ID, "ai", reply, map[string]interface{}{
		"execution_status": result.Status,
		"execution_time":   result.ExecutionTime,
	})
	if err != nil {
		log.Printf("Error persisting AI message: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to store message")
		return
	}

	if err := s.cache.Invalidate(r.Context(), sid); err != nil {
		log.Printf("Warning: failed to invalidate session %s: %v", sid, err)
	}

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"user_message": userMsg,
		"ai_message":   aiMsg,
		"execution":    result,
	})
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	sid := mux.Vars(r)["sid"]

	limit := 50
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}

	messages, err := s.db.ListChatMessages(sid, limit)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		log.Printf("Error listing messages for %s: %v", sid, err)
		writeError(w, http.StatusInternalServerError, "failed to list messages")
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"session_id": sid,
		"messages":   messages,
	})
}

type chatExecuteRequest struct {
	WorkflowID int    `json:"workflow_id"`
	Query      string `json:"query"`
}

// handleChatExecute runs a workflow for a one-off query, outside any session.
func (s *Server) handleChatExecute(w http.ResponseWriter, r *http.Request) {
	var req chatExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	wf, err := s.db.GetWorkflow(req.WorkflowID)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "workflow not found")
		return
	}
	if err != nil {
		log.Printf("Error fetching workflow %d: %v", req.WorkflowID, err)
		writeError(w, http.StatusInternalServerError, "failed to fetch workflow")
		return
	}

	start := time.Now()
	result := s.executor.Execute(r.Context(), wf.Nodes, wf.Edges,
		map[string]interface{}{"query": req.Query})
	recordExecution(result.Status, time.Since(start))

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"response":  extractReply(result),
		"execution": result,
	})
}

// extractReply pulls the assistant text out of an execution: the first LLM
// or output step in log order wins. Failed runs without any generated text
// fall back to a canned apology.
func extractReply(result *workflow.ExecutionResult) string {
	for _, step := range result.ExecutionLog.Steps {
		switch res := step.Result.(type) {
		case *workflow.LLMResult:
			if res.Response != "" {
				return res.Response
			}
		case *workflow.OutputResult:
			if res.Response != "" {
				return res.Response
			}
		}
	}
	return fallbackReply
}
