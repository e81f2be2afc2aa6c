package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/KumarSohan18/No-Code-platform/internal/storage"
	"github.com/KumarSohan18/No-Code-platform/internal/workflow"
)

type createWorkflowRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Nodes       []workflow.Node `json:"nodes"`
	Edges       []workflow.Edge `json:"edges"`
}

func (s *Server) handleCreateWorkflow(w http.ResponseWriter, r *http.Request) {
	var req createWorkflowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "workflow name is required")
		return
	}

	// empty graphs are allowed as drafts; anything else must validate
	if len(req.Nodes) > 0 {
		if result := workflow.Validate(req.Nodes, req.Edges); !result.IsValid {
			writeError(w, http.StatusBadRequest,
				fmt.Sprintf("Invalid workflow: %s", strings.Join(result.Errors, ", ")))
			return
		}
	}

	wf, err := s.db.CreateWorkflow(req.Name, req.Description, req.Nodes, req.Edges)
	if err != nil {
		log.Printf("Error creating workflow: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create workflow")
		return
	}
	writeJSONResponse(w, http.StatusCreated, wf)
}

func (s *Server) handleListWorkflows(w http.ResponseWriter, r *http.Request) {
	page, size := parsePagination(r)
	workflows, total, err := s.db.ListWorkflows(page, size)
	if err != nil {
		log.Printf("Error listing workflows: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list workflows")
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"workflows": workflows,
		"total":     total,
		"page":      page,
		"size":      size,
	})
}

func (s *Server) handleGetWorkflow(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(mux.Vars(r), "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid workflow id")
		return
	}

	wf, err := s.db.GetWorkflow(id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "workflow not found")
		return
	}
	if err != nil {
		log.Printf("Error fetching workflow %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "failed to fetch workflow")
		return
	}
	writeJSONResponse(w, http.StatusOK, wf)
}

func (s *Server) handleUpdateWorkflow(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(mux.Vars(r), "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid workflow id")
		return
	}

	var update storage.WorkflowUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if update.Nodes != nil && len(*update.Nodes) > 0 {
		edges := []workflow.Edge{}
		if update.Edges != nil {
			edges = *update.Edges
		}
		if result := workflow.Validate(*update.Nodes, edges); !result.IsValid {
			writeError(w, http.StatusBadRequest,
				fmt.Sprintf("Invalid workflow: %s", strings.Join(result.Errors, ", ")))
			return
		}
	}

	wf, err := s.db.UpdateWorkflow(id, update)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "workflow not found")
		return
	}
	if err != nil {
		log.Printf("Error updating workflow %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "failed to update workflow")
		return
	}
	writeJSONResponse(w, http.StatusOK, wf)
}

func (s *Server) handleDeleteWorkflow(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(mux.Vars(r), "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid workflow id")
		return
	}

	err := s.db.DeleteWorkflow(id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "workflow not found")
		return
	}
	if err != nil {
		log.Printf("Error deleting workflow %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "failed to delete workflow")
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "workflow deleted"})
}

func (s *Server) handleValidateWorkflow(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(mux.Vars(r), "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid workflow id")
		return
	}

	wf, err := s.db.GetWorkflow(id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "workflow not found")
		return
	}
	if err != nil {
		log.Printf("Error fetching workflow %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "failed to fetch workflow")
		return
	}

	writeJSONResponse(w, http.StatusOK, s.executor.Validate(wf.Nodes, wf.Edges))
}

type executeWorkflowRequest struct {
	Input     map[string]interface{} `json:"input"`
	SessionID string                 `json:"session_id"`
}

func (s *Server) handleExecuteWorkflow(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(mux.Vars(r), "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid workflow id")
		return
	}

	var req executeWorkflowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	wf, err := s.db.GetWorkflow(id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "workflow not found")
		return
	}
	if err != nil {
		log.Printf("Error fetching workflow %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "failed to fetch workflow")
		return
	}
	if !wf.IsActive {
		writeError(w, http.StatusBadRequest, "workflow is not active")
		return
	}

	start := time.Now()
	result := s.executor.Execute(r.Context(), wf.Nodes, wf.Edges, req.Input)
	recordExecution(result.Status, time.Since(start))

	if _, err := s.db.RecordExecution(wf.ID, req.SessionID, req.Input, result); err != nil {
		log.Printf("Error recording execution of workflow %d: %v", wf.ID, err)
	}

	writeJSONResponse(w, http.StatusOK, result)
}
