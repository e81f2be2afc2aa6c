package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/KumarSohan18/No-Code-platform/internal/ingestion"
	"github.com/KumarSohan18/No-Code-platform/internal/processing"
	"github.com/KumarSohan18/No-Code-platform/internal/storage"
)

func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(s.cfg.MaxFileSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	if !ingestion.Supported(header.Filename) {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("unsupported file type, allowed: %s", strings.Join(ingestion.SupportedExtensions, ", ")))
		return
	}
	if header.Size > s.cfg.MaxFileSize {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("file exceeds maximum size of %d bytes", s.cfg.MaxFileSize))
		return
	}

	if err := os.MkdirAll(s.cfg.UploadDirectory, 0o755); err != nil {
		log.Printf("Error creating upload directory: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to store file")
		return
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	storedName := uuid.New().String() + ext
	storedPath := filepath.Join(s.cfg.UploadDirectory, storedName)

	dst, err := os.Create(storedPath)
	if err != nil {
		log.Printf("Error creating file %s: %v", storedPath, err)
		writeError(w, http.StatusInternalServerError, "failed to store file")
		return
	}
	written, err := io.Copy(dst, file)
	dst.Close()
	if err != nil {
		os.Remove(storedPath)
		log.Printf("Error writing file %s: %v", storedPath, err)
		writeError(w, http.StatusInternalServerError, "failed to store file")
		return
	}

	doc, err := s.db.CreateDocument(&storage.Document{
		Filename:         storedName,
		OriginalFilename: header.Filename,
		FilePath:         storedPath,
		FileSize:         written,
		FileType:         strings.TrimPrefix(ext, "."),
	})
	if err != nil {
		os.Remove(storedPath)
		log.Printf("Error creating document row: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to store document")
		return
	}
	writeJSONResponse(w, http.StatusCreated, doc)
}

type processDocumentRequest struct {
	Collection string `json:"collection"`
}

// handleProcessDocument extracts text, chunks it, embeds the chunks and
// stores them in the vector store, then marks the document processed.
func (s *Server) handleProcessDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(mux.Vars(r), "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid document id")
		return
	}

	var req processDocumentRequest
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}
	collection := req.Collection
	if collection == "" {
		collection = "default"
	}

	doc, err := s.db.GetDocument(id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}
	if err != nil {
		log.Printf("Error fetching document %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "failed to fetch document")
		return
	}

	text, err := ingestion.ExtractText(doc.FilePath)
	if err != nil {
		log.Printf("Error extracting text from %s: %v", doc.FilePath, err)
		writeError(w, http.StatusUnprocessableEntity, "failed to extract text from document")
		return
	}
	if strings.TrimSpace(text) == "" {
		writeError(w, http.StatusUnprocessableEntity, "document contains no extractable text")
		return
	}

	chunks := processing.ChunkDocument(doc.OriginalFilename, text)
	if err := s.vectors.AddChunks(r.Context(), collection, chunks); err != nil {
		log.Printf("Error storing chunks for document %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "failed to store document chunks")
		return
	}

	if err := s.db.MarkDocumentProcessed(id, text); err != nil {
		log.Printf("Error marking document %d processed: %v", id, err)
		writeError(w, http.StatusInternalServerError, "failed to update document")
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"document_id": id,
		"collection":  collection,
		"chunks":      len(chunks),
		"status":      "processed",
	})
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	page, size := parsePagination(r)
	docs, total, err := s.db.ListDocuments(page, size)
	if err != nil {
		log.Printf("Error listing documents: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list documents")
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"documents": docs,
		"total":     total,
		"page":      page,
		"size":      size,
	})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(mux.Vars(r), "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid document id")
		return
	}

	doc, err := s.db.GetDocument(id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}
	if err != nil {
		log.Printf("Error fetching document %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "failed to fetch document")
		return
	}
	writeJSONResponse(w, http.StatusOK, doc)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(mux.Vars(r), "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid document id")
		return
	}

	doc, err := s.db.GetDocument(id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}
	if err != nil {
		log.Printf("Error fetching document %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "failed to fetch document")
		return
	}

	if err := s.db.DeleteDocument(id); err != nil {
		log.Printf("Error deleting document %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "failed to delete document")
		return
	}
	if err := os.Remove(doc.FilePath); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: failed to remove file %s: %v", doc.FilePath, err)
	}
	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "document deleted"})
}

type searchDocumentsRequest struct {
	Query      string   `json:"query"`
	Collection string   `json:"collection"`
	TopK       int      `json:"top_k"`
	Threshold  *float64 `json:"threshold"`
}

func (s *Server) handleSearchDocuments(w http.ResponseWriter, r *http.Request) {
	var req searchDocumentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	collection := req.Collection
	if collection == "" {
		collection = "default"
	}
	topK := req.TopK
	if topK <= 0 {
		topK = 5
	}
	threshold := 0.7
	if req.Threshold != nil {
		threshold = *req.Threshold
	}

	results, err := s.vectors.Search(r.Context(), req.Query, collection, topK, threshold)
	if err != nil {
		log.Printf("Error searching documents: %v", err)
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"query":      req.Query,
		"collection": collection,
		"results":    results,
	})
}

func (s *Server) handleListCollections(w http.ResponseWriter, r *http.Request) {
	collections, err := s.vectors.ListCollections(r.Context())
	if err != nil {
		log.Printf("Error listing collections: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list collections")
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]interface{}{"collections": collections})
}

func (s *Server) handleGetCollection(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	info, err := s.vectors.GetCollectionInfo(r.Context(), name)
	if err != nil {
		log.Printf("Error fetching collection %s: %v", name, err)
		writeError(w, http.StatusInternalServerError, "failed to fetch collection")
		return
	}
	writeJSONResponse(w, http.StatusOK, info)
}
