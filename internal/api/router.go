package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router builds the full HTTP surface.
func (s *Server) Router() http.Handler {
	router := mux.NewRouter()

	api := router.PathPrefix("/api/v1").Subrouter()

	// Health endpoints
	api.HandleFunc("/health", s.handleHealth).Methods("GET")
	api.HandleFunc("/health/detailed", s.handleHealthDetailed).Methods("GET")

	// Workflow endpoints
	api.HandleFunc("/workflows", s.handleCreateWorkflow).Methods("POST")
	api.HandleFunc("/workflows", s.handleListWorkflows).Methods("GET")
	api.HandleFunc("/workflows/{id}", s.handleGetWorkflow).Methods("GET")
	api.HandleFunc("/workflows/{id}", s.handleUpdateWorkflow).Methods("PUT")
	api.HandleFunc("/workflows/{id}", s.handleDeleteWorkflow).Methods("DELETE")
	api.HandleFunc("/workflows/{id}/validate", s.handleValidateWorkflow).Methods("POST")
	api.HandleFunc("/workflows/{id}/execute", s.handleExecuteWorkflow).Methods("POST")

	// Chat endpoints
	api.HandleFunc("/chat/sessions", s.handleCreateSession).Methods("POST")
	api.HandleFunc("/chat/sessions/{sid}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/chat/sessions/{sid}", s.handleDeleteSession).Methods("DELETE")
	api.HandleFunc("/chat/sessions/{sid}/messages", s.handleSendMessage).Methods("POST")
	api.HandleFunc("/chat/sessions/{sid}/messages", s.handleListMessages).Methods("GET")
	api.HandleFunc("/chat/execute", s.handleChatExecute).Methods("POST")

	// Document endpoints
	api.HandleFunc("/documents/upload", s.handleUploadDocument).Methods("POST")
	api.HandleFunc("/documents/search", s.handleSearchDocuments).Methods("POST")
	api.HandleFunc("/documents/collections", s.handleListCollections).Methods("GET")
	api.HandleFunc("/documents/collections/{name}", s.handleGetCollection).Methods("GET")
	api.HandleFunc("/documents", s.handleListDocuments).Methods("GET")
	api.HandleFunc("/documents/{id}", s.handleGetDocument).Methods("GET")
	api.HandleFunc("/documents/{id}", s.handleDeleteDocument).Methods("DELETE")
	api.HandleFunc("/documents/{id}/process", s.handleProcessDocument).Methods("POST")

	// Metrics endpoint
	router.Handle("/metrics", promhttp.Handler())

	return metricsMiddleware(router)
}
