package api

import (
	"net/http"
	"time"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// handleHealthDetailed probes the backing stores and reports per-component
// status. Degraded components do not fail the endpoint.
func (s *Server) handleHealthDetailed(w http.ResponseWriter, r *http.Request) {
	components := map[string]string{
		"database":     "healthy",
		"vector_store": "healthy",
	}
	overall := "healthy"

	if err := s.db.Ping(); err != nil {
		components["database"] = "unhealthy: " + err.Error()
		overall = "degraded"
	}
	if err := s.vectors.Ping(r.Context()); err != nil {
		components["vector_store"] = "unhealthy: " + err.Error()
		overall = "degraded"
	}

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"status":     overall,
		"components": components,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}
