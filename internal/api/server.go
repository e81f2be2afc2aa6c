package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/KumarSohan18/No-Code-platform/internal/config"
	"github.com/KumarSohan18/No-Code-platform/internal/storage"
	"github.com/KumarSohan18/No-Code-platform/internal/vector"
	"github.com/KumarSohan18/No-Code-platform/internal/workflow"
)

// Server bundles the handlers' dependencies.
type Server struct {
	cfg      *config.Settings
	db       *storage.DB
	cache    *storage.SessionCache
	vectors  *vector.Store
	executor *workflow.Executor
}

func NewServer(cfg *config.Settings, db *storage.DB, cache *storage.SessionCache, vectors *vector.Store, executor *workflow.Executor) *Server {
	return &Server{
		cfg:      cfg,
		db:       db,
		cache:    cache,
		vectors:  vectors,
		executor: executor,
	}
}

func writeJSONResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSONResponse(w, status, map[string]string{"detail": message})
}

// parsePagination reads page/size query parameters with the list defaults.
func parsePagination(r *http.Request) (page, size int) {
	page, size = 1, 10
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("size")); err == nil && v > 0 && v <= 100 {
		size = v
	}
	return page, size
}

func pathID(vars map[string]string, key string) (int, bool) {
	id, err := strconv.Atoi(vars[key])
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
