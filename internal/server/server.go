package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/lazypower/kgmem/internal/engine"
	"github.com/lazypower/kgmem/internal/store"
)

// Server is the kgmem HTTP API server: a thin translator over the engine.
type Server struct {
	db      *store.DB
	eng     *engine.Engine
	log     *zap.Logger
	router  chi.Router
	version string
	started time.Time
}

// New creates a new Server over an open store and engine.
func New(db *store.DB, eng *engine.Engine, logger *zap.Logger, version string) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		db:      db,
		eng:     eng,
		log:     logger,
		version: version,
		started: time.Now(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)

	r.Get("/health", s.handleHealth)

	r.Post("/nodes", s.handleCreateNode)
	r.Get("/nodes/{nodeID}", s.handleGetNode)
	r.Delete("/nodes/{nodeID}", s.handleDeleteNode)
	r.Post("/nodes/{nodeID}/touch", s.handleTouchNode)

	r.Post("/edges", s.handleCreateEdge)
	r.Get("/edges/{edgeID}", s.handleGetEdge)
	r.Delete("/edges/{edgeID}", s.handleDeleteEdge)
	r.Post("/edges/{edgeID}/reinforce", s.handleReinforceEdge)

	r.Get("/neighbors/{nodeID}", s.handleNeighbors)
	r.Get("/search", s.handleSearch)
	r.Get("/contradictions", s.handleContradictions)

	r.Post("/dream", s.handleDream)
	r.Get("/stats", s.handleStats)

	s.router = r
}

// requestLogger logs each request with method, path, status, and timing.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := true
	if err := s.db.Ping(); err != nil {
		dbOK = false
	}

	stats, err := s.eng.Stats()
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
		"db":      dbOK,
		"db_path": s.db.Path,
		"nodes":   stats.TotalNodes,
		"edges":   stats.TotalEdges,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps the engine error taxonomy onto status codes:
// validation 400, not found 404, anything else 500.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case engine.IsValidation(err):
		status = http.StatusBadRequest
	case engine.IsNotFound(err):
		status = http.StatusNotFound
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
