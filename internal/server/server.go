package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/dictachat/memcore/internal/engine"
	"github.com/dictachat/memcore/internal/store"
)

// Server is the memcore HTTP API server. All writes and searches go through
// the resilient wrapper; the raw engine is used for metadata and lifecycle
// operations that have no degraded mode.
type Server struct {
	res     *engine.Resilient
	db      *store.DB // nil when running without persistence
	budget  int
	version string
	started time.Time
	router  chi.Router
}

// New creates a Server. db may be nil for in-memory operation.
func New(res *engine.Resilient, db *store.DB, tokenBudget int, version string) *Server {
	s := &Server{
		res:     res,
		db:      db,
		budget:  tokenBudget,
		version: version,
		started: time.Now(),
	}
	s.routes()
	return s
}

func (s *Server) engine() *engine.Engine { return s.res.Engine() }

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/stats", s.handleStats)

		r.Post("/fragments", s.handleAddFragment)
		r.Get("/fragments/{fragmentID}", s.handleGetFragment)
		r.Delete("/fragments/{fragmentID}", s.handleDeleteFragment)
		r.Patch("/fragments/{fragmentID}/metadata", s.handlePatchMetadata)
		r.Post("/fragments/{fragmentID}/tombstone", s.handleTombstone)
		r.Post("/fragments/{fragmentID}/supersede", s.handleSupersede)
		r.Post("/fragments/{fragmentID}/outcome", s.handleOutcome)
		r.Post("/fragments/{fragmentID}/feedback", s.handleFeedback)

		r.Get("/search", s.handleSearch)
		r.Get("/context", s.handleGetContext)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := true
	dbPath := ""
	if s.db != nil {
		dbPath = s.db.Path
		if err := s.db.Ping(); err != nil {
			dbOK = false
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":    "ok",
		"version":   s.version,
		"uptime":    time.Since(s.started).Seconds(),
		"fragments": s.engine().Count(),
		"embedder":  s.engine().Embedder().Model(),
		"db":        dbOK,
		"db_path":   dbPath,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := s.res.Stats()
	tracked := s.engine().Tracker().TrackedIDs()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"fragments":      s.engine().Count(),
		"tracked":        len(tracked),
		"write_attempts": stats.Attempts,
		"write_success":  stats.Successes,
		"write_rate":     stats.Rate,
	})
}
