package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RouterConfig carries the dependencies for the API router.
type RouterConfig struct {
	// Analyzer runs health analyses
	Analyzer Analyzer
	// Snapshots serves persisted snapshot queries; nil disables those routes
	Snapshots SnapshotReader
	// MaxBodySize caps request body reads in bytes
	MaxBodySize int64
	// AnalyzeTimeout bounds one analysis request end to end
	AnalyzeTimeout time.Duration
}

// NewRouter creates the chi router with all endpoints and middleware.
func NewRouter(cfg RouterConfig) http.Handler {
	h := &Handler{
		analyzer:       cfg.Analyzer,
		snapshots:      cfg.Snapshots,
		maxBodySize:    cfg.MaxBodySize,
		analyzeTimeout: cfg.AnalyzeTimeout,
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.handleHealth)
		r.Post("/analyze", h.handleAnalyze)
		r.Get("/snapshots/latest", h.handleLatestSnapshot)
		r.Get("/snapshots/count", h.handleSnapshotCount)
		r.Get("/history", h.handleHistory)
	})

	return r
}
