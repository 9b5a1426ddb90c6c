// Package api provides the HTTP server for the commonwealth economy.
// All state changes go through the engine; handlers translate HTTP to
// engine calls and domain errors back to status codes.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/bolee10499-png/N8.Ked-Commonwealth-sub000/internal/app/engine"
	"github.com/bolee10499-png/N8.Ked-Commonwealth-sub000/internal/domain"
)

// Server is the economy HTTP API server.
type Server struct {
	engine         *engine.Engine
	log            zerolog.Logger
	metricsEnabled bool
}

// NewServer creates a new API server.
func NewServer(e *engine.Engine, log zerolog.Logger) *Server {
	return &Server{engine: e, log: log.With().Str("component", "api").Logger()}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(s.requestLogger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)

		r.Route("/accounts/{id}", func(r chi.Router) {
			r.Get("/", s.handleAccount)
			r.Get("/transactions", s.handleTransactions)
		})
		r.Get("/transactions", s.handleRecentTransactions)

		r.Post("/credit", s.handleCredit)
		r.Post("/debit", s.handleDebit)
		r.Post("/transfer", s.handleTransfer)
		r.Post("/stake", s.handleStake)
		r.Post("/unstake", s.handleUnstake)

		r.Route("/proposals", func(r chi.Router) {
			r.Get("/", s.handleListProposals)
			r.Post("/", s.handleCreateProposal)
			r.Get("/{id}", s.handleGetProposal)
			r.Post("/{id}/votes", s.handleCastVote)
		})

		r.Get("/reserve", s.handleReserve)
		r.Post("/reserve", s.handleAddReserve)
		r.Get("/gravity", s.handleGravity)
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// requestLogger emits one structured line per request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps a domain error to its HTTP status and writes it.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, errStatus(err), map[string]any{
		"error": err.Error(),
	})
}

// errStatus maps domain errors to HTTP status codes.
func errStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnknownAccount),
		errors.Is(err, domain.ErrProposalNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrSelfTransfer):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInsufficientFunds),
		errors.Is(err, domain.ErrInsufficientStake):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrDuplicateVote),
		errors.Is(err, domain.ErrProposalNotActive):
		return http.StatusConflict
	case errors.Is(err, domain.ErrAccessDenied):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// decode parses a JSON request body into v.
func decode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
