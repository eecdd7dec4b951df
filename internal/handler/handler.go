// Package handler exposes the account service over HTTP form posts.
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"loginreg/internal/service"
)

const maxFormBytes = 64 << 10

// Accounts is the account service as seen by HTTP handlers.
type Accounts interface {
	Register(ctx context.Context, form service.Form) (service.Result, error)
	Login(ctx context.Context, form service.Form) (service.Result, error)
}

// Pinger checks a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler wraps application dependencies for HTTP handlers.
type Handler struct {
	accounts Accounts
	db       Pinger
	log      logrus.FieldLogger
}

func New(accounts Accounts, db Pinger, log logrus.FieldLogger) *Handler {
	return &Handler{accounts: accounts, db: db, log: log}
}

// NewRouter mounts the account routes with the standard middleware chain.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(RequestLogger(h.log))
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", h.Healthz)
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)

	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}

// Healthz reports database reachability.
// GET /healthz
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.log.WithError(err).Warn("health check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, errorResponse{Error: "resource not found"})
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
