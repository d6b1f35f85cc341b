package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/eldtechnologies/intake/internal/store"
	"github.com/eldtechnologies/intake/internal/web"
)

// DataStore is what the handlers need from the persistence layer. The
// store manager implements it.
type DataStore interface {
	store.Store
	State() store.State
}

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	store         DataStore
	redis         *redis.Client
	renderer      *web.Renderer
	secureCookies bool
	logger        zerolog.Logger
}

// NewHandler creates a new Handler. redisClient may be nil when no Redis
// is configured.
func NewHandler(ds DataStore, redisClient *redis.Client, renderer *web.Renderer, secureCookies bool, logger zerolog.Logger) *Handler {
	return &Handler{
		store:         ds,
		redis:         redisClient,
		renderer:      renderer,
		secureCookies: secureCookies,
		logger:        logger,
	}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}

// render writes an HTML page, falling back to a plain error when the
// template itself fails.
func (h *Handler) render(w http.ResponseWriter, status int, page string, data any) {
	if err := h.renderer.Render(w, status, page, data); err != nil {
		h.logger.Error().Err(err).Str("page", page).Msg("template render failed")
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

// renderError writes the shared HTML error page.
func (h *Handler) renderError(w http.ResponseWriter, status int, title, detail string) {
	h.render(w, status, "error", web.ErrorPage{Status: status, Title: title, Detail: detail})
}

// NotFound renders the error page for unknown paths.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.renderError(w, http.StatusNotFound, "Not Found", "The page you requested does not exist.")
}

// MethodNotAllowed renders the error page for unsupported methods.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.renderError(w, http.StatusMethodNotAllowed, "Method Not Allowed", "That method is not supported here.")
}
