// Package api provides the stateless request/response surface: capture and
// status operations for callers that do not hold a persistent connection.
package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/containerd/errdefs"
	"github.com/go-chi/chi/v5"
	"github.com/vhpooya/remotehub/internal/capture"
	"github.com/vhpooya/remotehub/internal/hub"
	"github.com/vhpooya/remotehub/internal/store"
)

// Handler serves the REST companion endpoints.
type Handler struct {
	directory      store.Directory
	provider       capture.Provider
	registry       *hub.Registry
	captureTimeout time.Duration
}

// NewHandler creates a new Handler with common dependencies.
func NewHandler(directory store.Directory, provider capture.Provider, registry *hub.Registry, captureTimeout time.Duration) *Handler {
	if captureTimeout <= 0 {
		captureTimeout = 10 * time.Second
	}
	return &Handler{
		directory:      directory,
		provider:       provider,
		registry:       registry,
		captureTimeout: captureTimeout,
	}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// RegisterRoutes registers the REST companion routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/screen/info", h.ScreenInfo)
	r.Post("/api/screen/capture", h.ScreenCapture)
	r.Get("/api/sessions", h.Sessions)
	r.Get("/api/users/{id}", h.User)
}

// ScreenInfo returns the host screen size and monitor layout.
func (h *Handler) ScreenInfo(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.captureTimeout)
	defer cancel()

	size, err := h.provider.ScreenSize(ctx)
	if err != nil {
		Error(w, http.StatusServiceUnavailable, "screen capture unavailable")
		return
	}
	monitors, err := h.provider.Monitors(ctx)
	if err != nil {
		Error(w, http.StatusServiceUnavailable, "screen capture unavailable")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"width":    size.Width,
		"height":   size.Height,
		"monitors": monitors,
	})
}

// ScreenCapture captures the full screen and returns it base64-encoded.
func (h *Handler) ScreenCapture(w http.ResponseWriter, r *http.Request) {
	quality := capture.ClampQuality(intQuery(r, "quality", 85))

	ctx, cancel := context.WithTimeout(r.Context(), h.captureTimeout)
	defer cancel()

	img, err := h.provider.CaptureFull(ctx, quality)
	if err != nil {
		Error(w, http.StatusServiceUnavailable, "failed to capture screen")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"image":     base64.StdEncoding.EncodeToString(img),
		"quality":   quality,
		"timestamp": time.Now(),
	})
}

// Sessions returns a point-in-time snapshot of the active sessions.
func (h *Handler) Sessions(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]interface{}{
		"sessions": h.registry.Active(),
	})
}

// User returns the public directory profile for a user.
func (h *Handler) User(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		Error(w, http.StatusBadRequest, "invalid user id")
		return
	}

	user, err := h.directory.GetUser(r.Context(), id)
	if err != nil {
		if errdefs.IsNotFound(err) {
			Error(w, http.StatusNotFound, "user not found")
			return
		}
		Error(w, http.StatusInternalServerError, "directory lookup failed")
		return
	}
	JSON(w, http.StatusOK, user)
}

func intQuery(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
