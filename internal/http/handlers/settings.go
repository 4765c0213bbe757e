package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"fintrack/internal/http/respond"
	"fintrack/internal/middleware"
	"fintrack/internal/models"
	"fintrack/internal/storage"
)

// SettingsHandler owns the per-user budget configuration endpoints.
type SettingsHandler struct {
	store storage.Store
}

// NewSettingsHandler constructs the handler.
func NewSettingsHandler(store storage.Store) *SettingsHandler {
	return &SettingsHandler{store: store}
}

// Register attaches settings routes behind the auth middleware.
func (h *SettingsHandler) Register(mux *http.ServeMux, requireAuth func(http.Handler) http.Handler) {
	mux.Handle("GET /settings", requireAuth(http.HandlerFunc(h.handleGet)))
	mux.Handle("PUT /settings", requireAuth(http.HandlerFunc(h.handleUpdate)))
}

func (h *SettingsHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r)
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "invalid or expired token")
		return
	}
	settings, err := h.store.GetSettings(r.Context(), userID)
	if err != nil {
		slog.Error("get settings", "error", err, "user_id", userID)
		respond.Error(w, http.StatusInternalServerError, "failed to load settings")
		return
	}
	respond.JSON(w, http.StatusOK, settings)
}

func (h *SettingsHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r)
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "invalid or expired token")
		return
	}
	var patch models.SettingsPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	settings, err := h.store.UpdateSettings(r.Context(), userID, patch)
	if err != nil {
		slog.Error("update settings", "error", err, "user_id", userID)
		respond.Error(w, http.StatusInternalServerError, "failed to update settings")
		return
	}
	respond.JSON(w, http.StatusOK, settings)
}
