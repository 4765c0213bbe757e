package handlers

import (
	"log/slog"
	"net/http"

	"fintrack/internal/http/respond"
	"fintrack/internal/middleware"
	"fintrack/internal/storage"
)

// AnalyticsHandler serves per-category spending aggregates.
type AnalyticsHandler struct {
	store storage.Store
}

// NewAnalyticsHandler constructs the handler.
func NewAnalyticsHandler(store storage.Store) *AnalyticsHandler {
	return &AnalyticsHandler{store: store}
}

// Register attaches the analytics route behind the auth middleware.
func (h *AnalyticsHandler) Register(mux *http.ServeMux, requireAuth func(http.Handler) http.Handler) {
	mux.Handle("GET /analytics", requireAuth(http.HandlerFunc(h.handleSummary)))
}

func (h *AnalyticsHandler) handleSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r)
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "invalid or expired token")
		return
	}
	summary, err := h.store.Summarize(r.Context(), userID)
	if err != nil {
		slog.Error("summarize transactions", "error", err, "user_id", userID)
		respond.Error(w, http.StatusInternalServerError, "failed to compute analytics")
		return
	}
	respond.JSON(w, http.StatusOK, summary)
}
