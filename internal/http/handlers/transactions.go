package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"fintrack/internal/http/respond"
	"fintrack/internal/middleware"
	"fintrack/internal/models/dto"
	"fintrack/internal/storage"
)

// TransactionsHandler owns the per-user ledger CRUD endpoints.
type TransactionsHandler struct {
	store storage.Store
}

// NewTransactionsHandler constructs the handler.
func NewTransactionsHandler(store storage.Store) *TransactionsHandler {
	return &TransactionsHandler{store: store}
}

// Register attaches ledger routes behind the auth middleware.
func (h *TransactionsHandler) Register(mux *http.ServeMux, requireAuth func(http.Handler) http.Handler) {
	mux.Handle("GET /transactions", requireAuth(http.HandlerFunc(h.handleList)))
	mux.Handle("POST /transactions", requireAuth(http.HandlerFunc(h.handleCreate)))
	mux.Handle("PUT /transactions/{id}", requireAuth(http.HandlerFunc(h.handleUpdate)))
	mux.Handle("DELETE /transactions/{id}", requireAuth(http.HandlerFunc(h.handleDelete)))
}

func (h *TransactionsHandler) handleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r)
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "invalid or expired token")
		return
	}
	transactions, err := h.store.ListTransactions(r.Context(), userID)
	if err != nil {
		slog.Error("list transactions", "error", err, "user_id", userID)
		respond.Error(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}
	respond.JSON(w, http.StatusOK, transactions)
}

func (h *TransactionsHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r)
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "invalid or expired token")
		return
	}
	req, err := decodeTransaction(r)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	created, err := h.store.CreateTransaction(r.Context(), userID, req.Model())
	if err != nil {
		slog.Error("create transaction", "error", err, "user_id", userID)
		respond.Error(w, http.StatusInternalServerError, "failed to create transaction")
		return
	}
	respond.JSON(w, http.StatusOK, created)
}

func (h *TransactionsHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r)
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "invalid or expired token")
		return
	}
	txID, err := pathID(r)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid transaction id")
		return
	}
	req, err := decodeTransaction(r)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	updated, err := h.store.UpdateTransaction(r.Context(), userID, txID, req.Model())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "transaction not found")
			return
		}
		slog.Error("update transaction", "error", err, "user_id", userID, "transaction_id", txID)
		respond.Error(w, http.StatusInternalServerError, "failed to update transaction")
		return
	}
	respond.JSON(w, http.StatusOK, updated)
}

func (h *TransactionsHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r)
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "invalid or expired token")
		return
	}
	txID, err := pathID(r)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid transaction id")
		return
	}
	if err := h.store.DeleteTransaction(r.Context(), userID, txID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "transaction not found")
			return
		}
		slog.Error("delete transaction", "error", err, "user_id", userID, "transaction_id", txID)
		respond.Error(w, http.StatusInternalServerError, "failed to delete transaction")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"message": "transaction deleted"})
}

func decodeTransaction(r *http.Request) (dto.TransactionRequest, error) {
	var req dto.TransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return dto.TransactionRequest{}, errors.New("invalid JSON payload")
	}
	if strings.TrimSpace(req.Category) == "" || strings.TrimSpace(req.Date) == "" {
		return dto.TransactionRequest{}, errors.New("category and date are required")
	}
	return req, nil
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}
