package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"whatsapp-catat-hutang/internal/model"
	"whatsapp-catat-hutang/internal/repository"
	"whatsapp-catat-hutang/pkg/logger"
)

// TransactionsHandler serves recorded debt/receivable transactions
type TransactionsHandler struct {
	repo   *repository.TransactionRepository
	logger *logger.Logger
}

// NewTransactionsHandler creates a new transactions handler
func NewTransactionsHandler(repo *repository.TransactionRepository, log *logger.Logger) *TransactionsHandler {
	return &TransactionsHandler{
		repo:   repo,
		logger: log,
	}
}

// ListTransactions handles GET /api/v1/transactions?owner=<chat id>
func (h *TransactionsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	if owner == "" {
		h.sendErrorResponse(w, "ERR_MISSING_PARAMETER", "Parameter 'owner' is required", http.StatusBadRequest)
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 500 {
			h.sendErrorResponse(w, "ERR_INVALID_PARAMETER", "Parameter 'limit' must be 1-500", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	transactions, err := h.repo.ListByOwner(r.Context(), owner, limit)
	if err != nil {
		h.logger.WithChatID(owner).WithError(err).Error("Failed to list transactions")
		h.sendErrorResponse(w, "ERR_INTERNAL_SERVER", "Failed to retrieve transactions", http.StatusInternalServerError)
		return
	}

	h.logger.WithChatID(owner).Info("Transactions list retrieved", "total", len(transactions))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(model.APIResponse{
		Status:  "success",
		Message: "Transactions retrieved successfully",
		Data:    transactions,
	})
}

// sendErrorResponse sends error response
func (h *TransactionsHandler) sendErrorResponse(w http.ResponseWriter, code, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	json.NewEncoder(w).Encode(model.APIResponse{
		Status:  "error",
		Message: message,
		Error: &model.APIError{
			Code:    code,
			Message: message,
		},
	})
}
