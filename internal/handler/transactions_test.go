package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whatsapp-catat-hutang/internal/model"
	"whatsapp-catat-hutang/internal/repository"
	"whatsapp-catat-hutang/pkg/logger"
)

func newTransactionsHandler(t *testing.T) (*TransactionsHandler, *repository.TransactionRepository) {
	t.Helper()
	repo, err := repository.NewTransactionRepository(filepath.Join(t.TempDir(), "transactions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return NewTransactionsHandler(repo, logger.New("ERROR")), repo
}

func TestListTransactions_RequiresOwner(t *testing.T) {
	h, _ := newTransactionsHandler(t)

	rec := httptest.NewRecorder()
	h.ListTransactions(rec, httptest.NewRequest(http.MethodGet, "/api/v1/transactions", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp model.APIResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "ERR_MISSING_PARAMETER", resp.Error.Code)
}

func TestListTransactions_ReturnsOwnerRecords(t *testing.T) {
	h, repo := newTransactionsHandler(t)

	require.NoError(t, repo.Save(context.Background(), &model.Transaction{
		OwnerID:          "chat-1",
		Direction:        model.DirectionReceivable,
		CounterpartyName: "Warung Madura",
		ItemDescription:  "Voucher Wifi",
		Amount:           200_000,
	}))

	rec := httptest.NewRecorder()
	h.ListTransactions(rec, httptest.NewRequest(http.MethodGet, "/api/v1/transactions?owner=chat-1", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Status string              `json:"status"`
		Data   []model.Transaction `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "success", resp.Status)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "Warung Madura", resp.Data[0].CounterpartyName)
}

func TestListTransactions_InvalidLimit(t *testing.T) {
	h, _ := newTransactionsHandler(t)

	rec := httptest.NewRecorder()
	h.ListTransactions(rec, httptest.NewRequest(http.MethodGet, "/api/v1/transactions?owner=chat-1&limit=0", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
