package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whatsapp-catat-hutang/internal/model"
)

func newTestRepo(t *testing.T) *TransactionRepository {
	t.Helper()
	repo, err := NewTransactionRepository(filepath.Join(t.TempDir(), "transactions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testTransaction(owner, counterparty string) *model.Transaction {
	return &model.Transaction{
		OwnerID:           owner,
		Direction:         model.DirectionDebt,
		CounterpartyName:  counterparty,
		ItemDescription:   "pulsa",
		Amount:            50_000,
		CounterpartyPhone: "+6281234567890",
	}
}

func TestRepository_SaveAndList(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	trx := testTransaction("chat-1", "Budi")
	require.NoError(t, repo.Save(ctx, trx))
	assert.NotEmpty(t, trx.ID, "save assigns an id")
	assert.False(t, trx.CreatedAt.IsZero())

	listed, err := repo.ListByOwner(ctx, "chat-1", 10)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "Budi", listed[0].CounterpartyName)
	assert.Equal(t, model.DirectionDebt, listed[0].Direction)
	assert.Equal(t, int64(50_000), listed[0].Amount)

	other, err := repo.ListByOwner(ctx, "chat-2", 10)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestRepository_RejectsIncomplete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	missingAmount := testTransaction("chat-1", "Budi")
	missingAmount.Amount = 0
	assert.Error(t, repo.Save(ctx, missingAmount))

	missingName := testTransaction("chat-1", "")
	assert.Error(t, repo.Save(ctx, missingName))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRepository_LookupCounterparty(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	older := testTransaction("chat-1", "Budi")
	older.CreatedAt = time.Now().Add(-time.Hour)
	older.CounterpartyPhone = "+6281111111111"
	require.NoError(t, repo.Save(ctx, older))

	newer := testTransaction("chat-1", "Budi")
	require.NoError(t, repo.Save(ctx, newer))

	found, err := repo.LookupCounterparty(ctx, "chat-1", "budi")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "+6281234567890", found.CounterpartyPhone, "most recent record wins, case-insensitive match")

	missing, err := repo.LookupCounterparty(ctx, "chat-1", "Sari")
	require.NoError(t, err)
	assert.Nil(t, missing)

	otherOwner, err := repo.LookupCounterparty(ctx, "chat-2", "Budi")
	require.NoError(t, err)
	assert.Nil(t, otherOwner)
}

func TestRepository_DefaultsPhoneToNone(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	trx := testTransaction("chat-1", "Budi")
	trx.CounterpartyPhone = ""
	require.NoError(t, repo.Save(ctx, trx))

	listed, err := repo.ListByOwner(ctx, "chat-1", 1)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, model.PhoneNone, listed[0].CounterpartyPhone)
}
