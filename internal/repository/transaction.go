package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"whatsapp-catat-hutang/internal/model"
)

// TransactionRepository handles database operations for persisted
// debt/receivable records
type TransactionRepository struct {
	db *sql.DB
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(dbPath string) (*TransactionRepository, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Create table if not exists
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS transactions (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL,
			direction TEXT NOT NULL,
			counterparty_name TEXT NOT NULL,
			item_description TEXT NOT NULL DEFAULT '',
			amount INTEGER NOT NULL,
			counterparty_phone TEXT NOT NULL DEFAULT 'none',
			created_at DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_owner_id ON transactions(owner_id);
		CREATE INDEX IF NOT EXISTS idx_counterparty_name ON transactions(counterparty_name);
		CREATE INDEX IF NOT EXISTS idx_created_at ON transactions(created_at);
	`)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &TransactionRepository{db: db}, nil
}

// Close closes database connection
func (r *TransactionRepository) Close() error {
	return r.db.Close()
}

// Save persists a completed transaction. Incomplete records are rejected
// before touching the database.
func (r *TransactionRepository) Save(ctx context.Context, trx *model.Transaction) error {
	if !trx.Complete() {
		return fmt.Errorf("refusing to persist incomplete transaction for owner %s", trx.OwnerID)
	}

	if trx.ID == "" {
		trx.ID = uuid.NewString()
	}
	if trx.CreatedAt.IsZero() {
		trx.CreatedAt = time.Now()
	}
	if trx.CounterpartyPhone == "" {
		trx.CounterpartyPhone = model.PhoneNone
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, owner_id, direction, counterparty_name, item_description, amount, counterparty_phone, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, trx.ID, trx.OwnerID, string(trx.Direction), trx.CounterpartyName, trx.ItemDescription, trx.Amount, trx.CounterpartyPhone, trx.CreatedAt)
	return err
}

// ListByOwner returns the most recent transactions recorded by an owner
func (r *TransactionRepository) ListByOwner(ctx context.Context, ownerID string, limit int) ([]model.Transaction, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, direction, counterparty_name, item_description, amount, counterparty_phone, created_at
		FROM transactions
		WHERE owner_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, ownerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transactions := make([]model.Transaction, 0, limit)
	for rows.Next() {
		var trx model.Transaction
		var direction string
		err := rows.Scan(
			&trx.ID,
			&trx.OwnerID,
			&direction,
			&trx.CounterpartyName,
			&trx.ItemDescription,
			&trx.Amount,
			&trx.CounterpartyPhone,
			&trx.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		trx.Direction = model.Direction(direction)
		transactions = append(transactions, trx)
	}
	return transactions, rows.Err()
}

// LookupCounterparty returns the most recent record an owner created for
// the given counterparty name, or nil if none exists
func (r *TransactionRepository) LookupCounterparty(ctx context.Context, ownerID, name string) (*model.Transaction, error) {
	var trx model.Transaction
	var direction string
	err := r.db.QueryRowContext(ctx, `
		SELECT id, owner_id, direction, counterparty_name, item_description, amount, counterparty_phone, created_at
		FROM transactions
		WHERE owner_id = ? AND counterparty_name = ? COLLATE NOCASE
		ORDER BY created_at DESC
		LIMIT 1
	`, ownerID, name).Scan(
		&trx.ID,
		&trx.OwnerID,
		&direction,
		&trx.CounterpartyName,
		&trx.ItemDescription,
		&trx.Amount,
		&trx.CounterpartyPhone,
		&trx.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	trx.Direction = model.Direction(direction)
	return &trx, nil
}

// Count returns total persisted transactions
func (r *TransactionRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&count)
	return count, err
}
