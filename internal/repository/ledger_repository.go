package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/digkill/futurepro/internal/models"
)

type LedgerRepository struct {
	db *sql.DB
}

func NewLedgerRepository(db *sql.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Append records a debit. Entries are never updated or deleted.
func (r *LedgerRepository) Append(ctx context.Context, entry *models.LedgerEntry) error {
	const query = `
INSERT INTO ledger_entries (account_id, amount, reason, metadata, created_at)
VALUES (?, ?, ?, ?, ?)`
	meta, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("marshal ledger metadata: %w", err)
	}
	if entry.Metadata == nil {
		meta = []byte("{}")
	}
	now := unixNow()
	res, err := r.db.ExecContext(ctx, query, entry.AccountID, entry.Amount, entry.Reason, string(meta), now)
	if err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	entry.ID = id
	entry.CreatedAt = fromUnix(now)
	return nil
}

func (r *LedgerRepository) ListByAccount(ctx context.Context, accountID int64, limit int) ([]models.LedgerEntry, error) {
	const query = `
SELECT id, account_id, amount, reason, metadata, created_at
FROM ledger_entries WHERE account_id = ?
ORDER BY id DESC
LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	defer rows.Close()

	entries := make([]models.LedgerEntry, 0)
	for rows.Next() {
		var e models.LedgerEntry
		var meta string
		var created int64
		if err := rows.Scan(&e.ID, &e.AccountID, &e.Amount, &e.Reason, &meta, &created); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		if err := json.Unmarshal([]byte(meta), &e.Metadata); err != nil {
			return nil, fmt.Errorf("decode ledger metadata: %w", err)
		}
		e.CreatedAt = fromUnix(created)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
