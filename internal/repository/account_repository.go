package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/digkill/futurepro/internal/models"
)

type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `id, email, credits, sub_tier, sub_expires_at, created_at, updated_at`

func scanAccount(row rowScanner) (*models.Account, error) {
	var a models.Account
	var tier string
	var created, updated int64
	if err := row.Scan(&a.ID, &a.Email, &a.Credits, &tier, &a.SubExpiresAt, &created, &updated); err != nil {
		return nil, err
	}
	a.SubTier = models.Tier(tier)
	a.CreatedAt = fromUnix(created)
	a.UpdatedAt = fromUnix(updated)
	return &a, nil
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = ?`
	a, err := scanAccount(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	return a, nil
}

func (r *AccountRepository) FindByID(ctx context.Context, id int64) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = ?`
	a, err := scanAccount(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

func (r *AccountRepository) Create(ctx context.Context, email string, credits int) (*models.Account, error) {
	const query = `
INSERT INTO accounts (email, credits, sub_tier, sub_expires_at, created_at, updated_at)
VALUES (?, ?, ?, 0, ?, ?)`
	now := unixNow()
	res, err := r.db.ExecContext(ctx, query, email, credits, models.TierBasic, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("insert account: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return &models.Account{
		ID:        id,
		Email:     email,
		Credits:   credits,
		SubTier:   models.TierBasic,
		CreatedAt: fromUnix(now),
		UpdatedAt: fromUnix(now),
	}, nil
}

// Ensure looks the account up by email and inserts it with startingCredits on first sight.
func (r *AccountRepository) Ensure(ctx context.Context, email string, startingCredits int) (*models.Account, bool, error) {
	account, err := r.FindByEmail(ctx, email)
	if err != nil {
		return nil, false, err
	}
	if account != nil {
		return account, false, nil
	}
	created, err := r.Create(ctx, email, startingCredits)
	if errors.Is(err, ErrConflict) {
		// lost an insert race with a concurrent login
		account, err = r.FindByEmail(ctx, email)
		if err != nil {
			return nil, false, err
		}
		return account, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return created, true, nil
}

// DebitCredits decrements the balance when it covers amount. It reports false when it does not.
func (r *AccountRepository) DebitCredits(ctx context.Context, accountID int64, amount int) (bool, error) {
	const query = `
UPDATE accounts SET credits = credits - ?, updated_at = ?
WHERE id = ? AND credits >= ?`
	res, err := r.db.ExecContext(ctx, query, amount, unixNow(), accountID, amount)
	if err != nil {
		return false, fmt.Errorf("debit credits: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("debit rows affected: %w", err)
	}
	return affected > 0, nil
}

func (r *AccountRepository) GrantCredits(ctx context.Context, accountID int64, amount int) error {
	const query = `UPDATE accounts SET credits = credits + ?, updated_at = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, amount, unixNow(), accountID); err != nil {
		return fmt.Errorf("grant credits: %w", err)
	}
	return nil
}

func (r *AccountRepository) SetSubscription(ctx context.Context, accountID int64, tier models.Tier, expiresAt int64) error {
	const query = `UPDATE accounts SET sub_tier = ?, sub_expires_at = ?, updated_at = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, tier, expiresAt, unixNow(), accountID); err != nil {
		return fmt.Errorf("set subscription: %w", err)
	}
	return nil
}
