package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/digkill/futurepro/internal/models"
)

type PaymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// PaymentGrant is what a recorded payment gives the paying account.
type PaymentGrant struct {
	Tier         models.Tier
	SubExpiresAt int64
	Credits      int
}

const insertPayment = `
INSERT INTO payments (account_id, pack_id, tier, provider, provider_charge_id, currency, amount, status, raw_payload, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func insertPaymentRow(ctx context.Context, tx *sql.Tx, payment *models.Payment) error {
	var packID sql.NullInt64
	if payment.PackID != nil {
		packID = sql.NullInt64{Int64: *payment.PackID, Valid: true}
	}
	now := unixNow()
	res, err := tx.ExecContext(ctx, insertPayment, payment.AccountID, packID, payment.Tier, payment.Provider, payment.ProviderCharge, payment.Currency, payment.Amount, payment.Status, payment.RawPayload, now)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert payment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	payment.ID = id
	payment.CreatedAt = fromUnix(now)
	return nil
}

// Apply records payment and applies grant to its account in one transaction.
// A charge that was already applied returns ErrConflict and changes nothing; a failed
// grant leaves no payment row, so a redelivered event applies it again.
func (r *PaymentRepository) Apply(ctx context.Context, payment *models.Payment, grant PaymentGrant) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := insertPaymentRow(ctx, tx, payment); err != nil {
		return err
	}
	now := unixNow()
	if grant.Tier != "" {
		const query = `UPDATE accounts SET sub_tier = ?, sub_expires_at = ?, updated_at = ? WHERE id = ?`
		if _, err := tx.ExecContext(ctx, query, grant.Tier, grant.SubExpiresAt, now, payment.AccountID); err != nil {
			return fmt.Errorf("set subscription: %w", err)
		}
	}
	if grant.Credits > 0 {
		const query = `UPDATE accounts SET credits = credits + ?, updated_at = ? WHERE id = ?`
		if _, err := tx.ExecContext(ctx, query, grant.Credits, now, payment.AccountID); err != nil {
			return fmt.Errorf("grant credits: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit payment tx: %w", err)
	}
	return nil
}

func (r *PaymentRepository) FindByProviderCharge(ctx context.Context, provider, chargeID string) (*models.Payment, error) {
	const query = `
SELECT id, account_id, pack_id, tier, provider, provider_charge_id, currency, amount, status, raw_payload, created_at
FROM payments WHERE provider = ? AND provider_charge_id = ? LIMIT 1`
	row := r.db.QueryRowContext(ctx, query, provider, chargeID)
	var p models.Payment
	var packID sql.NullInt64
	var tier string
	var created int64
	if err := row.Scan(&p.ID, &p.AccountID, &packID, &tier, &p.Provider, &p.ProviderCharge, &p.Currency, &p.Amount, &p.Status, &p.RawPayload, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan payment: %w", err)
	}
	if packID.Valid {
		p.PackID = &packID.Int64
	}
	p.Tier = models.Tier(tier)
	p.CreatedAt = fromUnix(created)
	return &p, nil
}
