package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/digkill/futurepro/internal/models"
)

type PackRepository struct {
	db *sql.DB
}

func NewPackRepository(db *sql.DB) *PackRepository {
	return &PackRepository{db: db}
}

const packColumns = `id, title, description, currency, price_minor_units, credits, stripe_price_id, is_active, created_at, updated_at`

func scanPack(row rowScanner) (*models.CreditPack, error) {
	var p models.CreditPack
	var active int
	var created, updated int64
	if err := row.Scan(&p.ID, &p.Title, &p.Description, &p.Currency, &p.PriceMinorUnits, &p.Credits, &p.StripePriceID, &active, &created, &updated); err != nil {
		return nil, err
	}
	p.IsActive = active != 0
	p.CreatedAt = fromUnix(created)
	p.UpdatedAt = fromUnix(updated)
	return &p, nil
}

func (r *PackRepository) List(ctx context.Context, activeOnly bool) ([]models.CreditPack, error) {
	query := `SELECT ` + packColumns + ` FROM credit_packs`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list packs: %w", err)
	}
	defer rows.Close()

	packs := make([]models.CreditPack, 0)
	for rows.Next() {
		pack, err := scanPack(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pack: %w", err)
		}
		packs = append(packs, *pack)
	}
	return packs, rows.Err()
}

func (r *PackRepository) GetByID(ctx context.Context, id int64) (*models.CreditPack, error) {
	query := `SELECT ` + packColumns + ` FROM credit_packs WHERE id = ?`
	pack, err := scanPack(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get pack: %w", err)
	}
	return pack, nil
}

func (r *PackRepository) GetByStripePrice(ctx context.Context, priceID string) (*models.CreditPack, error) {
	query := `SELECT ` + packColumns + ` FROM credit_packs WHERE stripe_price_id = ? AND stripe_price_id <> '' LIMIT 1`
	pack, err := scanPack(r.db.QueryRowContext(ctx, query, priceID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get pack by price: %w", err)
	}
	return pack, nil
}

func (r *PackRepository) Create(ctx context.Context, pack *models.CreditPack) (*models.CreditPack, error) {
	const query = `
INSERT INTO credit_packs (title, description, currency, price_minor_units, credits, stripe_price_id, is_active, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := unixNow()
	res, err := r.db.ExecContext(ctx, query, pack.Title, pack.Description, pack.Currency, pack.PriceMinorUnits, pack.Credits, pack.StripePriceID, boolToInt(pack.IsActive), now, now)
	if err != nil {
		return nil, fmt.Errorf("create pack: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("pack last insert id: %w", err)
	}
	return r.GetByID(ctx, id)
}

func (r *PackRepository) Update(ctx context.Context, pack *models.CreditPack) (*models.CreditPack, error) {
	const query = `
UPDATE credit_packs
SET title = ?, description = ?, currency = ?, price_minor_units = ?, credits = ?, stripe_price_id = ?, is_active = ?, updated_at = ?
WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, pack.Title, pack.Description, pack.Currency, pack.PriceMinorUnits, pack.Credits, pack.StripePriceID, boolToInt(pack.IsActive), unixNow(), pack.ID); err != nil {
		return nil, fmt.Errorf("update pack: %w", err)
	}
	return r.GetByID(ctx, pack.ID)
}

func (r *PackRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM credit_packs WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete pack: %w", err)
	}
	return nil
}
