package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/digkill/futurepro/internal/models"
)

type MediaRepository struct {
	db *sql.DB
}

func NewMediaRepository(db *sql.DB) *MediaRepository {
	return &MediaRepository{db: db}
}

func (r *MediaRepository) CreateOffer(ctx context.Context, offer *models.MediaOffer) error {
	const query = `
INSERT INTO media_offers (account_id, persona_id, kind, quality, duration, price_credits, asset_url, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	now := unixNow()
	res, err := r.db.ExecContext(ctx, query, offer.AccountID, offer.PersonaID, offer.Kind, offer.Quality, offer.Duration, offer.PriceCredits, offer.AssetURL, now)
	if err != nil {
		return fmt.Errorf("insert media offer: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	offer.ID = id
	offer.CreatedAt = fromUnix(now)
	return nil
}

func (r *MediaRepository) GetOffer(ctx context.Context, id int64) (*models.MediaOffer, error) {
	const query = `
SELECT id, account_id, persona_id, kind, quality, duration, price_credits, asset_url, created_at
FROM media_offers WHERE id = ?`
	var o models.MediaOffer
	var kind string
	var created int64
	err := r.db.QueryRowContext(ctx, query, id).Scan(&o.ID, &o.AccountID, &o.PersonaID, &kind, &o.Quality, &o.Duration, &o.PriceCredits, &o.AssetURL, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get media offer: %w", err)
	}
	o.Kind = models.MediaKind(kind)
	o.CreatedAt = fromUnix(created)
	return &o, nil
}

func (r *MediaRepository) HasAccess(ctx context.Context, accountID, mediaID int64) (bool, error) {
	const query = `SELECT COUNT(*) FROM media_access WHERE account_id = ? AND media_id = ?`
	var count int
	if err := r.db.QueryRowContext(ctx, query, accountID, mediaID).Scan(&count); err != nil {
		return false, fmt.Errorf("check media access: %w", err)
	}
	return count > 0, nil
}

// GrantAccess inserts an access row. There is no uniqueness constraint on (account, media).
func (r *MediaRepository) GrantAccess(ctx context.Context, accountID, mediaID int64) (*models.MediaAccess, error) {
	const query = `INSERT INTO media_access (account_id, media_id, created_at) VALUES (?, ?, ?)`
	now := unixNow()
	res, err := r.db.ExecContext(ctx, query, accountID, mediaID, now)
	if err != nil {
		return nil, fmt.Errorf("insert media access: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return &models.MediaAccess{ID: id, AccountID: accountID, MediaID: mediaID, CreatedAt: fromUnix(now)}, nil
}

func (r *MediaRepository) CountAccess(ctx context.Context, accountID, mediaID int64) (int, error) {
	const query = `SELECT COUNT(*) FROM media_access WHERE account_id = ? AND media_id = ?`
	var count int
	if err := r.db.QueryRowContext(ctx, query, accountID, mediaID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count media access: %w", err)
	}
	return count, nil
}
