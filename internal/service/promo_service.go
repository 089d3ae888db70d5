package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/digkill/futurepro/internal/models"
	"github.com/digkill/futurepro/internal/repository"
)

type PromoService struct {
	promos *repository.PromoRepository
}

func NewPromoService(promos *repository.PromoRepository) *PromoService {
	return &PromoService{promos: promos}
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Redeem grants the promo's credits to the account, once per account and up to max_uses overall.
func (s *PromoService) Redeem(ctx context.Context, accountID int64, code string) (*models.PromoCode, error) {
	code = normalizeCode(code)
	if code == "" {
		return nil, invalid("code_required")
	}
	promo, err := s.promos.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("get promo: %w", err)
	}
	if promo == nil {
		return nil, ErrPromoInvalid
	}

	tx, err := s.promos.DB().BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `SELECT 1 FROM promo_redemptions WHERE account_id = ? AND promo_code_id = ?`, accountID, promo.ID)
	var dummy int
	if err := row.Scan(&dummy); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("check redemption: %w", err)
		}
	} else {
		return nil, ErrPromoAlreadyRedeemed
	}

	// guarded increment stands in for a row lock, which sqlite lacks
	res, err := tx.ExecContext(ctx, `UPDATE promo_codes SET uses = uses + 1 WHERE id = ? AND uses < max_uses`, promo.ID)
	if err != nil {
		return nil, fmt.Errorf("increment promo uses: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("increment promo uses: %w", err)
	}
	if affected == 0 {
		return nil, ErrPromoExhausted
	}

	now := time.Now().Unix()
	if _, err := tx.ExecContext(ctx, `INSERT INTO promo_redemptions (account_id, promo_code_id, created_at) VALUES (?, ?, ?)`, accountID, promo.ID, now); err != nil {
		return nil, fmt.Errorf("insert redemption: %w", err)
	}
	res, err = tx.ExecContext(ctx, `UPDATE accounts SET credits = credits + ?, updated_at = ? WHERE id = ?`, promo.Credits, now, accountID)
	if err != nil {
		return nil, fmt.Errorf("add promo credits: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return nil, ErrAccountNotFound
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit promo tx: %w", err)
	}
	promo.Uses++
	return promo, nil
}

func (s *PromoService) Get(ctx context.Context, id int64) (*models.PromoCode, error) {
	promo, err := s.promos.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if promo == nil {
		return nil, ErrPromoInvalid
	}
	return promo, nil
}

func (s *PromoService) List(ctx context.Context) ([]models.PromoCode, error) {
	return s.promos.List(ctx)
}

func (s *PromoService) Create(ctx context.Context, code string, credits, maxUses int) (*models.PromoCode, error) {
	code = normalizeCode(code)
	if err := validatePromo(code, credits, maxUses); err != nil {
		return nil, err
	}
	promo, err := s.promos.Create(ctx, code, credits, maxUses)
	if errors.Is(err, repository.ErrConflict) {
		return nil, ErrPromoCodeTaken
	}
	return promo, err
}

func (s *PromoService) Update(ctx context.Context, promo *models.PromoCode) (*models.PromoCode, error) {
	if _, err := s.Get(ctx, promo.ID); err != nil {
		return nil, err
	}
	promo.Code = normalizeCode(promo.Code)
	if err := validatePromo(promo.Code, promo.Credits, promo.MaxUses); err != nil {
		return nil, err
	}
	if promo.Uses < 0 {
		return nil, invalid("invalid_uses")
	}
	updated, err := s.promos.Update(ctx, promo)
	if errors.Is(err, repository.ErrConflict) {
		return nil, ErrPromoCodeTaken
	}
	return updated, err
}

func (s *PromoService) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.promos.Delete(ctx, id)
}

func validatePromo(code string, credits, maxUses int) error {
	switch {
	case code == "":
		return invalid("code_required")
	case credits <= 0:
		return invalid("invalid_credits")
	case maxUses <= 0:
		return invalid("invalid_max_uses")
	}
	return nil
}
