package service

import (
	"context"
	"strings"

	"github.com/digkill/futurepro/internal/models"
	"github.com/digkill/futurepro/internal/repository"
)

type PackService struct {
	packs *repository.PackRepository
}

func NewPackService(packs *repository.PackRepository) *PackService {
	return &PackService{packs: packs}
}

func (s *PackService) ListActive(ctx context.Context) ([]models.CreditPack, error) {
	return s.packs.List(ctx, true)
}

func (s *PackService) ListAll(ctx context.Context) ([]models.CreditPack, error) {
	return s.packs.List(ctx, false)
}

func (s *PackService) Get(ctx context.Context, id int64) (*models.CreditPack, error) {
	pack, err := s.packs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if pack == nil {
		return nil, ErrPackNotFound
	}
	return pack, nil
}

// ByStripePrice returns nil when no pack is bound to the price id.
func (s *PackService) ByStripePrice(ctx context.Context, priceID string) (*models.CreditPack, error) {
	if priceID == "" {
		return nil, nil
	}
	return s.packs.GetByStripePrice(ctx, priceID)
}

func (s *PackService) Create(ctx context.Context, pack *models.CreditPack) (*models.CreditPack, error) {
	if err := validatePack(pack); err != nil {
		return nil, err
	}
	return s.packs.Create(ctx, pack)
}

func (s *PackService) Update(ctx context.Context, pack *models.CreditPack) (*models.CreditPack, error) {
	if _, err := s.Get(ctx, pack.ID); err != nil {
		return nil, err
	}
	if err := validatePack(pack); err != nil {
		return nil, err
	}
	return s.packs.Update(ctx, pack)
}

func (s *PackService) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.packs.Delete(ctx, id)
}

func validatePack(pack *models.CreditPack) error {
	pack.Title = strings.TrimSpace(pack.Title)
	pack.Currency = strings.ToUpper(strings.TrimSpace(pack.Currency))
	switch {
	case pack.Title == "":
		return invalid("title_required")
	case len(pack.Currency) != 3:
		return invalid("invalid_currency")
	case pack.Credits <= 0:
		return invalid("invalid_credits")
	case pack.PriceMinorUnits <= 0:
		return invalid("invalid_price")
	}
	return nil
}
