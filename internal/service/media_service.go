package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/digkill/futurepro/internal/config"
	"github.com/digkill/futurepro/internal/models"
	"github.com/digkill/futurepro/internal/pricing"
	"github.com/digkill/futurepro/internal/repository"
)

type MediaService struct {
	cfg      config.Config
	log      *slog.Logger
	personas *repository.PersonaRepository
	media    *repository.MediaRepository
	chat     *repository.ChatRepository
	ledger   *LedgerService
	now      func() time.Time
}

// OfferRequest describes a media offer a persona makes in chat.
type OfferRequest struct {
	models.MediaSpec
	AssetURL string
	Caption  string
	Price    *int
}

// MediaView is an offer as seen by one account.
type MediaView struct {
	Offer    models.MediaOffer `json:"media"`
	Unlocked bool              `json:"unlocked"`
}

type UnlockResult struct {
	Offer           *models.MediaOffer
	Access          *models.MediaAccess
	AlreadyUnlocked bool
}

func NewMediaService(cfg config.Config, log *slog.Logger, personas *repository.PersonaRepository, media *repository.MediaRepository, chat *repository.ChatRepository, ledger *LedgerService) *MediaService {
	return &MediaService{
		cfg:      cfg,
		log:      log,
		personas: personas,
		media:    media,
		chat:     chat,
		ledger:   ledger,
		now:      time.Now,
	}
}

// CreateOffer prices a locked asset with the persona's base prices and posts it to the chat.
func (s *MediaService) CreateOffer(ctx context.Context, account *models.Account, personaSlug string, req OfferRequest) (*models.MediaOffer, error) {
	persona, err := s.personas.GetBySlug(ctx, personaSlug)
	if err != nil {
		return nil, err
	}
	if persona == nil {
		return nil, ErrPersonaNotFound
	}

	spec, err := pricing.Normalize(req.MediaSpec)
	if err != nil {
		return nil, err
	}
	if err := pricing.Check(account.EffectiveTier(s.now()), spec); err != nil {
		return nil, err
	}

	base := persona.BasePrices.WithDefaults(defaultBasePrices(s.cfg))
	offer := &models.MediaOffer{
		AccountID:    account.ID,
		PersonaID:    persona.ID,
		Kind:         spec.Kind,
		Quality:      spec.Quality,
		Duration:     spec.Duration,
		PriceCredits: pricing.Quote(spec, base, req.Price, s.cfg.PromoPriceOverrideEnabled),
		AssetURL:     req.AssetURL,
	}
	if err := s.media.CreateOffer(ctx, offer); err != nil {
		return nil, err
	}

	caption := req.Caption
	if caption == "" {
		caption = fmt.Sprintf("I made a new %s for you (%d credits)", spec.Kind, offer.PriceCredits)
	}
	offerID := offer.ID
	msg := &models.ChatMessage{
		AccountID:    account.ID,
		PersonaID:    persona.ID,
		Role:         models.RolePersona,
		Body:         caption,
		MediaOfferID: &offerID,
	}
	if err := s.chat.Create(ctx, msg); err != nil {
		return nil, err
	}
	return offer, nil
}

func (s *MediaService) getOwned(ctx context.Context, accountID, mediaID int64) (*models.MediaOffer, error) {
	offer, err := s.media.GetOffer(ctx, mediaID)
	if err != nil {
		return nil, err
	}
	if offer == nil || offer.AccountID != accountID {
		return nil, ErrMediaNotFound
	}
	return offer, nil
}

// Unlock charges the offer price and grants permanent access.
//
// A repeat call that sees the existing grant returns AlreadyUnlocked without charging.
// Nothing stops two concurrent calls from both passing that check; each would charge
// and insert its own access row.
func (s *MediaService) Unlock(ctx context.Context, accountID, mediaID int64) (*UnlockResult, error) {
	offer, err := s.getOwned(ctx, accountID, mediaID)
	if err != nil {
		return nil, err
	}

	has, err := s.media.HasAccess(ctx, accountID, mediaID)
	if err != nil {
		return nil, err
	}
	if has {
		return &UnlockResult{Offer: offer, AlreadyUnlocked: true}, nil
	}

	meta := map[string]string{
		"media_id": strconv.FormatInt(offer.ID, 10),
		"kind":     string(offer.Kind),
		"quality":  offer.Quality,
	}
	if _, err := s.ledger.Charge(ctx, accountID, offer.PriceCredits, ReasonUnlockMedia, meta); err != nil {
		return nil, err
	}

	access, err := s.media.GrantAccess(ctx, accountID, mediaID)
	if err != nil {
		s.log.Error("grant media access after charge", "account_id", accountID, "media_id", mediaID, "err", err)
		return nil, err
	}
	return &UnlockResult{Offer: offer, Access: access}, nil
}

// Get returns the offer, hiding the asset URL until the account has unlocked it.
func (s *MediaService) Get(ctx context.Context, accountID, mediaID int64) (*MediaView, error) {
	offer, err := s.getOwned(ctx, accountID, mediaID)
	if err != nil {
		return nil, err
	}
	has, err := s.media.HasAccess(ctx, accountID, mediaID)
	if err != nil {
		return nil, err
	}
	view := &MediaView{Offer: *offer, Unlocked: has}
	if !has {
		view.Offer.AssetURL = ""
	}
	return view, nil
}
