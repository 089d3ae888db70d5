package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/digkill/futurepro/internal/config"
	"github.com/digkill/futurepro/internal/metrics"
	"github.com/digkill/futurepro/internal/models"
	"github.com/digkill/futurepro/internal/repository"
)

const ProviderStripe = "stripe"

type PaymentService struct {
	cfg      config.Config
	log      *slog.Logger
	payments *repository.PaymentRepository
	accounts *AccountService
	packs    *PackService
}

// checkoutSession holds the subset of a Stripe checkout session the webhook reads.
type checkoutSession struct {
	ID                string            `json:"id"`
	ClientReferenceID string            `json:"client_reference_id"`
	Metadata          map[string]string `json:"metadata"`
	AmountTotal       int               `json:"amount_total"`
	Currency          string            `json:"currency"`
	PaymentStatus     string            `json:"payment_status"`
	LineItems         *struct {
		Data []struct {
			Price *struct {
				ID string `json:"id"`
			} `json:"price"`
		} `json:"data"`
	} `json:"line_items"`
}

func (c checkoutSession) priceIDs() []string {
	var ids []string
	if c.LineItems == nil {
		return ids
	}
	for _, item := range c.LineItems.Data {
		if item.Price != nil && item.Price.ID != "" {
			ids = append(ids, item.Price.ID)
		}
	}
	return ids
}

func NewPaymentService(cfg config.Config, log *slog.Logger, payments *repository.PaymentRepository, accounts *AccountService, packs *PackService) *PaymentService {
	return &PaymentService{
		cfg:      cfg,
		log:      log,
		payments: payments,
		accounts: accounts,
		packs:    packs,
	}
}

// HandleStripeWebhook verifies the signature and applies checkout.session.completed events.
// Other event types are acknowledged and ignored.
func (s *PaymentService) HandleStripeWebhook(ctx context.Context, payload []byte, sigHeader string) error {
	if strings.TrimSpace(s.cfg.StripeWebhookSecret) == "" || strings.TrimSpace(sigHeader) == "" {
		metrics.WebhookEvents.WithLabelValues("unknown", "invalid_signature").Inc()
		return ErrInvalidSignature
	}
	event, err := webhook.ConstructEventWithOptions(payload, sigHeader, s.cfg.StripeWebhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		metrics.WebhookEvents.WithLabelValues("unknown", "invalid_signature").Inc()
		return ErrInvalidSignature
	}

	eventType := string(event.Type)
	result, err := s.handleEvent(ctx, &event)
	if err != nil {
		metrics.WebhookEvents.WithLabelValues(eventType, "error").Inc()
		return err
	}
	metrics.WebhookEvents.WithLabelValues(eventType, result).Inc()
	return nil
}

func (s *PaymentService) handleEvent(ctx context.Context, event *stripe.Event) (string, error) {
	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		var session checkoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return "", fmt.Errorf("decode checkout.session: %w", err)
		}
		return s.applyCheckout(ctx, session, event.Data.Raw)
	default:
		s.log.Info("stripe webhook ignored", "type", event.Type, "event_id", event.ID)
		return "ignored", nil
	}
}

func (s *PaymentService) applyCheckout(ctx context.Context, session checkoutSession, raw []byte) (string, error) {
	if session.ID == "" {
		return "", invalid("missing_session_id")
	}
	accountID, err := strconv.ParseInt(strings.TrimSpace(session.ClientReferenceID), 10, 64)
	if err != nil || accountID <= 0 {
		return "", invalid("invalid_client_reference_id")
	}
	if session.PaymentStatus != "" && session.PaymentStatus != "paid" && session.PaymentStatus != "no_payment_required" {
		s.log.Info("checkout not paid yet", "session_id", session.ID, "payment_status", session.PaymentStatus)
		return "unpaid", nil
	}

	tier, pack, err := s.resolvePurchase(ctx, session)
	if err != nil {
		return "", err
	}
	if tier == "" && pack == nil {
		s.log.Warn("checkout without tier or pack", "session_id", session.ID)
		return "unrecognized", nil
	}

	record := &models.Payment{
		AccountID:      accountID,
		Tier:           tier,
		Provider:       ProviderStripe,
		ProviderCharge: session.ID,
		Currency:       strings.ToUpper(session.Currency),
		Amount:         session.AmountTotal,
		Status:         "paid",
		RawPayload:     string(raw),
	}
	if pack != nil {
		packID := pack.ID
		record.PackID = &packID
	}
	if _, err := s.accounts.Get(ctx, accountID); err != nil {
		return "", err
	}

	grant := repository.PaymentGrant{Tier: tier}
	if tier != "" {
		grant.SubExpiresAt = s.accounts.subscriptionExpiry()
	}
	if pack != nil {
		grant.Credits = pack.Credits
	}
	// the payment row commits together with the grant, so a replay after a failed grant applies it again
	if err := s.payments.Apply(ctx, record, grant); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			s.log.Info("stripe checkout already applied", "session_id", session.ID)
			return "duplicate", nil
		}
		return "", fmt.Errorf("apply payment: %w", err)
	}
	if tier != "" {
		s.accounts.subscriptionActivated(ctx, accountID, tier, grant.SubExpiresAt)
	}
	s.log.Info("stripe checkout applied", "session_id", session.ID, "account_id", accountID, "tier", tier, "pack", record.PackID)
	return "applied", nil
}

// resolvePurchase reads the purchased tier or pack from metadata, then from line item prices.
func (s *PaymentService) resolvePurchase(ctx context.Context, session checkoutSession) (models.Tier, *models.CreditPack, error) {
	var tier models.Tier
	if raw := session.Metadata["tier"]; raw != "" {
		parsed, ok := models.ParseTier(raw)
		if !ok || parsed == models.TierBasic {
			return "", nil, invalid("invalid_tier")
		}
		tier = parsed
	}

	var pack *models.CreditPack
	if raw := session.Metadata["pack_id"]; raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return "", nil, invalid("invalid_pack_id")
		}
		p, err := s.packs.Get(ctx, id)
		if err != nil {
			return "", nil, err
		}
		pack = p
	}

	for _, priceID := range session.priceIDs() {
		if tier == "" {
			switch priceID {
			case s.cfg.StripePricePlus:
				tier = models.TierPlus
				continue
			case s.cfg.StripePricePro:
				tier = models.TierPro
				continue
			}
		}
		if pack == nil {
			p, err := s.packs.ByStripePrice(ctx, priceID)
			if err != nil {
				return "", nil, err
			}
			pack = p
		}
	}
	return tier, pack, nil
}
