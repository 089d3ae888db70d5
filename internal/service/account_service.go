package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/digkill/futurepro/internal/config"
	"github.com/digkill/futurepro/internal/models"
	"github.com/digkill/futurepro/internal/repository"
)

type AccountService struct {
	cfg      config.Config
	log      *slog.Logger
	accounts *repository.AccountRepository
	notifier Notifier
	now      func() time.Time
}

func NewAccountService(cfg config.Config, log *slog.Logger, accounts *repository.AccountRepository, notifier Notifier) *AccountService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &AccountService{cfg: cfg, log: log, accounts: accounts, notifier: notifier, now: time.Now}
}

// NormalizeEmail trims and lower-cases an email, validating only that it looks like one.
func NormalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", invalid("email_required")
	}
	if !strings.Contains(email, "@") {
		return "", invalid("invalid_email")
	}
	return email, nil
}

// Login finds the account for email, creating it with the starting balance on first sight.
func (s *AccountService) Login(ctx context.Context, rawEmail string) (*models.Account, bool, error) {
	email, err := NormalizeEmail(rawEmail)
	if err != nil {
		return nil, false, err
	}
	account, created, err := s.accounts.Ensure(ctx, email, s.cfg.StartingCredits)
	if err != nil {
		return nil, false, fmt.Errorf("ensure account: %w", err)
	}
	if created {
		s.log.Info("account created", "account_id", account.ID)
	}
	return account, created, nil
}

func (s *AccountService) Get(ctx context.Context, id int64) (*models.Account, error) {
	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	return account, nil
}

// EffectiveTier returns the tier used for quality gating right now.
func (s *AccountService) EffectiveTier(account *models.Account) models.Tier {
	return account.EffectiveTier(s.now())
}

// ActivateSubscription sets tier and an expiry SubscriptionDays from now.
func (s *AccountService) ActivateSubscription(ctx context.Context, accountID int64, tier models.Tier) (*models.Account, error) {
	parsed, ok := models.ParseTier(string(tier))
	if !ok {
		return nil, invalid("invalid_tier")
	}
	account, err := s.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}
	expiresAt := s.subscriptionExpiry()
	if err := s.accounts.SetSubscription(ctx, accountID, parsed, expiresAt); err != nil {
		return nil, err
	}
	account.SubTier = parsed
	account.SubExpiresAt = expiresAt
	s.subscriptionActivated(ctx, accountID, parsed, expiresAt)
	return account, nil
}

func (s *AccountService) subscriptionExpiry() int64 {
	days := s.cfg.SubscriptionDays
	if days <= 0 {
		days = 30
	}
	return s.now().Add(time.Duration(days) * 24 * time.Hour).Unix()
}

func (s *AccountService) subscriptionActivated(ctx context.Context, accountID int64, tier models.Tier, expiresAt int64) {
	s.log.Info("subscription activated", "account_id", accountID, "tier", tier, "expires_at", expiresAt)
	if err := s.notifier.Notify(ctx, fmt.Sprintf("Subscription activated: account %d -> %s", accountID, tier)); err != nil {
		s.log.Warn("notify subscription", "err", err)
	}
}

// GrantCredits adds credits to a balance (purchases, promos, admin adjustments).
func (s *AccountService) GrantCredits(ctx context.Context, accountID int64, amount int) (*models.Account, error) {
	if amount <= 0 {
		return nil, invalid("invalid_amount")
	}
	if _, err := s.Get(ctx, accountID); err != nil {
		return nil, err
	}
	if err := s.accounts.GrantCredits(ctx, accountID, amount); err != nil {
		return nil, err
	}
	return s.Get(ctx, accountID)
}
