package service

import (
	"context"
	"log/slog"

	"github.com/digkill/futurepro/internal/metrics"
	"github.com/digkill/futurepro/internal/models"
	"github.com/digkill/futurepro/internal/repository"
)

const (
	ReasonGeneration  = "generation"
	ReasonUnlockMedia = "unlock_media"
)

type LedgerService struct {
	log      *slog.Logger
	accounts *repository.AccountRepository
	ledger   *repository.LedgerRepository
}

func NewLedgerService(log *slog.Logger, accounts *repository.AccountRepository, ledger *repository.LedgerRepository) *LedgerService {
	return &LedgerService{log: log, accounts: accounts, ledger: ledger}
}

// Charge debits amount from the account and appends one ledger entry.
//
// The balance read, the debit and the ledger insert are separate statements with no
// transaction around them. The debit itself is guarded (credits >= amount) so the
// balance cannot go negative, but two concurrent charges may both pass the read check.
func (s *LedgerService) Charge(ctx context.Context, accountID int64, amount int, reason string, meta map[string]string) (*models.LedgerEntry, error) {
	if amount < 0 {
		return nil, invalid("invalid_amount")
	}
	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	if account.Credits < amount {
		metrics.ChargeFailures.WithLabelValues(reason).Inc()
		return nil, ErrNotEnoughCredits
	}

	ok, err := s.accounts.DebitCredits(ctx, accountID, amount)
	if err != nil {
		return nil, err
	}
	if !ok {
		metrics.ChargeFailures.WithLabelValues(reason).Inc()
		return nil, ErrNotEnoughCredits
	}

	entry := &models.LedgerEntry{
		AccountID: accountID,
		Amount:    amount,
		Reason:    reason,
		Metadata:  meta,
	}
	if err := s.ledger.Append(ctx, entry); err != nil {
		// the debit already happened; surface the error so the caller does not grant anything
		s.log.Error("ledger append after debit", "account_id", accountID, "amount", amount, "reason", reason, "err", err)
		return nil, err
	}
	metrics.CreditsCharged.WithLabelValues(reason).Add(float64(amount))
	return entry, nil
}

func (s *LedgerService) List(ctx context.Context, accountID int64, limit int) ([]models.LedgerEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.ledger.ListByAccount(ctx, accountID, limit)
}
