package service

import (
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/digkill/futurepro/internal/config"
	"github.com/digkill/futurepro/internal/models"
	"github.com/digkill/futurepro/internal/repository"
	"github.com/digkill/futurepro/internal/testutil"
)

type testEnv struct {
	db         *sql.DB
	cfg        config.Config
	accounts   *AccountService
	ledger     *LedgerService
	media      *MediaService
	generation *GenerationService
	personas   *PersonaService
	packs      *PackService
	promos     *PromoService
	payments   *PaymentService
	notifier   *recordingNotifier
}

func testConfig() config.Config {
	return config.Config{
		StartingCredits:     100,
		SubscriptionDays:    30,
		PriceImageBase:      20,
		PriceVideo10Base:    90,
		PriceVideo20Base:    150,
		StripeWebhookSecret: "whsec_test",
		StripePricePlus:     "price_plus",
		StripePricePro:      "price_pro",
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEnv(t *testing.T, mutate ...func(*config.Config)) *testEnv {
	t.Helper()

	cfg := testConfig()
	for _, m := range mutate {
		m(&cfg)
	}
	db := testutil.NewDB(t)
	log := discardLogger()
	notifier := &recordingNotifier{}

	accountRepo := repository.NewAccountRepository(db)
	personaRepo := repository.NewPersonaRepository(db)
	chatRepo := repository.NewChatRepository(db)

	accounts := NewAccountService(cfg, log, accountRepo, notifier)
	ledger := NewLedgerService(log, accountRepo, repository.NewLedgerRepository(db))
	packs := NewPackService(repository.NewPackRepository(db))

	return &testEnv{
		db:         db,
		cfg:        cfg,
		accounts:   accounts,
		ledger:     ledger,
		media:      NewMediaService(cfg, log, personaRepo, repository.NewMediaRepository(db), chatRepo, ledger),
		generation: NewGenerationService(cfg, log, repository.NewJobRepository(db), ledger),
		personas:   NewPersonaService(personaRepo, chatRepo),
		packs:      packs,
		promos:     NewPromoService(repository.NewPromoRepository(db)),
		payments:   NewPaymentService(cfg, log, repository.NewPaymentRepository(db), accounts, packs),
		notifier:   notifier,
	}
}

func activeUntil() int64 {
	return time.Now().Add(24 * time.Hour).Unix()
}

func (e *testEnv) account(t *testing.T, credits int, tier models.Tier) *models.Account {
	t.Helper()
	opts := []testutil.AccountOption{testutil.WithCredits(credits)}
	if tier != "" && tier != models.TierBasic {
		opts = append(opts, testutil.WithSubscription(tier, activeUntil()))
	}
	return testutil.TestAccount(t, e.db, opts...)
}

func (e *testEnv) balance(t *testing.T, id int64) int {
	t.Helper()
	var credits int
	if err := e.db.QueryRow(`SELECT credits FROM accounts WHERE id = ?`, id).Scan(&credits); err != nil {
		t.Fatalf("read balance: %v", err)
	}
	return credits
}

func (e *testEnv) ledgerCount(t *testing.T, id int64) int {
	t.Helper()
	var n int
	if err := e.db.QueryRow(`SELECT COUNT(*) FROM ledger_entries WHERE account_id = ?`, id).Scan(&n); err != nil {
		t.Fatalf("count ledger: %v", err)
	}
	return n
}
