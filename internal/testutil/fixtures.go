package testutil

import (
	"context"
	"database/sql"
	"testing"

	"github.com/digkill/futurepro/internal/models"
	"github.com/digkill/futurepro/internal/repository"
)

type AccountOption func(*accountFixture)

type accountFixture struct {
	email        string
	credits      int
	tier         models.Tier
	subExpiresAt int64
}

func WithEmail(email string) AccountOption {
	return func(f *accountFixture) { f.email = email }
}

func WithCredits(credits int) AccountOption {
	return func(f *accountFixture) { f.credits = credits }
}

func WithSubscription(tier models.Tier, expiresAt int64) AccountOption {
	return func(f *accountFixture) {
		f.tier = tier
		f.subExpiresAt = expiresAt
	}
}

// TestAccount inserts an account, by default with 100 credits on BASIC.
func TestAccount(t *testing.T, db *sql.DB, opts ...AccountOption) *models.Account {
	t.Helper()

	f := &accountFixture{email: "user@example.com", credits: 100}
	for _, opt := range opts {
		opt(f)
	}

	ctx := context.Background()
	repo := repository.NewAccountRepository(db)
	account, err := repo.Create(ctx, f.email, f.credits)
	if err != nil {
		t.Fatalf("create test account: %v", err)
	}
	if f.tier != "" {
		if err := repo.SetSubscription(ctx, account.ID, f.tier, f.subExpiresAt); err != nil {
			t.Fatalf("set test subscription: %v", err)
		}
		account.SubTier = f.tier
		account.SubExpiresAt = f.subExpiresAt
	}
	return account
}

// TestPersona inserts a persona with the given slug and no price overrides.
func TestPersona(t *testing.T, db *sql.DB, slug string) *models.Persona {
	t.Helper()

	p := &models.Persona{
		Slug:       slug,
		Name:       "Persona " + slug,
		Bio:        "test persona",
		Appearance: models.Appearance{HairColor: "black", Style: "casual"},
		Tags:       []string{"test"},
	}
	if err := repository.NewPersonaRepository(db).Create(context.Background(), p); err != nil {
		t.Fatalf("create test persona: %v", err)
	}
	return p
}
