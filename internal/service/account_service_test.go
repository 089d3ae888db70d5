package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digkill/futurepro/internal/models"
)

func TestLogin_CreatesAccountWithStartingCredits(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	account, created, err := env.accounts.Login(ctx, "  A@X.com ")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "a@x.com", account.Email)
	assert.Equal(t, 100, account.Credits)
	assert.Equal(t, models.TierBasic, env.accounts.EffectiveTier(account))

	again, created, err := env.accounts.Login(ctx, "a@x.com")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, account.ID, again.ID)
}

func TestLogin_Validation(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.accounts.Login(context.Background(), "   ")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "email_required", verr.Code)

	_, _, err = env.accounts.Login(context.Background(), "nobody")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "invalid_email", verr.Code)
}

func TestActivateSubscription(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	env.accounts.now = func() time.Time { return fixed }

	account, _, err := env.accounts.Login(ctx, "a@x.com")
	require.NoError(t, err)

	updated, err := env.accounts.ActivateSubscription(ctx, account.ID, models.TierPro)
	require.NoError(t, err)
	assert.Equal(t, models.TierPro, updated.SubTier)
	assert.Equal(t, fixed.Add(30*24*time.Hour).Unix(), updated.SubExpiresAt)
	assert.Equal(t, models.TierPro, env.accounts.EffectiveTier(updated))

	stored, err := env.accounts.Get(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TierPro, stored.SubTier)
	assert.Equal(t, updated.SubExpiresAt, stored.SubExpiresAt)
	assert.Len(t, env.notifier.all(), 1)

	env.accounts.now = func() time.Time { return fixed.Add(31 * 24 * time.Hour) }
	assert.Equal(t, models.TierBasic, env.accounts.EffectiveTier(stored))
}

func TestActivateSubscription_StoresCanonicalTier(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	account := env.account(t, 0, models.TierBasic)

	updated, err := env.accounts.ActivateSubscription(ctx, account.ID, " pro")
	require.NoError(t, err)
	assert.Equal(t, models.TierPro, updated.SubTier)

	stored, err := env.accounts.Get(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TierPro, stored.SubTier)
	assert.Equal(t, models.TierPro, env.accounts.EffectiveTier(stored))
}

func TestActivateSubscription_Errors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.accounts.ActivateSubscription(ctx, 999, models.TierPlus)
	assert.ErrorIs(t, err, ErrAccountNotFound)

	account := env.account(t, 0, models.TierBasic)
	_, err = env.accounts.ActivateSubscription(ctx, account.ID, "GOLD")
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestGrantCredits(t *testing.T) {
	env := newTestEnv(t)
	account := env.account(t, 5, models.TierBasic)

	updated, err := env.accounts.GrantCredits(context.Background(), account.ID, 45)
	require.NoError(t, err)
	assert.Equal(t, 50, updated.Credits)

	_, err = env.accounts.GrantCredits(context.Background(), account.ID, 0)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}
