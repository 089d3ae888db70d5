package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digkill/futurepro/internal/models"
	"github.com/digkill/futurepro/internal/repository"
	"github.com/digkill/futurepro/internal/testutil"
)

func TestMediaRepository_OfferAndAccess(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewMediaRepository(db)
	ctx := context.Background()
	account := testutil.TestAccount(t, db)
	persona := testutil.TestPersona(t, db, "mia")

	offer := &models.MediaOffer{
		AccountID:    account.ID,
		PersonaID:    persona.ID,
		Kind:         models.MediaVideo,
		Quality:      "4k",
		Duration:     20,
		PriceCredits: 220,
		AssetURL:     "https://cdn.example.com/v.mp4",
	}
	require.NoError(t, repo.CreateOffer(ctx, offer))

	got, err := repo.GetOffer(ctx, offer.ID)
	require.NoError(t, err)
	assert.Equal(t, offer.Spec(), got.Spec())
	assert.Equal(t, 220, got.PriceCredits)

	has, err := repo.HasAccess(ctx, account.ID, offer.ID)
	require.NoError(t, err)
	assert.False(t, has)

	// no uniqueness constraint: two grants produce two rows
	_, err = repo.GrantAccess(ctx, account.ID, offer.ID)
	require.NoError(t, err)
	_, err = repo.GrantAccess(ctx, account.ID, offer.ID)
	require.NoError(t, err)

	count, err := repo.CountAccess(ctx, account.ID, offer.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	missing, err := repo.GetOffer(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}
