package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digkill/futurepro/internal/config"
	"github.com/digkill/futurepro/internal/models"
	"github.com/digkill/futurepro/internal/moderation"
	"github.com/digkill/futurepro/internal/pricing"
)

func imageRequest(quality string) GenerationRequest {
	return GenerationRequest{
		MediaSpec: models.MediaSpec{Kind: models.MediaImage, Quality: quality},
		Prompt:    "portrait in soft window light",
	}
}

func TestSubmit_BasicTierCannotRequest2048(t *testing.T) {
	env := newTestEnv(t)
	account := env.account(t, 100, models.TierBasic)

	_, err := env.generation.Submit(context.Background(), account, imageRequest(pricing.Image2048))
	assert.ErrorIs(t, err, pricing.ErrQualityNotAllowed)
	assert.Equal(t, 100, env.balance(t, account.ID))
	assert.Zero(t, env.ledgerCount(t, account.ID))
}

func TestSubmit_NotEnoughCreditsForDefaultImage(t *testing.T) {
	env := newTestEnv(t)
	account := env.account(t, 10, models.TierPro)

	_, err := env.generation.Submit(context.Background(), account, imageRequest(""))
	assert.ErrorIs(t, err, ErrNotEnoughCredits)
	assert.Equal(t, 10, env.balance(t, account.ID))
}

func TestSubmit_ProLongVideo(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	account := env.account(t, 200, models.TierPro)

	req := GenerationRequest{
		MediaSpec: models.MediaSpec{Kind: models.MediaVideo, Quality: pricing.Video4K, Duration: 20},
		Prompt:    "city at night, slow pan",
	}
	_, err := env.generation.Submit(ctx, account, req)
	assert.ErrorIs(t, err, ErrNotEnoughCredits)
	assert.Equal(t, 200, env.balance(t, account.ID))

	req.Quality = pricing.Video1080p
	job, err := env.generation.Submit(ctx, account, req)
	require.NoError(t, err)
	assert.Equal(t, models.JobQueued, job.Status)
	assert.Equal(t, 150, job.Params.PriceCredits)
	assert.Equal(t, 50, env.balance(t, account.ID))
	assert.Equal(t, 1, env.ledgerCount(t, account.ID))

	stored, err := env.generation.Get(ctx, account.ID, job.ID)
	require.NoError(t, err)
	assert.Equal(t, moderation.NegativePrompt(models.MediaVideo, ""), stored.Params.NegativePrompt)
	assert.Equal(t, 20, stored.Params.Duration)
}

func TestSubmit_BlockedPromptIsNotCharged(t *testing.T) {
	env := newTestEnv(t)
	account := env.account(t, 100, models.TierBasic)

	req := imageRequest("")
	req.Prompt = "Celebrity on a red carpet"
	_, err := env.generation.Submit(context.Background(), account, req)
	assert.ErrorIs(t, err, moderation.ErrContentNotAllowed)
	assert.Equal(t, 100, env.balance(t, account.ID))

	req.Prompt = "  "
	_, err = env.generation.Submit(context.Background(), account, req)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestSubmit_PriceOverrideNeedsFlag(t *testing.T) {
	override := 1
	req := imageRequest("")
	req.Price = &override

	env := newTestEnv(t)
	account := env.account(t, 100, models.TierBasic)
	job, err := env.generation.Submit(context.Background(), account, req)
	require.NoError(t, err)
	assert.Equal(t, 20, job.Params.PriceCredits)
	assert.Equal(t, 80, env.balance(t, account.ID))

	enabled := newTestEnv(t, func(c *config.Config) { c.PromoPriceOverrideEnabled = true })
	account = enabled.account(t, 100, models.TierBasic)
	job, err = enabled.generation.Submit(context.Background(), account, req)
	require.NoError(t, err)
	assert.Equal(t, 1, job.Params.PriceCredits)
	assert.Equal(t, 99, enabled.balance(t, account.ID))
}

func TestSubmit_NegativeExtraIsAppended(t *testing.T) {
	env := newTestEnv(t)
	account := env.account(t, 100, models.TierBasic)

	req := imageRequest("")
	req.NegativeExtra = "green tint"
	job, err := env.generation.Submit(context.Background(), account, req)
	require.NoError(t, err)
	assert.Equal(t, moderation.NegativePrompt(models.MediaImage, "green tint"), job.Params.NegativePrompt)
}

func TestGetJob_OtherAccount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	account := env.account(t, 100, models.TierBasic)

	job, err := env.generation.Submit(ctx, account, imageRequest(""))
	require.NoError(t, err)

	_, err = env.generation.Get(ctx, account.ID+1, job.ID)
	assert.ErrorIs(t, err, ErrJobNotFound)

	jobs, err := env.generation.List(ctx, account.ID, 0)
	require.NoError(t, err)
	assert.Len(t, jobs, 1)
}
