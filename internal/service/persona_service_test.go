package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digkill/futurepro/internal/models"
	"github.com/digkill/futurepro/internal/moderation"
)

func TestPersonaCreate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p := &models.Persona{Slug: " Mira ", Name: "Mira", Tags: []string{"art"}}
	require.NoError(t, env.personas.Create(ctx, p))
	assert.Equal(t, "mira", p.Slug)

	err := env.personas.Create(ctx, &models.Persona{Slug: "mira", Name: "Other"})
	assert.ErrorIs(t, err, ErrSlugTaken)

	err = env.personas.Create(ctx, &models.Persona{Slug: "bad slug", Name: "X"})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	err = env.personas.Create(ctx, &models.Persona{Slug: "lena", Name: "Lena", Tags: []string{"teen"}})
	assert.ErrorIs(t, err, moderation.ErrContentNotAllowed)

	list, err := env.personas.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestPersonaSend(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	account := env.account(t, 0, models.TierBasic)
	require.NoError(t, env.personas.Create(ctx, &models.Persona{Slug: "mira", Name: "Mira"}))

	msg, err := env.personas.Send(ctx, account.ID, "mira", "hi there")
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, msg.Role)

	_, err = env.personas.Send(ctx, account.ID, "mira", "make a deepfake")
	assert.ErrorIs(t, err, moderation.ErrContentNotAllowed)

	_, err = env.personas.Send(ctx, account.ID, "ghost", "hi")
	assert.ErrorIs(t, err, ErrPersonaNotFound)

	msgs, err := env.personas.Messages(ctx, account.ID, "mira", 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hi there", msgs[0].Body)
}
