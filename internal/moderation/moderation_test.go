package moderation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/digkill/futurepro/internal/models"
)

func TestAllowed(t *testing.T) {
	blocked := []string{
		"make a DeepFake of her",
		"  TEEN  ",
		"looks like a Celebrity",
		"Real Person photo",
		"UNDERAGE",
	}
	for _, text := range blocked {
		assert.False(t, Allowed(text), text)
		assert.ErrorIs(t, Screen(text), ErrContentNotAllowed)
	}

	for _, text := range []string{"sunset on the beach", "red dress, studio light", ""} {
		assert.True(t, Allowed(text), text)
		assert.NoError(t, Screen(text))
	}
}

func TestAllowed_NoNormalizationBeyondLowercase(t *testing.T) {
	// Spaced-out or lookalike spellings pass; only plain substrings are matched.
	assert.True(t, Allowed("t e e n"))
	assert.True(t, Allowed("tееn"))
}

func TestNegativePrompt_ContainsFixedLists(t *testing.T) {
	for _, kind := range []models.MediaKind{models.MediaImage, models.MediaVideo} {
		base := imageNegatives
		if kind == models.MediaVideo {
			base = videoNegatives
		}
		for _, extra := range []string{"", "ugly shoes", "   "} {
			got := NegativePrompt(kind, extra)
			assert.True(t, strings.HasPrefix(got, strings.Join(base, ", ")))
			assert.Contains(t, got, strings.Join(safetyNegatives, ", "))
		}
	}
}

func TestNegativePrompt_Extra(t *testing.T) {
	withoutExtra := NegativePrompt(models.MediaImage, "")
	assert.Equal(t, strings.Join(append(append([]string{}, imageNegatives...), safetyNegatives...), ", "), withoutExtra)
	assert.Equal(t, withoutExtra, NegativePrompt(models.MediaImage, "  "))

	got := NegativePrompt(models.MediaImage, "green tint, fog")
	assert.Equal(t, withoutExtra+", green tint, fog", got)
}

func TestNegativePrompt_ExtraIsVerbatim(t *testing.T) {
	extra := "  soft focus "
	got := NegativePrompt(models.MediaVideo, extra)
	assert.True(t, strings.HasSuffix(got, ", "+extra), got)
}
