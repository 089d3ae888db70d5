// Package pricing holds the tier quality gate and the credit price table for generated media.
package pricing

import (
	"errors"
	"strings"

	"github.com/digkill/futurepro/internal/models"
)

var (
	ErrQualityNotAllowed = errors.New("quality_not_allowed_for_tier")
	ErrInvalidKind       = errors.New("invalid_kind")
	ErrInvalidQuality    = errors.New("invalid_quality")
	ErrInvalidDuration   = errors.New("invalid_duration")
)

const (
	Image1024 = "1024"
	Image2048 = "2048"
	Image8K   = "8k"

	Video1080p = "1080p"
	Video4K    = "4k"

	ShortVideoSeconds = 10
	LongVideoSeconds  = 20

	// FallbackPrice is charged for kinds the table does not know.
	FallbackPrice = 20
)

var DefaultBasePrices = models.BasePrices{Image: 20, Video10: 90, Video20: 150}

var imageSurcharge = map[string]int{
	Image1024: 0,
	Image2048: 15,
	Image8K:   50,
}

const video4KSurcharge = 70

// Normalize validates a requested spec and fills defaults: images default to 1024,
// videos to 10s 1080p. Any video up to 10 seconds is billed and gated as the 10s bucket.
func Normalize(spec models.MediaSpec) (models.MediaSpec, error) {
	spec.Kind = models.MediaKind(strings.ToLower(strings.TrimSpace(string(spec.Kind))))
	spec.Quality = strings.ToLower(strings.TrimSpace(spec.Quality))

	switch spec.Kind {
	case models.MediaImage:
		spec.Duration = 0
		if spec.Quality == "" {
			spec.Quality = Image1024
		}
		if _, ok := imageSurcharge[spec.Quality]; !ok {
			return spec, ErrInvalidQuality
		}
	case models.MediaVideo:
		if spec.Quality == "" {
			spec.Quality = Video1080p
		}
		switch {
		case spec.Duration < 0:
			return spec, ErrInvalidDuration
		case spec.Duration <= ShortVideoSeconds:
			spec.Duration = ShortVideoSeconds
		case spec.Duration == LongVideoSeconds:
		default:
			return spec, ErrInvalidDuration
		}
	default:
		return spec, ErrInvalidKind
	}
	return spec, nil
}

// QualityAllowed reports whether tier may request spec. The spec is expected to be normalized.
func QualityAllowed(tier models.Tier, spec models.MediaSpec) bool {
	switch spec.Kind {
	case models.MediaImage:
		switch spec.Quality {
		case Image1024:
			return tierAtLeast(tier, models.TierBasic)
		case Image2048:
			return tierAtLeast(tier, models.TierPlus)
		case Image8K:
			return tierAtLeast(tier, models.TierPro)
		}
	case models.MediaVideo:
		if spec.Duration <= ShortVideoSeconds {
			return tierAtLeast(tier, models.TierBasic)
		}
		if spec.Quality == Video4K {
			return tierAtLeast(tier, models.TierPro)
		}
		return tierAtLeast(tier, models.TierPlus)
	}
	return false
}

// Check returns ErrQualityNotAllowed when tier may not request spec.
func Check(tier models.Tier, spec models.MediaSpec) error {
	if !QualityAllowed(tier, spec) {
		return ErrQualityNotAllowed
	}
	return nil
}

// Price computes the credit price of spec from base. It never consults client input.
func Price(spec models.MediaSpec, base models.BasePrices) int {
	switch spec.Kind {
	case models.MediaImage:
		return base.Image + imageSurcharge[spec.Quality]
	case models.MediaVideo:
		if spec.Duration <= ShortVideoSeconds {
			return base.Video10
		}
		if spec.Quality == Video4K {
			return base.Video20 + video4KSurcharge
		}
		return base.Video20
	}
	return FallbackPrice
}

// Quote returns the price to charge. A client override replaces the computed price
// only when overrides are enabled server-side; negative overrides are ignored.
func Quote(spec models.MediaSpec, base models.BasePrices, override *int, overrideEnabled bool) int {
	if overrideEnabled && override != nil && *override >= 0 {
		return *override
	}
	return Price(spec, base)
}

func tierRank(t models.Tier) int {
	switch t {
	case models.TierPro:
		return 3
	case models.TierPlus:
		return 2
	case models.TierBasic:
		return 1
	}
	return 0
}

func tierAtLeast(t, min models.Tier) bool {
	return tierRank(t) >= tierRank(min) && tierRank(t) > 0
}
