package models

import (
	"strings"
	"time"
)

type Tier string

const (
	TierBasic Tier = "BASIC"
	TierPlus  Tier = "PLUS"
	TierPro   Tier = "PRO"
)

// ParseTier accepts any letter case and reports whether the value is a known tier.
func ParseTier(v string) (Tier, bool) {
	switch Tier(strings.ToUpper(strings.TrimSpace(v))) {
	case TierBasic:
		return TierBasic, true
	case TierPlus:
		return TierPlus, true
	case TierPro:
		return TierPro, true
	}
	return "", false
}

type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

type MessageRole string

const (
	RoleUser    MessageRole = "user"
	RolePersona MessageRole = "persona"
)

type Account struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Credits      int       `json:"credits"`
	SubTier      Tier      `json:"sub_tier"`
	SubExpiresAt int64     `json:"sub_expires_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// EffectiveTier is the tier used for gating: the subscribed tier while it is active, BASIC otherwise.
func (a *Account) EffectiveTier(now time.Time) Tier {
	if a.SubExpiresAt > now.Unix() && a.SubTier != "" {
		return a.SubTier
	}
	return TierBasic
}

// MediaSpec describes a requested asset.
type MediaSpec struct {
	Kind     MediaKind `json:"kind"`
	Quality  string    `json:"quality"`
	Duration int       `json:"duration,omitempty"`
}

// BasePrices is the per-persona (or global) base price table in credits.
type BasePrices struct {
	Image   int `json:"image"`
	Video10 int `json:"video10"`
	Video20 int `json:"video20"`
}

// WithDefaults fills zero fields from fallback.
func (b BasePrices) WithDefaults(fallback BasePrices) BasePrices {
	if b.Image <= 0 {
		b.Image = fallback.Image
	}
	if b.Video10 <= 0 {
		b.Video10 = fallback.Video10
	}
	if b.Video20 <= 0 {
		b.Video20 = fallback.Video20
	}
	return b
}

type Appearance struct {
	HairColor string `json:"hair_color,omitempty"`
	EyeColor  string `json:"eye_color,omitempty"`
	BodyType  string `json:"body_type,omitempty"`
	Style     string `json:"style,omitempty"`
}

type Persona struct {
	ID         int64      `json:"id"`
	Slug       string     `json:"slug"`
	Name       string     `json:"name"`
	Bio        string     `json:"bio"`
	Appearance Appearance `json:"appearance"`
	Tags       []string   `json:"tags"`
	BasePrices BasePrices `json:"base_prices"`
	CreatedAt  time.Time  `json:"created_at"`
}

type ChatMessage struct {
	ID           int64       `json:"id"`
	AccountID    int64       `json:"account_id"`
	PersonaID    int64       `json:"persona_id"`
	Role         MessageRole `json:"role"`
	Body         string      `json:"body"`
	MediaOfferID *int64      `json:"media_offer_id,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}

type MediaOffer struct {
	ID           int64     `json:"id"`
	AccountID    int64     `json:"account_id"`
	PersonaID    int64     `json:"persona_id"`
	Kind         MediaKind `json:"kind"`
	Quality      string    `json:"quality"`
	Duration     int       `json:"duration,omitempty"`
	PriceCredits int       `json:"price_credits"`
	AssetURL     string    `json:"asset_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func (o *MediaOffer) Spec() MediaSpec {
	return MediaSpec{Kind: o.Kind, Quality: o.Quality, Duration: o.Duration}
}

type MediaAccess struct {
	ID        int64     `json:"id"`
	AccountID int64     `json:"account_id"`
	MediaID   int64     `json:"media_id"`
	CreatedAt time.Time `json:"created_at"`
}

type LedgerEntry struct {
	ID        int64             `json:"id"`
	AccountID int64             `json:"account_id"`
	Amount    int               `json:"amount"`
	Reason    string            `json:"reason"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// JobParams are the typed inputs of a generation job, stored as JSON.
type JobParams struct {
	MediaSpec
	Prompt         string `json:"prompt"`
	NegativePrompt string `json:"negative_prompt"`
	PriceCredits   int    `json:"price_credits"`
}

type Job struct {
	ID        int64     `json:"id"`
	AccountID int64     `json:"account_id"`
	Status    JobStatus `json:"status"`
	Params    JobParams `json:"params"`
	OutputURL string    `json:"output_url,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreditPack struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Currency        string    `json:"currency"`
	PriceMinorUnits int       `json:"price_minor_units"`
	Credits         int       `json:"credits"`
	StripePriceID   string    `json:"stripe_price_id,omitempty"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type PromoCode struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	Credits   int       `json:"credits"`
	MaxUses   int       `json:"max_uses"`
	Uses      int       `json:"uses"`
	CreatedAt time.Time `json:"created_at"`
}

type Payment struct {
	ID             int64     `json:"id"`
	AccountID      int64     `json:"account_id"`
	PackID         *int64    `json:"pack_id,omitempty"`
	Tier           Tier      `json:"tier,omitempty"`
	Provider       string    `json:"provider"`
	ProviderCharge string    `json:"provider_charge"`
	Currency       string    `json:"currency"`
	Amount         int       `json:"amount"`
	Status         string    `json:"status"`
	RawPayload     string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}
