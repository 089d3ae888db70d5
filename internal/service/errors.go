package service

import "errors"

// Sentinel messages double as the error codes returned to API clients.
var (
	ErrNotEnoughCredits     = errors.New("not_enough_credits")
	ErrAccountNotFound      = errors.New("account_not_found")
	ErrPersonaNotFound      = errors.New("persona_not_found")
	ErrMediaNotFound        = errors.New("media_not_found")
	ErrJobNotFound          = errors.New("job_not_found")
	ErrPackNotFound         = errors.New("pack_not_found")
	ErrPromoInvalid         = errors.New("promo_invalid")
	ErrPromoExhausted       = errors.New("promo_exhausted")
	ErrPromoAlreadyRedeemed = errors.New("promo_already_redeemed")
	ErrSlugTaken            = errors.New("slug_taken")
	ErrPromoCodeTaken       = errors.New("promo_code_taken")
	ErrInvalidSignature     = errors.New("invalid_signature")
)

// ValidationError reports malformed client input.
type ValidationError struct {
	Code string
}

func (e *ValidationError) Error() string {
	return e.Code
}

func invalid(code string) error {
	return &ValidationError{Code: code}
}
