package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/digkill/futurepro/internal/moderation"
	"github.com/digkill/futurepro/internal/pricing"
	"github.com/digkill/futurepro/internal/service"
)

const maxBodyBytes = 1 << 20

var errUnauthenticated = errors.New("unauthenticated")

// writeOK writes {"ok":true} merged with fields.
func writeOK(w http.ResponseWriter, status int, fields map[string]any) {
	body := map[string]any{"ok": true}
	for k, v := range fields {
		body[k] = v
	}
	writeJSON(w, status, body)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]any{"ok": false, "error": code})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps domain errors to HTTP status codes and wire error codes.
func statusFor(err error) (int, string) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Code
	case errors.Is(err, pricing.ErrInvalidKind),
		errors.Is(err, pricing.ErrInvalidQuality),
		errors.Is(err, pricing.ErrInvalidDuration):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, errUnauthenticated):
		return http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, service.ErrNotEnoughCredits):
		return http.StatusPaymentRequired, err.Error()
	case errors.Is(err, pricing.ErrQualityNotAllowed),
		errors.Is(err, moderation.ErrContentNotAllowed):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, service.ErrAccountNotFound),
		errors.Is(err, service.ErrPersonaNotFound),
		errors.Is(err, service.ErrMediaNotFound),
		errors.Is(err, service.ErrJobNotFound),
		errors.Is(err, service.ErrPackNotFound),
		errors.Is(err, service.ErrPromoInvalid):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, service.ErrSlugTaken),
		errors.Is(err, service.ErrPromoCodeTaken),
		errors.Is(err, service.ErrPromoExhausted),
		errors.Is(err, service.ErrPromoAlreadyRedeemed):
		return http.StatusConflict, err.Error()
	case errors.Is(err, service.ErrInvalidSignature):
		return http.StatusBadRequest, err.Error()
	}
	return http.StatusInternalServerError, "internal_error"
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "request_id", requestID(r), "err", err)
	}
	writeError(w, status, code)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return false
	}
	return true
}

func parseID(value string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(value), 10, 64)
}

func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}
