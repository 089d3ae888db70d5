package api

import (
	"io"
	"net/http"
)

const webhookBodyLimit = 1 << 20

type redeemRequest struct {
	Code string `json:"code"`
}

func (s *Server) handleListPacks(w http.ResponseWriter, r *http.Request) {
	packs, err := s.svc.Packs.ListActive(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"packs": packs})
}

func (s *Server) handleRedeemPromo(w http.ResponseWriter, r *http.Request) {
	var req redeemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	account := currentAccount(r)
	promo, err := s.svc.Promos.Redeem(r.Context(), account.ID, req.Code)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	updated, err := s.svc.Accounts.Get(r.Context(), account.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"granted": promo.Credits, "credits": updated.Credits})
}

// handleStripeWebhook is public; the Stripe signature is the authentication.
func (s *Server) handleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, webhookBodyLimit)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body")
		return
	}
	if err := s.svc.Payments.HandleStripeWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature")); err != nil {
		s.log.Error("stripe webhook", "err", err)
		s.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"received": true})
}
