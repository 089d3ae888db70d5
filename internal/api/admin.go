package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/digkill/futurepro/internal/models"
)

type personaRequest struct {
	Slug       string            `json:"slug"`
	Name       string            `json:"name"`
	Bio        string            `json:"bio"`
	Appearance models.Appearance `json:"appearance"`
	Tags       []string          `json:"tags"`
	BasePrices models.BasePrices `json:"base_prices"`
}

type grantRequest struct {
	Credits int `json:"credits"`
}

type packRequest struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	Currency        string `json:"currency"`
	PriceMinorUnits int    `json:"price_minor_units"`
	Credits         int    `json:"credits"`
	StripePriceID   string `json:"stripe_price_id"`
	IsActive        *bool  `json:"is_active"`
}

type packUpdateRequest struct {
	Title           *string `json:"title"`
	Description     *string `json:"description"`
	Currency        *string `json:"currency"`
	PriceMinorUnits *int    `json:"price_minor_units"`
	Credits         *int    `json:"credits"`
	StripePriceID   *string `json:"stripe_price_id"`
	IsActive        *bool   `json:"is_active"`
}

type promoRequest struct {
	Code    string `json:"code"`
	Credits int    `json:"credits"`
	MaxUses int    `json:"max_uses"`
}

type promoUpdateRequest struct {
	Code    *string `json:"code"`
	Credits *int    `json:"credits"`
	MaxUses *int    `json:"max_uses"`
	Uses    *int    `json:"uses"`
}

func (s *Server) handleAdminCreatePersona(w http.ResponseWriter, r *http.Request) {
	var req personaRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	persona := &models.Persona{
		Slug:       req.Slug,
		Name:       req.Name,
		Bio:        req.Bio,
		Appearance: req.Appearance,
		Tags:       req.Tags,
		BasePrices: req.BasePrices,
	}
	if err := s.svc.Personas.Create(r.Context(), persona); err != nil {
		s.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, map[string]any{"persona": persona})
}

func (s *Server) handleAdminGrantCredits(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id")
		return
	}
	var req grantRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	account, err := s.svc.Accounts.GrantCredits(r.Context(), id, req.Credits)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.log.Info("admin granted credits", "account_id", id, "credits", req.Credits)
	writeOK(w, http.StatusOK, map[string]any{"account": account})
}

func (s *Server) handleAdminListPacks(w http.ResponseWriter, r *http.Request) {
	packs, err := s.svc.Packs.ListAll(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"packs": packs})
}

func (s *Server) handleAdminCreatePack(w http.ResponseWriter, r *http.Request) {
	var req packRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	pack, err := s.svc.Packs.Create(r.Context(), &models.CreditPack{
		Title:           req.Title,
		Description:     req.Description,
		Currency:        req.Currency,
		PriceMinorUnits: req.PriceMinorUnits,
		Credits:         req.Credits,
		StripePriceID:   req.StripePriceID,
		IsActive:        active,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, map[string]any{"pack": pack})
}

func (s *Server) handleAdminUpdatePack(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id")
		return
	}
	var req packUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	pack, err := s.svc.Packs.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if req.Title != nil {
		pack.Title = *req.Title
	}
	if req.Description != nil {
		pack.Description = *req.Description
	}
	if req.Currency != nil {
		pack.Currency = *req.Currency
	}
	if req.PriceMinorUnits != nil {
		pack.PriceMinorUnits = *req.PriceMinorUnits
	}
	if req.Credits != nil {
		pack.Credits = *req.Credits
	}
	if req.StripePriceID != nil {
		pack.StripePriceID = *req.StripePriceID
	}
	if req.IsActive != nil {
		pack.IsActive = *req.IsActive
	}
	updated, err := s.svc.Packs.Update(r.Context(), pack)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"pack": updated})
}

func (s *Server) handleAdminDeletePack(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id")
		return
	}
	if err := s.svc.Packs.Delete(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, nil)
}

func (s *Server) handleAdminListPromos(w http.ResponseWriter, r *http.Request) {
	promos, err := s.svc.Promos.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"promo_codes": promos})
}

func (s *Server) handleAdminCreatePromo(w http.ResponseWriter, r *http.Request) {
	var req promoRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	promo, err := s.svc.Promos.Create(r.Context(), req.Code, req.Credits, req.MaxUses)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, map[string]any{"promo_code": promo})
}

func (s *Server) handleAdminUpdatePromo(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id")
		return
	}
	var req promoUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	existing, err := s.svc.Promos.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if req.Code != nil && *req.Code != "" {
		existing.Code = *req.Code
	}
	if req.Credits != nil {
		existing.Credits = *req.Credits
	}
	if req.MaxUses != nil {
		existing.MaxUses = *req.MaxUses
	}
	if req.Uses != nil {
		existing.Uses = *req.Uses
	}
	if existing.Uses > existing.MaxUses {
		writeError(w, http.StatusBadRequest, "uses_exceed_max_uses")
		return
	}
	promo, err := s.svc.Promos.Update(r.Context(), existing)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"promo_code": promo})
}

func (s *Server) handleAdminDeletePromo(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id")
		return
	}
	if err := s.svc.Promos.Delete(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, nil)
}
