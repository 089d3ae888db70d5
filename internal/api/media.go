package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/digkill/futurepro/internal/models"
	"github.com/digkill/futurepro/internal/service"
)

type messageRequest struct {
	Body string `json:"body"`
}

type offerRequest struct {
	Kind     string `json:"kind"`
	Quality  string `json:"quality"`
	Duration int    `json:"duration"`
	AssetURL string `json:"asset_url"`
	Caption  string `json:"caption"`
	Price    *int   `json:"price"`
}

func (s *Server) handleListPersonas(w http.ResponseWriter, r *http.Request) {
	personas, err := s.svc.Personas.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"personas": personas})
}

func (s *Server) handleGetPersona(w http.ResponseWriter, r *http.Request) {
	persona, err := s.svc.Personas.Get(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"persona": persona})
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := s.svc.Personas.Messages(r.Context(), currentAccount(r).ID, chi.URLParam(r, "slug"), queryInt(r, "limit"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"messages": msgs})
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	msg, err := s.svc.Personas.Send(r.Context(), currentAccount(r).ID, chi.URLParam(r, "slug"), req.Body)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, map[string]any{"message": msg})
}

func (s *Server) handleCreateOffer(w http.ResponseWriter, r *http.Request) {
	var req offerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	offer, err := s.svc.Media.CreateOffer(r.Context(), currentAccount(r), chi.URLParam(r, "slug"), service.OfferRequest{
		MediaSpec: models.MediaSpec{Kind: models.MediaKind(req.Kind), Quality: req.Quality, Duration: req.Duration},
		AssetURL:  req.AssetURL,
		Caption:   req.Caption,
		Price:     req.Price,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	// the creator sees the offer locked like everyone else
	offer.AssetURL = ""
	writeOK(w, http.StatusCreated, map[string]any{"media": offer, "unlocked": false})
}

func (s *Server) handleGetMedia(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id")
		return
	}
	view, err := s.svc.Media.Get(r.Context(), currentAccount(r).ID, id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"media": view.Offer, "unlocked": view.Unlocked})
}

func (s *Server) handleUnlockMedia(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id")
		return
	}
	account := currentAccount(r)
	res, err := s.svc.Media.Unlock(r.Context(), account.ID, id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	updated, err := s.svc.Accounts.Get(r.Context(), account.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{
		"media":            res.Offer,
		"already_unlocked": res.AlreadyUnlocked,
		"credits":          updated.Credits,
	})
}
