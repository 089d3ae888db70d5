package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/digkill/futurepro/internal/models"
	"github.com/digkill/futurepro/internal/service"
)

type jobRequest struct {
	Kind          string `json:"kind"`
	Quality       string `json:"quality"`
	Duration      int    `json:"duration"`
	Prompt        string `json:"prompt"`
	NegativeExtra string `json:"negative_extra"`
	Price         *int   `json:"price"`
}

func (s *Server) handleSubmitJob(w http.ResponseWriter, r *http.Request) {
	var req jobRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	account := currentAccount(r)
	job, err := s.svc.Generation.Submit(r.Context(), account, service.GenerationRequest{
		MediaSpec:     models.MediaSpec{Kind: models.MediaKind(req.Kind), Quality: req.Quality, Duration: req.Duration},
		Prompt:        req.Prompt,
		NegativeExtra: req.NegativeExtra,
		Price:         req.Price,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	updated, err := s.svc.Accounts.Get(r.Context(), account.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusAccepted, map[string]any{"job": job, "credits": updated.Credits})
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id")
		return
	}
	job, err := s.svc.Generation.Get(r.Context(), currentAccount(r).ID, id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"job": job})
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.svc.Generation.List(r.Context(), currentAccount(r).ID, queryInt(r, "limit"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"jobs": jobs})
}
