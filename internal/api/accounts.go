package api

import (
	"net/http"

	"github.com/digkill/futurepro/internal/models"
)

type loginRequest struct {
	Email string `json:"email"`
}

type subscribeRequest struct {
	Tier string `json:"tier"`
}

func (s *Server) accountFields(account *models.Account) map[string]any {
	return map[string]any{
		"account":        account,
		"effective_tier": s.svc.Accounts.EffectiveTier(account),
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s.login(w, r, req.Email)
}

// handleEasyLogin is a query-string login kept for demo clients.
func (s *Server) handleEasyLogin(w http.ResponseWriter, r *http.Request) {
	s.login(w, r, r.URL.Query().Get("email"))
}

func (s *Server) login(w http.ResponseWriter, r *http.Request, email string) {
	account, created, err := s.svc.Accounts.Login(r.Context(), email)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.startSession(w, r, account.ID); err != nil {
		s.fail(w, r, err)
		return
	}
	fields := s.accountFields(account)
	fields["created"] = created
	writeOK(w, http.StatusOK, fields)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.endSession(w, r); err != nil {
		s.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, nil)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeOK(w, http.StatusOK, s.accountFields(currentAccount(r)))
}

func (s *Server) handleDebugSession(w http.ResponseWriter, r *http.Request) {
	id, ok := s.sessionAccountID(r)
	writeOK(w, http.StatusOK, map[string]any{
		"authenticated": ok,
		"account_id":    id,
		"request_id":    requestID(r),
		"remote_addr":   r.RemoteAddr,
	})
}

func (s *Server) handleMockSubscribe(w http.ResponseWriter, r *http.Request) {
	if !s.cfg.MockSubscribeEnabled {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	var req subscribeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	tier, ok := models.ParseTier(req.Tier)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_tier")
		return
	}
	account, err := s.svc.Accounts.ActivateSubscription(r.Context(), currentAccount(r).ID, tier)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, s.accountFields(account))
}

func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	entries, err := s.svc.Ledger.List(r.Context(), currentAccount(r).ID, queryInt(r, "limit"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"entries": entries})
}
