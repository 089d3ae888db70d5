package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"github.com/digkill/futurepro/internal/config"
	"github.com/digkill/futurepro/internal/models"
	"github.com/digkill/futurepro/internal/service"
)

const (
	sessionName     = "futurepro_session"
	sessionAccount  = "account_id"
	sessionNonce    = "sid"
	adminRealmValue = `Basic realm="futurepro-admin"`
)

type ctxKey int

const accountKey ctxKey = iota

func newSessionStore(cfg config.Config) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.SessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: cfg.CookieSameSite,
	}
	return store
}

// startSession replaces the session with a fresh one bound to accountID.
func (s *Server) startSession(w http.ResponseWriter, r *http.Request, accountID int64) error {
	session, _ := s.sessions.New(r, sessionName)
	session.Values[sessionAccount] = accountID
	session.Values[sessionNonce] = uuid.NewString()
	return session.Save(r, w)
}

func (s *Server) endSession(w http.ResponseWriter, r *http.Request) error {
	session, _ := s.sessions.Get(r, sessionName)
	session.Values = map[any]any{}
	session.Options.MaxAge = -1
	return session.Save(r, w)
}

func (s *Server) sessionAccountID(r *http.Request) (int64, bool) {
	session, err := s.sessions.Get(r, sessionName)
	if err != nil {
		return 0, false
	}
	id, ok := session.Values[sessionAccount].(int64)
	return id, ok && id > 0
}

func (s *Server) requireAccount(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.sessionAccountID(r)
		if !ok {
			s.fail(w, r, errUnauthenticated)
			return
		}
		account, err := s.svc.Accounts.Get(r.Context(), id)
		if errors.Is(err, service.ErrAccountNotFound) {
			// the session outlived its account
			s.fail(w, r, errUnauthenticated)
			return
		}
		if err != nil {
			s.fail(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), accountKey, account)))
	})
}

func currentAccount(r *http.Request) *models.Account {
	account, _ := r.Context().Value(accountKey).(*models.Account)
	return account
}

// rateLimit throttles per account when one is in context and per client IP otherwise.
func (s *Server) rateLimit(scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if s.limiter == nil {
				next.ServeHTTP(w, r)
				return
			}
			identifier := clientIP(r)
			if account := currentAccount(r); account != nil {
				identifier = "account:" + strconv.FormatInt(account.ID, 10)
			}
			ok, _, err := s.limiter.Allow(r.Context(), scope, identifier)
			if err != nil {
				s.log.Warn("rate limiter unavailable", "scope", scope, "err", err)
				next.ServeHTTP(w, r)
				return
			}
			if !ok {
				writeError(w, http.StatusTooManyRequests, "rate_limited")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) basicAuthMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if !ok || s.cfg.AdminPassword == "" ||
				subtle.ConstantTimeCompare([]byte(user), []byte(s.cfg.AdminUsername)) != 1 ||
				subtle.ConstantTimeCompare([]byte(pass), []byte(s.cfg.AdminPassword)) != 1 {
				w.Header().Set("WWW-Authenticate", adminRealmValue)
				writeError(w, http.StatusUnauthorized, "unauthenticated")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func requestID(r *http.Request) string {
	return middleware.GetReqID(r.Context())
}
