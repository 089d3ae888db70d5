// Package api serves the JSON HTTP API, the admin endpoints and the payment webhook.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/sessions"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/digkill/futurepro/internal/config"
	"github.com/digkill/futurepro/internal/ratelimit"
	"github.com/digkill/futurepro/internal/service"
)

// Services bundles the domain services the handlers call.
type Services struct {
	Accounts   *service.AccountService
	Ledger     *service.LedgerService
	Media      *service.MediaService
	Generation *service.GenerationService
	Personas   *service.PersonaService
	Packs      *service.PackService
	Promos     *service.PromoService
	Payments   *service.PaymentService
}

type Server struct {
	cfg      config.Config
	log      *slog.Logger
	svc      Services
	sessions *sessions.CookieStore
	limiter  *ratelimit.Limiter
	router   *chi.Mux
}

// NewServer wires routes. limiter may be nil to disable rate limiting.
func NewServer(cfg config.Config, log *slog.Logger, svc Services, limiter *ratelimit.Limiter) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if cfg.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSAllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	s := &Server{
		cfg:      cfg,
		log:      log,
		svc:      svc,
		sessions: newSessionStore(cfg),
		limiter:  limiter,
		router:   r,
	}

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/webhook/stripe", s.handleStripeWebhook)

	r.Route("/api", func(api chi.Router) {
		api.With(s.rateLimit("login")).Post("/login", s.handleLogin)
		api.With(s.rateLimit("login")).Get("/login/easy", s.handleEasyLogin)
		api.Post("/logout", s.handleLogout)
		api.Get("/packs", s.handleListPacks)
		api.Get("/personas", s.handleListPersonas)
		api.Get("/personas/{slug}", s.handleGetPersona)
		if cfg.DebugRoutes {
			api.Get("/debug/session", s.handleDebugSession)
		}

		api.Group(func(auth chi.Router) {
			auth.Use(s.requireAccount)
			auth.Get("/me", s.handleMe)
			auth.Get("/ledger", s.handleLedger)
			auth.Post("/subscription/mock", s.handleMockSubscribe)
			auth.Post("/promo/redeem", s.handleRedeemPromo)

			auth.Get("/personas/{slug}/messages", s.handleListMessages)
			auth.Post("/personas/{slug}/messages", s.handleSendMessage)
			auth.Post("/personas/{slug}/offers", s.handleCreateOffer)
			auth.Get("/media/{id}", s.handleGetMedia)
			auth.Post("/media/{id}/unlock", s.handleUnlockMedia)

			auth.Get("/jobs", s.handleListJobs)
			auth.With(s.rateLimit("jobs")).Post("/jobs", s.handleSubmitJob)
			auth.Get("/jobs/{id}", s.handleGetJob)
		})
	})

	r.Route("/admin", func(admin chi.Router) {
		admin.Use(s.basicAuthMiddleware())
		admin.Post("/personas", s.handleAdminCreatePersona)
		admin.Post("/accounts/{id}/credits", s.handleAdminGrantCredits)
		admin.Route("/packs", func(r chi.Router) {
			r.Get("/", s.handleAdminListPacks)
			r.Post("/", s.handleAdminCreatePack)
			r.Put("/{id}", s.handleAdminUpdatePack)
			r.Delete("/{id}", s.handleAdminDeletePack)
		})
		admin.Route("/promo-codes", func(r chi.Router) {
			r.Get("/", s.handleAdminListPromos)
			r.Post("/", s.handleAdminCreatePromo)
			r.Put("/{id}", s.handleAdminUpdatePromo)
			r.Delete("/{id}", s.handleAdminDeletePromo)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
	})
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.HTTPListenAddr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Error("http shutdown error", "err", err)
		}
	}()

	s.log.Info("http server listening", "addr", s.cfg.HTTPListenAddr)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http listen: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeOK(w, http.StatusOK, nil)
}
