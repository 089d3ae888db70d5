package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/digkill/futurepro/internal/api"
	"github.com/digkill/futurepro/internal/config"
	"github.com/digkill/futurepro/internal/database"
	"github.com/digkill/futurepro/internal/generation"
	"github.com/digkill/futurepro/internal/notify"
	"github.com/digkill/futurepro/internal/ratelimit"
	"github.com/digkill/futurepro/internal/repository"
	"github.com/digkill/futurepro/internal/service"
	"github.com/digkill/futurepro/internal/storage"
	"github.com/digkill/futurepro/internal/worker"
	"github.com/digkill/futurepro/pkg/logger"
)

// Version is set at build time with -ldflags.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:           "futurepro",
	Short:         "The Future PRO backend: accounts, credits, media offers and generation jobs",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd.Context())
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the job worker",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd.Context())
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		db, err := openDB(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		log.Info("schema up to date", "driver", cfg.DBDriver)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("futurepro %s\n", Version)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, versionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setup() (config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, nil, fmt.Errorf("config: %w", err)
	}
	return cfg, logger.New(cfg.LogLevel), nil
}

func openDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connect: %w", err)
	}
	if err := database.Migrate(ctx, db, cfg.DBDriver); err != nil {
		db.Close()
		return nil, fmt.Errorf("database migrate: %w", err)
	}
	return db, nil
}

func runServer(ctx context.Context) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	notifier, err := notify.New(cfg, log)
	if err != nil {
		return fmt.Errorf("telegram notifier: %w", err)
	}

	accountRepo := repository.NewAccountRepository(db)
	personaRepo := repository.NewPersonaRepository(db)
	chatRepo := repository.NewChatRepository(db)
	jobRepo := repository.NewJobRepository(db)

	accounts := service.NewAccountService(cfg, log, accountRepo, notifier)
	ledger := service.NewLedgerService(log, accountRepo, repository.NewLedgerRepository(db))
	packs := service.NewPackService(repository.NewPackRepository(db))
	svc := api.Services{
		Accounts:   accounts,
		Ledger:     ledger,
		Media:      service.NewMediaService(cfg, log, personaRepo, repository.NewMediaRepository(db), chatRepo, ledger),
		Generation: service.NewGenerationService(cfg, log, jobRepo, ledger),
		Personas:   service.NewPersonaService(personaRepo, chatRepo),
		Packs:      packs,
		Promos:     service.NewPromoService(repository.NewPromoRepository(db)),
		Payments:   service.NewPaymentService(cfg, log, repository.NewPaymentRepository(db), accounts, packs),
	}

	var limiter *ratelimit.Limiter
	if cfg.RedisURL != "" {
		rdb, err := ratelimit.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer rdb.Close()
		limiter = ratelimit.New(rdb, cfg.RateLimitPerMinute, time.Minute)
	} else {
		log.Warn("REDIS_URL not set, rate limiting disabled")
	}

	provider, err := generation.New(cfg, log)
	if err != nil {
		return fmt.Errorf("generation provider: %w", err)
	}

	// keep the interface nil when S3 is off so the worker skips mirroring
	var mirror worker.AssetMirror
	if cfg.S3Enabled() {
		m, err := storage.NewMirror(cfg)
		if err != nil {
			return fmt.Errorf("storage mirror: %w", err)
		}
		mirror = m
	}

	server := api.NewServer(cfg, log, svc, limiter)
	processor := worker.NewProcessor(log, jobRepo, provider, mirror, notifier, cfg.WorkerInterval)

	log.Info("starting futurepro", "version", Version, "db", cfg.DBDriver, "provider", cfg.GenerationProvider, "s3", cfg.S3Enabled())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Run(gctx) })
	g.Go(func() error { return processor.Run(gctx) })
	return g.Wait()
}
