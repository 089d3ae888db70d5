package service

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/digkill/futurepro/internal/config"
	"github.com/digkill/futurepro/internal/models"
	"github.com/digkill/futurepro/internal/moderation"
	"github.com/digkill/futurepro/internal/pricing"
	"github.com/digkill/futurepro/internal/repository"
)

const maxPromptLength = 4000

type GenerationService struct {
	cfg    config.Config
	log    *slog.Logger
	jobs   *repository.JobRepository
	ledger *LedgerService
	now    func() time.Time
}

type GenerationRequest struct {
	models.MediaSpec
	Prompt        string
	NegativeExtra string
	Price         *int
}

func NewGenerationService(cfg config.Config, log *slog.Logger, jobs *repository.JobRepository, ledger *LedgerService) *GenerationService {
	return &GenerationService{
		cfg:    cfg,
		log:    log,
		jobs:   jobs,
		ledger: ledger,
		now:    time.Now,
	}
}

// Submit screens, gates, prices and charges a generation request, then queues the job.
// Nothing is charged when any check fails.
func (s *GenerationService) Submit(ctx context.Context, account *models.Account, req GenerationRequest) (*models.Job, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, invalid("prompt_required")
	}
	if len(prompt) > maxPromptLength {
		return nil, invalid("prompt_too_long")
	}
	if err := moderation.Screen(prompt); err != nil {
		return nil, err
	}
	if err := moderation.Screen(req.NegativeExtra); err != nil {
		return nil, err
	}

	spec, err := pricing.Normalize(req.MediaSpec)
	if err != nil {
		return nil, err
	}
	if err := pricing.Check(account.EffectiveTier(s.now()), spec); err != nil {
		return nil, err
	}
	price := pricing.Quote(spec, defaultBasePrices(s.cfg), req.Price, s.cfg.PromoPriceOverrideEnabled)

	meta := map[string]string{
		"kind":    string(spec.Kind),
		"quality": spec.Quality,
	}
	if spec.Kind == models.MediaVideo {
		meta["duration"] = strconv.Itoa(spec.Duration)
	}
	if _, err := s.ledger.Charge(ctx, account.ID, price, ReasonGeneration, meta); err != nil {
		return nil, err
	}

	job := &models.Job{
		AccountID: account.ID,
		Status:    models.JobQueued,
		Params: models.JobParams{
			MediaSpec:      spec,
			Prompt:         prompt,
			NegativePrompt: moderation.NegativePrompt(spec.Kind, req.NegativeExtra),
			PriceCredits:   price,
		},
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		s.log.Error("queue job after charge", "account_id", account.ID, "price", price, "err", err)
		return nil, err
	}
	s.log.Info("job queued", "job_id", job.ID, "account_id", account.ID, "kind", spec.Kind, "quality", spec.Quality, "price", price)
	return job, nil
}

func (s *GenerationService) Get(ctx context.Context, accountID, jobID int64) (*models.Job, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil || job.AccountID != accountID {
		return nil, ErrJobNotFound
	}
	return job, nil
}

func (s *GenerationService) List(ctx context.Context, accountID int64, limit int) ([]models.Job, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.jobs.ListByAccount(ctx, accountID, limit)
}
