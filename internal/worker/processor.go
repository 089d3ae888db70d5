// Package worker runs queued generation jobs one at a time, oldest first.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/digkill/futurepro/internal/generation"
	"github.com/digkill/futurepro/internal/metrics"
	"github.com/digkill/futurepro/internal/models"
	"github.com/digkill/futurepro/internal/repository"
	"github.com/digkill/futurepro/internal/service"
)

// AssetMirror copies a finished asset to permanent storage.
type AssetMirror interface {
	Mirror(ctx context.Context, sourceURL string) (string, error)
}

type Processor struct {
	log      *slog.Logger
	jobs     *repository.JobRepository
	provider generation.Provider
	mirror   AssetMirror
	notifier service.Notifier
	interval time.Duration
	inFlight atomic.Bool
	ticks    sync.WaitGroup
}

func NewProcessor(log *slog.Logger, jobs *repository.JobRepository, provider generation.Provider, mirror AssetMirror, notifier service.Notifier, interval time.Duration) *Processor {
	if notifier == nil {
		notifier = service.NopNotifier{}
	}
	if interval <= 0 {
		interval = 2500 * time.Millisecond
	}
	return &Processor{
		log:      log,
		jobs:     jobs,
		provider: provider,
		mirror:   mirror,
		notifier: notifier,
		interval: interval,
	}
}

// Run ticks until ctx is cancelled. Each tick runs in its own goroutine so a slow job
// does not delay the ticker; ticks that find a job in flight are dropped.
// Run returns only after the in-flight tick has written its result.
func (p *Processor) Run(ctx context.Context) error {
	p.log.Info("job worker started", "interval", p.interval)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.ticks.Wait()
			p.log.Info("job worker stopped")
			return nil
		case <-ticker.C:
			p.ticks.Add(1)
			go func() {
				defer p.ticks.Done()
				p.Tick(ctx)
			}()
		}
	}
}

// Tick claims and runs at most one queued job. It returns false when the tick was
// skipped because another tick is still running.
func (p *Processor) Tick(ctx context.Context) bool {
	if !p.inFlight.CompareAndSwap(false, true) {
		metrics.WorkerTicksSkipped.Inc()
		return false
	}
	defer p.inFlight.Store(false)

	job, err := p.jobs.ClaimNextQueued(ctx)
	if err != nil {
		p.log.Error("claim queued job", "err", err)
		return true
	}
	if job == nil {
		return true
	}
	p.process(ctx, job)
	return true
}

func (p *Processor) process(ctx context.Context, job *models.Job) {
	started := time.Now()
	log := p.log.With("job_id", job.ID, "account_id", job.AccountID, "kind", job.Params.Kind)
	log.Info("job running")

	url, err := p.generate(ctx, job)
	if err != nil && ctx.Err() != nil {
		// interrupted by shutdown, not by the provider: the next worker picks it up again
		log.Warn("job interrupted, requeueing", "err", err)
		if rerr := p.jobs.Requeue(context.WithoutCancel(ctx), job.ID); rerr != nil {
			log.Error("requeue job", "err", rerr)
		}
		return
	}
	metrics.JobDuration.WithLabelValues(string(job.Params.Kind)).Observe(time.Since(started).Seconds())
	if err != nil {
		log.Error("job failed", "err", err)
		metrics.JobsProcessed.WithLabelValues(string(models.JobFailed)).Inc()
		// a failed job is left for the user to resubmit; credits are not refunded
		if ferr := p.jobs.Fail(context.WithoutCancel(ctx), job.ID, err.Error()); ferr != nil {
			log.Error("mark job failed", "err", ferr)
		}
		if nerr := p.notifier.Notify(context.WithoutCancel(ctx), fmt.Sprintf("Job %d failed: %v", job.ID, err)); nerr != nil {
			log.Warn("notify job failure", "err", nerr)
		}
		return
	}

	if err := p.jobs.Complete(context.WithoutCancel(ctx), job.ID, url); err != nil {
		log.Error("mark job completed", "err", err)
		return
	}
	metrics.JobsProcessed.WithLabelValues(string(models.JobCompleted)).Inc()
	log.Info("job completed", "output_url", url, "duration", time.Since(started))
}

func (p *Processor) generate(ctx context.Context, job *models.Job) (url string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("provider panic: %v", r)
		}
	}()

	res, err := p.provider.Generate(ctx, job.Params)
	if err != nil {
		return "", err
	}
	if p.mirror == nil {
		return res.URL, nil
	}
	mirrored, err := p.mirror.Mirror(ctx, res.URL)
	if err != nil {
		// keep the provider URL rather than failing a finished job
		p.log.Warn("mirror asset", "job_id", job.ID, "err", err)
		return res.URL, nil
	}
	return mirrored, nil
}
