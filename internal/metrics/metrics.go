// Package metrics registers the prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CreditsCharged = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "futurepro_credits_charged_total",
		Help: "Credits debited from account balances.",
	}, []string{"reason"})

	ChargeFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "futurepro_charge_failures_total",
		Help: "Charges rejected for insufficient balance.",
	}, []string{"reason"})

	JobsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "futurepro_jobs_processed_total",
		Help: "Generation jobs finished by the worker.",
	}, []string{"status"})

	JobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "futurepro_job_duration_seconds",
		Help:    "Time spent running a generation job.",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	}, []string{"kind"})

	WebhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "futurepro_webhook_events_total",
		Help: "Payment webhook events by type and outcome.",
	}, []string{"type", "result"})

	WorkerTicksSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "futurepro_worker_ticks_skipped_total",
		Help: "Worker ticks dropped because a job was still in flight.",
	})
)
