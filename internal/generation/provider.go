// Package generation talks to the image and video generation backends used by the job worker.
package generation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/digkill/futurepro/internal/config"
	"github.com/digkill/futurepro/internal/models"
)

const (
	ProviderMock      = "mock"
	ProviderReplicate = "replicate"
)

// Result is a finished asset reference.
type Result struct {
	URL string
}

// Provider produces the asset for a job. Implementations block until the asset is ready.
type Provider interface {
	Generate(ctx context.Context, params models.JobParams) (*Result, error)
}

// New builds the provider selected by GENERATION_PROVIDER.
func New(cfg config.Config, log *slog.Logger) (Provider, error) {
	switch cfg.GenerationProvider {
	case ProviderMock, "":
		return NewMockProvider(cfg.MockJobDuration, cfg.MockAssetBaseURL), nil
	case ProviderReplicate:
		return NewReplicateClient(cfg, log), nil
	default:
		return nil, fmt.Errorf("unsupported generation provider: %s", cfg.GenerationProvider)
	}
}

func truncateBody(body []byte) string {
	const limit = 512
	s := strings.TrimSpace(string(body))
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "…"
}
