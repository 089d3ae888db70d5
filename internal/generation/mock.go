package generation

import (
	"context"
	"strings"
	"time"

	"github.com/digkill/futurepro/internal/models"
)

// MockProvider waits a fixed duration and returns a canned asset per kind.
type MockProvider struct {
	delay   time.Duration
	baseURL string
}

func NewMockProvider(delay time.Duration, baseURL string) *MockProvider {
	return &MockProvider{delay: delay, baseURL: strings.TrimRight(baseURL, "/")}
}

func (p *MockProvider) Generate(ctx context.Context, params models.JobParams) (*Result, error) {
	if p.delay > 0 {
		timer := time.NewTimer(p.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	name := "sample-image.png"
	if params.Kind == models.MediaVideo {
		name = "sample-video.mp4"
	}
	return &Result{URL: p.baseURL + "/" + name}, nil
}
