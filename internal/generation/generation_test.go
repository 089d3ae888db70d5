package generation

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digkill/futurepro/internal/config"
	"github.com/digkill/futurepro/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMockProvider(t *testing.T) {
	p := NewMockProvider(10*time.Millisecond, "https://cdn.example.com/demo/")

	res, err := p.Generate(context.Background(), models.JobParams{MediaSpec: models.MediaSpec{Kind: models.MediaVideo}})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/demo/sample-video.mp4", res.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewMockProvider(time.Hour, "x").Generate(ctx, models.JobParams{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew(t *testing.T) {
	p, err := New(config.Config{GenerationProvider: "mock"}, testLogger())
	require.NoError(t, err)
	assert.IsType(t, &MockProvider{}, p)

	_, err = New(config.Config{GenerationProvider: "dalle"}, testLogger())
	assert.Error(t, err)
}

func replicateConfig(baseURL string) config.Config {
	return config.Config{
		ReplicateAPIToken:     "r8_test",
		ReplicateBaseURL:      baseURL,
		ReplicateImageVersion: "img-v1",
		ReplicateVideoVersion: "vid-v1",
		ReplicatePollInterval: time.Millisecond,
	}
}

func TestReplicateClient_Polls(t *testing.T) {
	var polls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer r8_test", r.Header.Get("Authorization"))
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/predictions":
			var body struct {
				Version string         `json:"version"`
				Input   map[string]any `json:"input"`
			}
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "vid-v1", body.Version)
			assert.Equal(t, float64(20), body.Input["duration"])
			assert.Equal(t, "no text", body.Input["negative_prompt"])
			_, _ = w.Write([]byte(`{"id":"p1","status":"starting"}`))
		case r.Method == http.MethodGet && r.URL.Path == "/v1/predictions/p1":
			if polls.Add(1) < 3 {
				_, _ = w.Write([]byte(`{"id":"p1","status":"processing"}`))
				return
			}
			_, _ = w.Write([]byte(`{"id":"p1","status":"succeeded","output":["https://replicate.delivery/out.mp4"]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := NewReplicateClient(replicateConfig(srv.URL), testLogger())
	res, err := client.Generate(context.Background(), models.JobParams{
		MediaSpec:      models.MediaSpec{Kind: models.MediaVideo, Quality: "1080p", Duration: 20},
		Prompt:         "waves",
		NegativePrompt: "no text",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://replicate.delivery/out.mp4", res.URL)
	assert.Equal(t, int32(3), polls.Load())
}

func TestReplicateClient_ImmediateOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"p2","status":"succeeded","output":"https://replicate.delivery/out.png"}`))
	}))
	defer srv.Close()

	res, err := NewReplicateClient(replicateConfig(srv.URL), testLogger()).Generate(context.Background(), models.JobParams{
		MediaSpec: models.MediaSpec{Kind: models.MediaImage, Quality: "1024"},
	})
	require.NoError(t, err)
	assert.Equal(t, "https://replicate.delivery/out.png", res.URL)
}

func TestReplicateClient_Failures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			_, _ = w.Write([]byte(`{"id":"p3","status":"starting"}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":"p3","status":"failed","error":"NSFW content detected"}`))
	}))
	defer srv.Close()

	_, err := NewReplicateClient(replicateConfig(srv.URL), testLogger()).Generate(context.Background(), models.JobParams{})
	assert.ErrorContains(t, err, "NSFW content detected")

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"invalid token"}`, http.StatusUnauthorized)
	}))
	defer down.Close()

	_, err = NewReplicateClient(replicateConfig(down.URL), testLogger()).Generate(context.Background(), models.JobParams{})
	assert.ErrorContains(t, err, "status=401")
}
