package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/digkill/futurepro/internal/config"
	"github.com/digkill/futurepro/internal/models"
)

// ReplicateClient runs predictions against a Replicate-compatible HTTP API.
type ReplicateClient struct {
	token        string
	baseURL      string
	imageVersion string
	videoVersion string
	pollInterval time.Duration
	maxAttempts  int
	httpClient   *http.Client
	log          *slog.Logger
}

type prediction struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  any             `json:"error"`
}

func NewReplicateClient(cfg config.Config, log *slog.Logger) *ReplicateClient {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = time.Minute
	}
	poll := cfg.ReplicatePollInterval
	if poll <= 0 {
		poll = 2 * time.Second
	}
	return &ReplicateClient{
		token:        cfg.ReplicateAPIToken,
		baseURL:      strings.TrimRight(cfg.ReplicateBaseURL, "/"),
		imageVersion: cfg.ReplicateImageVersion,
		videoVersion: cfg.ReplicateVideoVersion,
		pollInterval: poll,
		maxAttempts:  150,
		httpClient:   &http.Client{Timeout: timeout},
		log:          log,
	}
}

func (c *ReplicateClient) Generate(ctx context.Context, params models.JobParams) (*Result, error) {
	input := map[string]any{
		"prompt":          params.Prompt,
		"negative_prompt": params.NegativePrompt,
		"quality":         params.Quality,
	}
	version := c.imageVersion
	if params.Kind == models.MediaVideo {
		version = c.videoVersion
		input["duration"] = params.Duration
	}

	pred, err := c.create(ctx, version, input)
	if err != nil {
		return nil, fmt.Errorf("create prediction: %w", err)
	}
	// the create call may already carry the final output
	if done, res, err := finished(pred); done {
		return res, err
	}
	return c.poll(ctx, pred.ID)
}

func (c *ReplicateClient) endpoint(path string) (string, error) {
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base URL: %w", err)
	}
	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}
	return base.ResolveReference(ref).String(), nil
}

func (c *ReplicateClient) create(ctx context.Context, version string, input map[string]any) (*prediction, error) {
	fullURL, err := c.endpoint("/v1/predictions")
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(map[string]any{"version": version, "input": input})
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	pred, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if pred.ID == "" {
		return nil, fmt.Errorf("empty prediction id in response")
	}
	c.log.Info("replicate prediction created", "prediction_id", pred.ID, "status", pred.Status)
	return pred, nil
}

func (c *ReplicateClient) poll(ctx context.Context, id string) (*Result, error) {
	fullURL, err := c.endpoint("/v1/predictions/" + url.PathEscape(id))
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("new request: %w", err)
		}
		pred, err := c.do(req)
		if err != nil {
			return nil, fmt.Errorf("get prediction: %w", err)
		}
		if done, res, err := finished(pred); done {
			if err == nil {
				c.log.Info("replicate prediction completed", "prediction_id", id, "attempt", attempt+1)
			}
			return res, err
		}
		if attempt%10 == 0 {
			c.log.Debug("replicate prediction waiting", "prediction_id", id, "status", pred.Status, "attempt", attempt+1)
		}
	}
	return nil, fmt.Errorf("prediction timeout after %d attempts", c.maxAttempts)
}

func (c *ReplicateClient) do(req *http.Request) (*prediction, error) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("replicate request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode >= 300 {
		c.log.Error("replicate request failed", "status", resp.StatusCode, "url", req.URL.String(), "body", truncateBody(raw))
		return nil, fmt.Errorf("replicate error: status=%d body=%s", resp.StatusCode, truncateBody(raw))
	}

	var pred prediction
	if err := json.Unmarshal(raw, &pred); err != nil {
		return nil, fmt.Errorf("decode prediction: %w (body=%s)", err, truncateBody(raw))
	}
	return &pred, nil
}

// finished reports whether the prediction reached a terminal status.
func finished(pred *prediction) (bool, *Result, error) {
	switch pred.Status {
	case "succeeded":
		u, err := outputURL(pred.Output)
		if err != nil {
			return true, nil, err
		}
		return true, &Result{URL: u}, nil
	case "failed", "canceled":
		msg := "unknown error"
		if pred.Error != nil {
			msg = fmt.Sprint(pred.Error)
		}
		return true, nil, fmt.Errorf("prediction %s: %s", pred.Status, msg)
	}
	return false, nil, nil
}

// outputURL accepts either a single URL or a list of URLs and returns the first.
func outputURL(raw json.RawMessage) (string, error) {
	var single string
	if err := json.Unmarshal(raw, &single); err == nil && single != "" {
		return single, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 && list[0] != "" {
		return list[0], nil
	}
	return "", fmt.Errorf("no output url in prediction")
}
