package prosody

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/jonathanlyon/critical-dream-theory-sub000/domain/entities"
	"github.com/jonathanlyon/critical-dream-theory-sub000/domain/repositories"
)

const (
	defaultBaseURL      = "https://api.hume.ai/v0/batch"
	defaultPollInterval = 2 * time.Second
	defaultPollCeiling  = 30 * time.Second
)

// jobState tracks one prosody request through the batch-job lifecycle.
type jobState string

const (
	stateNotConfigured jobState = "not_configured"
	stateSubmitted     jobState = "submitted"
	statePolling       jobState = "polling"
	stateCompleted     jobState = "completed"
	stateFailed        jobState = "failed"
	stateTimedOut      jobState = "timed_out"
)

// HumeConfig holds configuration for the prosody batch-job client.
// An empty APIKey disables the stage entirely.
// Optional fields with defaults:
// - BaseURL: batch API root (default: "https://api.hume.ai/v0/batch")
// - PollInterval: delay between status polls (default: 2s)
// - PollCeiling: wall-clock budget for one job (default: 30s)
type HumeConfig struct {
	APIKey       string
	BaseURL      string
	PollInterval time.Duration
	PollCeiling  time.Duration
}

// NewHumeConfigFromEnv reads HUME_API_KEY and HUME_BASE_URL.
func NewHumeConfigFromEnv() HumeConfig {
	return HumeConfig{
		APIKey:  os.Getenv("HUME_API_KEY"),
		BaseURL: os.Getenv("HUME_BASE_URL"),
	}
}

// HumeClient submits a recording as a prosody batch job, polls it to a
// terminal state, and reduces the predictions into a ProsodyInsight. The
// stage is best-effort end to end: every failure path resolves to an absent
// insight for the caller.
type HumeClient struct {
	apiKey       string
	baseURL      string
	pollInterval time.Duration
	pollCeiling  time.Duration
	httpClient   *http.Client
	clock        Clock
	logger       *zap.Logger
}

var _ repositories.ProsodyAnalyzer = (*HumeClient)(nil)

// NewHumeClient creates the client.
func NewHumeClient(config HumeConfig, logger *zap.Logger) *HumeClient {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	pollInterval := config.PollInterval
	if pollInterval == 0 {
		pollInterval = defaultPollInterval
	}
	pollCeiling := config.PollCeiling
	if pollCeiling == 0 {
		pollCeiling = defaultPollCeiling
	}

	return &HumeClient{
		apiKey:       config.APIKey,
		baseURL:      baseURL,
		pollInterval: pollInterval,
		pollCeiling:  pollCeiling,
		httpClient:   &http.Client{Timeout: 15 * time.Second},
		clock:        realClock{},
		logger:       logger,
	}
}

// Analyze runs the full submit → poll → reduce cycle. A nil insight with a
// nil error means the service is not configured; a non-nil error explains why
// no insight was produced.
func (c *HumeClient) Analyze(ctx context.Context, audio []byte) (*entities.ProsodyInsight, error) {
	if c.apiKey == "" {
		c.logger.Debug("Prosody service not configured, skipping",
			zap.String("state", string(stateNotConfigured)))
		return nil, nil
	}

	jobID, err := c.submitJob(ctx, audio)
	if err != nil {
		return nil, fmt.Errorf("prosody submit failed: %w", err)
	}

	c.logger.Info("Prosody job submitted",
		zap.String("jobID", jobID),
		zap.String("state", string(stateSubmitted)))

	deadline := c.clock.Now().Add(c.pollCeiling)
	state := statePolling

	for state == statePolling {
		if err := c.clock.Sleep(ctx, c.pollInterval); err != nil {
			return nil, fmt.Errorf("prosody polling cancelled: %w", err)
		}
		if c.clock.Now().After(deadline) {
			state = stateTimedOut
			break
		}

		status, err := c.jobStatus(ctx, jobID)
		if err != nil {
			// Transient status-read failures burn poll budget, not the job.
			c.logger.Warn("Prosody status poll failed", zap.String("jobID", jobID), zap.Error(err))
			continue
		}

		switch status {
		case "COMPLETED":
			state = stateCompleted
		case "FAILED":
			state = stateFailed
		}
	}

	switch state {
	case stateTimedOut:
		return nil, fmt.Errorf("prosody job %s timed out after %s", jobID, c.pollCeiling)
	case stateFailed:
		return nil, fmt.Errorf("prosody job %s failed", jobID)
	}

	groups, err := c.fetchPredictions(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("prosody predictions fetch failed: %w", err)
	}

	insight := extractProsodyInsights(groups)

	c.logger.Info("Prosody job completed",
		zap.String("jobID", jobID),
		zap.Int("dominantEmotions", len(insight.DominantEmotions)),
		zap.String("overallTone", string(insight.OverallTone)))

	return insight, nil
}

type submitRequest struct {
	Models submitModels `json:"models"`
	Files  []submitFile `json:"files"`
}

type submitModels struct {
	Prosody submitProsody `json:"prosody"`
}

type submitProsody struct {
	Granularity string `json:"granularity"`
}

type submitFile struct {
	ContentType string `json:"content_type"`
	Data        string `json:"data"`
}

type submitResponse struct {
	JobID string `json:"job_id"`
}

func (c *HumeClient) submitJob(ctx context.Context, audio []byte) (string, error) {
	payload, err := json.Marshal(submitRequest{
		Models: submitModels{Prosody: submitProsody{Granularity: "utterance"}},
		Files: []submitFile{{
			ContentType: "audio/webm",
			Data:        base64.StdEncoding.EncodeToString(audio),
		}},
	})
	if err != nil {
		return "", err
	}

	var resp submitResponse
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/jobs", payload, &resp); err != nil {
		return "", err
	}
	if resp.JobID == "" {
		return "", fmt.Errorf("submit response carried no job id")
	}
	return resp.JobID, nil
}

type statusResponse struct {
	State struct {
		Status string `json:"status"`
	} `json:"state"`
}

func (c *HumeClient) jobStatus(ctx context.Context, jobID string) (string, error) {
	var resp statusResponse
	if err := c.doJSON(ctx, http.MethodGet, c.baseURL+"/jobs/"+jobID, nil, &resp); err != nil {
		return "", err
	}
	return resp.State.Status, nil
}

// Prediction envelope: jobs/{id}/predictions returns one entry per source
// file, each carrying grouped prosody predictions.
type predictionEnvelope struct {
	Results struct {
		Predictions []struct {
			Models struct {
				Prosody struct {
					GroupedPredictions []groupedPrediction `json:"grouped_predictions"`
				} `json:"prosody"`
			} `json:"models"`
		} `json:"predictions"`
	} `json:"results"`
}

func (c *HumeClient) fetchPredictions(ctx context.Context, jobID string) ([]groupedPrediction, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/jobs/"+jobID+"/predictions", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Hume-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("predictions request returned %d: %s", resp.StatusCode, body)
	}

	var envelopes []predictionEnvelope
	if err := json.Unmarshal(body, &envelopes); err != nil {
		return nil, fmt.Errorf("predictions decode failed: %w", err)
	}

	var groups []groupedPrediction
	for _, env := range envelopes {
		for _, pred := range env.Results.Predictions {
			groups = append(groups, pred.Models.Prosody.GroupedPredictions...)
		}
	}
	return groups, nil
}

// doJSON performs one JSON round trip with bounded exponential retry on
// transport and 5xx failures.
func (c *HumeClient) doJSON(ctx context.Context, method, url string, payload []byte, target interface{}) error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 10 * time.Second

	operation := func() error {
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, body)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("X-Hume-Api-Key", c.apiKey)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode >= 500 {
			return fmt.Errorf("server error %d: %s", resp.StatusCode, data)
		}
		if resp.StatusCode >= 300 {
			return backoff.Permanent(fmt.Errorf("request returned %d: %s", resp.StatusCode, data))
		}
		if err := json.Unmarshal(data, target); err != nil {
			return backoff.Permanent(fmt.Errorf("decode failed: %w", err))
		}
		return nil
	}

	return backoff.Retry(operation, backoff.WithContext(bo, ctx))
}
