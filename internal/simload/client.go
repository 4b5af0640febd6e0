package simload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fieldwise/dispatch/internal/domain/model"
)

// Client is a thin JSON client for the dispatch HTTP API.
type Client struct {
	base string
	http *http.Client
}

// NewClient creates a client against base with a request timeout.
func NewClient(base string, timeout time.Duration) *Client {
	return &Client{
		base: base,
		http: &http.Client{Timeout: timeout},
	}
}

// Health checks the service is reachable.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/healthz", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	defer drain(resp)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check: status %d", resp.StatusCode)
	}
	return nil
}

// RegisterContractor creates one contractor.
func (c *Client) RegisterContractor(ctx context.Context, contractor model.Contractor) error {
	return c.post(ctx, "/contractors", contractor, nil)
}

// CreateJob creates one job.
func (c *Client) CreateJob(ctx context.Context, job model.Job) error {
	return c.post(ctx, "/jobs", job, nil)
}

// recommendationRequest mirrors the API body.
type recommendationRequest struct {
	JobID      string `json:"job_id"`
	MaxResults int    `json:"max_results,omitempty"`
	Actor      string `json:"actor,omitempty"`
}

// RequestRecommendations issues one ranking request.
func (c *Client) RequestRecommendations(ctx context.Context, jobID string, maxResults int) (*model.RecommendationResult, error) {
	var result model.RecommendationResult
	err := c.post(ctx, "/recommendations", recommendationRequest{
		JobID:      jobID,
		MaxResults: maxResults,
		Actor:      "simload",
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal %s body: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	defer drain(resp)

	if resp.StatusCode >= http.StatusBadRequest {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("POST %s: status %d: %s", path, resp.StatusCode, msg)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s response: %w", path, err)
		}
	}
	return nil
}

// drain discards the remaining body so the connection can be reused.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
