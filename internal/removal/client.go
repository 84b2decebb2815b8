package removal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultBaseURL is the production endpoint.
	DefaultBaseURL = "https://api.videobgremover.com"

	defaultTimeout = 30 * time.Second
	userAgent      = "videobgremover-go/1.0"
)

// Client talks to the background removal service. Calls never retry on
// their own; transient failures surface to the caller as APIError.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient builds a client for the given endpoint. An empty baseURL
// selects production.
func NewClient(logger zerolog.Logger, apiKey, baseURL string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger.With().Str("component", "removal").Logger(),
	}, nil
}

func (c *Client) request(ctx context.Context, method, endpoint string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// A canceled or expired context must stay recognizable to callers.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &APIError{Message: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.errorFromResponse(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &APIError{Message: fmt.Sprintf("failed to decode response: %v", err), StatusCode: resp.StatusCode}
	}
	return nil
}

func (c *Client) errorFromResponse(resp *http.Response) error {
	var payload struct {
		Error string `json:"error"`
	}
	message := fmt.Sprintf("HTTP %d", resp.StatusCode)
	if data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16)); err == nil && len(data) > 0 {
		if json.Unmarshal(data, &payload) == nil && payload.Error != "" {
			message = payload.Error
		}
	}
	base := APIError{Message: message, StatusCode: resp.StatusCode}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		base.Message = "invalid API key"
		return &base
	case http.StatusPaymentRequired:
		return &InsufficientCreditsError{APIError: base}
	case http.StatusNotFound:
		return &JobNotFoundError{APIError: base}
	}
	lower := strings.ToLower(message)
	if strings.Contains(lower, "processing") || strings.Contains(lower, "failed") {
		return &ProcessingError{APIError: base}
	}
	return &base
}

// CreateJobFromURL registers a job the service fetches itself.
func (c *Client) CreateJobFromURL(ctx context.Context, videoURL string) (*CreateJobResponse, error) {
	if _, err := url.ParseRequestURI(videoURL); err != nil {
		return nil, fmt.Errorf("invalid video url: %w", err)
	}
	var out CreateJobResponse
	if err := c.request(ctx, http.MethodPost, "/v1/jobs", CreateJobURL{VideoURL: videoURL}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateJobFromFile registers an upload job and pushes the local file to
// the signed upload slot the service hands back.
func (c *Client) CreateJobFromFile(ctx context.Context, path, contentType string) (*CreateJobResponse, error) {
	var out CreateJobResponse
	req := CreateJobFile{Filename: filepath.Base(path), ContentType: contentType}
	if err := c.request(ctx, http.MethodPost, "/v1/jobs", req, &out); err != nil {
		return nil, err
	}
	if out.UploadURL == "" {
		return nil, &APIError{Message: "service returned no upload url"}
	}
	if err := c.upload(ctx, out.UploadURL, path, contentType); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) upload(ctx context.Context, uploadURL, path, contentType string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open upload source: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat upload source: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, f)
	if err != nil {
		return fmt.Errorf("failed to build upload request: %w", err)
	}
	req.ContentLength = stat.Size()
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &APIError{Message: fmt.Sprintf("upload failed: %v", err)}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 400 {
		return &APIError{Message: "upload rejected", StatusCode: resp.StatusCode}
	}
	c.logger.Debug().Str("path", path).Int64("bytes", stat.Size()).Msg("upload complete")
	return nil
}

// StartJob begins processing. A nil request uses service defaults.
func (c *Client) StartJob(ctx context.Context, jobID string, req *StartJobRequest) error {
	if req == nil {
		req = &StartJobRequest{Format: "mp4"}
	}
	if req.Format == "" {
		req.Format = "mp4"
	}
	return c.request(ctx, http.MethodPost, "/v1/jobs/"+jobID+"/start", req, nil)
}

// Status fetches the current state of a job.
func (c *Client) Status(ctx context.Context, jobID string) (*JobStatus, error) {
	var out JobStatus
	if err := c.request(ctx, http.MethodGet, "/v1/jobs/"+jobID+"/status", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Wait polls until the job completes or fails. onStatus fires once per
// observed state change. Cancellation of ctx stops the wait.
func (c *Client) Wait(ctx context.Context, jobID string, pollInterval time.Duration, onStatus func(string)) (*JobStatus, error) {
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	lastStatus := ""
	for {
		status, err := c.Status(ctx, jobID)
		if err != nil {
			return nil, err
		}
		switch status.Status {
		case StatusCompleted:
			return status, nil
		case StatusFailed:
			message := status.Message
			if message == "" {
				message = "job processing failed"
			}
			return nil, &ProcessingError{APIError: APIError{Message: message}, JobID: jobID}
		}
		if onStatus != nil && status.Status != lastStatus {
			onStatus(status.Status)
			lastStatus = status.Status
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Credits fetches the account balance.
func (c *Client) Credits(ctx context.Context) (*CreditBalance, error) {
	var out CreditBalance
	if err := c.request(ctx, http.MethodGet, "/v1/credits", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// WebhookDeliveries fetches the delivery history for a job's webhooks.
func (c *Client) WebhookDeliveries(ctx context.Context, videoID string) (json.RawMessage, error) {
	var out json.RawMessage
	endpoint := "/v1/webhooks/deliveries?video_id=" + url.QueryEscape(videoID)
	if err := c.request(ctx, http.MethodGet, endpoint, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
