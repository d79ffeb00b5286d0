package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrMisconfigured marks a capability that cannot serve any query, e.g. a
// missing credential. Fusion treats it as fatal instead of an empty result.
var ErrMisconfigured = errors.New("search capability misconfigured")

// Config holds the configuration for the video search API client.
//
// Environment Variables (read by internal/config):
// - SEARCH_API_KEY: API key for the video search provider (required)
// - SEARCH_API_URL: API endpoint URL
// - SEARCH_TIMEOUT: Request timeout in seconds (default: 30)
type Config struct {
	APIKey  string `json:"api_key"`
	APIURL  string `json:"api_url"`
	Timeout int    `json:"timeout"`
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("%w: API key is required", ErrMisconfigured)
	}
	if c.APIURL == "" {
		return fmt.Errorf("%w: API URL is required", ErrMisconfigured)
	}
	if c.Timeout < 1 {
		return fmt.Errorf("timeout must be greater than 0")
	}
	return nil
}

// Client talks to the video-intelligence search API over HTTP.
// Thread-safe for concurrent use.
type Client struct {
	config     *Config
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a new search client with the given configuration.
func NewClient(config *Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &Client{
		config:  config,
		baseURL: config.APIURL,
		httpClient: &http.Client{
			Timeout: time.Duration(config.Timeout) * time.Second,
		},
	}, nil
}

type searchRequest struct {
	VideoID string `json:"video_id,omitempty"`
	TaskID  string `json:"task_id,omitempty"`
	Query   string `json:"query"`
	Limit   int    `json:"page_limit"`
}

type searchResponse struct {
	Data []struct {
		VideoID    string  `json:"video_id"`
		Start      float64 `json:"start"`
		End        float64 `json:"end"`
		Text       string  `json:"text"`
		Confidence float64 `json:"confidence"`
		Scope      string  `json:"embedding_scope"`
		DeepLink   string  `json:"deep_link"`
	} `json:"data"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("search API error: %s (code: %s)", e.Message, e.Code)
}

// Search runs a single query against one indexed video and returns its hits
// in the provider's own ranking order.
func (c *Client) Search(ctx context.Context, videoID, taskID, query string, limit int) ([]Hit, error) {
	payload := searchRequest{
		VideoID: videoID,
		TaskID:  taskID,
		Query:   query,
		Limit:   limit,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("%w: status %d: %s", ErrMisconfigured, resp.StatusCode, string(responseBody))
	}

	var parsed searchResponse
	if err := json.Unmarshal(responseBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if parsed.Error != nil && parsed.Error.Message != "" {
		return nil, parsed.Error
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("search request failed with status %d: %s", resp.StatusCode, string(responseBody))
	}

	hits := make([]Hit, 0, len(parsed.Data))
	for _, d := range parsed.Data {
		hits = append(hits, Hit{
			VideoID:    d.VideoID,
			StartSec:   d.Start,
			EndSec:     d.End,
			Text:       d.Text,
			Confidence: d.Confidence,
			Scope:      Scope(d.Scope),
			DeepLink:   d.DeepLink,
		})
	}
	return hits, nil
}
