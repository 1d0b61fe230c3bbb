package completion

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	commonhttp "funnel-workers/internal/common/http"
)

const generatePath = "/api/ai/generate"

// GatewayClient calls the internal GenAI gateway over HTTP.
type GatewayClient struct {
	client     *commonhttp.Client
	baseURL    string
	maxRetries int
	baseDelay  time.Duration
}

func NewGatewayClient(cfg Config) *GatewayClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	if maxRetries > DefaultMaxRetries {
		maxRetries = DefaultMaxRetries
	}
	baseDelay := cfg.BaseDelay
	if baseDelay <= 0 {
		baseDelay = DefaultBaseDelay
	}
	return &GatewayClient{
		client:     commonhttp.NewClient(timeout, commonhttp.WithBearerToken(cfg.APIKey)),
		baseURL:    strings.TrimRight(cfg.GatewayURL, "/"),
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
	}
}

func (c *GatewayClient) Complete(ctx context.Context, req Request) (*Response, error) {
	if req.MaxTokens <= 0 {
		req.MaxTokens = DefaultMaxTokens
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", ErrCompletionFailed, err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.baseDelay * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, contextError(ctx, ctx.Err())
			}
		}

		resp, retryable, err := c.attempt(ctx, body)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, contextError(ctx, ctx.Err())
		}
		if !retryable {
			break
		}
	}
	return nil, fmt.Errorf("%w: %v", ErrCompletionFailed, lastErr)
}

// attempt performs one request and reports whether a failure may be retried.
func (c *GatewayClient) attempt(ctx context.Context, body []byte) (*Response, bool, error) {
	resp, err := c.client.PostJSON(ctx, c.baseURL+generatePath, body)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		retryable := resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests
		return nil, retryable, fmt.Errorf("status %d", resp.StatusCode)
	}

	var apiResponse struct {
		Text  string `json:"text"`
		Model string `json:"model"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return nil, false, fmt.Errorf("decode error: %v", err)
	}
	if strings.TrimSpace(apiResponse.Text) == "" {
		return nil, false, fmt.Errorf("empty completion")
	}

	return &Response{
		Text:     apiResponse.Text,
		Provider: ProviderGateway,
		Model:    apiResponse.Model,
	}, false, nil
}
