// Package completion is the text-completion port used for funnel copy, with
// an HTTP gateway client and a Gemini client behind the same interface.
package completion

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	ProviderGateway = "gateway"
	ProviderGemini  = "gemini"

	DefaultMaxRetries = 3
	DefaultBaseDelay  = 2 * time.Second
	DefaultMaxTokens  = 1024
	DefaultTimeout    = 30 * time.Second
)

var (
	ErrCompletionTimeout = errors.New("COMPLETION_TIMEOUT")
	ErrCompletionFailed  = errors.New("COMPLETION_FAILED")
)

type Request struct {
	Prompt      string                 `json:"prompt"`
	Context     map[string]interface{} `json:"context,omitempty"`
	MaxTokens   int                    `json:"max_tokens"`
	Temperature float64                `json:"temperature"`
}

type Response struct {
	Text     string `json:"text"`
	Provider string `json:"provider"`
	Model    string `json:"model,omitempty"`
}

// TextCompletion turns a prompt into generated text.
type TextCompletion interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}

// Config selects and tunes a completion provider.
type Config struct {
	Provider    string
	GatewayURL  string
	APIKey      string
	Model       string
	Timeout     time.Duration
	MaxRetries  int
	BaseDelay   time.Duration
	MaxTokens   int
	Temperature float64
}

// New builds the client named by cfg.Provider.
func New(ctx context.Context, cfg Config) (TextCompletion, error) {
	switch cfg.Provider {
	case ProviderGateway, "":
		return NewGatewayClient(cfg), nil
	case ProviderGemini:
		return NewGeminiClient(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown completion provider %q", cfg.Provider)
	}
}

// Budget is the longest a single Complete call may take with cfg: every
// gateway attempt running to its timeout plus the backoff between them.
func Budget(cfg Config) time.Duration {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if cfg.Provider == ProviderGemini {
		return timeout
	}

	retries := min(max(cfg.MaxRetries, 0), DefaultMaxRetries)
	delay := cfg.BaseDelay
	if delay <= 0 {
		delay = DefaultBaseDelay
	}

	total := timeout * time.Duration(retries+1)
	for i := 0; i < retries; i++ {
		total += delay * time.Duration(1<<i)
	}
	return total
}

func contextError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return ErrCompletionTimeout
	}
	return fmt.Errorf("%w: %v", ErrCompletionFailed, err)
}
