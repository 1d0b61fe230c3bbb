// internal/workers/funnel/generate-funnel-copy/config.go
package generatefunnelcopy

import "time"

type Config struct {
	Timeout     time.Duration
	Provider    string // metrics label for fallbacks
	MaxTokens   int
	Temperature float64
}

func LoadConfig() *Config {
	return &Config{
		Timeout:     60 * time.Second,
		Provider:    "gateway",
		MaxTokens:   1024,
		Temperature: 0.7,
	}
}
