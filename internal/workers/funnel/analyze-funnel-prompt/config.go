// internal/workers/funnel/analyze-funnel-prompt/config.go
package analyzefunnelprompt

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 5 * time.Second,
	}
}
