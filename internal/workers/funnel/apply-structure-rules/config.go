// internal/workers/funnel/apply-structure-rules/config.go
package applystructurerules

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 5 * time.Second,
	}
}
