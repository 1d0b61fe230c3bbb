// internal/workers/funnel/select-section-templates/config.go
package selectsectiontemplates

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
