// internal/workers/funnel/extract-customer-profile/config.go
package extractcustomerprofile

import "time"

type Config struct {
	Timeout  time.Duration
	CacheTTL time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout:  5 * time.Second,
		CacheTTL: time.Hour,
	}
}
