// internal/workers/funnel/notify-funnel-owner/config.go
package notifyfunnelowner

import "time"

type Config struct {
	Timeout      time.Duration
	FromEmail    string
	DashboardURL string
	EmailEnabled bool
	SMSEnabled   bool
	// IntentThreshold is the conversion intent at or above which the owner
	// also gets a text.
	IntentThreshold int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:         15 * time.Second,
		FromEmail:       "funnels@example.com",
		DashboardURL:    "https://app.example.com/blueprints",
		EmailEnabled:    true,
		SMSEnabled:      true,
		IntentThreshold: 8,
	}
}
