// internal/workers/funnel/generate-funnel-copy/models.go
package generatefunnelcopy

import (
	"funnel-workers/internal/funnel/profile"
	"funnel-workers/internal/funnel/sections"
	"funnel-workers/internal/funnel/structure"
)

type Input struct {
	BlueprintID  string                  `json:"blueprintId,omitempty"`
	Prompt       string                  `json:"prompt"`
	Resolution   structure.Resolution    `json:"resolution"`
	Profile      profile.CustomerProfile `json:"profile"`
	Placeholders []sections.Placeholder  `json:"placeholders"`
}

type Output struct {
	BlueprintID string `json:"blueprintId"`
	Copy        string `json:"copy"`
	Provider    string `json:"provider"`
	Model       string `json:"model,omitempty"`
	Fallback    bool   `json:"fallback"`
}

// ProviderFallback marks copy rendered from section defaults.
const ProviderFallback = "template"
