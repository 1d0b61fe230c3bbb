// internal/workers/funnel/apply-structure-rules/models.go
package applystructurerules

import "funnel-workers/internal/funnel/structure"

type Input struct {
	Prompt     string   `json:"prompt"`
	Industry   string   `json:"industry,omitempty"`
	Objectives []string `json:"objectives,omitempty"`
}

type Output struct {
	Resolution structure.Resolution `json:"resolution"`
}
