// internal/workers/funnel/select-section-templates/models.go
package selectsectiontemplates

import (
	"funnel-workers/internal/funnel/sections"
	"funnel-workers/internal/funnel/structure"
)

type Input struct {
	SectionOrder []string            `json:"sectionOrder"`
	Microcopy    structure.Microcopy `json:"microcopy"`
	Industry     string              `json:"industry,omitempty"`
}

type Output struct {
	Placeholders    []sections.Placeholder `json:"placeholders"`
	MissingSections []string               `json:"missingSections"`
	// IndustryMatches lists rendered sections whose template is tagged for the industry.
	IndustryMatches []string `json:"industryMatches"`
}
