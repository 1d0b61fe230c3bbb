package sections

import (
	"funnel-workers/internal/funnel/lexicon"
	"funnel-workers/internal/funnel/structure"
)

// Placeholder is one rendered section slot handed to copy generation.
type Placeholder struct {
	Position    int                    `json:"position"`
	SectionType string                 `json:"sectionType"`
	Name        string                 `json:"name"`
	Category    string                 `json:"category"`
	Content     map[string]interface{} `json:"content"`
	Options     map[string]interface{} `json:"options"`
	IsPremium   bool                   `json:"isPremium"`
}

// RenderPlaceholders builds placeholders in the given order. Section types
// without a template are returned in missing, in order of appearance.
func RenderPlaceholders(order []string, catalog *Catalog, copy structure.Microcopy) ([]Placeholder, []string) {
	placeholders := make([]Placeholder, 0, len(order))
	missing := []string{}

	for _, sectionType := range order {
		t, ok := catalog.Get(sectionType)
		if !ok {
			missing = append(missing, sectionType)
			continue
		}

		content := copyMap(t.ContentTemplate)
		applyMicrocopy(sectionType, content, copy)

		placeholders = append(placeholders, Placeholder{
			Position:    len(placeholders) + 1,
			SectionType: sectionType,
			Name:        t.Name,
			Category:    t.Category,
			Content:     content,
			Options:     t.DefaultOptions(),
			IsPremium:   t.IsPremium,
		})
	}
	return placeholders, missing
}

func applyMicrocopy(sectionType string, content map[string]interface{}, copy structure.Microcopy) {
	switch sectionType {
	case lexicon.SectionHero:
		if copy.Headline != "" {
			content["headline"] = copy.Headline
		}
		if copy.Description != "" {
			content["subheadline"] = copy.Description
		}
		setIfPresent(content, "ctaText", copy.CTA.Primary)
		setIfPresent(content, "secondaryCtaText", copy.CTA.Secondary)
	case lexicon.SectionUrgency:
		setIfPresent(content, "ctaText", copy.CTA.Urgency)
	case lexicon.SectionLeadCapture:
		setIfPresent(content, "ctaText", copy.CTA.Primary)
	}
}

func setIfPresent(content map[string]interface{}, key, value string) {
	if value != "" {
		content[key] = value
	}
}

func copyMap(in map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		return copyMap(val)
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = copyValue(item)
		}
		return out
	default:
		return val
	}
}
