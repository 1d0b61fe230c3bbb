package completion

import (
	"encoding/json"
	"fmt"
	"strings"

	"funnel-workers/internal/funnel/profile"
	"funnel-workers/internal/funnel/sections"
	"funnel-workers/internal/funnel/structure"
)

// BuildCopyPrompt assembles the copywriting prompt for one funnel. Output is
// deterministic for identical inputs.
func BuildCopyPrompt(prompt string, resolution structure.Resolution, p profile.CustomerProfile, placeholders []sections.Placeholder) string {
	var b strings.Builder

	b.WriteString("You are a conversion copywriter. Write the copy for every section of the funnel below.\n")
	b.WriteString("Return JSON keyed by sectionType; each value maps the content fields to their text.\n")

	fmt.Fprintf(&b, "\nBusiness request: %s\n", strings.TrimSpace(prompt))

	copy := resolution.Microcopy
	fmt.Fprintf(&b, "\nTone of voice: %s\n", copy.Tone)
	if len(copy.EmphasisFlags) > 0 {
		fmt.Fprintf(&b, "Emphasize: %s\n", strings.Join(copy.EmphasisFlags, ", "))
	}
	fmt.Fprintf(&b, "Primary CTA: %q\n", copy.CTA.Primary)
	fmt.Fprintf(&b, "Secondary CTA: %q\n", copy.CTA.Secondary)
	if copy.Headline != "" {
		fmt.Fprintf(&b, "Suggested headline: %q\n", copy.Headline)
	}

	b.WriteString("\nCustomer profile:\n")
	fmt.Fprintf(&b, "- Business: %s (%s)\n", p.BusinessInfo.Name, p.BusinessInfo.Industry)
	fmt.Fprintf(&b, "- Audience: %s\n", p.BusinessInfo.TargetAudience)
	writeList(&b, "Key benefits", p.BusinessInfo.KeyBenefits)
	writeList(&b, "Pain points", p.Psychographics.PainPoints)
	writeList(&b, "Motivations", p.Psychographics.Motivations)
	fmt.Fprintf(&b, "- Communication style: %s\n", p.Psychographics.CommunicationStyle)
	fmt.Fprintf(&b, "- Engagement level: %d/10, conversion intent: %d/10\n",
		p.BehavioralData.EngagementLevel, p.BehavioralData.ConversionIntent)
	fmt.Fprintf(&b, "- Primary goal: %s\n", p.ConversionStrategy.PrimaryGoal)
	writeList(&b, "Key messages", p.ConversionStrategy.KeyMessages)

	b.WriteString("\nSections in order:\n")
	for _, ph := range placeholders {
		content, _ := json.Marshal(ph.Content)
		fmt.Fprintf(&b, "%d. %s (%s): %s\n", ph.Position, ph.SectionType, ph.Name, content)
	}

	if len(resolution.AppliedRules) > 0 {
		b.WriteString("\nStructure notes:\n")
		for _, rule := range resolution.AppliedRules {
			fmt.Fprintf(&b, "- %s\n", rule)
		}
	}
	return b.String()
}

func writeList(b *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "- %s: %s\n", label, strings.Join(items, "; "))
}

// FallbackCopy renders the placeholders' default content in the same JSON
// shape the copy prompt asks the model for.
func FallbackCopy(placeholders []sections.Placeholder) string {
	out := make(map[string]map[string]interface{}, len(placeholders))
	for _, ph := range placeholders {
		out[ph.SectionType] = ph.Content
	}
	data, err := json.Marshal(out)
	if err != nil {
		return "{}"
	}
	return string(data)
}
