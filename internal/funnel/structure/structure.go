// Package structure resolves which funnel sections are enabled, their order and
// the copy variables handed to the prompt-construction layer.
package structure

import (
	"fmt"
	"sort"

	"funnel-workers/internal/funnel/analyzer"
	"funnel-workers/internal/funnel/lexicon"
)

// UrgencyPolicy controls whether keyword hits may re-add an urgency section
// that the tone asked to avoid.
type UrgencyPolicy string

const (
	// UrgencyStrict keeps urgency out for avoiding tones regardless of keywords.
	UrgencyStrict UrgencyPolicy = "strict"
	// UrgencyLegacy lets keyword detection re-add urgency after tone avoidance.
	UrgencyLegacy UrgencyPolicy = "legacy"
)

const (
	IndustryEcommerce  = "ecommerce"
	IndustryConsulting = "consulting"

	ObjectiveLeadGeneration = "lead_generation"
	ObjectiveTrustBuilding  = "trust_building"
)

// Microcopy carries the tone and industry copy variables.
type Microcopy struct {
	Tone          string      `json:"tone"`
	CTA           lexicon.CTA `json:"cta"`
	Headline      string      `json:"headline,omitempty"`
	Description   string      `json:"description,omitempty"`
	EmphasisFlags []string    `json:"emphasisFlags"`
}

// Resolution is the resolved funnel structure for one prompt.
type Resolution struct {
	EnabledSections []string                `json:"enabledSections"`
	SectionOrder    []string                `json:"sectionOrder"`
	AppliedRules    []string                `json:"appliedRules"`
	Microcopy       Microcopy               `json:"microcopyPersonalization"`
	Analysis        analyzer.PromptAnalysis `json:"analysis"`
}

type Engine struct {
	analyzer *analyzer.Analyzer
	lexicon  *lexicon.Lexicon
	policy   UrgencyPolicy
}

type Option func(*Engine)

func WithUrgencyPolicy(p UrgencyPolicy) Option {
	return func(e *Engine) {
		if p == UrgencyLegacy || p == UrgencyStrict {
			e.policy = p
		}
	}
}

func NewEngine(a *analyzer.Analyzer, opts ...Option) *Engine {
	e := &Engine{
		analyzer: a,
		lexicon:  a.Lexicon(),
		policy:   UrgencyStrict,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Policy() UrgencyPolicy {
	return e.policy
}

// Apply never fails. Unknown industries and objectives are ignored.
func (e *Engine) Apply(prompt, industry string, objectives []string) Resolution {
	analysis := e.analyzer.Analyze(prompt)
	rule := e.lexicon.Rule(analysis.ToneOfVoice)

	r := &resolver{enabled: []string{lexicon.SectionHero}, audit: []string{}}

	for _, section := range rule.PriorityOrder[1:] {
		r.enable(section)
	}
	r.record(fmt.Sprintf("Applied %s tone ordering", rule.Tone))

	if rule.ForceUrgency && !r.has(lexicon.SectionUrgency) {
		r.enable(lexicon.SectionUrgency)
		r.record(fmt.Sprintf("Forced urgency section for %s tone", rule.Tone))
	}
	if rule.AvoidUrgency && r.remove(lexicon.SectionUrgency) {
		r.record(fmt.Sprintf("Removed urgency section for %s tone", rule.Tone))
	}

	for _, section := range analysis.SuggestedSections {
		if r.has(section) {
			continue
		}
		if section == lexicon.SectionUrgency && rule.AvoidUrgency && e.policy == UrgencyStrict {
			r.record(fmt.Sprintf("Skipped urgency keyword for %s tone", rule.Tone))
			continue
		}
		r.enable(section)
		r.record(fmt.Sprintf("Added %s based on keyword detection", section))
	}

	switch industry {
	case IndustryEcommerce:
		if r.enable(lexicon.SectionProductGallery) {
			r.record("Added product gallery for ecommerce")
		}
	case IndustryConsulting:
		if r.enable(lexicon.SectionTestimonials) {
			r.record("Added testimonials for consulting")
		}
	}

	if contains(objectives, ObjectiveLeadGeneration) {
		r.enable(lexicon.SectionLeadCapture)
		r.record("Added lead capture for lead generation objective")
	}
	if contains(objectives, ObjectiveTrustBuilding) {
		r.enable(lexicon.SectionTrustBlock)
		r.record("Added trust block for trust building objective")
	}

	return Resolution{
		EnabledSections: r.enabled,
		SectionOrder:    orderSections(r.enabled, rule.PriorityOrder),
		AppliedRules:    r.audit,
		Microcopy:       e.microcopy(rule, industry),
		Analysis:        analysis,
	}
}

func (e *Engine) microcopy(rule lexicon.ToneRule, industry string) Microcopy {
	m := Microcopy{
		Tone:          rule.Tone,
		CTA:           e.lexicon.CTA(rule.Tone),
		EmphasisFlags: rule.EmphasisFlags,
	}
	if m.EmphasisFlags == nil {
		m.EmphasisFlags = []string{}
	}
	if c, ok := e.lexicon.IndustryCopy(industry); ok {
		m.Headline = c.Headline
		m.Description = c.Description
	}
	return m
}

// orderSections sorts by position in priority; unlisted sections keep their
// relative order after every listed one.
func orderSections(enabled, priority []string) []string {
	rank := make(map[string]int, len(priority))
	for i, s := range priority {
		if _, ok := rank[s]; !ok {
			rank[s] = i
		}
	}

	out := make([]string, len(enabled))
	copy(out, enabled)
	sort.SliceStable(out, func(i, j int) bool {
		return rankOf(rank, out[i], len(priority)) < rankOf(rank, out[j], len(priority))
	})
	return out
}

func rankOf(rank map[string]int, section string, fallback int) int {
	if r, ok := rank[section]; ok {
		return r
	}
	return fallback
}

type resolver struct {
	enabled []string
	audit   []string
}

func (r *resolver) has(section string) bool {
	return contains(r.enabled, section)
}

// enable appends section if missing and reports whether it was added.
func (r *resolver) enable(section string) bool {
	if r.has(section) {
		return false
	}
	r.enabled = append(r.enabled, section)
	return true
}

func (r *resolver) remove(section string) bool {
	for i, s := range r.enabled {
		if s == section {
			r.enabled = append(r.enabled[:i], r.enabled[i+1:]...)
			return true
		}
	}
	return false
}

func (r *resolver) record(entry string) {
	r.audit = append(r.audit, entry)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
