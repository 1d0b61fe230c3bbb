// Package lexicon holds the declarative rule tables that drive funnel structure
// resolution: keyword to section mappings, tone detection patterns, per-tone
// ordering rules, calls to action and industry copy overrides.
package lexicon

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Section types referenced directly by the rule engine.
const (
	SectionHero           = "hero"
	SectionUrgency        = "urgency"
	SectionProductGallery = "product_gallery"
	SectionTestimonials   = "testimonials"
	SectionLeadCapture    = "lead_capture"
	SectionTrustBlock     = "trust_block"
)

// Tones.
const (
	ToneProfessional = "professional"
	ToneFriendly     = "friendly"
	ToneAggressive   = "aggressive"
	ToneEducational  = "educational"
	ToneLuxury       = "luxury"
)

var ErrInvalidLexicon = errors.New("INVALID_LEXICON")

//go:embed rules.yaml
var defaultRules []byte

type KeywordEntry struct {
	Keyword  string   `yaml:"keyword" json:"keyword"`
	Sections []string `yaml:"sections" json:"sections"`
}

type TonePattern struct {
	Tone    string `yaml:"tone" json:"tone"`
	Pattern string `yaml:"pattern" json:"pattern"`
}

// ToneRule describes how a tone shapes the funnel.
type ToneRule struct {
	Tone          string   `yaml:"tone" json:"tone"`
	PriorityOrder []string `yaml:"priorityOrder" json:"priorityOrder"`
	ForceUrgency  bool     `yaml:"forceUrgency" json:"forceUrgency"`
	AvoidUrgency  bool     `yaml:"avoidUrgency" json:"avoidUrgency"`
	EmphasisFlags []string `yaml:"emphasisFlags" json:"emphasisFlags"`
}

type CTA struct {
	Primary   string `yaml:"primary" json:"primary"`
	Secondary string `yaml:"secondary" json:"secondary"`
	Urgency   string `yaml:"urgency" json:"urgency"`
}

type IndustryCopy struct {
	Headline    string `yaml:"headline" json:"headline"`
	Description string `yaml:"description" json:"description"`
}

type document struct {
	DefaultTone  string                  `yaml:"defaultTone"`
	Keywords     []KeywordEntry          `yaml:"keywords"`
	TonePatterns []TonePattern           `yaml:"tonePatterns"`
	ToneRules    []ToneRule              `yaml:"toneRules"`
	CTAs         map[string]CTA          `yaml:"ctas"`
	IndustryCopy map[string]IndustryCopy `yaml:"industryCopy"`
}

type compiledTone struct {
	tone string
	re   *regexp.Regexp
}

// Lexicon is immutable after Load and safe for concurrent use.
type Lexicon struct {
	defaultTone  string
	keywords     []KeywordEntry
	patterns     []TonePattern
	tones        []compiledTone
	rules        map[string]ToneRule
	ruleOrder    []string
	ctas         map[string]CTA
	industryCopy map[string]IndustryCopy
}

// Default parses the rule tables compiled into the binary.
func Default() *Lexicon {
	lex, err := Parse(defaultRules)
	if err != nil {
		panic(fmt.Sprintf("embedded funnel rules: %v", err))
	}
	return lex
}

// LoadFile parses rule tables from a YAML file on disk.
func LoadFile(path string) (*Lexicon, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rules file: %w", err)
	}
	defer f.Close()
	return Load(f)
}

func Load(r io.Reader) (*Lexicon, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Lexicon, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLexicon, err)
	}
	if err := doc.validate(); err != nil {
		return nil, err
	}

	lex := &Lexicon{
		defaultTone:  doc.DefaultTone,
		keywords:     make([]KeywordEntry, 0, len(doc.Keywords)),
		patterns:     doc.TonePatterns,
		rules:        make(map[string]ToneRule, len(doc.ToneRules)),
		ctas:         doc.CTAs,
		industryCopy: doc.IndustryCopy,
	}
	if lex.industryCopy == nil {
		lex.industryCopy = map[string]IndustryCopy{}
	}

	for _, kw := range doc.Keywords {
		lex.keywords = append(lex.keywords, KeywordEntry{
			Keyword:  strings.ToLower(kw.Keyword),
			Sections: append([]string(nil), kw.Sections...),
		})
	}
	for _, p := range doc.TonePatterns {
		re, err := regexp.Compile(p.Pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: tone %q pattern: %v", ErrInvalidLexicon, p.Tone, err)
		}
		lex.tones = append(lex.tones, compiledTone{tone: p.Tone, re: re})
	}
	for _, rule := range doc.ToneRules {
		lex.rules[rule.Tone] = rule
		lex.ruleOrder = append(lex.ruleOrder, rule.Tone)
	}

	return lex, nil
}

func (d *document) validate() error {
	if d.DefaultTone == "" {
		return fmt.Errorf("%w: defaultTone is required", ErrInvalidLexicon)
	}

	rules := make(map[string]bool, len(d.ToneRules))
	for _, rule := range d.ToneRules {
		if rule.Tone == "" {
			return fmt.Errorf("%w: tone rule without tone", ErrInvalidLexicon)
		}
		if rules[rule.Tone] {
			return fmt.Errorf("%w: duplicate tone rule %q", ErrInvalidLexicon, rule.Tone)
		}
		if len(rule.PriorityOrder) == 0 || rule.PriorityOrder[0] != SectionHero {
			return fmt.Errorf("%w: tone %q priority order must start with %s", ErrInvalidLexicon, rule.Tone, SectionHero)
		}
		if rule.ForceUrgency && rule.AvoidUrgency {
			return fmt.Errorf("%w: tone %q both forces and avoids urgency", ErrInvalidLexicon, rule.Tone)
		}
		if _, ok := d.CTAs[rule.Tone]; !ok {
			return fmt.Errorf("%w: tone %q has no CTA", ErrInvalidLexicon, rule.Tone)
		}
		rules[rule.Tone] = true
	}

	if !rules[d.DefaultTone] {
		return fmt.Errorf("%w: default tone %q has no rule", ErrInvalidLexicon, d.DefaultTone)
	}
	for _, p := range d.TonePatterns {
		if !rules[p.Tone] {
			return fmt.Errorf("%w: pattern for unknown tone %q", ErrInvalidLexicon, p.Tone)
		}
	}

	seen := make(map[string]bool, len(d.Keywords))
	for _, kw := range d.Keywords {
		key := strings.ToLower(strings.TrimSpace(kw.Keyword))
		if key == "" {
			return fmt.Errorf("%w: empty keyword", ErrInvalidLexicon)
		}
		if seen[key] {
			return fmt.Errorf("%w: duplicate keyword %q", ErrInvalidLexicon, key)
		}
		if len(kw.Sections) == 0 {
			return fmt.Errorf("%w: keyword %q maps to no sections", ErrInvalidLexicon, key)
		}
		seen[key] = true
	}

	return nil
}

// Keywords returns the keyword table in evaluation order.
func (l *Lexicon) Keywords() []KeywordEntry {
	out := make([]KeywordEntry, len(l.keywords))
	for i, kw := range l.keywords {
		out[i] = KeywordEntry{Keyword: kw.Keyword, Sections: append([]string(nil), kw.Sections...)}
	}
	return out
}

func (l *Lexicon) TonePatterns() []TonePattern {
	return append([]TonePattern(nil), l.patterns...)
}

// Tones lists every tone with a rule, in declaration order.
func (l *Lexicon) Tones() []string {
	return append([]string(nil), l.ruleOrder...)
}

func (l *Lexicon) DefaultTone() string {
	return l.defaultTone
}

// DetectTone returns the first tone whose pattern matches, or the default tone.
func (l *Lexicon) DetectTone(text string) string {
	for _, t := range l.tones {
		if t.re.MatchString(text) {
			return t.tone
		}
	}
	return l.defaultTone
}

// Rule returns the rule for tone. Unknown tones resolve to the default tone's rule.
func (l *Lexicon) Rule(tone string) ToneRule {
	rule, ok := l.rules[tone]
	if !ok {
		rule = l.rules[l.defaultTone]
	}
	return ToneRule{
		Tone:          rule.Tone,
		PriorityOrder: append([]string(nil), rule.PriorityOrder...),
		ForceUrgency:  rule.ForceUrgency,
		AvoidUrgency:  rule.AvoidUrgency,
		EmphasisFlags: append([]string(nil), rule.EmphasisFlags...),
	}
}

func (l *Lexicon) CTA(tone string) CTA {
	if cta, ok := l.ctas[tone]; ok {
		return cta
	}
	return l.ctas[l.defaultTone]
}

func (l *Lexicon) IndustryCopy(industry string) (IndustryCopy, bool) {
	c, ok := l.industryCopy[industry]
	return c, ok
}

// Sections returns every section type the tables can produce, sorted.
func (l *Lexicon) Sections() []string {
	set := map[string]struct{}{SectionHero: {}}
	for _, kw := range l.keywords {
		for _, s := range kw.Sections {
			set[s] = struct{}{}
		}
	}
	for _, rule := range l.rules {
		for _, s := range rule.PriorityOrder {
			set[s] = struct{}{}
		}
		if rule.ForceUrgency {
			set[SectionUrgency] = struct{}{}
		}
	}
	set[SectionProductGallery] = struct{}{}
	set[SectionTestimonials] = struct{}{}
	set[SectionLeadCapture] = struct{}{}
	set[SectionTrustBlock] = struct{}{}

	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
