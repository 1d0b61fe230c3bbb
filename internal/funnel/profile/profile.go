// Package profile infers a structured customer profile from a free-text
// business description using regex and keyword heuristics.
package profile

import (
	"regexp"
	"strings"
	"unicode"
)

const (
	engagementBaseline = 5
	intentBaseline     = 7
	minScore           = 0
	maxScore           = 10
	maxListItems       = 3
	maxPhraseLength    = 80
)

// Fallback values used when nothing in the prompt matches.
const (
	DefaultBusinessName       = "Your Business"
	DefaultIndustry           = "general"
	DefaultAudience           = "general audience"
	DefaultTone               = "friendly"
	DefaultCommunicationStyle = "conversational"
	DefaultGatheringStyle     = "balanced"
	DefaultPrimaryGoal        = "lead_generation"
)

var (
	defaultBenefits       = []string{"Save time", "Get reliable results", "Personal support"}
	defaultPainPoints     = []string{"Limited time", "Uncertain results"}
	defaultMotivations    = []string{"Achieve better results", "Save time"}
	defaultSecondaryGoals = []string{"nurture_leads"}
	defaultKeyMessages    = []string{"Quality you can trust", "Results that matter"}
)

type BusinessInfo struct {
	Name           string   `json:"name"`
	Industry       string   `json:"industry"`
	TargetAudience string   `json:"targetAudience"`
	KeyBenefits    []string `json:"keyBenefits"`
}

type Psychographics struct {
	PainPoints         []string `json:"painPoints"`
	Motivations        []string `json:"motivations"`
	PreferredTone      string   `json:"preferredTone"`
	CommunicationStyle string   `json:"communicationStyle"`
}

type BehavioralData struct {
	EngagementLevel           int    `json:"engagementLevel"`
	ConversionIntent          int    `json:"conversionIntent"`
	InformationGatheringStyle string `json:"informationGatheringStyle"`
}

type ConversionStrategy struct {
	PrimaryGoal    string   `json:"primaryGoal"`
	SecondaryGoals []string `json:"secondaryGoals"`
	KeyMessages    []string `json:"keyMessages"`
}

// CustomerProfile is fully populated for every input, including the empty string.
type CustomerProfile struct {
	BusinessInfo       BusinessInfo       `json:"businessInfo"`
	Psychographics     Psychographics     `json:"psychographics"`
	BehavioralData     BehavioralData     `json:"behavioralData"`
	ConversionStrategy ConversionStrategy `json:"conversionStrategy"`
}

// Extractor is safe for concurrent use.
type Extractor struct {
	namePatterns      []*regexp.Regexp
	audiencePattern   *regexp.Regexp
	benefitPattern    *regexp.Regexp
	painPointPattern  *regexp.Regexp
	motivationPattern *regexp.Regexp
	keyMessagePattern *regexp.Regexp
	industries        []category
	tones             []category
	styles            []category
	gatheringStyles   []category
	goals             []category
	engagementSignals []weightedCategory
	conversionSignals []weightedCategory
}

func NewExtractor() *Extractor {
	return &Extractor{
		namePatterns: []*regexp.Regexp{
			regexp.MustCompile(`\b(?:(?i:called|named)|(?i:brand|company|business|shop|store|studio|agency)\s+(?i:is|name is))\s+["'“]?([A-Z0-9][\w&'.-]*(?:\s+[A-Z0-9][\w&'.-]*){0,3})`),
			regexp.MustCompile(`\b(?i:at|from|with)\s+([A-Z][\w&'-]*(?:\s+[A-Z][\w&'-]*){0,2}\s+(?:Co|Inc|LLC|Ltd|Studio|Studios|Agency|Boutique|Bakery|Fitness|Consulting|Labs))\b`),
		},
		audiencePattern:   regexp.MustCompile(`(?i)\b(?:for|targeting|aimed at|serving)\s+([a-z][a-z0-9' -]{2,60}?)(?:\s+(?:who|that|with|in|to|looking|wanting|seeking)\b|[.,;:!?]|$)`),
		benefitPattern:    regexp.MustCompile(`(?i)\b(?:helps?\s+(?:you|them|customers|clients|people|users)\s+(?:to\s+)?|so\s+(?:that\s+)?(?:you|they)\s+can\s+|benefits?\s+(?:include|are|like)\s+)([^.,;!?]+)`),
		painPointPattern:  regexp.MustCompile(`(?i)\b(?:struggl\w*\s+with|problems?\s+with|frustrat\w*\s+(?:with|by)|tired\s+of|difficulty\s+(?:with|in)|pain\s+points?\s+(?:like|such\s+as|are|include))\s+([^.,;!?]+)`),
		motivationPattern: regexp.MustCompile(`(?i)\b(?:wants?\s+to|looking\s+to|hoping\s+to|dreams?\s+of|goal\s+is\s+to|eager\s+to)\s+([^.,;!?]+)`),
		keyMessagePattern: regexp.MustCompile(`(?i)\b(?:we\s+(?:offer|provide|deliver|help|specialize\s+in)|our\s+\w+\s+(?:is|are|helps?|offers?))\s+[^.;!?]+`),
		industries:        compileCategories(industryTable),
		tones:             compileCategories(toneTable),
		styles:            compileCategories(styleTable),
		gatheringStyles:   compileCategories(gatheringTable),
		goals:             compileCategories(goalTable),
		engagementSignals: compileWeighted(engagementTable),
		conversionSignals: compileWeighted(conversionTable),
	}
}

// Extract runs every sub-extractor independently and never fails.
func (e *Extractor) Extract(prompt string) CustomerProfile {
	return CustomerProfile{
		BusinessInfo: BusinessInfo{
			Name:           e.businessName(prompt),
			Industry:       firstMatch(e.industries, prompt, DefaultIndustry),
			TargetAudience: e.targetAudience(prompt),
			KeyBenefits:    captureList(e.benefitPattern, prompt, defaultBenefits),
		},
		Psychographics: Psychographics{
			PainPoints:         captureList(e.painPointPattern, prompt, defaultPainPoints),
			Motivations:        captureList(e.motivationPattern, prompt, defaultMotivations),
			PreferredTone:      firstMatch(e.tones, prompt, DefaultTone),
			CommunicationStyle: firstMatch(e.styles, prompt, DefaultCommunicationStyle),
		},
		BehavioralData: BehavioralData{
			EngagementLevel:           score(e.engagementSignals, prompt, engagementBaseline),
			ConversionIntent:          score(e.conversionSignals, prompt, intentBaseline),
			InformationGatheringStyle: firstMatch(e.gatheringStyles, prompt, DefaultGatheringStyle),
		},
		ConversionStrategy: ConversionStrategy{
			PrimaryGoal:    firstMatch(e.goals, prompt, DefaultPrimaryGoal),
			SecondaryGoals: e.secondaryGoals(prompt),
			KeyMessages:    e.keyMessages(prompt),
		},
	}
}

func (e *Extractor) businessName(prompt string) string {
	for _, re := range e.namePatterns {
		if m := re.FindStringSubmatch(prompt); len(m) > 1 {
			name := strings.Trim(strings.TrimSpace(m[1]), `"'“”.,`)
			if name != "" {
				return name
			}
		}
	}
	return DefaultBusinessName
}

func (e *Extractor) targetAudience(prompt string) string {
	for _, m := range e.audiencePattern.FindAllStringSubmatch(prompt, -1) {
		candidate := cleanPhrase(m[1])
		lower := strings.ToLower(candidate)
		if candidate == "" || hasAnyPrefix(lower, "my ", "our ", "the ", "a ", "an ", "this ", "your ") {
			continue
		}
		return candidate
	}
	return DefaultAudience
}

// secondaryGoals lists every matched goal after the first, in table order.
func (e *Extractor) secondaryGoals(prompt string) []string {
	matched := allMatches(e.goals, prompt)
	if len(matched) <= 1 {
		return append([]string(nil), defaultSecondaryGoals...)
	}
	return capList(matched[1:])
}

func (e *Extractor) keyMessages(prompt string) []string {
	var out []string
	for _, m := range e.keyMessagePattern.FindAllString(prompt, -1) {
		msg := capitalize(cleanPhrase(m))
		if msg != "" && !containsString(out, msg) {
			out = append(out, msg)
		}
		if len(out) == maxListItems {
			break
		}
	}
	if len(out) == 0 {
		return append([]string(nil), defaultKeyMessages...)
	}
	return out
}

func captureList(re *regexp.Regexp, prompt string, fallback []string) []string {
	var out []string
	for _, m := range re.FindAllStringSubmatch(prompt, -1) {
		item := cleanPhrase(m[1])
		if item != "" && !containsString(out, item) {
			out = append(out, item)
		}
		if len(out) == maxListItems {
			break
		}
	}
	if len(out) == 0 {
		return append([]string(nil), fallback...)
	}
	return out
}

func score(signals []weightedCategory, prompt string, baseline int) int {
	total := baseline
	for _, s := range signals {
		if s.re.MatchString(prompt) {
			total += s.weight
		}
	}
	return clampScore(total)
}

func clampScore(v int) int {
	if v < minScore {
		return minScore
	}
	if v > maxScore {
		return maxScore
	}
	return v
}

func cleanPhrase(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	s = strings.Trim(s, ` "'“”-`)
	if r := []rune(s); len(r) > maxPhraseLength {
		s = strings.TrimSpace(string(r[:maxPhraseLength]))
	}
	return s
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func capList(list []string) []string {
	if len(list) > maxListItems {
		list = list[:maxListItems]
	}
	return append([]string(nil), list...)
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
