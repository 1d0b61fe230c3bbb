// Package analyzer extracts keyword and tone signals from a free-text funnel prompt.
package analyzer

import (
	"strings"

	"funnel-workers/internal/funnel/lexicon"
)

const (
	confidencePerKeyword = 5 // each detected keyword adds 1/5
	maxConfidence        = 1.0
)

// PromptAnalysis is the signal set extracted from one prompt.
type PromptAnalysis struct {
	DetectedKeywords  []string `json:"detectedKeywords"`
	SuggestedSections []string `json:"suggestedSections"`
	ToneOfVoice       string   `json:"toneOfVoice"`
	Confidence        float64  `json:"confidence"`
}

type Analyzer struct {
	lexicon *lexicon.Lexicon
	matcher KeywordMatcher
}

type Option func(*Analyzer)

func WithMatcher(m KeywordMatcher) Option {
	return func(a *Analyzer) {
		if m != nil {
			a.matcher = m
		}
	}
}

func New(lex *lexicon.Lexicon, opts ...Option) *Analyzer {
	a := &Analyzer{
		lexicon: lex,
		matcher: SubstringMatcher{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Analyzer) Lexicon() *lexicon.Lexicon {
	return a.lexicon
}

// Analyze never fails; an empty prompt yields the default tone and zero confidence.
func (a *Analyzer) Analyze(prompt string) PromptAnalysis {
	result := PromptAnalysis{
		DetectedKeywords:  []string{},
		SuggestedSections: []string{},
		ToneOfVoice:       a.lexicon.DefaultTone(),
	}
	if prompt == "" {
		return result
	}

	text := strings.ToLower(prompt)
	for _, entry := range a.lexicon.Keywords() {
		if !a.matcher.Match(text, entry.Keyword) {
			continue
		}
		result.DetectedKeywords = appendUnique(result.DetectedKeywords, entry.Keyword)
		for _, section := range entry.Sections {
			result.SuggestedSections = appendUnique(result.SuggestedSections, section)
		}
	}

	result.ToneOfVoice = a.lexicon.DetectTone(text)
	result.Confidence = confidence(len(result.DetectedKeywords))
	return result
}

func confidence(hits int) float64 {
	c := float64(hits) / confidencePerKeyword
	if c > maxConfidence {
		return maxConfidence
	}
	return c
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
