package analyzer

import (
	"regexp"
	"strings"
	"sync"
)

// KeywordMatcher decides whether a lexicon keyword occurs in lower-cased text.
type KeywordMatcher interface {
	Match(text, keyword string) bool
}

// SubstringMatcher reports plain containment, so "reviewed" matches "review".
type SubstringMatcher struct{}

func (SubstringMatcher) Match(text, keyword string) bool {
	return keyword != "" && strings.Contains(text, keyword)
}

// WordBoundaryMatcher only matches whole words, allowing a plural suffix.
type WordBoundaryMatcher struct {
	patterns sync.Map // keyword -> *regexp.Regexp
}

func NewWordBoundaryMatcher() *WordBoundaryMatcher {
	return &WordBoundaryMatcher{}
}

func (m *WordBoundaryMatcher) Match(text, keyword string) bool {
	if keyword == "" {
		return false
	}
	if cached, ok := m.patterns.Load(keyword); ok {
		return cached.(*regexp.Regexp).MatchString(text)
	}
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(keyword) + `(?:s|es)?\b`)
	actual, _ := m.patterns.LoadOrStore(keyword, re)
	return actual.(*regexp.Regexp).MatchString(text)
}
