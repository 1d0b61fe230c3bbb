package analyzer

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"funnel-workers/internal/funnel/lexicon"
)

func newTestAnalyzer(opts ...Option) *Analyzer {
	return New(lexicon.Default(), opts...)
}

// ==========================
// Core Behaviour
// ==========================

func TestAnalyze_EmptyPrompt(t *testing.T) {
	got := newTestAnalyzer().Analyze("")

	assert.Empty(t, got.DetectedKeywords)
	assert.Empty(t, got.SuggestedSections)
	assert.NotNil(t, got.DetectedKeywords)
	assert.NotNil(t, got.SuggestedSections)
	assert.Equal(t, lexicon.ToneFriendly, got.ToneOfVoice)
	assert.Equal(t, 0.0, got.Confidence)
}

func TestAnalyze_LuxuryFashionPrompt(t *testing.T) {
	got := newTestAnalyzer().Analyze("create a luxury fashion funnel showcasing our premium collections with elegant testimonials")

	want := PromptAnalysis{
		DetectedKeywords:  []string{"testimonial", "collection"},
		SuggestedSections: []string{"testimonials", "product_gallery"},
		ToneOfVoice:       lexicon.ToneLuxury,
		Confidence:        0.4,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Analyze() mismatch (-want +got):\n%s", diff)
	}
}

func TestAnalyze_ProfessionalFinancePrompt(t *testing.T) {
	got := newTestAnalyzer().Analyze("professional financial planning funnel with trust indicators and faq section")

	assert.Equal(t, lexicon.ToneProfessional, got.ToneOfVoice)
	assert.Equal(t, []string{"trust", "faq"}, got.DetectedKeywords)
	assert.Equal(t, []string{"trust_block", "faq"}, got.SuggestedSections)
}

func TestAnalyze_SectionsDeduplicatedInInsertionOrder(t *testing.T) {
	got := newTestAnalyzer().Analyze("customer reviews, testimonials and a money back guarantee you can trust")

	assert.Equal(t, []string{"testimonial", "review", "trust", "guarantee"}, got.DetectedKeywords)
	assert.Equal(t, []string{"testimonials", "social_proof", "trust_block", "guarantee"}, got.SuggestedSections)
}

func TestAnalyze_SubstringMatchesInsideLargerWords(t *testing.T) {
	tests := []struct {
		name    string
		prompt  string
		keyword string
		section string
	}{
		{"plural", "show our products", "product", "product_gallery"},
		{"verb form", "highly reviewed service", "review", "social_proof"},
		{"compound", "a trustworthy brand", "trust", "trust_block"},
		{"prefix", "unlimited coffee", "limited", "urgency"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := newTestAnalyzer().Analyze(tt.prompt)
			assert.Contains(t, got.DetectedKeywords, tt.keyword)
			assert.Contains(t, got.SuggestedSections, tt.section)
		})
	}
}

func TestAnalyze_KeywordImpliesSections(t *testing.T) {
	a := newTestAnalyzer()

	for _, entry := range a.Lexicon().Keywords() {
		t.Run(entry.Keyword, func(t *testing.T) {
			got := a.Analyze("we need " + entry.Keyword + " on the page")
			assert.Contains(t, got.DetectedKeywords, entry.Keyword)
			for _, section := range entry.Sections {
				assert.Contains(t, got.SuggestedSections, section)
			}
		})
	}
}

func TestAnalyze_CaseInsensitive(t *testing.T) {
	a := newTestAnalyzer()

	assert.Equal(t, a.Analyze("testimonials and faq"), a.Analyze("TESTIMONIALS and FAQ"))
}

func TestAnalyze_Confidence(t *testing.T) {
	tests := []struct {
		name   string
		prompt string
		want   float64
	}{
		{"no keywords", "hello world", 0.0},
		{"one keyword", "add a faq", 0.2},
		{"three keywords", "faq, pricing and video", 0.6},
		{"saturates", "testimonial review trust guarantee faq video pricing", 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := newTestAnalyzer().Analyze(tt.prompt)
			assert.InDelta(t, tt.want, got.Confidence, 1e-9)
			assert.GreaterOrEqual(t, got.Confidence, 0.0)
			assert.LessOrEqual(t, got.Confidence, 1.0)
		})
	}
}

func TestAnalyze_ConfidenceMonotonic(t *testing.T) {
	a := newTestAnalyzer()
	prompt := "a page"
	previous := a.Analyze(prompt).Confidence

	for _, kw := range []string{"faq", "video", "pricing", "trust", "about", "demo", "booking"} {
		prompt += " " + kw
		current := a.Analyze(prompt).Confidence
		assert.GreaterOrEqual(t, current, previous, "adding %q lowered confidence", kw)
		previous = current
	}
	assert.Equal(t, 1.0, previous)
}

func TestAnalyze_Idempotent(t *testing.T) {
	a := newTestAnalyzer()
	prompt := "urgent sale on our product collection with reviews"

	first := a.Analyze(prompt)
	second := a.Analyze(prompt)
	assert.Equal(t, first, second)
}

func TestAnalyze_NeverPanics(t *testing.T) {
	a := newTestAnalyzer()

	inputs := []string{
		"\xff\xfe\xfd",
		"über luxuriöse Kollektion für Damen",
		"高级时装 testimonial",
		strings.Repeat("faq ", 10000),
		"\x00\x01",
	}
	for _, in := range inputs {
		require.NotPanics(t, func() { a.Analyze(in) })
	}
	assert.Contains(t, a.Analyze("高级时装 testimonial").DetectedKeywords, "testimonial")
}

func TestAnalyze_DetectedKeywordsAreSubstringsOfLoweredPrompt(t *testing.T) {
	prompts := []string{
		"",
		"Create a luxury fashion funnel showcasing our premium collections with elegant testimonials",
		"Professional financial planning funnel with trust indicators and FAQ section",
		"URGENT: Limited Countdown! Subscribe to the Newsletter, book an Appointment",
		"customer reviews, testimonials and a money back guarantee you can trust",
		"Watch the DEMO video, read our story, compare pricing and features",
		"über luxuriöse Kollektion für Damen mit Garantie",
		"高级时装 testimonial 产品 gallery",
		"\xff\xfeproduct\xfd review \xc3\x28 faq",
		"\x00lead\x01 contact",
		"Kelvin \u212a product",
	}

	matchers := map[string]Option{
		"substring":     WithMatcher(SubstringMatcher{}),
		"word boundary": WithMatcher(NewWordBoundaryMatcher()),
	}
	for name, opt := range matchers {
		t.Run(name, func(t *testing.T) {
			a := newTestAnalyzer(opt)
			for _, p := range prompts {
				lowered := strings.ToLower(p)
				for _, kw := range a.Analyze(p).DetectedKeywords {
					assert.Truef(t, strings.Contains(lowered, kw), "keyword %q is not a substring of %q", kw, lowered)
				}
			}
		})
	}
}

// ==========================
// Matchers
// ==========================

func TestWordBoundaryMatcher(t *testing.T) {
	m := NewWordBoundaryMatcher()

	tests := []struct {
		text    string
		keyword string
		want    bool
	}{
		{"customer review", "review", true},
		{"customer reviews", "review", true},
		{"highly reviewed", "review", false},
		{"unlimited coffee", "limited", false},
		{"limited offer", "limited", true},
		{"faq section", "faq", true},
		{"anything", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.text+"/"+tt.keyword, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Match(tt.text, tt.keyword))
			assert.Equal(t, tt.want, m.Match(tt.text, tt.keyword), "cached pattern")
		})
	}
}

func TestAnalyze_WithWordBoundaryMatcher(t *testing.T) {
	a := newTestAnalyzer(WithMatcher(NewWordBoundaryMatcher()))

	got := a.Analyze("unlimited refills and a trustworthy barista")
	assert.NotContains(t, got.DetectedKeywords, "limited")
	assert.NotContains(t, got.DetectedKeywords, "trust")
}

func TestWithMatcher_NilKeepsDefault(t *testing.T) {
	a := newTestAnalyzer(WithMatcher(nil))

	assert.IsType(t, SubstringMatcher{}, a.matcher)
}
