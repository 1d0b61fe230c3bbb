package profile

import (
	"regexp"
	"strings"
)

type categorySpec struct {
	name  string
	terms []string
}

type weightedSpec struct {
	name   string
	weight int
	terms  []string
}

type category struct {
	name string
	re   *regexp.Regexp
}

type weightedCategory struct {
	name   string
	weight int
	re     *regexp.Regexp
}

// Tables are evaluated in declaration order; earlier entries win ties.

var industryTable = []categorySpec{
	{"fashion", []string{"fashion", "clothing", "apparel", "boutique", "jewelry", "jewellery"}},
	{"finance", []string{"finance", "financial", "investing", "investment", "banking", "insurance", "accounting", "wealth"}},
	{"coaching", []string{"coach", "coaching", "mentor", "mentoring"}},
	{"consulting", []string{"consulting", "consultant", "consultancy", "advisory", "agency"}},
	{"ecommerce", []string{"ecommerce", "e-commerce", "online store", "online shop", "shopify", "dropshipping"}},
	{"health", []string{"health", "fitness", "wellness", "nutrition", "gym", "yoga"}},
	{"education", []string{"education", "course", "courses", "school", "academy", "tutoring"}},
	{"real_estate", []string{"real estate", "property", "properties", "realtor", "mortgage"}},
	{"saas", []string{"saas", "software", "app", "platform", "startup"}},
	{"food", []string{"restaurant", "food", "catering", "bakery", "cafe"}},
}

var toneTable = []categorySpec{
	{"professional", []string{"professional", "corporate", "formal", "business-like", "executive"}},
	{"luxury", []string{"luxury", "premium", "elegant", "exclusive", "high-end"}},
	{"educational", []string{"educational", "informative", "learn", "teach"}},
	{"energetic", []string{"bold", "energetic", "urgent", "exciting", "hurry"}},
	{"playful", []string{"fun", "playful", "quirky", "casual"}},
}

var styleTable = []categorySpec{
	{"data-driven", []string{"data", "results", "roi", "statistics", "numbers", "metrics"}},
	{"empathetic", []string{"feel", "support", "care", "struggle", "struggling", "stress", "stressed"}},
	{"direct", []string{"fast", "quick", "simple", "straightforward", "no-nonsense"}},
	{"storytelling", []string{"story", "stories", "journey", "inspire", "inspiring"}},
}

var gatheringTable = []categorySpec{
	{"visual", []string{"video", "videos", "image", "images", "photo", "photos", "gallery", "visual", "instagram"}},
	{"analytical", []string{"guide", "whitepaper", "details", "detailed", "data", "research", "compare", "case study"}},
	{"social_proof", []string{"review", "reviews", "testimonial", "testimonials", "community", "recommend", "recommendations", "word of mouth"}},
}

var goalTable = []categorySpec{
	{"sales", []string{"buy", "sell", "selling", "purchase", "sales", "checkout", "order", "orders"}},
	{"lead_generation", []string{"lead", "leads", "contact", "sign up", "signup", "subscribe", "newsletter", "email list"}},
	{"booking", []string{"book", "booking", "appointment", "appointments", "schedule", "consultation"}},
	{"brand_awareness", []string{"awareness", "brand", "visibility", "reach", "launch"}},
	{"education", []string{"teach", "course", "educate", "learn", "training"}},
	{"retention", []string{"loyalty", "retention", "repeat", "returning", "membership"}},
}

var engagementTable = []weightedSpec{
	{"interactive", 2, []string{"quiz", "survey", "poll", "calculator", "assessment"}},
	{"video", 1, []string{"video", "webinar", "live", "stream"}},
	{"community", 1, []string{"community", "group", "forum", "members"}},
	{"social", 1, []string{"social media", "instagram", "tiktok", "facebook", "youtube"}},
	{"content", 1, []string{"blog", "newsletter", "podcast", "articles"}},
	{"low_attention", -1, []string{"busy", "no time", "skim"}},
}

var conversionTable = []weightedSpec{
	{"purchase", 2, []string{"buy", "purchase", "order", "checkout"}},
	{"urgency", 1, []string{"urgent", "now", "today", "immediately", "asap"}},
	{"booking", 1, []string{"book", "appointment", "schedule", "consultation"}},
	{"pricing", 1, []string{"price", "pricing", "discount", "offer", "deal"}},
	{"browsing", -2, []string{"browse", "browsing", "just looking", "research", "compare", "curious"}},
	{"free", -1, []string{"free", "trial"}},
}

func termsPattern(terms []string) *regexp.Regexp {
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = regexp.QuoteMeta(t)
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

func compileCategories(specs []categorySpec) []category {
	out := make([]category, len(specs))
	for i, s := range specs {
		out[i] = category{name: s.name, re: termsPattern(s.terms)}
	}
	return out
}

func compileWeighted(specs []weightedSpec) []weightedCategory {
	out := make([]weightedCategory, len(specs))
	for i, s := range specs {
		out[i] = weightedCategory{name: s.name, weight: s.weight, re: termsPattern(s.terms)}
	}
	return out
}

func firstMatch(categories []category, prompt, fallback string) string {
	for _, c := range categories {
		if c.re.MatchString(prompt) {
			return c.name
		}
	}
	return fallback
}

func allMatches(categories []category, prompt string) []string {
	var out []string
	for _, c := range categories {
		if c.re.MatchString(prompt) {
			out = append(out, c.name)
		}
	}
	return out
}
