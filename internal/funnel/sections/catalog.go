package sections

import (
	_ "embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var defaultTemplates []byte

// Catalog is an immutable, validated set of templates keyed by section type.
type Catalog struct {
	templates map[string]Template
	order     []string
}

func NewCatalog(templates []Template) (*Catalog, error) {
	c := &Catalog{templates: make(map[string]Template, len(templates))}
	for _, t := range templates {
		if err := t.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.templates[t.SectionType]; dup {
			return nil, fmt.Errorf("%w: duplicate sectionType %q", ErrTemplateValidationFailed, t.SectionType)
		}
		c.templates[t.SectionType] = t
		c.order = append(c.order, t.SectionType)
	}
	return c, nil
}

// DefaultTemplates returns the built-in templates.
func DefaultTemplates() ([]Template, error) {
	var templates []Template
	if err := yaml.Unmarshal(defaultTemplates, &templates); err != nil {
		return nil, fmt.Errorf("parse built-in templates: %w", err)
	}
	return templates, nil
}

func DefaultCatalog() (*Catalog, error) {
	templates, err := DefaultTemplates()
	if err != nil {
		return nil, err
	}
	return NewCatalog(templates)
}

func (c *Catalog) Get(sectionType string) (Template, bool) {
	t, ok := c.templates[sectionType]
	return t, ok
}

// Templates returns templates in insertion order.
func (c *Catalog) Templates() []Template {
	out := make([]Template, 0, len(c.order))
	for _, st := range c.order {
		out = append(out, c.templates[st])
	}
	return out
}

func (c *Catalog) SectionTypes() []string {
	out := append([]string(nil), c.order...)
	sort.Strings(out)
	return out
}

func (c *Catalog) Len() int {
	return len(c.order)
}

// Filter returns templates tagged with industry or useCase, highest impact first.
// Empty arguments match everything.
func (c *Catalog) Filter(industry, useCase string) []Template {
	var out []Template
	for _, t := range c.Templates() {
		if industry != "" && !hasTag(t.IndustryTags, industry) {
			continue
		}
		if useCase != "" && !hasTag(t.UseCaseTags, useCase) {
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ImpactScore > out[j].ImpactScore
	})
	return out
}
