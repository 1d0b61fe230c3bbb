package sections

import (
	"context"
	"errors"
	"fmt"
)

// TemplateLookup resolves one template by section type. Catalog,
// PostgresRepository and CachedRepository all satisfy it.
type TemplateLookup interface {
	GetTemplate(ctx context.Context, sectionType string) (*Template, error)
}

func (c *Catalog) GetTemplate(_ context.Context, sectionType string) (*Template, error) {
	t, ok := c.Get(sectionType)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, sectionType)
	}
	return &t, nil
}

// ResolveCatalog fetches the templates for order into a catalog. Unknown
// section types are skipped; any other lookup error is returned.
func ResolveCatalog(ctx context.Context, lookup TemplateLookup, order []string) (*Catalog, error) {
	seen := make(map[string]bool, len(order))
	templates := make([]Template, 0, len(order))
	for _, sectionType := range order {
		if seen[sectionType] {
			continue
		}
		seen[sectionType] = true

		t, err := lookup.GetTemplate(ctx, sectionType)
		if errors.Is(err, ErrTemplateNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		templates = append(templates, *t)
	}
	return NewCatalog(templates)
}

// TemplateSearcher finds templates by tag. SearchIndex and Catalog satisfy it.
type TemplateSearcher interface {
	Search(ctx context.Context, industry, useCase string, limit int) ([]SearchHit, error)
}

// Search is the offline counterpart of SearchIndex.Search: tag filter,
// highest impact first, impact score as the hit score.
func (c *Catalog) Search(_ context.Context, industry, useCase string, limit int) ([]SearchHit, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}
	matches := c.Filter(industry, useCase)
	if len(matches) > limit {
		matches = matches[:limit]
	}
	hits := make([]SearchHit, 0, len(matches))
	for _, t := range matches {
		hits = append(hits, SearchHit{Template: t, Score: t.ImpactScore})
	}
	return hits, nil
}
