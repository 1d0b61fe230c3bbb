package sections

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const (
	DefaultIndexName   = "section-templates"
	DefaultSearchLimit = 10
	MaxSearchLimit     = 50
)

var ErrSearchFailed = errors.New("SEARCH_QUERY_FAILED")

// SearchHit is a template returned by the index with its relevance score.
type SearchHit struct {
	Template Template `json:"template"`
	Score    float64  `json:"score"`
}

// SearchIndex keeps section templates discoverable by industry and use case.
type SearchIndex struct {
	client *elasticsearch.Client
	index  string
}

func NewSearchIndex(client *elasticsearch.Client, index string) *SearchIndex {
	if index == "" {
		index = DefaultIndexName
	}
	return &SearchIndex{client: client, index: index}
}

func (s *SearchIndex) Index() string {
	return s.index
}

// IndexTemplates writes every template using its section type as document id.
func (s *SearchIndex) IndexTemplates(ctx context.Context, templates []Template) error {
	for _, t := range templates {
		body, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("%w: encode %s: %v", ErrSearchFailed, t.SectionType, err)
		}

		req := esapi.IndexRequest{
			Index:      s.index,
			DocumentID: t.SectionType,
			Body:       bytes.NewReader(body),
			Refresh:    "true",
		}
		res, err := req.Do(ctx, s.client)
		if err != nil {
			return fmt.Errorf("%w: index %s: %v", ErrSearchFailed, t.SectionType, err)
		}
		isErr, status := res.IsError(), res.String()
		res.Body.Close()
		if isErr {
			return fmt.Errorf("%w: index %s: %s", ErrSearchFailed, t.SectionType, status)
		}
	}
	return nil
}

// Search ranks templates by tag overlap, then impact score.
func (s *SearchIndex) Search(ctx context.Context, industry, useCase string, limit int) ([]SearchHit, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}

	body, err := json.Marshal(buildTagQuery(industry, useCase))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}

	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  strings.NewReader(string(body)),
		Size:  &limit,
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("%w: %s", ErrSearchFailed, res.String())
	}

	var r searchResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrSearchFailed, err)
	}

	hits := make([]SearchHit, 0, len(r.Hits.Hits))
	for _, h := range r.Hits.Hits {
		hits = append(hits, SearchHit{Template: h.Source, Score: h.Score})
	}
	return hits, nil
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Score  float64  `json:"_score"`
			Source Template `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func buildTagQuery(industry, useCase string) map[string]interface{} {
	var should []interface{}
	if industry != "" {
		should = append(should, map[string]interface{}{
			"term": map[string]interface{}{"industryTags": map[string]interface{}{"value": industry, "boost": 2.0}},
		})
	}
	if useCase != "" {
		should = append(should, map[string]interface{}{
			"term": map[string]interface{}{"useCaseTags": map[string]interface{}{"value": useCase}},
		})
	}

	query := map[string]interface{}{"match_all": map[string]interface{}{}}
	if len(should) > 0 {
		query = map[string]interface{}{
			"bool": map[string]interface{}{
				"should":               should,
				"minimum_should_match": 1,
			},
		}
	}

	return map[string]interface{}{
		"query": query,
		"sort": []interface{}{
			"_score",
			map[string]interface{}{"impactScore": map[string]interface{}{"order": "desc"}},
		},
	}
}
