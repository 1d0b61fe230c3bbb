package sections

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Body   map[string]interface{}
}

func newTestSearchIndex(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*SearchIndex, *[]recordedRequest) {
	var (
		mu       sync.Mutex
		requests []recordedRequest
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]interface{}
		_ = json.Unmarshal(raw, &body)

		mu.Lock()
		requests = append(requests, recordedRequest{
			Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery, Body: body,
		})
		mu.Unlock()

		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{srv.URL},
	})
	require.NoError(t, err)

	return NewSearchIndex(client, ""), &requests
}

func TestSearchIndex_IndexTemplates(t *testing.T) {
	index, requests := newTestSearchIndex(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	})

	templates := []Template{validTemplate("faq"), validTemplate("pricing")}
	require.NoError(t, index.IndexTemplates(context.Background(), templates))

	require.Len(t, *requests, 2)
	first := (*requests)[0]
	assert.Equal(t, http.MethodPut, first.Method)
	assert.Equal(t, "/section-templates/_doc/faq", first.Path)
	assert.Contains(t, first.Query, "refresh=true")
	assert.Equal(t, "faq", first.Body["sectionType"])
	assert.Equal(t, "/section-templates/_doc/pricing", (*requests)[1].Path)
}

func TestSearchIndex_IndexTemplatesError(t *testing.T) {
	index, _ := newTestSearchIndex(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"type":"mapper_parsing_exception"},"status":400}`))
	})

	err := index.IndexTemplates(context.Background(), []Template{validTemplate("faq")})
	assert.ErrorIs(t, err, ErrSearchFailed)
}

func TestSearchIndex_Search(t *testing.T) {
	index, requests := newTestSearchIndex(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"took": 2,
			"hits": {
				"total": {"value": 2, "relation": "eq"},
				"max_score": 3.1,
				"hits": [
					{"_id": "testimonials", "_score": 3.1, "_source": {"sectionType": "testimonials", "name": "Customer Testimonials", "impactScore": 8.5, "complexityLevel": "beginner", "industryTags": ["fashion"]}},
					{"_id": "about", "_score": 1.2, "_source": {"sectionType": "about", "name": "About Story", "impactScore": 5.5, "complexityLevel": "beginner"}}
				]
			}
		}`))
	})

	hits, err := index.Search(context.Background(), "fashion", "sales", 5)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "testimonials", hits[0].Template.SectionType)
	assert.Equal(t, 3.1, hits[0].Score)
	assert.Equal(t, []string{"fashion"}, hits[0].Template.IndustryTags)
	assert.Equal(t, "about", hits[1].Template.SectionType)

	require.Len(t, *requests, 1)
	req := (*requests)[0]
	assert.True(t, strings.HasSuffix(req.Path, "/section-templates/_search"))
	assert.Contains(t, req.Query, "size=5")

	boolQuery := req.Body["query"].(map[string]interface{})["bool"].(map[string]interface{})
	assert.Len(t, boolQuery["should"], 2)
	assert.Equal(t, float64(1), boolQuery["minimum_should_match"])
}

func TestSearchIndex_SearchWithoutFiltersMatchesAll(t *testing.T) {
	index, requests := newTestSearchIndex(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"hits":{"hits":[]}}`))
	})

	hits, err := index.Search(context.Background(), "", "", 0)
	require.NoError(t, err)
	assert.Empty(t, hits)

	req := (*requests)[0]
	assert.Contains(t, req.Body["query"], "match_all")
	assert.Contains(t, req.Query, "size=10")
}

func TestSearchIndex_SearchClampsLimit(t *testing.T) {
	index, requests := newTestSearchIndex(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"hits":{"hits":[]}}`))
	})

	_, err := index.Search(context.Background(), "fashion", "", 500)
	require.NoError(t, err)
	assert.Contains(t, (*requests)[0].Query, "size=50")
}

func TestSearchIndex_SearchError(t *testing.T) {
	index, _ := newTestSearchIndex(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"type":"index_not_found_exception"},"status":404}`))
	})

	_, err := index.Search(context.Background(), "fashion", "", 5)
	assert.ErrorIs(t, err, ErrSearchFailed)
}

func TestBuildTagQuery(t *testing.T) {
	q := buildTagQuery("finance", "")
	should := q["query"].(map[string]interface{})["bool"].(map[string]interface{})["should"].([]interface{})
	require.Len(t, should, 1)
	term := should[0].(map[string]interface{})["term"].(map[string]interface{})
	assert.Contains(t, term, "industryTags")
}
