package sections

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"funnel-workers/internal/common/logger"
	"funnel-workers/internal/funnel/cache"
)

var templateRowColumns = []string{
	"section_type", "name", "category", "description", "content_template",
	"configuration_options", "industry_tags", "use_case_tags", "impact_score",
	"complexity_level", "is_premium",
}

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

// ==========================
// PostgresRepository
// ==========================

func TestPostgresRepository_ListTemplates(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostgresRepository(db)

	rows := sqlmock.NewRows(templateRowColumns).
		AddRow("hero", "Hero Banner", "header", "Opening banner",
			[]byte(`{"headline":"Welcome"}`),
			[]byte(`{"layout":{"type":"string","allowedValues":["centered","split"],"default":"centered"}}`),
			"{general}", "{lead_generation,sales}", 9.5, "beginner", false).
		AddRow("booking", "Booking Widget", "conversion", "",
			[]byte(`{}`), []byte(`{}`),
			"{coaching,health}", "{booking}", 8.0, "advanced", true)

	mock.ExpectQuery("SELECT (.+) FROM section_templates ORDER BY impact_score DESC").
		WillReturnRows(rows)

	templates, err := repo.ListTemplates(context.Background())
	require.NoError(t, err)
	require.Len(t, templates, 2)

	hero := templates[0]
	assert.Equal(t, "hero", hero.SectionType)
	assert.Equal(t, "Welcome", hero.ContentTemplate["headline"])
	assert.Equal(t, []string{"general"}, hero.IndustryTags)
	assert.Equal(t, []string{"lead_generation", "sales"}, hero.UseCaseTags)
	assert.Equal(t, ComplexityBeginner, hero.ComplexityLevel)
	assert.Equal(t, "centered", hero.ConfigurationOptions["layout"].Default)

	assert.True(t, templates[1].IsPremium)
	assert.Equal(t, ComplexityAdvanced, templates[1].ComplexityLevel)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_ListTemplatesQueryError(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostgresRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM section_templates").
		WillReturnError(errors.New("connection refused"))

	_, err := repo.ListTemplates(context.Background())
	assert.ErrorIs(t, err, ErrCatalogQueryFailed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_GetTemplate(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostgresRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM section_templates WHERE section_type = \\$1").
		WithArgs("faq").
		WillReturnRows(sqlmock.NewRows(templateRowColumns).
			AddRow("faq", "FAQ Accordion", "support", "", []byte(`{"title":"Questions"}`), []byte(`{}`),
				"{general}", "{education}", 6.0, "beginner", false))

	tmpl, err := repo.GetTemplate(context.Background(), "faq")
	require.NoError(t, err)
	assert.Equal(t, "FAQ Accordion", tmpl.Name)
	assert.Equal(t, "Questions", tmpl.ContentTemplate["title"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_GetTemplateNotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostgresRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM section_templates WHERE section_type = \\$1").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(templateRowColumns))

	_, err := repo.GetTemplate(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrTemplateNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_GetTemplateCorruptContent(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostgresRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM section_templates").
		WithArgs("faq").
		WillReturnRows(sqlmock.NewRows(templateRowColumns).
			AddRow("faq", "FAQ", "", "", []byte(`{not json`), []byte(`{}`),
				"{}", "{}", 6.0, "beginner", false))

	_, err := repo.GetTemplate(context.Background(), "faq")
	assert.ErrorIs(t, err, ErrCatalogQueryFailed)
}

func TestPostgresRepository_UpsertTemplate(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostgresRepository(db)
	tmpl := validTemplate("benefits")

	mock.ExpectExec("INSERT INTO section_templates (.+) ON CONFLICT \\(section_type\\) DO UPDATE").
		WithArgs("benefits", tmpl.Name, "content", "", sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), 5.0, "beginner", false).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpsertTemplate(context.Background(), tmpl))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_UpsertRejectsInvalidTemplate(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostgresRepository(db)

	tmpl := validTemplate("benefits")
	tmpl.ImpactScore = 42

	err := repo.UpsertTemplate(context.Background(), tmpl)
	assert.ErrorIs(t, err, ErrTemplateValidationFailed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_EnsureSchema(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostgresRepository(db)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS section_templates").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadCatalog(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectQuery("SELECT (.+) FROM section_templates").
		WillReturnRows(sqlmock.NewRows(templateRowColumns).
			AddRow("hero", "Hero", "header", "", []byte(`{}`), []byte(`{}`),
				"{general}", "{sales}", 9.0, "beginner", false))

	catalog, err := LoadCatalog(context.Background(), NewPostgresRepository(db))
	require.NoError(t, err)
	assert.Equal(t, 1, catalog.Len())
}

// ==========================
// CachedRepository
// ==========================

type countingRepository struct {
	templates map[string]Template
	gets      int
	upserts   int
}

func (r *countingRepository) ListTemplates(ctx context.Context) ([]Template, error) {
	var out []Template
	for _, t := range r.templates {
		out = append(out, t)
	}
	return out, nil
}

func (r *countingRepository) GetTemplate(ctx context.Context, sectionType string) (*Template, error) {
	r.gets++
	t, ok := r.templates[sectionType]
	if !ok {
		return nil, ErrTemplateNotFound
	}
	return &t, nil
}

func (r *countingRepository) UpsertTemplate(ctx context.Context, t Template) error {
	r.upserts++
	r.templates[t.SectionType] = t
	return nil
}

func TestCachedRepository_ReadThrough(t *testing.T) {
	base := &countingRepository{templates: map[string]Template{"faq": validTemplate("faq")}}
	repo := NewCachedRepository(base, cache.NewMemoryStore(16), time.Minute, logger.NewTestLogger(t))
	ctx := context.Background()

	first, err := repo.GetTemplate(ctx, "faq")
	require.NoError(t, err)
	second, err := repo.GetTemplate(ctx, "faq")
	require.NoError(t, err)

	assert.Equal(t, 1, base.gets)
	assert.Equal(t, first.Name, second.Name)
}

func TestCachedRepository_UpsertInvalidates(t *testing.T) {
	base := &countingRepository{templates: map[string]Template{"faq": validTemplate("faq")}}
	repo := NewCachedRepository(base, cache.NewMemoryStore(16), time.Minute, logger.NewTestLogger(t))
	ctx := context.Background()

	_, err := repo.GetTemplate(ctx, "faq")
	require.NoError(t, err)

	updated := validTemplate("faq")
	updated.Name = "Updated FAQ"
	require.NoError(t, repo.UpsertTemplate(ctx, updated))

	got, err := repo.GetTemplate(ctx, "faq")
	require.NoError(t, err)
	assert.Equal(t, "Updated FAQ", got.Name)
	assert.Equal(t, 2, base.gets)
}

func TestCachedRepository_MissIsNotCached(t *testing.T) {
	base := &countingRepository{templates: map[string]Template{}}
	repo := NewCachedRepository(base, cache.NewMemoryStore(16), time.Minute, logger.NewTestLogger(t))

	_, err := repo.GetTemplate(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrTemplateNotFound)
	_, err = repo.GetTemplate(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrTemplateNotFound)
	assert.Equal(t, 2, base.gets)
}

type failingStore struct{}

func (failingStore) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	return false, cache.ErrCacheUnavailable
}

func (failingStore) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return cache.ErrCacheUnavailable
}

func (failingStore) Delete(ctx context.Context, key string) error {
	return cache.ErrCacheUnavailable
}

func TestCachedRepository_CacheFailureFallsThrough(t *testing.T) {
	base := &countingRepository{templates: map[string]Template{"faq": validTemplate("faq")}}
	repo := NewCachedRepository(base, failingStore{}, time.Minute, logger.NewTestLogger(t))

	got, err := repo.GetTemplate(context.Background(), "faq")
	require.NoError(t, err)
	assert.Equal(t, "faq", got.SectionType)
	require.NoError(t, repo.UpsertTemplate(context.Background(), validTemplate("faq")))
}
