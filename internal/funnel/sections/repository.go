package sections

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var ErrCatalogQueryFailed = errors.New("CATALOG_QUERY_FAILED")

// Repository is the persistent store behind the section catalog.
type Repository interface {
	ListTemplates(ctx context.Context) ([]Template, error)
	GetTemplate(ctx context.Context, sectionType string) (*Template, error)
	UpsertTemplate(ctx context.Context, t Template) error
}

const templateColumns = `section_type, name, category, description, content_template,
		       configuration_options, industry_tags, use_case_tags, impact_score,
		       complexity_level, is_premium`

const createTemplatesTable = `
	CREATE TABLE IF NOT EXISTS section_templates (
		section_type          TEXT PRIMARY KEY,
		name                  TEXT NOT NULL,
		category              TEXT NOT NULL DEFAULT '',
		description           TEXT NOT NULL DEFAULT '',
		content_template      JSONB NOT NULL DEFAULT '{}',
		configuration_options JSONB NOT NULL DEFAULT '{}',
		industry_tags         TEXT[] NOT NULL DEFAULT '{}',
		use_case_tags         TEXT[] NOT NULL DEFAULT '{}',
		impact_score          DOUBLE PRECISION NOT NULL CHECK (impact_score BETWEEN 0 AND 10),
		complexity_level      TEXT NOT NULL,
		is_premium            BOOLEAN NOT NULL DEFAULT FALSE,
		updated_at            TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// EnsureSchema creates the templates table when it does not exist.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createTemplatesTable); err != nil {
		return fmt.Errorf("%w: create section_templates: %v", ErrCatalogQueryFailed, err)
	}
	return nil
}

func (r *PostgresRepository) ListTemplates(ctx context.Context) ([]Template, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+templateColumns+`
		FROM section_templates
		ORDER BY impact_score DESC, section_type`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogQueryFailed, err)
	}
	defer rows.Close()

	var templates []Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogQueryFailed, err)
	}
	return templates, nil
}

func (r *PostgresRepository) GetTemplate(ctx context.Context, sectionType string) (*Template, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+templateColumns+`
		FROM section_templates
		WHERE section_type = $1`, sectionType)

	t, err := scanTemplate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, sectionType)
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *PostgresRepository) UpsertTemplate(ctx context.Context, t Template) error {
	if err := t.Validate(); err != nil {
		return err
	}

	content, err := json.Marshal(t.ContentTemplate)
	if err != nil {
		return fmt.Errorf("encode content template: %w", err)
	}
	options, err := json.Marshal(t.ConfigurationOptions)
	if err != nil {
		return fmt.Errorf("encode configuration options: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO section_templates (`+templateColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (section_type) DO UPDATE SET
			name = EXCLUDED.name,
			category = EXCLUDED.category,
			description = EXCLUDED.description,
			content_template = EXCLUDED.content_template,
			configuration_options = EXCLUDED.configuration_options,
			industry_tags = EXCLUDED.industry_tags,
			use_case_tags = EXCLUDED.use_case_tags,
			impact_score = EXCLUDED.impact_score,
			complexity_level = EXCLUDED.complexity_level,
			is_premium = EXCLUDED.is_premium,
			updated_at = NOW()`,
		t.SectionType, t.Name, t.Category, t.Description, content, options,
		pq.Array(t.IndustryTags), pq.Array(t.UseCaseTags), t.ImpactScore,
		string(t.ComplexityLevel), t.IsPremium,
	)
	if err != nil {
		return fmt.Errorf("%w: upsert %s: %v", ErrCatalogQueryFailed, t.SectionType, err)
	}
	return nil
}

// LoadCatalog reads every stored template into a validated catalog.
func LoadCatalog(ctx context.Context, repo Repository) (*Catalog, error) {
	templates, err := repo.ListTemplates(ctx)
	if err != nil {
		return nil, err
	}
	return NewCatalog(templates)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTemplate(row rowScanner) (*Template, error) {
	var (
		t          Template
		content    []byte
		options    []byte
		complexity string
	)
	err := row.Scan(
		&t.SectionType, &t.Name, &t.Category, &t.Description,
		&content, &options,
		pq.Array(&t.IndustryTags), pq.Array(&t.UseCaseTags),
		&t.ImpactScore, &complexity, &t.IsPremium,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: scan template: %v", ErrCatalogQueryFailed, err)
	}
	t.ComplexityLevel = ComplexityLevel(complexity)

	if len(content) > 0 {
		if err := json.Unmarshal(content, &t.ContentTemplate); err != nil {
			return nil, fmt.Errorf("%w: %s content_template: %v", ErrCatalogQueryFailed, t.SectionType, err)
		}
	}
	if len(options) > 0 {
		if err := json.Unmarshal(options, &t.ConfigurationOptions); err != nil {
			return nil, fmt.Errorf("%w: %s configuration_options: %v", ErrCatalogQueryFailed, t.SectionType, err)
		}
	}
	return &t, nil
}
