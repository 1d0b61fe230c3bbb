//go:build e2e

// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"funnel-workers/internal/common/config"
	"funnel-workers/internal/common/database"
	"funnel-workers/internal/common/logger"
	"funnel-workers/internal/common/validation"
	"funnel-workers/internal/funnel/analyzer"
	"funnel-workers/internal/funnel/cache"
	"funnel-workers/internal/funnel/lexicon"
	"funnel-workers/internal/funnel/profile"
	"funnel-workers/internal/funnel/sections"
	"funnel-workers/internal/funnel/structure"
	"funnel-workers/pkg/registry"

	afp "funnel-workers/internal/workers/funnel/analyze-funnel-prompt"
	asr "funnel-workers/internal/workers/funnel/apply-structure-rules"
	ecp "funnel-workers/internal/workers/funnel/extract-customer-profile"
	gfc "funnel-workers/internal/workers/funnel/generate-funnel-copy"
	sst "funnel-workers/internal/workers/funnel/select-section-templates"
)

const e2ePrompt = "Create a luxury skincare funnel with customer testimonials " +
	"and a product gallery for discerning buyers."

var zeebeClient zbc.Client

func TestMain(m *testing.M) {
	address := os.Getenv("ZEEBE_ADDRESS")
	if address == "" {
		address = "localhost:26500"
	}

	var err error
	zeebeClient, err = zbc.NewClient(&zbc.ClientConfig{
		GatewayAddress:         address,
		UsePlaintextConnection: true,
	})
	if err != nil {
		panic("failed to create zeebe client: " + err.Error())
	}

	code := m.Run()

	zeebeClient.Close()
	os.Exit(code)
}

type services struct {
	postgres *database.PostgresClient
	redis    *database.RedisClient
	es       *database.ElasticsearchClient
}

func TestFunnelPipelineE2E(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cfg, err := config.Load()
	require.NoError(t, err)

	svc := assertAllServicesConnectivity(ctx, t, cfg)
	defer svc.postgres.Close()
	defer svc.redis.Close()

	log := logger.NewTestLogger(t)
	templates := seedTemplates(ctx, t, cfg, svc, log)
	runPipeline(ctx, t, svc, templates, log)
}

// ==========================
// 1. Connectivity
// ==========================
func assertAllServicesConnectivity(ctx context.Context, t *testing.T, cfg *config.Config) services {
	t.Helper()

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	require.NoError(t, err, "postgres client creation failed")
	require.NoError(t, pg.Ping(ctx), "postgres ping failed")

	rdb := database.NewRedis(cfg.Database.Redis)
	require.NoError(t, rdb.Ping(ctx), "redis ping failed")

	es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	require.NoError(t, err, "elasticsearch client creation failed")
	require.NoError(t, es.Ping(ctx), "elasticsearch ping failed")

	_, err = zeebeClient.NewTopologyCommand().Send(ctx)
	require.NoError(t, err, "zeebe topology request failed")

	return services{postgres: pg, redis: rdb, es: es}
}

// ==========================
// 2. Catalog seeding
// ==========================
func seedTemplates(ctx context.Context, t *testing.T, cfg *config.Config, svc services, log logger.Logger) sections.TemplateLookup {
	t.Helper()

	builtin, err := sections.DefaultTemplates()
	require.NoError(t, err)

	repo := sections.NewPostgresRepository(svc.postgres.DB)
	require.NoError(t, repo.EnsureSchema(ctx))

	store := cache.NewRedisStore(svc.redis.Client, "funnel-e2e")
	cached := sections.NewCachedRepository(repo, store, time.Minute, log)
	for _, tmpl := range builtin {
		require.NoError(t, cached.UpsertTemplate(ctx, tmpl))
	}

	index := sections.NewSearchIndex(svc.es.Client, cfg.Database.Elasticsearch.Index)
	require.NoError(t, index.IndexTemplates(ctx, builtin))

	hits, err := index.Search(ctx, "", "trust_building", 5)
	require.NoError(t, err)
	assert.NotEmpty(t, hits, "indexed templates should be searchable by use case")

	return cached
}

// ==========================
// 3. Worker chain
// ==========================
func runPipeline(ctx context.Context, t *testing.T, svc services, templates sections.TemplateLookup, log logger.Logger) {
	t.Helper()

	reg, err := registry.Default()
	require.NoError(t, err)
	validator, err := validation.NewValidator(reg)
	require.NoError(t, err)

	a := analyzer.New(lexicon.Default())
	engine := structure.NewEngine(a)
	store := cache.NewRedisStore(svc.redis.Client, "funnel-e2e")

	analysis, err := afp.NewHandler(afp.LoadConfig(), a, validator, log).
		Execute(ctx, &afp.Input{Prompt: e2ePrompt})
	require.NoError(t, err)
	assert.Equal(t, "luxury", analysis.Analysis.ToneOfVoice)

	resolved, err := asr.NewHandler(asr.LoadConfig(), engine, validator, log).
		Execute(ctx, &asr.Input{Prompt: e2ePrompt})
	require.NoError(t, err)
	assert.Contains(t, resolved.Resolution.EnabledSections, "hero")
	assert.Contains(t, resolved.Resolution.EnabledSections, "testimonials")
	assert.Contains(t, resolved.Resolution.EnabledSections, "product_gallery")

	profiler := ecp.NewHandler(ecp.LoadConfig(), profile.NewExtractor(), store, validator, log)
	first, err := profiler.Execute(ctx, &ecp.Input{Prompt: e2ePrompt})
	require.NoError(t, err)
	second, err := profiler.Execute(ctx, &ecp.Input{Prompt: e2ePrompt})
	require.NoError(t, err)
	assert.True(t, second.Cached, "second extraction should be served from redis")
	assert.Equal(t, first.Profile.BusinessInfo, second.Profile.BusinessInfo)

	placed, err := sst.NewHandler(sst.LoadConfig(), templates, validator, log).
		Execute(ctx, &sst.Input{
			SectionOrder: resolved.Resolution.SectionOrder,
			Microcopy:    resolved.Resolution.Microcopy,
		})
	require.NoError(t, err)
	assert.Empty(t, placed.MissingSections)
	assert.Len(t, placed.Placeholders, len(resolved.Resolution.SectionOrder))

	// no completion provider: the copy worker must fall back to template copy
	copied, err := gfc.NewHandler(gfc.LoadConfig(), nil, validator, log).
		Execute(ctx, &gfc.Input{
			Prompt:       e2ePrompt,
			Resolution:   resolved.Resolution,
			Profile:      first.Profile,
			Placeholders: placed.Placeholders,
		})
	require.NoError(t, err)
	assert.True(t, copied.Fallback)
	assert.NotEmpty(t, copied.Copy)
	assert.NotEmpty(t, copied.BlueprintID)
}
