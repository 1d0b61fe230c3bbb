// cmd/worker-manager/app.go
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"funnel-workers/internal/api"
	"funnel-workers/internal/common/aws"
	"funnel-workers/internal/common/camunda"
	"funnel-workers/internal/common/config"
	"funnel-workers/internal/common/database"
	"funnel-workers/internal/common/logger"
	"funnel-workers/internal/common/observability"
	"funnel-workers/internal/common/validation"
	"funnel-workers/internal/funnel/analyzer"
	"funnel-workers/internal/funnel/cache"
	"funnel-workers/internal/funnel/completion"
	"funnel-workers/internal/funnel/lexicon"
	"funnel-workers/internal/funnel/profile"
	"funnel-workers/internal/funnel/sections"
	"funnel-workers/internal/funnel/structure"
	"funnel-workers/pkg/registry"

	afp "funnel-workers/internal/workers/funnel/analyze-funnel-prompt"
	asr "funnel-workers/internal/workers/funnel/apply-structure-rules"
	ecp "funnel-workers/internal/workers/funnel/extract-customer-profile"
	gfc "funnel-workers/internal/workers/funnel/generate-funnel-copy"
	nfo "funnel-workers/internal/workers/funnel/notify-funnel-owner"
	sst "funnel-workers/internal/workers/funnel/select-section-templates"
)

const (
	memoryCacheCapacity = 1024
	redisKeyPrefix      = "funnel"
)

// App owns every long-lived dependency of the worker manager.
type App struct {
	cfg *config.Config
	log logger.Logger
	obs *observability.Observability

	zeebe    *camunda.Client
	postgres *database.PostgresClient
	redis    *database.RedisClient
	es       *database.ElasticsearchClient

	validator  *validation.Validator
	analyzer   *analyzer.Analyzer
	engine     *structure.Engine
	extractor  *profile.Extractor
	store      cache.Store
	templates  sections.TemplateLookup
	search     sections.TemplateSearcher
	completion completion.TextCompletion
	email      nfo.EmailSender
	sms        nfo.SMSSender
}

func newApp(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	app := &App{cfg: cfg, log: log}

	obs, err := observability.NewWithConfig(ctx, observability.Config{
		ServiceName:  cfg.Observability.ServiceName,
		Version:      cfg.App.Version,
		Environment:  cfg.App.Environment,
		Tracing:      cfg.Observability.TracingEnabled,
		TraceWriter:  traceWriter(cfg.Observability.TraceOutput),
		OTLPEndpoint: cfg.Observability.OTLPEndpoint,
		OTLPInsecure: cfg.Observability.OTLPInsecure,
		SampleRatio:  cfg.Observability.SampleRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("observability: %w", err)
	}
	app.obs = obs

	reg, err := registry.Default()
	if err != nil {
		return nil, err
	}
	if app.validator, err = validation.NewValidator(reg); err != nil {
		return nil, err
	}

	if err := app.initEngine(); err != nil {
		app.Close()
		return nil, err
	}
	if err := app.initStores(ctx); err != nil {
		app.Close()
		return nil, err
	}
	if err := app.initProviders(ctx); err != nil {
		app.Close()
		return nil, err
	}

	app.zeebe, err = camunda.NewClient(camunda.ConfigFrom(cfg.Camunda))
	if err != nil {
		app.Close()
		return nil, err
	}
	if err := app.zeebe.WaitReady(ctx); err != nil {
		app.Close()
		return nil, err
	}
	log.Info("zeebe gateway reachable", map[string]interface{}{"address": cfg.Camunda.BrokerAddress})

	return app, nil
}

func (a *App) initEngine() error {
	lex := lexicon.Default()
	if a.cfg.Funnel.RulesPath != "" {
		var err error
		if lex, err = lexicon.LoadFile(a.cfg.Funnel.RulesPath); err != nil {
			return fmt.Errorf("load rules: %w", err)
		}
	}

	var opts []analyzer.Option
	if a.cfg.Funnel.Matcher == "word_boundary" {
		opts = append(opts, analyzer.WithMatcher(analyzer.NewWordBoundaryMatcher()))
	}
	a.analyzer = analyzer.New(lex, opts...)
	a.engine = structure.NewEngine(a.analyzer, structure.WithUrgencyPolicy(structure.UrgencyPolicy(a.cfg.Funnel.UrgencyPolicy)))
	a.extractor = profile.NewExtractor()

	a.log.Info("rule engine ready", map[string]interface{}{
		"tones":         len(lex.Tones()),
		"keywords":      len(lex.Keywords()),
		"urgencyPolicy": a.engine.Policy(),
		"matcher":       a.cfg.Funnel.Matcher,
	})
	return nil
}

func (a *App) initStores(ctx context.Context) error {
	db := a.cfg.Database

	switch a.cfg.Funnel.CacheBackend {
	case "redis":
		a.redis = database.NewRedis(db.Redis)
		if err := retryWithBackoff(ctx, a.redis.Ping, 10, 2*time.Second, a.log, "Redis connection"); err != nil {
			return err
		}
		a.store = cache.NewRedisStore(a.redis.Client, redisKeyPrefix)
	default:
		a.store = cache.NewMemoryStore(memoryCacheCapacity)
	}

	builtin, err := sections.DefaultCatalog()
	if err != nil {
		return err
	}
	a.templates = builtin
	a.search = builtin

	if a.cfg.Funnel.CatalogSource == "postgres" {
		pg, err := database.NewPostgres(db.Postgres)
		if err != nil {
			return err
		}
		a.postgres = pg
		if err := retryWithBackoff(ctx, pg.Ping, 15, 2*time.Second, a.log, "PostgreSQL connection"); err != nil {
			return err
		}
		repo := sections.NewPostgresRepository(pg.DB)
		if err := repo.EnsureSchema(ctx); err != nil {
			return err
		}
		a.templates = sections.NewCachedRepository(repo, a.store, config.GetDuration(a.cfg.Funnel.CacheTTL), a.log)
	}

	if db.Elasticsearch.GetURL() != "" {
		es, err := database.NewElasticsearch(db.Elasticsearch)
		if err != nil {
			return err
		}
		a.es = es
		if err := retryWithBackoff(ctx, es.Ping, 15, 2*time.Second, a.log, "Elasticsearch connection"); err != nil {
			return err
		}
		a.search = sections.NewSearchIndex(es.Client, db.Elasticsearch.Index)
	}

	a.log.Info("stores ready", map[string]interface{}{
		"cache":   a.cfg.Funnel.CacheBackend,
		"catalog": a.cfg.Funnel.CatalogSource,
		"search":  a.es != nil,
	})
	return nil
}

func (a *App) initProviders(ctx context.Context) error {
	tc, err := completion.New(ctx, completionConfig(a.cfg.Completion))
	if err != nil {
		return fmt.Errorf("completion provider: %w", err)
	}
	a.completion = tc

	n := a.cfg.Notifications
	if !n.Email.Enabled && !n.SMS.Enabled {
		return nil
	}
	awsCfg, err := aws.LoadConfig(ctx, n.AWS.Region)
	if err != nil {
		a.log.Warn("aws config unavailable, notifications disabled", map[string]interface{}{"error": err})
		return nil
	}
	if n.Email.Enabled {
		a.email = aws.NewSESFromConfig(awsCfg)
	}
	if n.SMS.Enabled {
		a.sms = aws.NewSNSFromConfig(awsCfg)
	}
	return nil
}

func completionConfig(cc config.CompletionConfig) completion.Config {
	return completion.Config{
		Provider:    cc.Provider,
		GatewayURL:  cc.GatewayURL,
		APIKey:      cc.APIKey,
		Model:       cc.Model,
		Timeout:     config.GetDuration(cc.Timeout),
		MaxRetries:  cc.MaxRetries,
		BaseDelay:   config.GetDuration(cc.BaseDelay),
		MaxTokens:   cc.MaxTokens,
		Temperature: cc.Temperature,
	}
}

// copyJobTimeout leaves room for every completion attempt and its backoff.
func copyJobTimeout(floor time.Duration, cc config.CompletionConfig) time.Duration {
	return max(floor, completion.Budget(completionConfig(cc)))
}

type registeredHandler struct {
	taskType string
	handler  camunda.JobHandler
}

func (a *App) handlers() []registeredHandler {
	profileCfg := ecp.LoadConfig()
	profileCfg.CacheTTL = config.GetDuration(a.cfg.Funnel.CacheTTL)

	copyCfg := gfc.LoadConfig()
	copyCfg.Provider = a.cfg.Completion.Provider
	copyCfg.MaxTokens = a.cfg.Completion.MaxTokens
	copyCfg.Temperature = a.cfg.Completion.Temperature
	copyCfg.Timeout = copyJobTimeout(copyCfg.Timeout, a.cfg.Completion)

	n := a.cfg.Notifications
	notifyCfg := nfo.LoadConfig()
	notifyCfg.EmailEnabled = n.Email.Enabled
	notifyCfg.SMSEnabled = n.SMS.Enabled
	notifyCfg.IntentThreshold = n.SMS.IntentThreshold
	if n.Email.FromEmail != "" {
		notifyCfg.FromEmail = n.Email.FromEmail
	}

	return []registeredHandler{
		{afp.TaskType, afp.NewHandler(afp.LoadConfig(), a.analyzer, a.validator, a.log)},
		{asr.TaskType, asr.NewHandler(asr.LoadConfig(), a.engine, a.validator, a.log)},
		{ecp.TaskType, ecp.NewHandler(profileCfg, a.extractor, a.store, a.validator, a.log)},
		{sst.TaskType, sst.NewHandler(sst.LoadConfig(), a.templates, a.validator, a.log)},
		{gfc.TaskType, gfc.NewHandler(copyCfg, a.completion, a.validator, a.log)},
		{nfo.TaskType, nfo.NewHandler(notifyCfg, a.email, a.sms, a.validator, a.log)},
	}
}

// StartWorkers opens a job worker per enabled handler.
func (a *App) StartWorkers(cfg *config.Config) []*camunda.FunnelWorker {
	var started []*camunda.FunnelWorker
	for _, rh := range a.handlers() {
		if !config.IsWorkerEnabled(cfg, rh.taskType) {
			a.log.Info("worker disabled", map[string]interface{}{"taskType": rh.taskType})
			continue
		}
		wcfg := config.GetWorkerConfig(cfg, rh.taskType)
		started = append(started, camunda.StartWorker(a.zeebe.GetClient(), camunda.WorkerOptions{
			TaskType:      rh.taskType,
			MaxJobsActive: wcfg.MaxJobsActive,
			Timeout:       config.GetDuration(wcfg.Timeout),
		}, camunda.Instrument(rh.taskType, rh.handler, a.obs), a.log))
	}
	return started
}

// ReadinessChecks reports every backend the manager was started with.
func (a *App) ReadinessChecks() map[string]api.ReadinessCheck {
	checks := map[string]api.ReadinessCheck{}
	if a.zeebe != nil {
		checks["zeebe"] = a.zeebe.HealthCheck
	}
	if a.postgres != nil {
		checks["postgres"] = a.postgres.Ping
	}
	if a.redis != nil {
		checks["redis"] = a.redis.Ping
	}
	if a.es != nil {
		checks["elasticsearch"] = a.es.Ping
	}
	return checks
}

// Close releases clients in reverse start order.
func (a *App) Close() {
	if a.zeebe != nil {
		if err := a.zeebe.Close(); err != nil {
			a.log.Error("error closing zeebe client", map[string]interface{}{"error": err})
		}
	}
	if a.postgres != nil {
		_ = a.postgres.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.obs != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.obs.Shutdown(ctx); err != nil {
			a.log.Error("error flushing telemetry", map[string]interface{}{"error": err})
		}
	}
}

func traceWriter(output string) io.Writer {
	switch output {
	case "stderr":
		return os.Stderr
	case "discard":
		return io.Discard
	default:
		return os.Stdout
	}
}
