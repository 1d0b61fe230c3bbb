// cmd/tools/funnelctl/catalog.go
package main

import (
	"context"
	"fmt"
	"time"

	"funnel-workers/internal/common/config"
	"funnel-workers/internal/common/database"
	"funnel-workers/internal/common/logger"
	"funnel-workers/internal/funnel/sections"

	"github.com/spf13/cobra"
)

type templateIndexer interface {
	IndexTemplates(ctx context.Context, templates []sections.Template) error
}

type templateWriter interface {
	UpsertTemplate(ctx context.Context, t sections.Template) error
}

type seedResult struct {
	Upserted int    `json:"upserted"`
	Indexed  int    `json:"indexed"`
	Index    string `json:"index,omitempty"`
}

func newSeedCatalogCmd() *cobra.Command {
	var (
		configPath string
		skipSearch bool
		timeout    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "seed-catalog",
		Short: "Upsert the built-in section catalog into Postgres and Elasticsearch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			log := logger.NewStructured(cfg.Logging.Level, "console", "stderr")

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			pg, err := database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			defer pg.Close()
			if err := pg.Ping(ctx); err != nil {
				return err
			}
			repo := sections.NewPostgresRepository(pg.DB)
			if err := repo.EnsureSchema(ctx); err != nil {
				return err
			}

			var index *sections.SearchIndex
			if !skipSearch && cfg.Database.Elasticsearch.GetURL() != "" {
				es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
				if err != nil {
					return err
				}
				index = sections.NewSearchIndex(es.Client, cfg.Database.Elasticsearch.Index)
			}

			templates, err := sections.DefaultTemplates()
			if err != nil {
				return err
			}

			var indexer templateIndexer
			if index != nil {
				indexer = index
			}
			result, err := seedCatalog(ctx, repo, indexer, templates, log)
			if err != nil {
				return err
			}
			if index != nil {
				result.Index = index.Index()
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "Config file (default: configs/config.yaml lookup)")
	cmd.Flags().BoolVar(&skipSearch, "skip-search", false, "Do not index templates into Elasticsearch")
	cmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "Overall timeout")
	return cmd
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

// seedCatalog writes every template, then indexes the full set when an
// indexer is given. The first failure stops the run.
func seedCatalog(ctx context.Context, repo templateWriter, indexer templateIndexer, templates []sections.Template, log logger.Logger) (seedResult, error) {
	var result seedResult
	for _, t := range templates {
		if err := repo.UpsertTemplate(ctx, t); err != nil {
			return result, fmt.Errorf("upsert %s: %w", t.SectionType, err)
		}
		result.Upserted++
		log.Debug("template upserted", map[string]interface{}{"sectionType": t.SectionType})
	}

	if indexer == nil {
		log.Info("catalog seeded", map[string]interface{}{"upserted": result.Upserted})
		return result, nil
	}
	if err := indexer.IndexTemplates(ctx, templates); err != nil {
		return result, fmt.Errorf("index templates: %w", err)
	}
	result.Indexed = len(templates)
	log.Info("catalog seeded", map[string]interface{}{
		"upserted": result.Upserted,
		"indexed":  result.Indexed,
	})
	return result, nil
}
