// Package api serves the funnel engine over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"funnel-workers/internal/common/logger"
	"funnel-workers/internal/funnel/analyzer"
	"funnel-workers/internal/funnel/profile"
	"funnel-workers/internal/funnel/sections"
	"funnel-workers/internal/funnel/structure"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

type RouterConfig struct {
	ServiceName    string
	AllowedOrigins []string

	Analyzer  *analyzer.Analyzer
	Engine    *structure.Engine
	Extractor *profile.Extractor
	Templates sections.TemplateLookup
	Search    sections.TemplateSearcher

	Checks map[string]ReadinessCheck
	Logger logger.Logger
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		router.Use(otelgin.Middleware(cfg.ServiceName))
	}
	router.Use(requestMetrics())
	if cfg.Logger != nil {
		router.Use(requestLogger(cfg.Logger))
	}
	if len(cfg.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins: cfg.AllowedOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders: []string{"Content-Type", "Authorization"},
			MaxAge:       12 * time.Hour,
		}))
	}

	h := &FunnelHandler{
		analyzer:  cfg.Analyzer,
		engine:    cfg.Engine,
		extractor: cfg.Extractor,
		templates: cfg.Templates,
		search:    cfg.Search,
	}

	// ===============
	// || Health    ||
	// ===============
	router.GET("/health", HealthCheck)
	router.GET("/ready", ReadyCheck(cfg.Checks))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ===============
	// || Funnel    ||
	// ===============
	v1 := router.Group("/api/v1")
	{
		v1.POST("/funnel/analyze", h.Analyze)
		v1.POST("/funnel/structure", h.Structure)
		v1.POST("/funnel/profile", h.Profile)
		v1.POST("/funnel/blueprint", h.Blueprint)
		v1.GET("/sections/search", h.SearchSections)
	}

	return router
}
