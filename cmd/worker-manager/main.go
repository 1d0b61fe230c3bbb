// cmd/worker-manager/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"funnel-workers/internal/api"
	"funnel-workers/internal/common/config"
	"funnel-workers/internal/common/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(ctx context.Context, operation func(context.Context) error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation(ctx)
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
				"error":       err,
				"attempt":     i + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
			select {
			case <-ctx.Done():
				return fmt.Errorf("%s cancelled: %w", operationName, ctx.Err())
			case <-time.After(delay):
			}
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("starting worker manager",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx, cfg, log)
	if err != nil {
		zapLog.Fatal("startup failed", zap.Error(err))
	}
	defer app.Close()

	workers := app.StartWorkers(cfg)
	zapLog.Info("workers registered", zap.Int("count", len(workers)))

	router := api.NewRouter(api.RouterConfig{
		ServiceName: cfg.Observability.ServiceName,
		Analyzer:    app.analyzer,
		Engine:      app.engine,
		Extractor:   app.extractor,
		Templates:   app.templates,
		Search:      app.search,
		Checks:      app.ReadinessChecks(),
		Logger:      log.WithFields(map[string]interface{}{"component": "api"}),
	})
	srv := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      router,
		ReadTimeout:  config.GetDuration(cfg.HTTP.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.HTTP.WriteTimeout),
	}

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		zapLog.Fatal("listen failed", zap.String("address", srv.Addr), zap.Error(err))
	}
	zapLog.Info("http server listening", zap.String("address", ln.Addr().String()))

	if err := serve(ctx, srv, ln, log); err != nil {
		zapLog.Error("http server stopped with error", zap.Error(err))
	}

	zapLog.Info("shutdown signal received, stopping workers")
	for _, w := range workers {
		w.Close()
	}
	zapLog.Info("worker manager stopped gracefully")
}

// serve runs srv until ctx is cancelled, then shuts it down.
func serve(ctx context.Context, srv *http.Server, ln net.Listener, log logger.Logger) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("shutting down http server", nil)
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
