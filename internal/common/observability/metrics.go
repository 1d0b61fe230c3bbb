package observability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Instrument names. The Prometheus exporter keeps the dots and appends the
// unit suffix, e.g. funnel.jobs.processed_total.
const (
	JobsProcessedMetric = "funnel.jobs.processed"
	JobsDurationMetric  = "funnel.jobs.duration"
)

// Config controls the meter and tracer providers.
type Config struct {
	ServiceName string
	Version     string
	Environment string

	Tracing      bool
	TraceWriter  io.Writer // stdout exporter target when OTLPEndpoint is empty
	OTLPEndpoint string
	OTLPInsecure bool
	SampleRatio  float64

	// Registerer receives the Prometheus collector; nil means the default registry.
	Registerer prometheus.Registerer
}

type Observability struct {
	meterProvider  *metric.MeterProvider
	meter          otelmetric.Meter
	jobCounter     otelmetric.Int64Counter
	jobDuration    otelmetric.Float64Histogram
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer
}

// New builds metrics only, logging instead of failing when the exporter
// cannot be created.
func New(serviceName string) *Observability {
	o, err := NewWithConfig(context.Background(), Config{ServiceName: serviceName})
	if err != nil {
		log.Printf("observability disabled: %v", err)
		return &Observability{tracer: otel.Tracer(serviceName)}
	}
	return o
}

func NewWithConfig(ctx context.Context, cfg Config) (*Observability, error) {
	var opts []otelprom.Option
	if cfg.Registerer != nil {
		opts = append(opts, otelprom.WithRegisterer(cfg.Registerer))
	}
	exporter, err := otelprom.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(cfg.ServiceName)

	jobCounter, err := meter.Int64Counter(
		JobsProcessedMetric,
		otelmetric.WithDescription("Number of funnel jobs processed"),
	)
	if err != nil {
		return nil, err
	}
	jobDuration, err := meter.Float64Histogram(
		JobsDurationMetric,
		otelmetric.WithDescription("Funnel job processing duration"),
		otelmetric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	o := &Observability{
		meterProvider: provider,
		meter:         meter,
		jobCounter:    jobCounter,
		jobDuration:   jobDuration,
		tracer:        otel.Tracer(cfg.ServiceName),
	}

	if cfg.Tracing {
		tp, err := newTracerProvider(ctx, cfg)
		if err != nil {
			_ = provider.Shutdown(ctx)
			return nil, err
		}
		o.tracerProvider = tp
		o.tracer = tp.Tracer(cfg.ServiceName)
	}
	return o, nil
}

func (o *Observability) RecordJobProcessed(ctx context.Context, taskType, status string) {
	if o.jobCounter != nil {
		o.jobCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("task_type", taskType),
			attribute.String("status", status),
		))
	}
}

func (o *Observability) RecordJobDuration(ctx context.Context, taskType string, duration time.Duration, status string) {
	if o.jobDuration != nil {
		o.jobDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("task_type", taskType),
			attribute.String("status", status),
		))
	}
}

// Shutdown flushes pending spans and metrics.
func (o *Observability) Shutdown(ctx context.Context) error {
	var errs []error
	if o.tracerProvider != nil {
		errs = append(errs, o.tracerProvider.Shutdown(ctx))
	}
	if o.meterProvider != nil {
		errs = append(errs, o.meterProvider.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
