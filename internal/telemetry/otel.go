package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Default configuration values. DefaultFlushPeriod matches the teacher's
// otel exporter options; DefaultServiceName names this module instead of
// the teacher's "unknown_service".
const (
	DefaultServiceName = "janus-sub014"
	DefaultFlushPeriod = 2 * time.Second
)

// Option configures an OTelExporter, following the teacher's
// `otel.Option func(*Exporter)` functional-options shape.
type Option func(*OTelExporter)

// WithServiceName sets the name given to the tracer and meter this
// exporter creates (their instrumentation scope). It sets no resource
// attribute.
func WithServiceName(name string) Option {
	return func(e *OTelExporter) { e.serviceName = name }
}

// WithFlushPeriod sets the collection interval of the underlying periodic
// metric reader, whose exporter discards what it collects. It takes
// effect only as an option passed to NewOTelExporter.
func WithFlushPeriod(d time.Duration) Option {
	return func(e *OTelExporter) { e.flushPeriod = d }
}

// OTelExporter turns telemetry.Event values into OpenTelemetry spans and
// a counter metric, using the real go.opentelemetry.io/otel SDK rather
// than a hand-rolled OTLP client — this engine emits far fewer events
// than an LSP server does, so the batching-HTTP-POST machinery the
// teacher's otel.Exporter needs is not reproduced. Nothing leaves the
// process: see NewOTelExporter.
type OTelExporter struct {
	mu             sync.Mutex
	serviceName    string
	flushPeriod    time.Duration
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	tracer         trace.Tracer
	eventCounter   metric.Int64Counter
}

// NewOTelExporter constructs an exporter backed by an in-process
// TracerProvider and MeterProvider. Each Export call opens and
// immediately closes a zero-duration span carrying the event's labels
// as attributes, and increments an "engine.events" counter tagged by
// event name. The TracerProvider has no span processor, so ended spans
// are not exported, and the metric reader hands its data to
// noopMetricExporter. The providers are not exposed and no Option
// attaches another exporter.
func NewOTelExporter(ctx context.Context, opts ...Option) (*OTelExporter, error) {
	e := &OTelExporter{
		serviceName: DefaultServiceName,
		flushPeriod: DefaultFlushPeriod,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.tracerProvider = sdktrace.NewTracerProvider()
	e.tracer = e.tracerProvider.Tracer(e.serviceName)

	reader := sdkmetric.NewPeriodicReader(noopMetricExporter{}, sdkmetric.WithInterval(e.flushPeriod))
	e.meterProvider = sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := e.meterProvider.Meter(e.serviceName)

	counter, err := meter.Int64Counter("engine.events",
		metric.WithDescription("count of telemetry events emitted by the compilation engine"))
	if err != nil {
		return nil, fmt.Errorf("telemetry: creating event counter: %w", err)
	}
	e.eventCounter = counter

	go func() {
		<-ctx.Done()
		_ = e.Shutdown(context.Background())
	}()

	return e, nil
}

// Export implements Exporter.
func (e *OTelExporter) Export(ev Event) {
	ctx, span := e.tracer.Start(context.Background(), ev.Name)
	attrs := make([]attribute.KeyValue, 0, len(ev.Labels))
	for k, v := range ev.Labels {
		attrs = append(attrs, attribute.String(k, fmt.Sprint(v)))
	}
	span.SetAttributes(attrs...)
	span.End()

	e.mu.Lock()
	counter := e.eventCounter
	e.mu.Unlock()
	if counter != nil {
		counter.Add(ctx, 1, metric.WithAttributes(attribute.String("event", ev.Name)))
	}
}

// Shutdown flushes and releases the underlying providers, matching the
// teacher's context-done final-flush behavior in NewExporter's
// background goroutine.
func (e *OTelExporter) Shutdown(ctx context.Context) error {
	if err := e.tracerProvider.Shutdown(ctx); err != nil {
		return err
	}
	return e.meterProvider.Shutdown(ctx)
}

// noopMetricExporter discards periodic metric exports. It is the only
// metric exporter NewOTelExporter installs; the SDK's aggregation and
// periodic collection run, but no data is sent anywhere.
type noopMetricExporter struct{}

func (noopMetricExporter) Temporality(k sdkmetric.InstrumentKind) metricdata.Temporality {
	return metricdata.CumulativeTemporality
}

func (noopMetricExporter) Aggregation(k sdkmetric.InstrumentKind) sdkmetric.Aggregation {
	return sdkmetric.AggregationDefault{}
}

func (noopMetricExporter) Export(ctx context.Context, rm *metricdata.ResourceMetrics) error {
	return nil
}

func (noopMetricExporter) ForceFlush(ctx context.Context) error { return nil }

func (noopMetricExporter) Shutdown(ctx context.Context) error { return nil }
