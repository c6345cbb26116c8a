package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"resumeforge/internal/config"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Metrics holds the custom instruments for the service.
type Metrics struct {
	// AI operation metrics
	AIProcessingTime metric.Float64Histogram
	AIRequestCount   metric.Int64Counter
	AIErrorCount     metric.Int64Counter
	AITokenUsage     metric.Int64Histogram

	// Business metrics
	JobsAnalyzed     metric.Int64Counter
	ResumesOptimized metric.Int64Counter
	JobsScraped      metric.Int64Counter
	RecordsSaved     metric.Int64Counter

	// Rendering metrics
	RenderDuration metric.Float64Histogram

	// Rate limiting metrics
	RateLimitHits metric.Int64Counter
}

// Manager owns the OpenTelemetry tracer and meter providers and their
// shutdown lifecycle.
type Manager struct {
	cfg              config.ObservabilityConfig
	version          string
	tracerProvider   *trace.TracerProvider
	meterProvider    *sdkmetric.MeterProvider
	metrics          *Metrics
	shutdownFuncs    []func(context.Context) error
	prometheusServer *http.ServeMux
}

// NewManager wires up tracing and metrics according to the configuration.
// When observability is disabled the returned manager is a no-op.
func NewManager(cfg config.ObservabilityConfig, version string) (*Manager, error) {
	m := &Manager{cfg: cfg, version: version}
	if !cfg.Enabled {
		return m, nil
	}

	if err := m.initTracing(); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	if err := m.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	return m, nil
}

func (m *Manager) serviceVersion() string {
	if m.cfg.ServiceVersion != "" {
		return m.cfg.ServiceVersion
	}
	return m.version
}

func (m *Manager) serviceInstanceID() string {
	if m.cfg.ServiceInstance != "" {
		return m.cfg.ServiceInstance
	}
	return m.cfg.ServiceName + "-1"
}

func (m *Manager) newResource() (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(m.cfg.ServiceName),
			semconv.ServiceVersion(m.serviceVersion()),
			attribute.String("service.instance.id", m.serviceInstanceID()),
		),
	)
}

// initTracing sets up the tracer provider. Console output wins over OTLP;
// with neither configured spans are sampled but dropped.
func (m *Manager) initTracing() error {
	var exporter trace.SpanExporter
	var err error

	switch {
	case m.cfg.Console.Enabled:
		opts := []stdouttrace.Option{}
		if m.cfg.Console.PrettyPrint {
			opts = append(opts, stdouttrace.WithPrettyPrint())
		}
		exporter, err = stdouttrace.New(opts...)
	case m.cfg.OTLP.Enabled:
		exporter, err = m.newOTLPTraceExporter()
	default:
		exporter = &discardSpanExporter{}
	}
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res, err := m.newResource()
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	sampleRate := m.cfg.SampleRate
	if m.cfg.Tracing.SampleRate > 0 {
		sampleRate = m.cfg.Tracing.SampleRate
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
		trace.WithSampler(trace.TraceIDRatioBased(sampleRate)),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	m.tracerProvider = tp
	m.shutdownFuncs = append(m.shutdownFuncs, tp.Shutdown)

	return nil
}

// initMetrics sets up the meter provider with every configured reader
// (console, OTLP, Prometheus) and registers the custom instruments.
func (m *Manager) initMetrics() error {
	readers, err := m.metricReaders()
	if err != nil {
		return err
	}

	res, err := m.newResource()
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	opts := []sdkmetric.Option{sdkmetric.WithResource(res)}
	for _, reader := range readers {
		opts = append(opts, sdkmetric.WithReader(reader))
	}

	mp := sdkmetric.NewMeterProvider(opts...)
	otel.SetMeterProvider(mp)

	m.meterProvider = mp
	m.shutdownFuncs = append(m.shutdownFuncs, mp.Shutdown)

	return m.initInstruments()
}

func (m *Manager) metricReaders() ([]sdkmetric.Reader, error) {
	var readers []sdkmetric.Reader

	if m.cfg.Console.Enabled {
		exporter, err := stdoutmetric.New()
		if err != nil {
			return nil, fmt.Errorf("failed to create console metric exporter: %w", err)
		}
		readers = append(readers,
			sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(m.collectionInterval())))
	}

	if m.cfg.OTLP.Enabled {
		reader, err := m.newOTLPMetricsReader()
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP metrics reader: %w", err)
		}
		readers = append(readers, reader)
	}

	if m.cfg.Prometheus.Enabled {
		reader, mux, err := SetupPrometheusExporter(m.cfg.Prometheus)
		if err != nil {
			return nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
		}
		if reader != nil {
			readers = append(readers, reader)
			m.prometheusServer = mux
			if err := StartPrometheusServer(mux, m.cfg.Prometheus.Port); err != nil {
				return nil, fmt.Errorf("failed to start Prometheus server: %w", err)
			}
		}
	}

	if len(readers) == 0 {
		readers = append(readers, sdkmetric.NewManualReader())
	}

	return readers, nil
}

func (m *Manager) collectionInterval() time.Duration {
	if m.cfg.Metrics.CollectionInterval > 0 {
		return m.cfg.Metrics.CollectionInterval
	}
	return 15 * time.Second
}

func (m *Manager) initInstruments() error {
	meter := m.meterProvider.Meter(m.cfg.ServiceName)
	m.metrics = &Metrics{}

	var err error

	m.metrics.AIProcessingTime, err = meter.Float64Histogram(
		"resumeforge_ai_processing_duration_seconds",
		metric.WithDescription("Time spent processing AI requests"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create AI processing time metric: %w", err)
	}

	m.metrics.AIRequestCount, err = meter.Int64Counter(
		"resumeforge_ai_requests_total",
		metric.WithDescription("Total number of AI requests"),
	)
	if err != nil {
		return fmt.Errorf("failed to create AI request count metric: %w", err)
	}

	m.metrics.AIErrorCount, err = meter.Int64Counter(
		"resumeforge_ai_errors_total",
		metric.WithDescription("Total number of AI request errors"),
	)
	if err != nil {
		return fmt.Errorf("failed to create AI error count metric: %w", err)
	}

	m.metrics.AITokenUsage, err = meter.Int64Histogram(
		"resumeforge_ai_token_usage_total",
		metric.WithDescription("Token usage for AI requests (input, output, total)"),
		metric.WithUnit("tokens"),
	)
	if err != nil {
		return fmt.Errorf("failed to create AI token usage metric: %w", err)
	}

	m.metrics.JobsAnalyzed, err = meter.Int64Counter(
		"resumeforge_jobs_analyzed_total",
		metric.WithDescription("Total number of job descriptions analyzed"),
	)
	if err != nil {
		return fmt.Errorf("failed to create jobs analyzed metric: %w", err)
	}

	m.metrics.ResumesOptimized, err = meter.Int64Counter(
		"resumeforge_resumes_optimized_total",
		metric.WithDescription("Total number of resumes optimized"),
	)
	if err != nil {
		return fmt.Errorf("failed to create resumes optimized metric: %w", err)
	}

	m.metrics.JobsScraped, err = meter.Int64Counter(
		"resumeforge_jobs_scraped_total",
		metric.WithDescription("Total number of job postings scraped"),
	)
	if err != nil {
		return fmt.Errorf("failed to create jobs scraped metric: %w", err)
	}

	m.metrics.RecordsSaved, err = meter.Int64Counter(
		"resumeforge_records_saved_total",
		metric.WithDescription("Total number of records persisted"),
	)
	if err != nil {
		return fmt.Errorf("failed to create records saved metric: %w", err)
	}

	m.metrics.RenderDuration, err = meter.Float64Histogram(
		"resumeforge_render_duration_seconds",
		metric.WithDescription("Time spent rendering resume documents"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create render duration metric: %w", err)
	}

	m.metrics.RateLimitHits, err = meter.Int64Counter(
		"resumeforge_rate_limit_hits_total",
		metric.WithDescription("Total number of rate limit hits"),
	)
	if err != nil {
		return fmt.Errorf("failed to create rate limit hits metric: %w", err)
	}

	return nil
}

// GetMetrics returns the instruments. Safe to call on a disabled manager.
func (m *Manager) GetMetrics() *Metrics {
	if m.metrics == nil {
		return &Metrics{}
	}
	return m.metrics
}

// HTTPMiddleware returns otelhttp middleware, or a pass-through when disabled.
func (m *Manager) HTTPMiddleware() func(http.Handler) http.Handler {
	if !m.cfg.Enabled {
		return func(h http.Handler) http.Handler { return h }
	}

	return otelhttp.NewMiddleware(
		m.cfg.ServiceName,
		otelhttp.WithTracerProvider(m.tracerProvider),
		otelhttp.WithMeterProvider(m.meterProvider),
	)
}

// Tracer returns a tracer for the given name.
func (m *Manager) Tracer(name string) oteltrace.Tracer {
	if !m.cfg.Enabled {
		return noop.NewTracerProvider().Tracer(name)
	}
	return otel.Tracer(name)
}

// Shutdown flushes and stops all providers.
func (m *Manager) Shutdown(ctx context.Context) error {
	for _, shutdown := range m.shutdownFuncs {
		if err := shutdown(ctx); err != nil {
			return err
		}
	}
	return nil
}

// TokenUsage mirrors the token counts reported by the AI provider.
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// AIOperationResult carries the outcome of an instrumented AI call.
type AIOperationResult struct {
	Error      error
	TokenUsage *TokenUsage
}

// TrackAIOperation wraps an AI call with a span, duration histogram, request
// and error counters, and per-type token usage.
func (mx *Metrics) TrackAIOperation(ctx context.Context, operation string, fn func(context.Context) *AIOperationResult) error {
	if mx.AIProcessingTime == nil {
		result := fn(ctx)
		if result != nil {
			return result.Error
		}
		return nil
	}

	tracer := otel.Tracer("resumeforge.ai")
	ctx, span := tracer.Start(ctx, "ai."+operation)
	defer span.End()

	start := time.Now()
	result := fn(ctx)
	duration := time.Since(start).Seconds()

	var err error
	if result != nil {
		err = result.Error
	}

	attrs := []attribute.KeyValue{
		attribute.String("operation", operation),
		attribute.Bool("success", err == nil),
	}

	mx.AIProcessingTime.Record(ctx, duration, metric.WithAttributes(attrs...))
	mx.AIRequestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	if err != nil {
		mx.AIErrorCount.Add(ctx, 1, metric.WithAttributes(attrs...))
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("error", true))
	}

	if result != nil && result.TokenUsage != nil {
		mx.recordTokenUsage(ctx, result.TokenUsage, attrs)
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", result.TokenUsage.InputTokens),
			attribute.Int64("ai.tokens.output", result.TokenUsage.OutputTokens),
			attribute.Int64("ai.tokens.total", result.TokenUsage.TotalTokens),
		)
	}

	span.SetAttributes(attrs...)
	return err
}

func (mx *Metrics) recordTokenUsage(ctx context.Context, usage *TokenUsage, attrs []attribute.KeyValue) {
	if mx.AITokenUsage == nil {
		return
	}
	for _, tt := range []struct {
		tokenType string
		value     int64
	}{
		{"input", usage.InputTokens},
		{"output", usage.OutputTokens},
		{"total", usage.TotalTokens},
	} {
		tokenAttrs := append(attrs, attribute.String("token_type", tt.tokenType))
		mx.AITokenUsage.Record(ctx, tt.value, metric.WithAttributes(tokenAttrs...))
	}
}

// RecordBusinessMetric increments the counter matching metricType.
func (mx *Metrics) RecordBusinessMetric(ctx context.Context, metricType string, success bool, attributes ...attribute.KeyValue) {
	attrs := append([]attribute.KeyValue{attribute.Bool("success", success)}, attributes...)
	opts := metric.WithAttributes(attrs...)

	switch metricType {
	case "job_analyzed":
		if mx.JobsAnalyzed != nil {
			mx.JobsAnalyzed.Add(ctx, 1, opts)
		}
	case "resume_optimized":
		if mx.ResumesOptimized != nil {
			mx.ResumesOptimized.Add(ctx, 1, opts)
		}
	case "job_scraped":
		if mx.JobsScraped != nil {
			mx.JobsScraped.Add(ctx, 1, opts)
		}
	case "record_saved":
		if mx.RecordsSaved != nil {
			mx.RecordsSaved.Add(ctx, 1, opts)
		}
	case "rate_limit_hit":
		if mx.RateLimitHits != nil {
			mx.RateLimitHits.Add(ctx, 1, opts)
		}
	}
}

// RecordRenderDuration records how long a document render took.
func (mx *Metrics) RecordRenderDuration(ctx context.Context, format string, seconds float64, success bool) {
	if mx.RenderDuration == nil {
		return
	}
	mx.RenderDuration.Record(ctx, seconds, metric.WithAttributes(
		attribute.String("format", format),
		attribute.Bool("success", success),
	))
}

type discardSpanExporter struct{}

func (d *discardSpanExporter) ExportSpans(ctx context.Context, spans []trace.ReadOnlySpan) error {
	return nil
}

func (d *discardSpanExporter) Shutdown(ctx context.Context) error { return nil }

func (m *Manager) newOTLPTraceExporter() (trace.SpanExporter, error) {
	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpointURL(m.cfg.OTLP.Endpoint),
	}
	if m.cfg.OTLP.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	if len(m.cfg.OTLP.Headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(m.cfg.OTLP.Headers))
	}

	exporter, err := otlptracehttp.New(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}
	return exporter, nil
}

func (m *Manager) newOTLPMetricsReader() (sdkmetric.Reader, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpointURL(m.cfg.OTLP.Endpoint),
	}
	if m.cfg.OTLP.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	if len(m.cfg.OTLP.Headers) > 0 {
		opts = append(opts, otlpmetrichttp.WithHeaders(m.cfg.OTLP.Headers))
	}

	exporter, err := otlpmetrichttp.New(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
	}

	return sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(m.collectionInterval())), nil
}
