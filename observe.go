package searchflip

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/olleolleolle/search-flip/internal/logger"
	"github.com/olleolleolle/search-flip/internal/metrics"
)

const tracerName = "github.com/olleolleolle/search-flip"

// ContextWithLogger returns a context whose logger overrides the client's
// for calls made with it.
func ContextWithLogger(ctx context.Context, l *zap.Logger) context.Context {
	return logger.ContextWithLogger(ctx, l)
}

// sdkMetrics holds prometheus metrics registered for the SDK.
type sdkMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

func newSDKMetrics(reg prometheus.Registerer) (*sdkMetrics, error) {
	m := &sdkMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: "sdk",
			Name:      "operations_total",
			Help:      "Total SDK operations by type and status.",
		}, []string{"operation", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metrics.Namespace,
			Subsystem: "sdk",
			Name:      "operation_duration_seconds",
			Help:      "SDK operation duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	if err := metrics.RegisterOrReuse(reg, &m.operations); err != nil {
		return nil, err
	}
	if err := metrics.RegisterOrReuse(reg, &m.duration); err != nil {
		return nil, err
	}
	return m, nil
}

// observer provides logging, metrics and tracing for SDK operations.
type observer struct {
	logger  *zap.Logger
	metrics *sdkMetrics
	tracer  trace.Tracer
}

func newObserver(l *zap.Logger, reg prometheus.Registerer, tp trace.TracerProvider) (*observer, error) {
	var m *sdkMetrics
	if reg != nil {
		var err error
		m, err = newSDKMetrics(reg)
		if err != nil {
			return nil, err
		}
	}
	if l == nil {
		l = zap.NewNop()
	}
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &observer{logger: l, metrics: m, tracer: tp.Tracer(tracerName)}, nil
}

// start opens a span for op; the returned function ends it and records the
// outcome.
func (o *observer) start(
	ctx context.Context, op string, attrs ...attribute.KeyValue,
) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := o.tracer.Start(ctx, "searchflip."+op, trace.WithAttributes(attrs...))

	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		o.observe(ctx, op, start, err, attrs)
	}
}

func (o *observer) observe(
	ctx context.Context, op string, start time.Time, err error, attrs []attribute.KeyValue,
) {
	dur := time.Since(start)

	if o.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		o.metrics.operations.WithLabelValues(op, status).Inc()
		o.metrics.duration.WithLabelValues(op).Observe(
			dur.Seconds(),
		)
	}

	l := o.logger
	if cl, ok := logger.Lookup(ctx); ok {
		l = cl
	}
	fields := make([]zap.Field, 0, len(attrs)+3)
	fields = append(fields, zap.String("op", op), zap.Duration("duration", dur))
	for _, a := range attrs {
		fields = append(fields, zap.Any(string(a.Key), a.Value.AsInterface()))
	}
	if err != nil {
		l.Warn("operation failed", append(fields, zap.Error(err))...)
		return
	}
	l.Debug("operation completed", fields...)
}

// bulkObserver adapts the observer to the bulk loader's batch hook.
type bulkObserver struct{ o *observer }

func (b bulkObserver) BatchStart(ctx context.Context, index string, size int) (context.Context, func(error)) {
	return b.o.start(ctx, "Bulk.Flush",
		attribute.String("searchflip.index", index),
		attribute.Int("searchflip.batch_size", size),
	)
}
