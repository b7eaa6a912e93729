package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	ServiceName = "ticktock"
	tracerName  = "github.com/igorsilveira/ticktock"
)

type TracerConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
	Version     string
}

// InitTracer installs an OTLP/HTTP tracer provider. When tracing is disabled
// the global no-op provider stays in place and the returned shutdown does
// nothing.
func InitTracer(ctx context.Context, cfg TracerConfig) (func(context.Context) error, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	if cfg.ServiceName == "" {
		cfg.ServiceName = ServiceName
	}

	opts := []otlptracehttp.Option{
		otlptracehttp.WithInsecure(),
	}
	if cfg.Endpoint != "" {
		opts = append(opts, otlptracehttp.WithEndpoint(cfg.Endpoint))
	}

	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("telemetry: creating OTLP exporter: %w", err)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.Version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: creating resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tp.Shutdown, nil
}

// Span attribute keys for task execution.
const (
	AttrTaskID    = attribute.Key("a2a.task.id")
	AttrSessionID = attribute.Key("a2a.session.id")
	AttrResponder = attribute.Key("ticktock.responder")
	AttrTaskState = attribute.Key("a2a.task.state")
)

// TaskSpanName names the span wrapping one tasks/send execution.
const TaskSpanName = "a2a.tasks/send"

func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// StartTaskSpan opens a server span for one execution of a task.
func StartTaskSpan(ctx context.Context, taskID, sessionID, responder string) (context.Context, trace.Span) {
	return Tracer().Start(ctx, TaskSpanName,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			AttrTaskID.String(taskID),
			AttrSessionID.String(sessionID),
			AttrResponder.String(responder),
		),
	)
}

// EndTaskSpan records the state the task was left in, and err if any, then
// ends the span.
func EndTaskSpan(span trace.Span, state string, err error) {
	if state != "" {
		span.SetAttributes(AttrTaskState.String(state))
	}
	EndSpan(span, err)
}

// EndSpan records err on span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
