package observability

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/contrib/processors/minsev"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// instrumentationName identifies log records emitted through the OpenTelemetry bridge.
const instrumentationName = "github.com/florianilch/stepwise"

// ShutdownFunc flushes and releases the logging pipeline.
type ShutdownFunc func(context.Context) error

// Instrument installs the default slog logger and the W3C trace context
// propagator.
//
// logFormat is "text" or "json" for stdout logs, or "otel" to send records
// through the OpenTelemetry log SDK to exporter ("stdout", "otlp-http" or
// "otlp-grpc"). OTLP exporters read the standard OTEL_EXPORTER_OTLP_*
// environment variables.
func Instrument(ctx context.Context, level slog.Level, logFormat, exporter string) (ShutdownFunc, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if strings.ToLower(logFormat) == "otel" {
		provider, err := newLoggerProvider(ctx, level, exporter)
		if err != nil {
			return nil, err
		}
		slog.SetDefault(slog.New(otelslog.NewHandler(instrumentationName, otelslog.WithLoggerProvider(provider))))
		return provider.Shutdown, nil
	}

	handler, err := newStdoutHandler(os.Stdout, level, logFormat)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(slog.New(newTraceContextHandler(handler)))

	return func(context.Context) error { return nil }, nil
}

// newStdoutHandler creates a handler for human-readable logs.
func newStdoutHandler(w io.Writer, level slog.Level, logFormat string) (slog.Handler, error) {
	opts := &slog.HandlerOptions{
		Level: level,
	}

	switch strings.ToLower(logFormat) {
	case "json":
		return slog.NewJSONHandler(w, opts), nil
	case "text":
		return slog.NewTextHandler(w, opts), nil
	default:
		return nil, fmt.Errorf("unsupported log format %q (expected: json, text, otel)", logFormat)
	}
}

// newLoggerProvider builds a batching log pipeline that drops records below level.
func newLoggerProvider(ctx context.Context, level slog.Level, exporter string) (*sdklog.LoggerProvider, error) {
	exp, err := newExporter(ctx, exporter)
	if err != nil {
		return nil, err
	}

	processor := minsev.NewLogProcessor(sdklog.NewBatchProcessor(exp), severity(level))
	return sdklog.NewLoggerProvider(sdklog.WithProcessor(processor)), nil
}

func newExporter(ctx context.Context, exporter string) (sdklog.Exporter, error) {
	var (
		exp sdklog.Exporter
		err error
	)
	switch strings.ToLower(exporter) {
	case "stdout":
		exp, err = stdoutlog.New()
	case "otlp-http":
		exp, err = otlploghttp.New(ctx)
	case "otlp-grpc":
		exp, err = otlploggrpc.New(ctx)
	default:
		return nil, fmt.Errorf("unsupported log exporter %q (expected: stdout, otlp-http, otlp-grpc)", exporter)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s log exporter: %w", exporter, err)
	}
	return exp, nil
}

// severity maps slog levels onto OpenTelemetry severities.
func severity(level slog.Level) minsev.Severity {
	switch {
	case level >= slog.LevelError:
		return minsev.SeverityError
	case level >= slog.LevelWarn:
		return minsev.SeverityWarn
	case level >= slog.LevelInfo:
		return minsev.SeverityInfo
	default:
		return minsev.SeverityDebug
	}
}
