package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type contextKey string

const (
	// LoggerKey is the context key for the logger
	LoggerKey contextKey = "logger"
	// HospitalIDKey is the context key for the active hospital
	HospitalIDKey contextKey = "hospital_id"
)

// WithContext returns a new context with the logger attached
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// FromContext retrieves the logger from context, returns a no-op logger if not found
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(LoggerKey).(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}

// WithHospitalID adds the hospital ID to context and returns the enriched logger
func WithHospitalID(ctx context.Context, logger *zap.Logger, hospitalID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, HospitalIDKey, hospitalID)
	enriched := logger.With(zap.String("hospital_id", hospitalID))
	return WithContext(ctx, enriched), enriched
}

// GetHospitalID retrieves the hospital ID from context
func GetHospitalID(ctx context.Context) string {
	if id, ok := ctx.Value(HospitalIDKey).(string); ok {
		return id
	}
	return ""
}

// WithTraceContext adds trace_id and span_id from the context's span.
// If no valid span exists, returns the original logger unchanged.
func WithTraceContext(ctx context.Context, logger *zap.Logger) *zap.Logger {
	spanCtx := trace.SpanFromContext(ctx).SpanContext()
	if !spanCtx.IsValid() {
		return logger
	}
	return logger.With(
		zap.String("trace_id", spanCtx.TraceID().String()),
		zap.String("span_id", spanCtx.SpanID().String()),
	)
}
