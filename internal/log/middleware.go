package log

import (
	"context"
	"log/slog"
	"net/http"
)

// ContextKey type for context keys
type ContextKey string

const (
	// LoggerContextKey is the context key for the logger
	LoggerContextKey ContextKey = "logger"
)

// NewContext returns ctx carrying logger.
func NewContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, LoggerContextKey, logger)
}

// FromContext extracts a logger from the request context
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	return &Logger{
		Logger:    slog.Default(),
		component: "unknown",
	}
}

// StructuredLogger provides structured logging methods with context awareness
type StructuredLogger struct {
	logger *Logger
}

// NewStructuredLogger creates a new structured logger
func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{
		logger: logger,
	}
}

// LogHTTPEnd logs the completion of an HTTP request
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64, clientIP string) {
	level := slog.LevelInfo
	if statusCode >= 400 && statusCode < 500 {
		level = slog.LevelWarn
	} else if statusCode >= 500 {
		level = slog.LevelError
	}

	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent")).
		WithHTTPResponse(statusCode, durationMs, statusCode < 400).
		WithClientIP(clientIP).
		WithComponent(ComponentHTTP)

	sl.logger.Logger.Log(ctx, level, "HTTP request completed", fields.ToSlice()...)
}

// LogCounterChanged logs a single increment or decrement
func (sl *StructuredLogger) LogCounterChanged(ctx context.Context, op, category, product, tier string) {
	fields := NewFields().
		WithCounter(category, product, tier).
		WithOperation(op).
		WithComponent(ComponentTally)

	sl.logger.Logger.DebugContext(ctx, "Counter changed", fields.ToSlice()...)
}

// LogReportSaved logs a report written to disk and, when archived, its snapshot id
func (sl *StructuredLogger) LogReportSaved(ctx context.Context, fileName string, snapshotID int64, drinkCups int, totalSales int64) {
	fields := NewFields().
		WithSnapshot(snapshotID, fileName).
		WithTotals(drinkCups, totalSales).
		WithOperation(OpSave).
		WithComponent(ComponentSnapshot)

	sl.logger.Logger.InfoContext(ctx, "Report saved", fields.ToSlice()...)
}

// LogReportLoaded logs the outcome of a report load
func (sl *StructuredLogger) LogReportLoaded(ctx context.Context, fileName string, rows, applied, skipped int) {
	fields := NewFields().
		WithSnapshot(0, fileName).
		WithLoad(rows, applied, skipped).
		WithOperation(OpLoad).
		WithComponent(ComponentSnapshot)

	level := slog.LevelInfo
	if skipped > 0 {
		level = slog.LevelWarn
	}
	sl.logger.Logger.Log(ctx, level, "Report loaded", fields.ToSlice()...)
}

// LogError logs an error with structured context
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, component string, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	allFields := fields.
		WithError(err).
		WithOperation(operation).
		WithComponent(component)

	sl.logger.Logger.ErrorContext(ctx, msg, allFields.ToSlice()...)
}
