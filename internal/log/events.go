package log

import (
	"context"
	"log/slog"
	"net/http"
)

// StructuredLogger emits the recurring events of the bot and the HTTP server
// with a fixed field set, so they can be filtered reliably.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger}
}

// LogHTTPStart logs the start of an HTTP request
func (sl *StructuredLogger) LogHTTPStart(ctx context.Context, r *http.Request, clientIP string) {
	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent"), r.Header.Get("Referer")).
		WithClientIP(clientIP)

	sl.logger.DebugContext(ctx, "HTTP request started", fields.ToSlice()...)
}

// LogHTTPEnd logs completion at info, warn for 4xx and error for 5xx.
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64, clientIP string) {
	level := slog.LevelInfo
	switch {
	case statusCode >= 500:
		level = slog.LevelError
	case statusCode >= 400:
		level = slog.LevelWarn
	}

	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "", "").
		WithHTTPResponse(statusCode, durationMs, statusCode < 400).
		WithClientIP(clientIP)

	sl.logger.Log(ctx, level, "HTTP request completed", fields.ToSlice()...)
}

// LogExpenseRecorded logs a successful ledger append
func (sl *StructuredLogger) LogExpenseRecorded(ctx context.Context, ownerID, item string, amount int64, category string, rowIndex int) {
	fields := NewFields().
		WithExpense(item, amount, category).
		WithOperation(OpRecord)
	fields[FieldOwnerID] = ownerID
	fields[FieldRowIndex] = rowIndex

	sl.logger.InfoContext(ctx, "Expense recorded", fields.ToSlice()...)
}

// LogCommand logs a handled bot command.
func (sl *StructuredLogger) LogCommand(ctx context.Context, ownerID string, chatID int64, command string, err error) {
	fields := NewFields().
		WithOwner(ownerID, chatID).
		WithCommand(command).
		WithError(err)

	if err != nil {
		sl.logger.WarnContext(ctx, "Command failed", fields.ToSlice()...)
		return
	}
	sl.logger.DebugContext(ctx, "Command handled", fields.ToSlice()...)
}
