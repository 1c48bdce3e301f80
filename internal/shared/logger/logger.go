package logger

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Logger is the structured logger shared by all components. Every line
// carries the service name, a machine-readable action tag, and the request id
// travelling in the context (empty outside of a request).
type Logger struct {
	zl zerolog.Logger
}

// NewLogger creates a logger writing JSON lines to stdout.
func NewLogger(service string) *Logger {
	return NewLoggerTo(service, os.Stdout)
}

// NewLoggerTo creates a logger writing to w (tests capture output this way).
func NewLoggerTo(service string, w io.Writer) *Logger {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	zl := zerolog.New(w).With().
		Timestamp().
		Str("service", service).
		Str("hostname", hostname).
		Logger()

	return &Logger{zl: zl}
}

// Define an unexported type for context keys.
type ctxKey string

// requestIDKey is the context key for the request ID.
const requestIDKey ctxKey = "request_id"

// WithRequestID returns a context carrying a request id (useful across HTTP
// and dispatch hops).
func (logger *Logger) WithRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, requestIDKey, rid)
}

// requestIDFrom returns a value saved in the context.
func requestIDFrom(ctx context.Context) string {
	if v := ctx.Value(requestIDKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func (logger *Logger) Info(ctx context.Context, action, msg string, details any) {
	logger.emit(logger.zl.Info(), ctx, action, details).Msg(msg)
}

func (logger *Logger) Debug(ctx context.Context, action, msg string, details any) {
	logger.emit(logger.zl.Debug(), ctx, action, details).Msg(msg)
}

func (logger *Logger) Error(ctx context.Context, action, msg string, err error) {
	logger.emit(logger.zl.Error().Err(err), ctx, action, nil).Msg(msg)
}

func (logger *Logger) emit(ev *zerolog.Event, ctx context.Context, action string, details any) *zerolog.Event {
	ev = ev.Str("action", action)
	if rid := requestIDFrom(ctx); rid != "" {
		ev = ev.Str("request_id", rid)
	}
	if details != nil {
		ev = ev.Interface("details", details)
	}
	return ev
}
