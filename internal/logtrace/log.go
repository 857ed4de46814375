package logtrace

import (
	"context"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type contextKey string

const (
	correlationIDKey contextKey = "correlation_id"
	originKey        contextKey = "origin"
)

var (
	mu     sync.RWMutex
	logger = zap.NewNop()
)

// Setup installs a JSON logger writing to stderr. stdout is reserved for the
// command result, so nothing here may write to it.
func Setup(service string, level string) {
	SetupWithWriter(service, level, zapcore.Lock(os.Stderr))
}

func SetupWithWriter(service string, level string, out zapcore.WriteSyncer) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), out, parseLevel(level))
	SetLogger(zap.New(core).With(zap.String("service", service)))
}

// SetLogger replaces the process logger. Tests use it with zaptest/observer.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	mu.Lock()
	logger = l
	mu.Unlock()
}

func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = logger.Sync()
}

func parseLevel(level string) zapcore.Level {
	parsed, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return zapcore.InfoLevel
	}
	return parsed
}

func CtxWithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, correlationIDKey, correlationID)
}

func CtxWithOrigin(ctx context.Context, origin string) context.Context {
	return context.WithValue(ctx, originKey, origin)
}

func extractCorrelationID(ctx context.Context) string {
	if ctx == nil {
		return "unknown"
	}
	if id, ok := ctx.Value(correlationIDKey).(string); ok && id != "" {
		return id
	}
	return "unknown"
}

func Debug(ctx context.Context, msg string, fields Fields) {
	log(ctx, zapcore.DebugLevel, msg, fields)
}

func Info(ctx context.Context, msg string, fields Fields) {
	log(ctx, zapcore.InfoLevel, msg, fields)
}

func Warn(ctx context.Context, msg string, fields Fields) {
	log(ctx, zapcore.WarnLevel, msg, fields)
}

func Error(ctx context.Context, msg string, fields Fields) {
	log(ctx, zapcore.ErrorLevel, msg, fields)
}

func log(ctx context.Context, level zapcore.Level, msg string, fields Fields) {
	mu.RLock()
	l := logger
	mu.RUnlock()

	if !l.Core().Enabled(level) {
		return
	}

	zapFields := make([]zap.Field, 0, len(fields)+2)
	zapFields = append(zapFields, zap.String(FieldCorrelationID, extractCorrelationID(ctx)))
	if ctx != nil {
		if origin, ok := ctx.Value(originKey).(string); ok && origin != "" {
			zapFields = append(zapFields, zap.String(FieldOrigin, origin))
		}
	}
	for key, value := range fields {
		if err, ok := value.(error); ok {
			zapFields = append(zapFields, zap.String(key, err.Error()))
			continue
		}
		zapFields = append(zapFields, zap.Any(key, value))
	}

	if ce := l.Check(level, msg); ce != nil {
		ce.Write(zapFields...)
	}
}
