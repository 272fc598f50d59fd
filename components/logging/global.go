package logging

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// 全局 logger, 组件启动前为 no-op
var (
	mu           sync.RWMutex
	globalLogger Logger = &noopLogger{}
)

type noopLogger struct{}

func (n *noopLogger) Debug(ctx context.Context, msg string, fields ...zap.Field) {}
func (n *noopLogger) Info(ctx context.Context, msg string, fields ...zap.Field)  {}
func (n *noopLogger) Warn(ctx context.Context, msg string, fields ...zap.Field)  {}
func (n *noopLogger) Error(ctx context.Context, msg string, fields ...zap.Field) {}
func (n *noopLogger) Fatal(ctx context.Context, msg string, fields ...zap.Field) {}
func (n *noopLogger) With(fields ...zap.Field) Logger                            { return n }
func (n *noopLogger) Sync() error                                                { return nil }

func SetGlobalLogger(l Logger) {
	if l == nil {
		return
	}
	mu.Lock()
	globalLogger = l
	mu.Unlock()
}

// ResetGlobalLogger restores the no-op logger if l is still the global one.
func ResetGlobalLogger(l Logger) {
	mu.Lock()
	if globalLogger == l {
		globalLogger = &noopLogger{}
	}
	mu.Unlock()
}

func L() Logger {
	mu.RLock()
	l := globalLogger
	mu.RUnlock()
	return l
}

func Debug(ctx context.Context, msg string, fields ...zap.Field) { L().Debug(ctx, msg, fields...) }
func Info(ctx context.Context, msg string, fields ...zap.Field)  { L().Info(ctx, msg, fields...) }
func Warn(ctx context.Context, msg string, fields ...zap.Field)  { L().Warn(ctx, msg, fields...) }
func Error(ctx context.Context, msg string, fields ...zap.Field) { L().Error(ctx, msg, fields...) }
func Fatal(ctx context.Context, msg string, fields ...zap.Field) { L().Fatal(ctx, msg, fields...) }

func Debugf(ctx context.Context, format string, args ...interface{}) {
	L().Debug(ctx, fmt.Sprintf(format, args...))
}
func Infof(ctx context.Context, format string, args ...interface{}) {
	L().Info(ctx, fmt.Sprintf(format, args...))
}
func Warnf(ctx context.Context, format string, args ...interface{}) {
	L().Warn(ctx, fmt.Sprintf(format, args...))
}
func Errorf(ctx context.Context, format string, args ...interface{}) {
	L().Error(ctx, fmt.Sprintf(format, args...))
}
func Fatalf(ctx context.Context, format string, args ...interface{}) {
	L().Fatal(ctx, fmt.Sprintf(format, args...))
}

// UnderlyingZap exposes the *zap.Logger when the zap component is installed.
func UnderlyingZap() *zap.Logger {
	if lc, ok := L().(*LoggerComponent); ok {
		return lc.GetZapLogger()
	}
	return nil
}

type traceIDKey struct{}

// ContextWithTraceID stores a trace id for log correlation when no OTel span is active.
func ContextWithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, id)
}

// EnsureTraceID returns ctx unchanged if it already carries a trace id, otherwise attaches a new uuid.
func EnsureTraceID(ctx context.Context) context.Context {
	if TraceIDFromContext(ctx) != "" {
		return ctx
	}
	return ContextWithTraceID(ctx, uuid.NewString())
}

func TraceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(traceIDKey{}).(string)
	return id
}
