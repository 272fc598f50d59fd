package logging

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/cansoftinc/vaadin-on-kotlin/consts"
	"github.com/cansoftinc/vaadin-on-kotlin/core"
)

const (
	// 包装层数: 全局函数 -> Logger 方法 -> logWithContext
	callerSkip = 3
)

// Logger 日志记录器接口, 所有方法从 ctx 中提取 trace 信息
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...zap.Field)
	Info(ctx context.Context, msg string, fields ...zap.Field)
	Warn(ctx context.Context, msg string, fields ...zap.Field)
	Error(ctx context.Context, msg string, fields ...zap.Field)
	Fatal(ctx context.Context, msg string, fields ...zap.Field)
	With(fields ...zap.Field) Logger
	Sync() error
}

// LoggerComponent zap 日志组件
type LoggerComponent struct {
	*core.BaseComponent
	config    *LoggingConfig
	zapLogger *zap.Logger
	closers   []func() error
}

func NewLoggerComponent(cfg *LoggingConfig) *LoggerComponent {
	return &LoggerComponent{
		BaseComponent: core.NewBaseComponent(consts.COMPONENT_LOGGING),
		config:        cfg,
	}
}

// NewZapBacked wraps an existing zap logger; used by tests and embedders that own their zap setup.
func NewZapBacked(z *zap.Logger) *LoggerComponent {
	return &LoggerComponent{
		BaseComponent: core.NewBaseComponent(consts.COMPONENT_LOGGING),
		config:        &LoggingConfig{Enabled: true},
		zapLogger:     z.WithOptions(zap.AddCallerSkip(callerSkip)),
	}
}

func (lc *LoggerComponent) Start(ctx context.Context) error {
	if err := lc.BaseComponent.Start(ctx); err != nil {
		return err
	}

	writeSyncer, err := lc.buildWriteSyncer()
	if err != nil {
		return fmt.Errorf("failed to create write syncer: %w", err)
	}
	level, _ := parseLevel(lc.config.Level)

	lc.zapLogger = zap.New(
		zapcore.NewCore(lc.buildEncoder(), writeSyncer, level),
		zap.AddCaller(),
		zap.AddCallerSkip(callerSkip),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
	lc.zapLogger.Info("logger component started",
		zap.String("level", lc.config.Level),
		zap.String("format", lc.config.Format),
		zap.String("output", lc.config.Output),
	)

	SetGlobalLogger(lc)
	return nil
}

func (lc *LoggerComponent) Stop(ctx context.Context) error {
	if lc.zapLogger != nil {
		lc.Info(ctx, "logger component stopping")
		_ = lc.zapLogger.Sync()
	}
	for _, closeFn := range lc.closers {
		_ = closeFn()
	}
	lc.closers = nil
	ResetGlobalLogger(lc)
	return lc.BaseComponent.Stop(ctx)
}

func (lc *LoggerComponent) HealthCheck() error {
	if err := lc.BaseComponent.HealthCheck(); err != nil {
		return err
	}
	if lc.zapLogger == nil {
		return fmt.Errorf("zap logger is not initialized")
	}
	return nil
}

func (lc *LoggerComponent) buildEncoder() zapcore.Encoder {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	if strings.EqualFold(lc.config.Format, "console") {
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		return zapcore.NewConsoleEncoder(encoderConfig)
	}
	return zapcore.NewJSONEncoder(encoderConfig)
}

func (lc *LoggerComponent) buildWriteSyncer() (zapcore.WriteSyncer, error) {
	switch strings.ToLower(lc.config.Output) {
	case "stdout", "":
		return zapcore.AddSync(os.Stdout), nil
	case "stderr":
		return zapcore.AddSync(os.Stderr), nil
	case "file":
		return lc.buildFileWriteSyncer()
	default:
		return lc.openFile(lc.config.Output)
	}
}

// buildFileWriteSyncer 按 rotate_config 选择: 时间轮转 / lumberjack 大小轮转 / 普通追加文件
func (lc *LoggerComponent) buildFileWriteSyncer() (zapcore.WriteSyncer, error) {
	fc := lc.config.FileConfig
	if fc == nil {
		return nil, fmt.Errorf("file config is required when output is 'file'")
	}
	if err := os.MkdirAll(fc.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	logFile := filepath.Join(fc.Dir, fc.Filename+".log")

	rc := lc.config.RotateConfig
	switch {
	case rc != nil && rc.Enabled && rc.RotateInterval > 0:
		w, err := newIntervalRotatingWriter(fc.Dir, fc.Filename, rc)
		if err != nil {
			return nil, err
		}
		lc.closers = append(lc.closers, w.Close)
		return zapcore.AddSync(w), nil
	case rc != nil && rc.Enabled:
		lumber := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    rc.MaxSizeMB,
			MaxBackups: rc.MaxBackups,
			MaxAge:     int(rc.MaxAge.Hours() / 24),
			Compress:   true,
			LocalTime:  true,
		}
		lc.closers = append(lc.closers, lumber.Close)
		return zapcore.AddSync(lumber), nil
	default:
		return lc.openFile(logFile)
	}
}

func (lc *LoggerComponent) openFile(path string) (zapcore.WriteSyncer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	lc.closers = append(lc.closers, file.Close)
	return zapcore.AddSync(file), nil
}

func parseLevel(level string) (zapcore.Level, bool) {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return zapcore.DebugLevel, true
	case "INFO", "":
		return zapcore.InfoLevel, true
	case "WARN", "WARNING":
		return zapcore.WarnLevel, true
	case "ERROR":
		return zapcore.ErrorLevel, true
	case "FATAL":
		return zapcore.FatalLevel, true
	default:
		return zapcore.InfoLevel, false
	}
}

func (lc *LoggerComponent) Debug(ctx context.Context, msg string, fields ...zap.Field) {
	lc.logWithContext(ctx, zapcore.DebugLevel, msg, fields...)
}

func (lc *LoggerComponent) Info(ctx context.Context, msg string, fields ...zap.Field) {
	lc.logWithContext(ctx, zapcore.InfoLevel, msg, fields...)
}

func (lc *LoggerComponent) Warn(ctx context.Context, msg string, fields ...zap.Field) {
	lc.logWithContext(ctx, zapcore.WarnLevel, msg, fields...)
}

func (lc *LoggerComponent) Error(ctx context.Context, msg string, fields ...zap.Field) {
	lc.logWithContext(ctx, zapcore.ErrorLevel, msg, fields...)
}

// Fatal 依赖 zap 内部的 os.Exit
func (lc *LoggerComponent) Fatal(ctx context.Context, msg string, fields ...zap.Field) {
	lc.logWithContext(ctx, zapcore.FatalLevel, msg, fields...)
}

func (lc *LoggerComponent) With(fields ...zap.Field) Logger {
	if lc.zapLogger == nil {
		return lc
	}
	return &LoggerComponent{
		BaseComponent: lc.BaseComponent,
		config:        lc.config,
		zapLogger:     lc.zapLogger.With(fields...),
	}
}

func (lc *LoggerComponent) Sync() error {
	if lc.zapLogger != nil {
		return lc.zapLogger.Sync()
	}
	return nil
}

// logWithContext 注入 trace 信息: 优先 OTel span, 其次 ctx 中的 trace id
func (lc *LoggerComponent) logWithContext(ctx context.Context, level zapcore.Level, msg string, fields ...zap.Field) {
	if lc.zapLogger == nil {
		return
	}
	if ce := lc.zapLogger.Check(level, msg); ce != nil {
		ce.Write(contextFields(ctx, fields)...)
	}
}

func contextFields(ctx context.Context, fields []zap.Field) []zap.Field {
	if ctx == nil {
		return fields
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		if !hasField(fields, consts.KEY_TraceID) {
			fields = append(fields, zap.String(consts.KEY_TraceID, sc.TraceID().String()))
		}
		if !hasField(fields, "span_id") {
			fields = append(fields, zap.String("span_id", sc.SpanID().String()))
		}
		return fields
	}
	if id := TraceIDFromContext(ctx); id != "" && !hasField(fields, consts.KEY_TraceID) {
		fields = append(fields, zap.String(consts.KEY_TraceID, id))
	}
	return fields
}

func hasField(fields []zap.Field, key string) bool {
	for _, f := range fields {
		if f.Key == key {
			return true
		}
	}
	return false
}

func (lc *LoggerComponent) GetLogger() Logger { return lc }

func (lc *LoggerComponent) GetZapLogger() *zap.Logger { return lc.zapLogger }
