package logger

import (
	"context"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ConnIdKey is the context key sessions use to carry their connection id,
// so every log line of a session can be correlated.
const ConnIdKey = "conn_id"

// 全局 Logger 实例
var Log *zap.Logger

// Init builds the global logger.
// serviceName: e.g. "relay-service"
// level: debug, info, warn, error
func Init(serviceName string, level string) {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zap.InfoLevel
	}

	// JSON 格式方便 ELK 收集
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	encoderConfig.MessageKey = "msg"

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(os.Stdout),
		zapLevel,
	)

	// AddCallerSkip(1): the package-level helpers wrap Log, without the skip
	// every line would point at logger.go
	Log = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	Log = Log.With(zap.String("service", serviceName))
}

func Info(ctx context.Context, msg string, fields ...zap.Field) {
	if Log == nil {
		return
	}
	extractConnID(ctx, &fields)
	Log.Info(msg, fields...)
}

func Warn(ctx context.Context, msg string, fields ...zap.Field) {
	if Log == nil {
		return
	}
	extractConnID(ctx, &fields)
	Log.Warn(msg, fields...)
}

func Error(ctx context.Context, msg string, fields ...zap.Field) {
	if Log == nil {
		return
	}
	extractConnID(ctx, &fields)
	Log.Error(msg, fields...)
}

func Debug(ctx context.Context, msg string, fields ...zap.Field) {
	if Log == nil {
		return
	}
	extractConnID(ctx, &fields)
	Log.Debug(msg, fields...)
}

// Fatal 会调用 os.Exit
func Fatal(ctx context.Context, msg string, fields ...zap.Field) {
	if Log == nil {
		os.Exit(1)
	}
	extractConnID(ctx, &fields)
	Log.Fatal(msg, fields...)
}

func extractConnID(ctx context.Context, fields *[]zap.Field) {
	if ctx == nil {
		return
	}
	if id, ok := ctx.Value(ConnIdKey).(string); ok && id != "" {
		*fields = append(*fields, zap.String("conn_id", id))
	}
}

// Sync 刷新缓冲区 (建议在 main 函数 defer 中调用)
func Sync() {
	if Log != nil {
		_ = Log.Sync()
	}
}
