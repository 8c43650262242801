package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewServiceLogger builds the JSON logger used by the API server and the
// worker. Every line carries the service name so both processes can share a
// log index. Durations are encoded in milliseconds.
func NewServiceLogger(service string, debugMode bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = levelFor(debugMode)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeDuration = zapcore.MillisDurationEncoder
	cfg.InitialFields = map[string]interface{}{"service": service}

	// Sampling drops repeated lines under load; debug runs keep everything.
	if debugMode {
		cfg.Sampling = nil
	}
	return cfg.Build()
}

// NewDevelopmentLogger creates the console logger used by the configure CLI
func NewDevelopmentLogger(debugMode bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = levelFor(debugMode)
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return cfg.Build()
}

// Sync flushes buffered entries. Errors from syncing stdout/stderr are
// expected on some platforms and are dropped.
func Sync(logger *zap.Logger) {
	if logger == nil {
		return
	}
	_ = logger.Sync()
}

func levelFor(debugMode bool) zap.AtomicLevel {
	if debugMode {
		return zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return zap.NewAtomicLevelAt(zapcore.InfoLevel)
}
