package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the console logger shared by every binary: ISO8601 timestamps
// and colored capital levels on stdout.
func New(level zapcore.Level) *zap.SugaredLogger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.AddSync(os.Stdout),
		level,
	)
	return zap.New(core).Sugar()
}

// LevelFor maps the ENV setting to a log level.
func LevelFor(env string) zapcore.Level {
	if env == "development" {
		return zapcore.DebugLevel
	}
	return zapcore.InfoLevel
}
