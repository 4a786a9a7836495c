package logger

import (
	"time"

	"github.com/cprobe/mapscan/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a no-op until Build is called, so packages can log before (or
// without) the agent configuring it.
var Logger = zap.NewNop().Sugar()

func Build() func() {
	c := config.Config.LogConfig

	loggerConfig := zap.NewProductionConfig()
	loggerConfig.EncoderConfig.TimeKey = "ts"
	loggerConfig.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(time.RFC3339)
	loggerConfig.DisableStacktrace = true
	loggerConfig.Level = zap.NewAtomicLevelAt(ParseLevel(c.Level))

	loggerConfig.Encoding = c.Format
	loggerConfig.OutputPaths = []string{c.Output}
	loggerConfig.InitialFields = c.Fields

	logger, err := loggerConfig.Build()
	if err != nil {
		panic(err)
	}

	Logger = logger.Sugar()

	return func() { Logger.Sync() }
}

// ParseLevel maps a config level name to a zap level; unknown names mean info.
func ParseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zap.DebugLevel
	case "info":
		return zap.InfoLevel
	case "warn":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	case "fatal":
		return zap.FatalLevel
	default:
		return zap.InfoLevel
	}
}
