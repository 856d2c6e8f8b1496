package configs

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type LogsConfig struct {
	LogLevel string `yaml:"log_level"`
	Format   string `yaml:"format"` // "json" or "console"
}

// Logger is the process-wide zap logger, available after Init.
var Logger *zap.Logger

func InitLogger() {
	var level zapcore.Level
	switch Configs.Logs.LogLevel {
	case "DEBUG":
		level = zapcore.DebugLevel
	case "WARN":
		level = zapcore.WarnLevel
	case "ERROR":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var cfg zap.Config
	if Configs.Logs.Format == "console" || Configs.Service.Debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := cfg.Build()
	if err != nil {
		os.Stderr.WriteString("Error initializing logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	Logger = logger
}
