package config

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logging levels accepted in logging.level.
const (
	LevelNone   = "none"
	LevelNormal = "normal"
	LevelDebug  = "debug"
)

// LoggingConfig defines console logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // none | normal | debug
}

// Logger returns the console logger for the configured level, writing to
// stderr. Level "none" yields a no-op logger.
func (c *LoggingConfig) Logger() *zap.Logger {
	return c.logger(zapcore.Lock(os.Stderr))
}

func (c *LoggingConfig) logger(out zapcore.WriteSyncer) *zap.Logger {
	var lvl zapcore.Level
	switch c.Level {
	case LevelDebug:
		lvl = zapcore.DebugLevel
	case LevelNormal, "":
		lvl = zapcore.InfoLevel
	default:
		return zap.NewNop()
	}

	ec := zap.NewDevelopmentEncoderConfig()
	ec.EncodeCaller = nil
	ec.TimeKey = zapcore.OmitKey
	ec.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(ec), out, zap.NewAtomicLevelAt(lvl))
	return zap.New(core)
}
