// Package logging builds the console logger shared by every component.
package logging

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a colored console logger writing to stderr at the given level
// ("debug", "info", "warn", "error").
func New(level string) (*zap.Logger, error) {
	lvl := zap.NewAtomicLevel()
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return nil, errors.Wrapf(err, "log level %q", level)
		}
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	encCfg.CallerKey = ""

	cfg := zap.Config{
		Level:             lvl,
		Development:       false,
		DisableStacktrace: true,
		Encoding:          "console",
		EncoderConfig:     encCfg,
		OutputPaths:       []string{"stderr"},
		ErrorOutputPaths:  []string{"stderr"},
	}
	return cfg.Build()
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
