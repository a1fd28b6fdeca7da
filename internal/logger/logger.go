// Package logger builds the application's *slog.Logger on top of a zap core.
package logger

import (
	"io"
	"log/slog"
	"os"

	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
)

// New returns a logger writing to stdout. Development gets a readable
// console encoding; every other environment gets JSON. level is a zap
// level name ("debug", "info", "warn", "error"); anything unparseable
// falls back to info.
func New(environment, level string) *slog.Logger {
	return slog.New(NewHandler(os.Stdout, environment, level))
}

// NewHandler is New without the slog.Logger wrapper, writing to w.
func NewHandler(w io.Writer, environment, level string) slog.Handler {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	var encoder zapcore.Encoder
	if environment == "development" {
		cfg := zapcore.EncoderConfig{
			TimeKey:        "T",
			LevelKey:       "L",
			NameKey:        "N",
			CallerKey:      "C",
			MessageKey:     "M",
			StacktraceKey:  "S",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalColorLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		}
		encoder = zapcore.NewConsoleEncoder(cfg)
	} else {
		cfg := zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.SecondsDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		}
		encoder = zapcore.NewJSONEncoder(cfg)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(w)), lvl)
	return zapslog.NewHandler(core,
		zapslog.WithName("peopleview"),
		zapslog.WithCaller(true),
	)
}

// Discard returns a logger that drops everything. Useful as a default for
// optional logger fields.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
