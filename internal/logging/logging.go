// Package logging builds the zap logger shared by the CLI and the server.
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Options controls logger construction.
type Options struct {
	Format string // console or json
	Level  string // debug, info, warn, error
	File   string // optional rotating log file

	// Output overrides stderr for the primary core. Tests use it.
	Output zapcore.WriteSyncer
}

// New returns a logger writing to stderr and, when opts.File is set, to a
// rotating JSON log file.
func New(opts Options) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if opts.Level != "" {
		if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
			return nil, fmt.Errorf("parse log level: %w", err)
		}
	}

	out := opts.Output
	if out == nil {
		out = zapcore.Lock(os.Stderr)
	}

	var enc zapcore.Encoder
	switch opts.Format {
	case "", FormatConsole:
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		enc = zapcore.NewConsoleEncoder(cfg)
	case FormatJSON:
		enc = zapcore.NewJSONEncoder(jsonEncoderConfig())
	default:
		return nil, fmt.Errorf("unknown log format: %q", opts.Format)
	}

	cores := []zapcore.Core{zapcore.NewCore(enc, out, level)}
	if opts.File != "" {
		cores = append(cores, fileCore(opts.File, level))
	}
	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()), nil
}

func jsonEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		MessageKey:   "message",
		LevelKey:     "level",
		TimeKey:      "time",
		NameKey:      "logger",
		CallerKey:    "caller",
		EncodeLevel:  zapcore.LowercaseLevelEncoder,
		EncodeTime:   zapcore.ISO8601TimeEncoder,
		EncodeCaller: zapcore.ShortCallerEncoder,
		EncodeName:   zapcore.FullNameEncoder,
	}
}

// fileCore writes JSON lines to a size-rotated file.
func fileCore(path string, level zapcore.LevelEnabler) zapcore.Core {
	w := zapcore.AddSync(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     14, // days
		Compress:   true,
	})
	return zapcore.NewCore(zapcore.NewJSONEncoder(jsonEncoderConfig()), w, level)
}
