// Package logger builds the process-wide slog logger.
package logger

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ekisa-team/chatterbox-serve/internal/env"
)

const (
	defaultLogFile    = "logs/chatterbox-serve.log"
	defaultMaxSizeMB  = 50
	defaultMaxBackups = 5
	defaultMaxAgeDays = 14
)

type options struct {
	level     *slog.Level
	logFile   string
	console   io.Writer
	logToFile bool
}

// Option configures the logger.
type Option func(*options)

// WithLogToFile enables or disables the rotating file sink.
func WithLogToFile(enabled bool) Option {
	return func(o *options) {
		o.logToFile = enabled
	}
}

// WithLogFile sets the path of the rotating log file.
func WithLogFile(path string) Option {
	return func(o *options) {
		if path != "" {
			o.logFile = path
		}
	}
}

// WithLevel overrides the level implied by the environment.
func WithLevel(level slog.Level) Option {
	return func(o *options) {
		o.level = &level
	}
}

// WithConsole redirects console output, stderr by default.
func WithConsole(w io.Writer) Option {
	return func(o *options) {
		o.console = w
	}
}

// New creates a logger for the given environment.
// Development logs are colored and verbose; production logs are JSON at info level.
// When file logging is enabled, records are also written as JSON to a rotating file.
func New(environment env.Environment, opts ...Option) *slog.Logger {
	o := &options{
		logFile: defaultLogFile,
		console: os.Stderr,
	}
	for _, opt := range opts {
		opt(o)
	}

	level := slog.LevelDebug
	if environment.IsProduction() {
		level = slog.LevelInfo
	}
	if o.level != nil {
		level = *o.level
	}

	var console slog.Handler
	if environment.IsProduction() {
		console = slog.NewJSONHandler(o.console, &slog.HandlerOptions{Level: level})
	} else {
		console = tint.NewHandler(o.console, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	}

	if !o.logToFile {
		return slog.New(console)
	}

	file := slog.NewJSONHandler(&lumberjack.Logger{
		Filename:   o.logFile,
		MaxSize:    defaultMaxSizeMB,
		MaxBackups: defaultMaxBackups,
		MaxAge:     defaultMaxAgeDays,
		Compress:   true,
	}, &slog.HandlerOptions{Level: level})

	return slog.New(newFanout(console, file))
}
