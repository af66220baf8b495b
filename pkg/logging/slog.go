// Package logging constructs the structured logger used for every
// diagnostic the library emits outside the wire protocol itself. The wire
// protocol owns stdout (it is the JSON update/error stream), so logging
// defaults to stderr; a config may select stdout or a rotated file.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Config is the slog-compatible logging configuration, loaded from the
// library's YAML config file or set directly by a hosting CLI.
type Config struct {
	Level  string   `yaml:"level"`  // debug, info, warn, error
	Format string   `yaml:"format"` // json, text
	Output string   `yaml:"output"` // stderr, stdout, file
	File   *LogFile `yaml:"file,omitempty"`
}

// LogFile configures rotated file logging.
type LogFile struct {
	Directory string `yaml:"directory"`
	Filename  string `yaml:"filename"`
	MaxSizeMB int    `yaml:"max_size_mb"`
	MaxFiles  int    `yaml:"max_files"`
	MaxAgeDay int    `yaml:"max_age_days"`
	Compress  bool   `yaml:"compress"`
}

// DefaultConfig logs text lines to stderr at info level, the library's
// out-of-the-box behavior when no config file is supplied.
func DefaultConfig() Config {
	return Config{Level: "info", Format: "text", Output: "stderr"}
}

// New builds a slog.Logger tagged with the given component name.
func New(component string, cfg Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	w := writerFor(cfg)

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler).With("component", component)
}

// WithEvent annotates a logger with the protocol fields most worth seeing
// alongside a log line: the current generation counter and, if any, the
// window update-tag the event concerns.
func WithEvent(logger *slog.Logger, generation int32, windowTag uint32) *slog.Logger {
	if windowTag == 0 {
		return logger.With("gen", generation)
	}
	return logger.With("gen", generation, "window", windowTag)
}

// FromContext pulls a *slog.Logger previously stashed with IntoContext, or
// slog.Default() if none was stashed.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerCtxKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return slog.Default()
}

// IntoContext returns a context carrying logger for retrieval by FromContext.
func IntoContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerCtxKey{}, logger)
}

type loggerCtxKey struct{}

func parseLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func writerFor(cfg Config) io.Writer {
	switch strings.ToLower(cfg.Output) {
	case "stdout":
		// Only appropriate when the caller has arranged a separate
		// channel for the wire protocol (e.g. a non-stdio transport);
		// the default CLI never selects this.
		return os.Stdout
	case "file":
		if cfg.File == nil {
			fmt.Fprintln(os.Stderr, "logging: file output requested without a file config, using stderr")
			return os.Stderr
		}
		w, err := fileWriter(cfg.File)
		if err != nil {
			fmt.Fprintf(os.Stderr, "logging: %v, using stderr\n", err)
			return os.Stderr
		}
		return w
	default:
		return os.Stderr
	}
}

func fileWriter(cfg *LogFile) (io.Writer, error) {
	if err := os.MkdirAll(cfg.Directory, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	return &lumberjack.Logger{
		Filename:   filepath.Join(cfg.Directory, cfg.Filename),
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxFiles,
		MaxAge:     cfg.MaxAgeDay,
		Compress:   cfg.Compress,
	}, nil
}

// ParseSizeMB accepts a plain integer or an "NNmb"/"NNgb" string and
// returns megabytes, used when config values arrive from flags as strings.
func ParseSizeMB(s string) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	mul := 1
	switch {
	case strings.HasSuffix(s, "gb"):
		mul = 1024
		s = strings.TrimSuffix(s, "gb")
	case strings.HasSuffix(s, "mb"):
		s = strings.TrimSuffix(s, "mb")
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	return n * mul, nil
}
