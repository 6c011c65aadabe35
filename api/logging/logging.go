// Package logging builds the process slog logger. LOG_FORMAT (text/json)
// picks the handler, falling back to text on a terminal and JSON otherwise.
// LOG_LEVEL sets the minimum level.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
)

// Options describe the handler. Empty fields fall back to the environment.
type Options struct {
	Level  string
	Format string
	Output io.Writer
	// AddSource attaches file:line, relative to the working directory.
	AddSource bool
}

// New returns a logger configured from opts and the environment.
func New(opts Options) *slog.Logger {
	if opts.Level == "" {
		opts.Level = os.Getenv("LOG_LEVEL")
	}
	if opts.Format == "" {
		opts.Format = os.Getenv("LOG_FORMAT")
	}
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	wd, _ := os.Getwd()
	hopts := &slog.HandlerOptions{
		Level:     ParseLevel(opts.Level),
		AddSource: opts.AddSource,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key != slog.SourceKey {
				return a
			}
			if src, ok := a.Value.Any().(*slog.Source); ok {
				if rel, err := filepath.Rel(wd, src.File); err == nil {
					src.File = rel
				} else {
					src.File = filepath.Base(src.File)
				}
			}
			return a
		},
	}

	if useText(opts.Format, out) {
		return slog.New(slog.NewTextHandler(out, hopts))
	}
	return slog.New(slog.NewJSONHandler(out, hopts))
}

// SetDefault builds a logger and installs it as the slog default.
func SetDefault(opts Options) *slog.Logger {
	logger := New(opts)
	slog.SetDefault(logger)
	return logger
}

// ParseLevel maps debug/info/warn/error to a slog level; anything else is info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func useText(format string, out io.Writer) bool {
	switch strings.ToLower(format) {
	case "text":
		return true
	case "json":
		return false
	}
	f, ok := out.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}
