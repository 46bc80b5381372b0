package log

import (
	"fmt"
	stdlog "log"
	"strings"
)

// Config declares how a process-wide logger is built.
type Config struct {
	Level  string   // debug|info|warn|error
	Format string   // text|json
	Redact []string // field keys whose values are never written
}

// ApplyConfig builds a Logger from cfg. Unknown formats are an error.
func ApplyConfig(cfg *Config) (Logger, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	lvl, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	var formatter Formatter
	switch strings.ToLower(cfg.Format) {
	case "", "text":
		formatter = &TextFormatter{}
	case "json":
		formatter = &JSONFormatter{}
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
	return NewLogger(
		WithLevel(lvl),
		WithFormatter(formatter),
		WithOutput(NewConsoleOutput()),
		WithRedactedKeys(cfg.Redact...),
	), nil
}

// stdWriter adapts a Logger to io.Writer for the standard library logger.
type stdWriter struct{ l Logger }

func (w stdWriter) Write(p []byte) (int, error) {
	w.l.Info(strings.TrimRight(string(p), "\n"), Str("source", "stdlib"))
	return len(p), nil
}

// RedirectStdLog routes the standard library logger (used by Pebble) into l.
func RedirectStdLog(l Logger) {
	stdlog.SetFlags(0)
	stdlog.SetOutput(stdWriter{l: l})
}
