// Package log provides eventfeed's structured logging facade.
//
// # Overview
//
// The package exposes a small Logger interface with leveled methods and a
// Field type for structured context. Internally it is backed by log/slog via a
// bridge handler that feeds entries through a Formatter and a set of Outputs.
//
// Quick start
//
//	l := log.NewLogger(
//	    log.WithLevel(log.InfoLevel),
//	    log.WithFormatter(&log.TextFormatter{}),
//	    log.WithOutput(log.NewConsoleOutput()),
//	)
//	l = l.With(log.Component("feed"))
//	l.Info("record appended", log.Uint64("seq", 42))
//
// # Configuration
//
// ApplyConfig builds a logger from a declarative Config (level, text|json,
// redacted keys). Caller identities are logged under the "identity" key and
// the server redacts that key by default.
//
// # Interop
//
// RedirectStdLog routes the standard library logger (Pebble writes there)
// through a Logger.
package log
