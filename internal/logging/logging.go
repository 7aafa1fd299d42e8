// Package logging builds the structured loggers shared by the REPL and the
// HTTP server. Every logger carries a channel attribute naming the part of
// the system that emitted the record.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Channel is a logical logging channel.
type Channel string

const (
	ChannelREPL    Channel = "repl"    // interactive shell and file runner
	ChannelServer  Channel = "server"  // HTTP requests and lifecycle
	ChannelSession Channel = "session" // session creation and expiry
	ChannelEval    Channel = "eval"    // evaluator tracing (define, calls)
)

// Options controls handler construction.
type Options struct {
	Level slog.Level
	JSON  bool
}

// ParseLevel accepts debug, info, warn or error, case-insensitively.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// New returns a logger writing to w.
func New(w io.Writer, opts Options) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{Level: opts.Level}
	var h slog.Handler
	if opts.JSON {
		h = slog.NewJSONHandler(w, handlerOpts)
	} else {
		h = slog.NewTextHandler(w, handlerOpts)
	}
	return slog.New(h)
}

// For returns base tagged with channel.
func For(base *slog.Logger, channel Channel) *slog.Logger {
	return base.With("channel", string(channel))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
