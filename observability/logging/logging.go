// Package logging configures the director's structured JSON logging,
// shared by internal/rpcserver, internal/pubsubserver and cmd/director.
// Every listener logs through the single *slog.Logger Setup returns
// rather than touching log/slog package-level state directly.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Setup builds a JSON slog.Logger tagged with the service name and
// deployment environment, and installs it as the process default so
// any package that falls back to slog.Default() still emits the same
// shape (internal/rpcserver and internal/pubsubserver both do this
// when no *slog.Logger is wired in explicitly).
func Setup(service, env string) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: false,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			if attr.Key == slog.TimeKey {
				return slog.Attr{Key: "timestamp", Value: attr.Value}
			}
			if attr.Key == slog.LevelKey {
				level := strings.ToUpper(attr.Value.String())
				return slog.String("severity", level)
			}
			if attr.Key == slog.MessageKey {
				return slog.Attr{Key: "message", Value: attr.Value}
			}
			return attr
		},
	})

	attrs := []any{
		slog.String("service", strings.TrimSpace(service)),
	}
	if env = strings.TrimSpace(env); env != "" {
		attrs = append(attrs, slog.String("env", env))
	}

	base := slog.New(handler).With(attrs...)
	slog.SetDefault(base)
	return base
}
