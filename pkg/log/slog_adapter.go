package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes capture events to an slog.Logger.
// Useful during bring-up when you want to watch register traffic in a console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event at Debug level, or at Warn level if it carries an error.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("session_id", event.SessionID),
		slog.String("category", event.Category.String()),
		slog.String("device", event.Device),
	}

	switch {
	case event.Access != nil:
		attrs = append(attrs,
			slog.String("direction", event.Direction.String()),
			slog.String("register", event.Access.Register),
			slog.Uint64("address", uint64(event.Access.Address)),
			slog.Uint64("value", uint64(event.Access.Value)),
		)
	case event.Command != nil:
		attrs = append(attrs, slog.String("command", event.Command.Name))
		if event.Command.Arg != "" {
			attrs = append(attrs, slog.String("arg", event.Command.Arg))
		}
		attrs = append(attrs, slog.Duration("duration", event.Command.Duration))
	}

	level := slog.LevelDebug
	if event.Error != "" {
		attrs = append(attrs, slog.String("error", event.Error))
		level = slog.LevelWarn
	}

	a.logger.LogAttrs(context.Background(), level, "register", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
