package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes trace events to an slog.Logger.
// Useful during development to see the lifecycle on the console.
type SlogAdapter struct {
	logger *slog.Logger
	level  slog.Level
}

// NewSlogAdapter creates a SlogAdapter that logs at Debug level.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger, level: slog.LevelDebug}
}

// WithLevel returns a copy of the adapter that logs at level.
func (a *SlogAdapter) WithLevel(level slog.Level) *SlogAdapter {
	return &SlogAdapter{logger: a.logger, level: level}
}

// Log writes the event to the slog logger.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("sub_id", event.SubscriptionID),
		slog.String("category", event.Category.String()),
		slog.String("origin", event.Origin.String()),
	}

	if event.Kind != "" {
		attrs = append(attrs, slog.String("kind", event.Kind))
	}
	if event.Source != "" {
		attrs = append(attrs, slog.String("source", event.Source))
	}

	switch {
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("old_state", event.StateChange.OldState),
			slog.String("new_state", event.StateChange.NewState),
		)
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
	case event.NativeCall != nil:
		attrs = append(attrs,
			slog.String("op", event.NativeCall.Op.String()),
			slog.Uint64("handle", event.NativeCall.Handle),
			slog.Duration("duration", event.NativeCall.Duration),
		)
		if event.NativeCall.Failed {
			attrs = append(attrs, slog.Bool("failed", true))
		}
	case event.Notification != nil:
		attrs = append(attrs,
			slog.String("event", event.Notification.Event),
			slog.Int("elements", len(event.Notification.Elements)),
			slog.Bool("delivered", event.Notification.Delivered),
		)
		if event.Notification.DropReason != "" {
			attrs = append(attrs, slog.String("drop_reason", event.Notification.DropReason))
		}
		if event.Notification.ProcessingTime != nil {
			attrs = append(attrs, slog.Duration("processing_time", *event.Notification.ProcessingTime))
		}
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("error_op", event.Error.Op),
			slog.String("error_msg", event.Error.Message),
		)
		if event.Error.Code != "" {
			attrs = append(attrs, slog.String("error_code", event.Error.Code))
		}
	}

	a.logger.LogAttrs(context.Background(), a.level, "subscription", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
