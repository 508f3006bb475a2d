package native

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Handle identifies an active native event registration.
// The zero value means "no registration".
type Handle uint64

// IsZero reports whether h is the empty handle.
func (h Handle) IsZero() bool {
	return h == 0
}

// String returns the handle in hex, e.g. "0x2a".
func (h Handle) String() string {
	return fmt.Sprintf("0x%x", uint64(h))
}

// EventID identifies a notification raised by the tool.
type EventID uint8

const (
	// EventUnknown is never raised by the tool.
	EventUnknown EventID = iota

	// EventCodeGenerationCompleted fires after a code generation run.
	EventCodeGenerationCompleted

	// EventBeforeRoundTrip fires before code is round-tripped into the model.
	EventBeforeRoundTrip

	// EventAfterRoundTrip fires after a round trip has updated the model.
	EventAfterRoundTrip

	// EventAfterImport fires after a reverse-engineering import.
	EventAfterImport
)

var eventNames = map[EventID]string{
	EventCodeGenerationCompleted: "code-generation-completed",
	EventBeforeRoundTrip:         "before-round-trip",
	EventAfterRoundTrip:          "after-round-trip",
	EventAfterImport:             "after-import",
}

// String returns the event name.
func (e EventID) String() string {
	if name, ok := eventNames[e]; ok {
		return name
	}
	return "unknown"
}

// ParseEventID parses an event name as returned by EventID.String.
// Matching is case-insensitive and accepts underscores for dashes.
func ParseEventID(s string) (EventID, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-")
	for id, name := range eventNames {
		if name == norm {
			return id, nil
		}
	}
	return EventUnknown, fmt.Errorf("unknown event %q", s)
}

// Events returns all events the tool can raise, in ID order.
func Events() []EventID {
	return []EventID{
		EventCodeGenerationCompleted,
		EventBeforeRoundTrip,
		EventAfterRoundTrip,
		EventAfterImport,
	}
}

// Notification is a single callback from the tool into a sink.
type Notification struct {
	// Event is what happened.
	Event EventID

	// Source identifies the raising event source (application ID).
	Source string

	// Elements lists the GUIDs of affected model elements, if any.
	Elements []string

	// Time is when the tool raised the notification.
	Time time.Time
}

// Sink receives notifications from the tool.
//
// The tool does not inspect the returned error beyond logging it; a sink
// reports failure only for diagnostics.
type Sink interface {
	Notify(ctx context.Context, n Notification) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, n Notification) error

// Notify calls f(ctx, n).
func (f SinkFunc) Notify(ctx context.Context, n Notification) error {
	return f(ctx, n)
}

// Native is the advise/unadvise capability of the tool for sources of type S.
type Native[S any] interface {
	// Advise registers sink with source and returns the connection handle.
	// A zero handle with a nil error means the registration was refused.
	Advise(ctx context.Context, source S, sink Sink) (Handle, error)

	// Unadvise releases a handle previously returned by Advise.
	// Calling it with a handle that is not currently held is undefined.
	Unadvise(ctx context.Context, h Handle) error
}

// Funcs builds a Native from two functions.
type Funcs[S any] struct {
	AdviseFunc   func(ctx context.Context, source S, sink Sink) (Handle, error)
	UnadviseFunc func(ctx context.Context, h Handle) error
}

// Advise calls AdviseFunc.
func (f Funcs[S]) Advise(ctx context.Context, source S, sink Sink) (Handle, error) {
	return f.AdviseFunc(ctx, source, sink)
}

// Unadvise calls UnadviseFunc.
func (f Funcs[S]) Unadvise(ctx context.Context, h Handle) error {
	return f.UnadviseFunc(ctx, h)
}

// Compile-time interface satisfaction check.
var _ Native[any] = Funcs[any]{}
