// Package fake provides an in-memory modeling tool that implements
// native.Native for model.Application sources.
package fake

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/rpbridge/rpbridge-go/pkg/model"
	"github.com/rpbridge/rpbridge-go/pkg/native"
)

// ErrUnknownHandle is returned by Unadvise for a handle the tool does not hold.
var ErrUnknownHandle = errors.New("unknown handle")

// AdviseCall records one Advise call.
type AdviseCall struct {
	Source string
	Handle native.Handle
	Err    error
}

type registration struct {
	source string
	sink   native.Sink
}

// Tool is the fake tool. It is safe for concurrent use.
type Tool struct {
	logger *slog.Logger

	mu            sync.Mutex
	next          native.Handle
	regs          map[native.Handle]registration
	adviseCalls   []AdviseCall
	unadviseCalls []native.Handle
	failAdvise    error
	failUnadvise  error
}

// Option configures a Tool.
type Option func(*Tool)

// WithFirstHandle sets the first handle value handed out.
func WithFirstHandle(h native.Handle) Option {
	return func(t *Tool) {
		if !h.IsZero() {
			t.next = h
		}
	}
}

// WithLogger sets the logger for boundary calls.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tool) {
		if l != nil {
			t.logger = l
		}
	}
}

// NewTool creates a tool with no registrations. Handles start at 1.
func NewTool(opts ...Option) *Tool {
	t := &Tool{
		logger: slog.New(slog.DiscardHandler),
		next:   1,
		regs:   make(map[native.Handle]registration),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Advise registers sink with app. It returns a zero handle if app is nil or
// unavailable.
func (t *Tool) Advise(ctx context.Context, app model.Application, sink native.Sink) (native.Handle, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	call := AdviseCall{}
	if app != nil {
		call.Source = app.ID()
	}

	switch {
	case ctx.Err() != nil:
		call.Err = ctx.Err()
	case t.failAdvise != nil:
		call.Err = t.failAdvise
		t.failAdvise = nil
	case sink == nil:
		call.Err = errors.New("nil sink")
	case app == nil || !app.Available():
		// Refused: zero handle, no error.
	default:
		call.Handle = t.next
		t.next++
		t.regs[call.Handle] = registration{source: call.Source, sink: sink}
	}
	t.adviseCalls = append(t.adviseCalls, call)

	t.logger.Debug("advise", "source", call.Source, "handle", call.Handle, "error", call.Err)
	return call.Handle, call.Err
}

// Unadvise removes the registration for h.
func (t *Tool) Unadvise(ctx context.Context, h native.Handle) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.unadviseCalls = append(t.unadviseCalls, h)
	t.logger.Debug("unadvise", "handle", h)

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := t.failUnadvise; err != nil {
		t.failUnadvise = nil
		return err
	}
	if _, ok := t.regs[h]; !ok {
		return fmt.Errorf("%w %s", ErrUnknownHandle, h)
	}
	delete(t.regs, h)
	return nil
}

// FailNextAdvise makes the next Advise return err.
func (t *Tool) FailNextAdvise(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failAdvise = err
}

// FailNextUnadvise makes the next Unadvise return err. The registration is
// kept.
func (t *Tool) FailNextUnadvise(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failUnadvise = err
}

// AdviseCalls returns all Advise calls so far.
func (t *Tool) AdviseCalls() []AdviseCall {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.adviseCalls)
}

// UnadviseCalls returns the handles passed to Unadvise so far.
func (t *Tool) UnadviseCalls() []native.Handle {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.unadviseCalls)
}

// Active returns the registered handles in ascending order.
func (t *Tool) Active() []native.Handle {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]native.Handle, 0, len(t.regs))
	for h := range t.regs {
		out = append(out, h)
	}
	slices.Sort(out)
	return out
}

// Fire delivers n to every sink registered on app, in handle order, and
// returns how many sinks accepted it. Source and Time are filled in.
// Sinks are called without the tool lock held.
func (t *Tool) Fire(ctx context.Context, app model.Application, n native.Notification) int {
	n.Source = app.ID()
	if n.Time.IsZero() {
		n.Time = time.Now()
	}

	t.mu.Lock()
	handles := make([]native.Handle, 0, len(t.regs))
	for h, r := range t.regs {
		if r.source == n.Source {
			handles = append(handles, h)
		}
	}
	slices.Sort(handles)
	sinks := make([]native.Sink, len(handles))
	for i, h := range handles {
		sinks[i] = t.regs[h].sink
	}
	t.mu.Unlock()

	reached := 0
	for i, s := range sinks {
		if err := s.Notify(ctx, n); err != nil {
			t.logger.Debug("sink rejected notification", "handle", handles[i], "event", n.Event, "error", err)
			continue
		}
		reached++
	}
	return reached
}

// Compile-time interface satisfaction check.
var _ native.Native[model.Application] = (*Tool)(nil)
