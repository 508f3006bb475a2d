package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"
	"weak"

	"github.com/google/uuid"

	"github.com/rpbridge/rpbridge-go/pkg/ledger"
	"github.com/rpbridge/rpbridge-go/pkg/log"
	"github.com/rpbridge/rpbridge-go/pkg/native"
)

// Subscription errors.
var (
	ErrConnectionFailed = errors.New("connection failed")
	ErrAlreadyConnected = errors.New("already connected")
	ErrNotConnected     = errors.New("not connected")
	ErrNativeCallFailed = errors.New("native call failed")
	ErrClosed           = errors.New("subscription closed")
	ErrOwnerGone        = errors.New("owner no longer reachable")
)

// Default timeouts for native boundary calls.
const (
	DefaultCallTimeout    = 10 * time.Second
	DefaultCleanupTimeout = 5 * time.Second
)

// State represents the subscription state.
type State uint8

const (
	// StateDisconnected indicates no handle is held.
	StateDisconnected State = iota

	// StateConnecting indicates Advise is in progress.
	StateConnecting

	// StateConnected indicates a non-zero handle is held.
	StateConnected

	// StateDisconnecting indicates Unadvise is in progress.
	StateDisconnecting

	// StateClosed indicates the subscription can no longer be used.
	StateClosed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateDisconnecting:
		return "DISCONNECTING"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// DeliverFunc hands a notification to the owner. A method expression such as
// (*MyListener).deliver is the usual value.
type DeliverFunc[O any] func(owner *O, ctx context.Context, n native.Notification) error

// Ledger records acquired and released handles.
type Ledger interface {
	Acquired(ctx context.Context, rec ledger.Record) error
	Released(ctx context.Context, subscriptionID string, h native.Handle) error
}

// Subscription manages one advise/unadvise registration for an owner.
//
// The zero value is not usable; create subscriptions with New.
type Subscription[S any] struct {
	c       *core[S]
	cleanup runtime.Cleanup
}

// core holds everything the cleanup needs. It must never reference the owner.
type core[S any] struct {
	nat     native.Native[S]
	deliver func(ctx context.Context, n native.Notification) error

	id      string
	kind    string
	logger  *slog.Logger
	trace   log.Logger
	ledger  Ledger
	callTO  time.Duration
	cleanTO time.Duration

	// opMu serializes transitions, including the native call in between.
	opMu sync.Mutex

	// mu guards the fields below. cond is signalled when inflight drops.
	mu       sync.Mutex
	cond     *sync.Cond
	state    State
	handle   native.Handle
	source   string
	inflight int
}

// New creates a disconnected subscription owned by owner.
//
// deliver is called for every notification that passes the delivery gate. If
// owner becomes unreachable while connected, the handle is released on a
// background goroutine started by the runtime cleanup. deliver must not capture owner, or owner is never
// collected. New panics if nat, owner or deliver is nil.
func New[S, O any](nat native.Native[S], owner *O, deliver DeliverFunc[O], opts ...Option) *Subscription[S] {
	if nat == nil || owner == nil || deliver == nil {
		panic("subscription: New requires a native, an owner and a deliver func")
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.id == "" {
		o.id = uuid.NewString()
	}

	wp := weak.Make(owner)
	c := &core[S]{
		nat: nat,
		deliver: func(ctx context.Context, n native.Notification) error {
			owner := wp.Value()
			if owner == nil {
				return ErrOwnerGone
			}
			return deliver(owner, ctx, n)
		},
		id:      o.id,
		kind:    o.kind,
		logger:  o.logger,
		trace:   log.OrNoop(o.trace),
		ledger:  o.ledger,
		callTO:  o.callTimeout,
		cleanTO: o.cleanupTimeout,
	}
	c.cond = sync.NewCond(&c.mu)

	s := &Subscription[S]{c: c}
	s.cleanup = runtime.AddCleanup(owner, (*core[S]).release, c)
	return s
}

// ID returns the subscription ID.
func (s *Subscription[S]) ID() string { return s.c.id }

// Kind returns the listener kind the subscription was created for.
func (s *Subscription[S]) Kind() string { return s.c.kind }

// State returns the current state.
func (s *Subscription[S]) State() State {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	return s.c.state
}

// IsConnected reports whether a handle is currently held.
func (s *Subscription[S]) IsConnected() bool {
	return s.State() == StateConnected
}

// Handle returns the held handle, or zero when not connected.
func (s *Subscription[S]) Handle() native.Handle {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	return s.c.handle
}

// Source returns the ID of the source of the current or last connection.
func (s *Subscription[S]) Source() string {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	return s.c.source
}

// Connect registers with source.
//
// It returns ErrAlreadyConnected if a handle is already held or, from inside
// a notification callback, if another transition is in progress. It returns
// ErrClosed after Close, ErrConnectionFailed if the tool returned a zero handle, and an error
// wrapping ErrNativeCallFailed if Advise failed or panicked. Only a nil
// return leaves the subscription connected.
func (s *Subscription[S]) Connect(ctx context.Context, source S) error {
	return s.c.connect(ctx, source)
}

// Disconnect releases the held handle.
//
// It returns ErrNotConnected if no handle is held. If Unadvise fails the
// handle is dropped anyway and the returned error wraps ErrNativeCallFailed.
// When called from inside a notification callback, ctx must be the
// callback's context.
func (s *Subscription[S]) Disconnect(ctx context.Context) error {
	c := s.c
	self := reentrant(ctx, c)
	if self != nil {
		// The holder of opMu may be waiting for this very delivery.
		if !c.opMu.TryLock() {
			c.traceError(log.OriginNative, "disconnect", ErrNotConnected)
			return ErrNotConnected
		}
	} else {
		c.opMu.Lock()
	}
	defer c.opMu.Unlock()

	c.mu.Lock()
	if c.state != StateConnected {
		c.mu.Unlock()
		c.traceError(log.OriginCaller, "disconnect", ErrNotConnected)
		return ErrNotConnected
	}
	c.mu.Unlock()

	return c.releaseLocked(ctx, log.OriginCaller, self)
}

// Close releases the handle if one is held and makes the subscription
// unusable. The implicit cleanup is cancelled. Close is idempotent and must
// not be called from inside a notification callback.
func (s *Subscription[S]) Close() error {
	c := s.c
	c.opMu.Lock()
	defer c.opMu.Unlock()
	defer s.cleanup.Stop()

	c.mu.Lock()
	state := c.state
	c.mu.Unlock()

	var err error
	switch state {
	case StateClosed:
		return nil
	case StateConnected:
		err = c.releaseLocked(context.Background(), log.OriginCaller, nil)
	}

	c.mu.Lock()
	c.setStateLocked(log.OriginCaller, StateClosed, "closed")
	c.mu.Unlock()
	return err
}

func (c *core[S]) connect(ctx context.Context, source S) error {
	if reentrant(ctx, c) != nil {
		// A delivery only runs while a registration is live. Blocking here
		// would stall a Disconnect that is waiting for this delivery.
		if !c.opMu.TryLock() {
			c.traceError(log.OriginNative, "connect", ErrAlreadyConnected)
			return ErrAlreadyConnected
		}
	} else {
		c.opMu.Lock()
	}
	defer c.opMu.Unlock()

	c.mu.Lock()
	switch c.state {
	case StateConnected:
		c.mu.Unlock()
		c.traceError(log.OriginCaller, "connect", ErrAlreadyConnected)
		return ErrAlreadyConnected
	case StateClosed:
		c.mu.Unlock()
		c.traceError(log.OriginCaller, "connect", ErrClosed)
		return ErrClosed
	}
	c.source = sourceID(source)
	c.setStateLocked(log.OriginCaller, StateConnecting, "connect")
	c.mu.Unlock()

	callCtx, cancel := c.callContext(ctx, c.callTO)
	var h native.Handle
	start := time.Now()
	err := guard(func() error {
		var err error
		h, err = c.nat.Advise(callCtx, source, gate[S]{c})
		return err
	})
	cancel()
	c.traceNative(log.OriginCaller, log.NativeOpAdvise, h, time.Since(start), err)

	if err != nil {
		err = fmt.Errorf("%w: advise: %w", ErrNativeCallFailed, err)
		c.finishFailedConnect("advise failed", err)
		return err
	}
	if h.IsZero() {
		c.finishFailedConnect("advise refused", ErrConnectionFailed)
		return ErrConnectionFailed
	}

	c.mu.Lock()
	c.handle = h
	c.setStateLocked(log.OriginCaller, StateConnected, "advised")
	src := c.source
	c.mu.Unlock()

	c.logger.Debug("subscription connected",
		slog.String("sub_id", c.id), slog.String("kind", c.kind),
		slog.String("source", src), slog.String("handle", h.String()))

	if c.ledger != nil {
		rec := ledger.Record{
			SubscriptionID: c.id,
			Kind:           c.kind,
			Source:         src,
			Handle:         h,
			AcquiredAt:     time.Now(),
		}
		if err := c.ledger.Acquired(ctx, rec); err != nil {
			c.logger.Warn("ledger acquire failed", slog.String("sub_id", c.id), slog.Any("error", err))
		}
	}
	return nil
}

func (c *core[S]) finishFailedConnect(reason string, err error) {
	c.mu.Lock()
	c.setStateLocked(log.OriginCaller, StateDisconnected, reason)
	c.mu.Unlock()
	c.traceError(log.OriginCaller, "connect", err)
}

// releaseLocked closes the gate, waits for in-flight deliveries and calls
// Unadvise. The caller holds opMu and has seen StateConnected.
//
// self is the caller's own delivery when called from a callback. It is not
// waited for while it is still running.
func (c *core[S]) releaseLocked(ctx context.Context, origin log.Origin, self *delivery[S]) error {
	c.mu.Lock()
	h := c.handle
	c.setStateLocked(origin, StateDisconnecting, "disconnect")
	for c.inflight > self.ownedLocked() {
		c.cond.Wait()
	}
	c.mu.Unlock()

	timeout := c.callTO
	if origin == log.OriginCleanup {
		timeout = c.cleanTO
	}
	callCtx, cancel := c.callContext(ctx, timeout)
	start := time.Now()
	err := guard(func() error { return c.nat.Unadvise(callCtx, h) })
	cancel()
	c.traceNative(origin, log.NativeOpUnadvise, h, time.Since(start), err)

	c.mu.Lock()
	c.handle = 0
	reason := "unadvised"
	if err != nil {
		reason = "unadvise failed"
	}
	c.setStateLocked(origin, StateDisconnected, reason)
	c.mu.Unlock()

	if c.ledger != nil {
		if lerr := c.ledger.Released(context.WithoutCancel(ctx), c.id, h); lerr != nil {
			c.logger.Warn("ledger release failed", slog.String("sub_id", c.id), slog.Any("error", lerr))
		}
	}

	if err != nil {
		err = fmt.Errorf("%w: unadvise %s: %w", ErrNativeCallFailed, h, err)
		c.traceError(origin, "disconnect", err)
		return err
	}
	c.logger.Debug("subscription disconnected",
		slog.String("sub_id", c.id), slog.String("origin", origin.String()), slog.String("handle", h.String()))
	return nil
}

// release is the runtime cleanup for an unreachable owner. Cleanups share a
// single runtime goroutine, so the native call runs on its own goroutine.
func (c *core[S]) release() {
	go c.releaseOrphaned()
}

// releaseOrphaned unadvises and closes c. Errors are logged and swallowed.
func (c *core[S]) releaseOrphaned() {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	state := c.state
	c.mu.Unlock()

	if state == StateConnected {
		if err := c.releaseLocked(context.Background(), log.OriginCleanup, nil); err != nil {
			c.logger.Warn("implicit release failed", slog.String("sub_id", c.id), slog.Any("error", err))
		}
	}

	c.mu.Lock()
	if c.state != StateClosed {
		c.setStateLocked(log.OriginCleanup, StateClosed, "owner unreachable")
	}
	c.mu.Unlock()
}

func (c *core[S]) callContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// setStateLocked must be called with mu held.
func (c *core[S]) setStateLocked(origin log.Origin, to State, reason string) {
	from := c.state
	if from == to {
		return
	}
	c.state = to
	c.trace.Log(log.Event{
		Timestamp:      time.Now(),
		SubscriptionID: c.id,
		Kind:           c.kind,
		Source:         c.source,
		Category:       log.CategoryState,
		Origin:         origin,
		StateChange: &log.StateChangeEvent{
			OldState: from.String(),
			NewState: to.String(),
			Reason:   reason,
		},
	})
}

func (c *core[S]) traceNative(origin log.Origin, op log.NativeOp, h native.Handle, d time.Duration, err error) {
	c.trace.Log(log.Event{
		Timestamp:      time.Now(),
		SubscriptionID: c.id,
		Kind:           c.kind,
		Source:         c.sourceSnapshot(),
		Category:       log.CategoryNative,
		Origin:         origin,
		NativeCall: &log.NativeCallEvent{
			Op:       op,
			Handle:   uint64(h),
			Duration: d,
			Failed:   err != nil,
		},
	})
}

func (c *core[S]) traceError(origin log.Origin, op string, err error) {
	c.trace.Log(log.Event{
		Timestamp:      time.Now(),
		SubscriptionID: c.id,
		Kind:           c.kind,
		Source:         c.sourceSnapshot(),
		Category:       log.CategoryError,
		Origin:         origin,
		Error: &log.ErrorEventData{
			Op:      op,
			Message: err.Error(),
			Code:    ErrorCode(err),
		},
	})
}

func (c *core[S]) sourceSnapshot() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.source
}

// ErrorCode classifies err for traces, e.g. "connection-failed".
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConnectionFailed):
		return "connection-failed"
	case errors.Is(err, ErrAlreadyConnected):
		return "already-connected"
	case errors.Is(err, ErrNotConnected):
		return "not-connected"
	case errors.Is(err, ErrNativeCallFailed):
		return "native-call-failed"
	case errors.Is(err, ErrClosed):
		return "closed"
	case errors.Is(err, ErrOwnerGone):
		return "owner-gone"
	default:
		return "unknown"
	}
}

// guard runs fn and turns a panic into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

func sourceID(source any) string {
	switch v := source.(type) {
	case interface{ ID() string }:
		return v.ID()
	case fmt.Stringer:
		return v.String()
	case string:
		return v
	default:
		return ""
	}
}
