package listener

import (
	"context"
	"errors"
	"log/slog"

	"github.com/rpbridge/rpbridge-go/pkg/log"
	"github.com/rpbridge/rpbridge-go/pkg/model"
	"github.com/rpbridge/rpbridge-go/pkg/native"
	"github.com/rpbridge/rpbridge-go/pkg/subscription"
)

// Listener errors.
var (
	ErrUnexpectedEvent = errors.New("unexpected event")
	ErrUnknownKind     = errors.New("unknown listener kind")
	ErrHandlerMismatch = errors.New("handler does not match listener kind")
)

// Listener is implemented by every listener kind.
type Listener interface {
	// Kind returns the listener kind.
	Kind() Kind

	// Events returns the tool events the listener dispatches.
	Events() []native.EventID

	// Connect subscribes to app and reports whether a handle was acquired.
	Connect(ctx context.Context, app model.Application) bool

	// Disconnect releases the handle and reports whether it was held.
	Disconnect(ctx context.Context) bool

	// IsConnected reports whether a handle is held.
	IsConnected() bool

	// Close releases the handle if held and makes the listener unusable.
	Close() error

	// Subscription returns the underlying subscription.
	Subscription() *subscription.Subscription[model.Application]
}

// Option configures a listener.
type Option func(*options)

type options struct {
	logger  *slog.Logger
	trace   log.Logger
	ledger  subscription.Ledger
	subOpts []subscription.Option
}

// WithLogger sets the operational logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithTrace sets the lifecycle trace logger.
func WithTrace(l log.Logger) Option {
	return func(o *options) { o.trace = l }
}

// WithLedger records acquired handles in l.
func WithLedger(l subscription.Ledger) Option {
	return func(o *options) { o.ledger = l }
}

// WithSubscriptionOptions passes extra options to the subscription.
func WithSubscriptionOptions(opts ...subscription.Option) Option {
	return func(o *options) { o.subOpts = append(o.subOpts, opts...) }
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	return o
}

func (o options) subscriptionOptions(kind Kind) []subscription.Option {
	out := []subscription.Option{
		subscription.WithKind(kind.String()),
		subscription.WithLogger(o.logger),
		subscription.WithTrace(o.trace),
	}
	if o.ledger != nil {
		out = append(out, subscription.WithLedger(o.ledger))
	}
	return append(out, o.subOpts...)
}

// base holds what all listener kinds share. It is embedded by the generated
// listener types.
type base struct {
	kind   Kind
	logger *slog.Logger
	sub    *subscription.Subscription[model.Application]
}

func newBase(kind Kind, o options, sub *subscription.Subscription[model.Application]) base {
	return base{
		kind:   kind,
		logger: o.logger.With(slog.String("listener", kind.String()), slog.String("sub_id", sub.ID())),
		sub:    sub,
	}
}

// Kind returns the listener kind.
func (b *base) Kind() Kind { return b.kind }

// Connect subscribes to app. It returns false if the listener is already
// connected, the tool refused, or the call failed; Subscription().Connect
// returns the reason.
func (b *base) Connect(ctx context.Context, app model.Application) bool {
	if err := b.sub.Connect(ctx, app); err != nil {
		b.logger.Debug("connect failed", slog.Any("error", err))
		return false
	}
	return true
}

// Disconnect releases the handle. It returns false if no handle was held or
// the release failed. The handle is dropped either way.
func (b *base) Disconnect(ctx context.Context) bool {
	if err := b.sub.Disconnect(ctx); err != nil {
		b.logger.Debug("disconnect failed", slog.Any("error", err))
		return false
	}
	return true
}

// IsConnected reports whether a handle is held.
func (b *base) IsConnected() bool { return b.sub.IsConnected() }

// Close releases the handle if held and makes the listener unusable.
func (b *base) Close() error { return b.sub.Close() }

// Subscription returns the underlying subscription.
func (b *base) Subscription() *subscription.Subscription[model.Application] { return b.sub }
