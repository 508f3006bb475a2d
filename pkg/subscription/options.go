package subscription

import (
	"log/slog"
	"time"

	"github.com/rpbridge/rpbridge-go/pkg/log"
)

// Option configures a Subscription.
type Option func(*options)

type options struct {
	id             string
	kind           string
	logger         *slog.Logger
	trace          log.Logger
	ledger         Ledger
	callTimeout    time.Duration
	cleanupTimeout time.Duration
}

func defaultOptions() options {
	return options{
		logger:         slog.New(slog.DiscardHandler),
		callTimeout:    DefaultCallTimeout,
		cleanupTimeout: DefaultCleanupTimeout,
	}
}

// WithID overrides the generated UUID.
func WithID(id string) Option {
	return func(o *options) { o.id = id }
}

// WithKind tags the subscription with the owning listener kind.
func WithKind(kind string) Option {
	return func(o *options) { o.kind = kind }
}

// WithLogger sets the operational logger. Nil disables logging.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l == nil {
			l = slog.New(slog.DiscardHandler)
		}
		o.logger = l
	}
}

// WithTrace sets the lifecycle trace logger.
func WithTrace(l log.Logger) Option {
	return func(o *options) { o.trace = l }
}

// WithLedger records handles in l.
func WithLedger(l Ledger) Option {
	return func(o *options) { o.ledger = l }
}

// WithCallTimeout bounds explicit Advise and Unadvise calls. Zero means no
// bound beyond the caller's context.
func WithCallTimeout(d time.Duration) Option {
	return func(o *options) { o.callTimeout = d }
}

// WithCleanupTimeout bounds the Unadvise call made by the implicit cleanup.
func WithCleanupTimeout(d time.Duration) Option {
	return func(o *options) { o.cleanupTimeout = d }
}
