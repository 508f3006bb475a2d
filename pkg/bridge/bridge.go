// Package bridge wires listeners, the handle ledger, the lifecycle trace and
// the NATS relay together for one tool instance.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rpbridge/rpbridge-go/pkg/config"
	"github.com/rpbridge/rpbridge-go/pkg/ledger"
	"github.com/rpbridge/rpbridge-go/pkg/listener"
	"github.com/rpbridge/rpbridge-go/pkg/log"
	"github.com/rpbridge/rpbridge-go/pkg/model"
	"github.com/rpbridge/rpbridge-go/pkg/native"
	"github.com/rpbridge/rpbridge-go/pkg/relay"
	"github.com/rpbridge/rpbridge-go/pkg/subscription"
)

// Bridge errors.
var (
	ErrStarted = errors.New("bridge already started")
	ErrClosed  = errors.New("bridge closed")
)

// Options carries dependencies that are not part of the configuration.
type Options struct {
	// Logger is the operational logger. Nil disables logging.
	Logger *slog.Logger

	// Publisher overrides the publisher built from the NATS configuration.
	Publisher relay.Publisher

	// Trace receives lifecycle events in addition to the trace file.
	Trace log.Logger
}

// Bridge owns one listener per enabled kind.
type Bridge struct {
	cfg    *config.Config
	nat    native.Native[model.Application]
	logger *slog.Logger

	trace     log.Logger
	traceFile *log.FileLogger
	ledger    *ledger.Ledger
	pub       relay.Publisher

	mu          sync.Mutex
	listeners   []listener.Listener
	started     bool
	closed      bool
	cancelStart context.CancelFunc

	// starting is held by a Start that is still connecting.
	starting sync.WaitGroup
}

// New opens the trace file, the ledger and the relay named by cfg.
func New(cfg *config.Config, nat native.Native[model.Application], opts Options) (*Bridge, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	b := &Bridge{cfg: cfg, nat: nat, logger: logger}

	traces := []log.Logger{log.NewSlogAdapter(logger), opts.Trace}
	if cfg.TraceFile != "" {
		f, err := log.NewFileLogger(cfg.TraceFile)
		if err != nil {
			return nil, fmt.Errorf("opening trace: %w", err)
		}
		b.traceFile = f
		traces = append(traces, f)
	}
	b.trace = log.NewMultiLogger(traces...)

	if cfg.LedgerPath != "" {
		l, err := ledger.Open(cfg.LedgerPath)
		if err != nil {
			b.closeResources()
			return nil, err
		}
		b.ledger = l
	}

	switch {
	case opts.Publisher != nil:
		b.pub = opts.Publisher
	case cfg.NATS.URL != "":
		p, err := relay.NewNATSPublisher(cfg.NATS.URL)
		if err != nil {
			b.closeResources()
			return nil, err
		}
		b.pub = p
	default:
		b.pub = relay.NoopPublisher{}
	}
	return b, nil
}

// Start creates one listener per enabled kind, releases handles left in the
// ledger by a previous process, then connects the listeners. Listeners that
// fail to connect are kept disconnected and their errors joined. The lock is
// not held while connecting, and Close cancels a Start still in progress.
func (b *Bridge) Start(ctx context.Context, app model.Application) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	if b.started {
		b.mu.Unlock()
		return ErrStarted
	}
	b.started = true

	ctx, cancel := context.WithCancel(ctx)
	b.cancelStart = cancel
	b.starting.Add(1)
	defer b.starting.Done()
	defer cancel()

	handler := relay.NewHandler(b.pub, relay.HandlerConfig{
		Prefix: b.cfg.NATS.Prefix,
		Source: app.ID(),
		Logger: b.logger,
	})

	var errs []error
	var created []listener.Listener
	for _, kind := range b.cfg.EnabledKinds() {
		l, err := listener.New(kind, b.nat, handler, b.listenerOptions()...)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		created = append(created, l)
	}
	b.listeners = append(b.listeners, created...)
	b.mu.Unlock()

	if b.ledger != nil {
		n, err := ledger.Sweep(ctx, b.nat, b.ledger)
		if n > 0 || err != nil {
			b.logger.Warn("released orphaned handles", slog.Int("count", n), slog.Any("error", err))
		}
	}

	for _, l := range created {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		backoff := subscription.NewBackoffWithConfig(b.cfg.Backoff())
		if err := subscription.ConnectWithRetry(ctx, l.Subscription(), app, backoff, b.cfg.Retry.Attempts); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", l.Kind(), err))
			continue
		}
		b.logger.Info("listener connected",
			slog.String("kind", l.Kind().String()),
			slog.String("source", app.ID()),
			slog.String("handle", l.Subscription().Handle().String()))
	}
	return errors.Join(errs...)
}

func (b *Bridge) listenerOptions() []listener.Option {
	opts := []listener.Option{
		listener.WithLogger(b.logger),
		listener.WithTrace(b.trace),
		listener.WithSubscriptionOptions(
			subscription.WithCallTimeout(b.cfg.CallTimeout),
			subscription.WithCleanupTimeout(b.cfg.CleanupTimeout),
		),
	}
	if b.ledger != nil {
		opts = append(opts, listener.WithLedger(b.ledger))
	}
	return opts
}

// Listeners returns the listeners created by Start.
func (b *Bridge) Listeners() []listener.Listener {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]listener.Listener(nil), b.listeners...)
}

// Listener returns the listener of the given kind.
func (b *Bridge) Listener(kind listener.Kind) (listener.Listener, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, l := range b.listeners {
		if l.Kind() == kind {
			return l, true
		}
	}
	return nil, false
}

// Detach removes the listener of the given kind from the bridge and returns
// it. The bridge no longer closes it; a detached listener that is dropped
// without Close is released once it becomes unreachable.
func (b *Bridge) Detach(kind listener.Kind) (listener.Listener, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, l := range b.listeners {
		if l.Kind() == kind {
			b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
			return l, true
		}
	}
	return nil, false
}

// Stop disconnects every connected listener. Listeners stay usable.
func (b *Bridge) Stop(ctx context.Context) error {
	var errs []error
	for _, l := range b.Listeners() {
		if !l.IsConnected() {
			continue
		}
		err := l.Subscription().Disconnect(ctx)
		if err != nil && !errors.Is(err, subscription.ErrNotConnected) {
			errs = append(errs, fmt.Errorf("%s: %w", l.Kind(), err))
		}
	}
	return errors.Join(errs...)
}

// Close cancels a Start in progress and waits for it to return. It then
// closes every listener, releasing held handles, and finally the relay, the
// ledger and the trace file. Close is idempotent.
func (b *Bridge) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	cancel := b.cancelStart
	b.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	b.starting.Wait()

	b.mu.Lock()
	listeners := b.listeners
	b.listeners = nil
	b.mu.Unlock()

	var errs []error
	for _, l := range listeners {
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", l.Kind(), err))
		}
	}
	if err := b.closeResources(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (b *Bridge) closeResources() error {
	var errs []error
	if b.pub != nil {
		errs = append(errs, b.pub.Close())
	}
	if b.ledger != nil {
		errs = append(errs, b.ledger.Close())
	}
	if b.traceFile != nil {
		errs = append(errs, b.traceFile.Close())
	}
	return errors.Join(errs...)
}
