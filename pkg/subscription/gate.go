package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rpbridge/rpbridge-go/pkg/log"
	"github.com/rpbridge/rpbridge-go/pkg/native"
)

// errGateClosed is returned to the tool for notifications that arrive while
// the subscription is not connected.
var errGateClosed = errors.New("subscription: gate closed")

type deliveryKey struct{}

// delivery identifies one call into the owner. done is guarded by c.mu and
// set when the call returns, so a ctx kept past its callback stops counting
// as reentrant.
type delivery[S any] struct {
	c    *core[S]
	done bool
}

// ownedLocked returns how many in-flight deliveries d accounts for. Callers
// hold d.c.mu.
func (d *delivery[S]) ownedLocked() int {
	if d == nil || d.done {
		return 0
	}
	return 1
}

// gate is the sink handed to Advise. It holds the core, never the owner.
type gate[S any] struct {
	c *core[S]
}

// Notify delivers n to the owner if the subscription is connecting or
// connected.
func (g gate[S]) Notify(ctx context.Context, n native.Notification) error {
	c := g.c

	d := &delivery[S]{c: c}
	c.mu.Lock()
	open := c.state == StateConnecting || c.state == StateConnected
	if open {
		c.inflight++
	}
	c.mu.Unlock()

	if !open {
		c.traceNotification(n, false, errGateClosed.Error(), nil)
		return errGateClosed
	}

	defer func() {
		c.mu.Lock()
		d.done = true
		c.inflight--
		c.cond.Broadcast()
		c.mu.Unlock()
	}()

	start := time.Now()
	err := deliverSafely(context.WithValue(ctx, deliveryKey{}, d), c.deliver, n)
	took := time.Since(start)

	if err != nil {
		c.traceNotification(n, false, err.Error(), &took)
		c.traceError(log.OriginNative, "deliver", err)
		return err
	}
	c.traceNotification(n, true, "", &took)
	return nil
}

func deliverSafely(ctx context.Context, deliver func(context.Context, native.Notification) error, n native.Notification) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("listener panic on %s: %v", n.Event, r)
		}
	}()
	return deliver(ctx, n)
}

// reentrant returns the delivery of c that ctx was handed to, or nil if ctx
// carries none or that delivery has already returned.
func reentrant[S any](ctx context.Context, c *core[S]) *delivery[S] {
	if ctx == nil {
		return nil
	}
	d, ok := ctx.Value(deliveryKey{}).(*delivery[S])
	if !ok || d.c != c {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if d.done {
		return nil
	}
	return d
}

func (c *core[S]) traceNotification(n native.Notification, delivered bool, dropReason string, took *time.Duration) {
	c.trace.Log(log.Event{
		Timestamp:      time.Now(),
		SubscriptionID: c.id,
		Kind:           c.kind,
		Source:         n.Source,
		Category:       log.CategoryNotification,
		Origin:         log.OriginNative,
		Notification: &log.NotificationEvent{
			Event:          n.Event.String(),
			Elements:       n.Elements,
			Delivered:      delivered,
			DropReason:     dropReason,
			ProcessingTime: took,
		},
	})
}
