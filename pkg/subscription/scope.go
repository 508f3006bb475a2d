package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ConnectWithRetry connects s to source, retrying with b while the tool
// refuses the registration (ErrConnectionFailed). Any other error is
// returned at once. maxAttempts <= 0 retries until ctx is done.
func ConnectWithRetry[S any](ctx context.Context, s *Subscription[S], source S, b *Backoff, maxAttempts int) error {
	if b == nil {
		b = NewBackoff()
	}
	for attempt := 1; ; attempt++ {
		err := s.Connect(ctx, source)
		if err == nil {
			b.Reset()
			return nil
		}
		if !errors.Is(err, ErrConnectionFailed) {
			return err
		}
		if maxAttempts > 0 && attempt >= maxAttempts {
			return fmt.Errorf("%w after %d attempts", err, attempt)
		}

		delay := b.Next()
		s.c.logger.Debug("connect refused, retrying",
			"sub_id", s.c.id, "attempt", attempt, "delay", delay)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(err, ctx.Err())
		case <-timer.C:
		}
	}
}

// Scoped connects s to source, runs fn and disconnects, even if fn panics.
// A disconnect error is joined to fn's error. If fn already disconnected,
// the resulting ErrNotConnected is ignored.
func Scoped[S any](ctx context.Context, s *Subscription[S], source S, fn func(ctx context.Context) error) (err error) {
	if err := s.Connect(ctx, source); err != nil {
		return err
	}
	defer func() {
		derr := s.Disconnect(context.WithoutCancel(ctx))
		if derr != nil && !errors.Is(derr, ErrNotConnected) {
			err = errors.Join(err, derr)
		}
	}()
	return fn(ctx)
}
