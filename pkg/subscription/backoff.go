package subscription

import (
	"math/rand/v2"
	"time"
)

// Retry delay defaults used by ConnectWithRetry and the config package.
const (
	InitialBackoff    = 250 * time.Millisecond
	MaxBackoff        = 30 * time.Second
	BackoffMultiplier = 2.0

	// JitterFactor is the largest jitter added, as a fraction of the delay.
	JitterFactor = 0.25
)

// BackoffConfig describes a retry schedule. Zero fields take the defaults
// above; a negative Jitter disables jitter.
type BackoffConfig struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
	Jitter     float64
}

func (c BackoffConfig) withDefaults() BackoffConfig {
	if c.Initial <= 0 {
		c.Initial = InitialBackoff
	}
	if c.Max <= 0 {
		c.Max = MaxBackoff
	}
	c.Max = max(c.Max, c.Initial)
	if c.Multiplier <= 1 {
		c.Multiplier = BackoffMultiplier
	}
	c.Jitter = max(c.Jitter, 0)
	return c
}

// Backoff hands out exponentially growing retry delays. It belongs to one
// retry loop and is not safe for concurrent use.
type Backoff struct {
	cfg   BackoffConfig
	delay time.Duration
}

// NewBackoff returns a Backoff with the default schedule and jitter.
func NewBackoff() *Backoff {
	return NewBackoffWithConfig(BackoffConfig{Jitter: JitterFactor})
}

// NewBackoffWithConfig returns a Backoff following cfg.
func NewBackoffWithConfig(cfg BackoffConfig) *Backoff {
	b := &Backoff{cfg: cfg.withDefaults()}
	b.Reset()
	return b
}

// Next returns the delay before the next attempt and grows the schedule.
func (b *Backoff) Next() time.Duration {
	d := b.delay
	b.delay = min(time.Duration(float64(b.delay)*b.cfg.Multiplier), b.cfg.Max)
	if b.cfg.Jitter > 0 {
		d += time.Duration(float64(d) * b.cfg.Jitter * rand.Float64())
	}
	return d
}

// Reset restarts the schedule at the initial delay.
func (b *Backoff) Reset() {
	b.delay = b.cfg.Initial
}
