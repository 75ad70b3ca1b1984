package monitor

import (
	"context"
	"math/rand/v2"
	"time"
)

// DelayPolicy computes the wait before each poll of a target.
type DelayPolicy struct {
	interval  time.Duration
	variation float64
	stagger   time.Duration
	randN     func(n int64) int64
}

// NewDelayPolicy creates a policy drawing jitter from math/rand/v2.
func NewDelayPolicy(interval time.Duration, variation float64, stagger time.Duration) *DelayPolicy {
	return &DelayPolicy{
		interval:  interval,
		variation: variation,
		stagger:   stagger,
		randN:     rand.Int64N,
	}
}

// WithRand replaces the random source. randN must return a value in [0, n).
func (p *DelayPolicy) WithRand(randN func(n int64) int64) *DelayPolicy {
	p.randN = randN
	return p
}

// Initial returns a uniform delay in [0, stagger]
func (p *DelayPolicy) Initial() time.Duration {
	if p.stagger <= 0 {
		return 0
	}
	return time.Duration(p.randN(int64(p.stagger) + 1))
}

// Next returns interval plus a uniform jitter in [0, interval*variation]
func (p *DelayPolicy) Next() time.Duration {
	jitter := time.Duration(float64(p.interval) * p.variation)
	if jitter <= 0 {
		return p.interval
	}
	return p.interval + time.Duration(p.randN(int64(jitter)+1))
}

// sleepContext waits for d or until ctx is done
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
