package transport

import "time"

// Backoff yields a (possibly infinite) sequence of sleep durations.
// ExponentialBackoff below is the one used throughout the core; its
// fixed attempt count caps retries (spec.md §4.1/§4.6).
type Backoff interface {
	// Next returns the next delay and whether the sequence has more
	// delays to offer.
	Next() (time.Duration, bool)
}

// ExponentialBackoff doubles from a base delay up to a cap, for a fixed
// number of attempts — grounded on
// original_source/crates/core/src/distributed/sonic/replication.rs's
// `ExponentialBackoff::from_millis(..).with_limit(..).take(n)` chain.
type ExponentialBackoff struct {
	base      time.Duration
	cap       time.Duration
	remaining int
	next      time.Duration
}

// NewExponentialBackoff builds a backoff starting at base, doubling each
// step, capped at capDuration, for at most attempts steps.
func NewExponentialBackoff(base, capDuration time.Duration, attempts int) *ExponentialBackoff {
	return &ExponentialBackoff{base: base, cap: capDuration, remaining: attempts, next: base}
}

func (b *ExponentialBackoff) Next() (time.Duration, bool) {
	if b.remaining <= 0 {
		return 0, false
	}
	b.remaining--
	d := b.next
	if d > b.cap {
		d = b.cap
	}
	b.next *= 2
	return d, true
}
