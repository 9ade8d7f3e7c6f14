/*
Package resilience provides retry primitives for operations that may fail
transiently.

The backoff schedule is a pure function of the attempt number, decoupled
from any I/O, so callers own their own sleeping and the schedule is
independently testable.
*/
package resilience

import "time"

// Default backoff parameters used by the write pipeline.
const (
	DefaultBackoffBase = 100 * time.Millisecond
	DefaultBackoffCap  = 5 * time.Second
)

// Backoff returns the delay before retry number attempt (0-based).
// The delay doubles each attempt starting from base and is capped.
func Backoff(attempt int, base, cap time.Duration) time.Duration {
	if base <= 0 {
		base = DefaultBackoffBase
	}
	if cap <= 0 {
		cap = DefaultBackoffCap
	}
	delay := base
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= cap {
			return cap
		}
	}
	if delay > cap {
		return cap
	}
	return delay
}
