// Package budget provides admission control against a response byte ceiling.
//
// Tool responses must stay under a hard external size limit. The Monitor
// tracks an approximation of the serialized response size and decides,
// before inclusion, whether a candidate item still fits. The threshold sits
// below the true ceiling to absorb envelope overhead that is not tracked
// per item.
package budget

import (
	"fmt"

	"github.com/bytedance/sonic"
)

// DefaultFraction is the share of the hard limit usable for payload items.
const DefaultFraction = 0.9

// Monitor tracks accumulated response size against a byte ceiling.
//
// Callers must pair CanAdmit and Commit per candidate, in order. The monitor
// never fails: a candidate that cannot be estimated is accounted for by its
// string rendering instead.
type Monitor struct {
	limit     int
	threshold int
	used      int
}

// New creates a monitor for the given hard limit. fraction is the usable
// share of the limit; values outside (0, 1] fall back to DefaultFraction.
func New(limitBytes int, fraction float64) *Monitor {
	if fraction <= 0 || fraction > 1 {
		fraction = DefaultFraction
	}
	return &Monitor{
		limit:     limitBytes,
		threshold: int(float64(limitBytes) * fraction),
	}
}

// CanAdmit reports whether the candidate's estimated serialized size fits
// within the remaining budget. It does not mutate the monitor.
func (m *Monitor) CanAdmit(candidate interface{}) bool {
	return m.used+Estimate(candidate) <= m.threshold
}

// Commit charges the candidate's estimated size to the budget.
func (m *Monitor) Commit(candidate interface{}) {
	m.used += Estimate(candidate)
}

// Used returns the committed byte count.
func (m *Monitor) Used() int {
	return m.used
}

// Limit returns the configured hard limit.
func (m *Monitor) Limit() int {
	return m.limit
}

// Threshold returns the usable payload budget.
func (m *Monitor) Threshold() int {
	return m.threshold
}

// Remaining returns the unused payload budget.
func (m *Monitor) Remaining() int {
	if m.used >= m.threshold {
		return 0
	}
	return m.threshold - m.used
}

// Estimate returns the approximate serialized size of v in bytes.
// Only the item itself is measured, not the full partial response.
func Estimate(v interface{}) int {
	if s, ok := v.(string); ok {
		// JSON adds surrounding quotes; escapes are ignored on purpose,
		// the threshold margin covers them.
		return len(s) + 2
	}
	data, err := sonic.Marshal(v)
	if err != nil {
		return len(fmt.Sprintf("%v", v))
	}
	return len(data)
}
