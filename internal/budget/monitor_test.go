package budget

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanAdmitWithinBudget(t *testing.T) {
	m := New(1000, 0.9)

	item := strings.Repeat("a", 100)
	assert.True(t, m.CanAdmit(item))

	m.Commit(item)
	assert.Equal(t, 102, m.Used())
}

func TestCanAdmitIsPure(t *testing.T) {
	m := New(1000, 0.9)

	item := strings.Repeat("a", 100)
	for i := 0; i < 5; i++ {
		assert.True(t, m.CanAdmit(item))
	}
	assert.Equal(t, 0, m.Used(), "CanAdmit must not mutate the monitor")
}

func TestRejectsWhenThresholdExceeded(t *testing.T) {
	m := New(1000, 0.9)

	// Threshold is 900; each item is 102 estimated bytes.
	item := strings.Repeat("a", 100)
	admitted := 0
	for m.CanAdmit(item) {
		m.Commit(item)
		admitted++
	}

	assert.Equal(t, 8, admitted)
	assert.LessOrEqual(t, m.Used(), m.Threshold())
}

func TestOversizedItemRejected(t *testing.T) {
	m := New(1000, 0.9)

	huge := strings.Repeat("x", 5000)
	assert.False(t, m.CanAdmit(huge))
}

func TestFractionFallback(t *testing.T) {
	m := New(1000, 0)
	assert.Equal(t, 900, m.Threshold())

	m = New(1000, 1.5)
	assert.Equal(t, 900, m.Threshold())

	m = New(1000, 0.5)
	assert.Equal(t, 500, m.Threshold())
}

func TestEstimateStructured(t *testing.T) {
	entry := map[string]interface{}{"name": "a.txt", "size": 12}
	est := Estimate(entry)
	assert.Greater(t, est, 0)

	// Estimation matches serialized JSON length for structured values.
	assert.GreaterOrEqual(t, est, len(`{"name":"a.txt","size":12}`))
}

func TestRemaining(t *testing.T) {
	m := New(100, 0.9)
	assert.Equal(t, 90, m.Remaining())

	m.Commit(strings.Repeat("a", 200))
	assert.Equal(t, 0, m.Remaining())
}
