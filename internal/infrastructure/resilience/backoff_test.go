package resilience

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffDoubles(t *testing.T) {
	base := 100 * time.Millisecond
	cap := 5 * time.Second

	assert.Equal(t, 100*time.Millisecond, Backoff(0, base, cap))
	assert.Equal(t, 200*time.Millisecond, Backoff(1, base, cap))
	assert.Equal(t, 400*time.Millisecond, Backoff(2, base, cap))
	assert.Equal(t, 800*time.Millisecond, Backoff(3, base, cap))
}

func TestBackoffCapped(t *testing.T) {
	base := 100 * time.Millisecond
	cap := 1 * time.Second

	assert.Equal(t, cap, Backoff(4, base, cap))
	assert.Equal(t, cap, Backoff(10, base, cap))
	assert.Equal(t, cap, Backoff(62, base, cap), "no overflow at high attempt counts")
}

func TestBackoffDefaults(t *testing.T) {
	assert.Equal(t, DefaultBackoffBase, Backoff(0, 0, 0))
	assert.Equal(t, DefaultBackoffCap, Backoff(30, 0, 0))
}
