// internal/engine/backoff_test.go
package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDelaysPickPerClassLanes(t *testing.T) {
	d := newDelays(BackoffPolicy{
		BaseDelay:        10 * time.Millisecond,
		NetworkDelay:     70 * time.Millisecond,
		RateLimitInitial: 100 * time.Millisecond,
		RateLimitCap:     time.Second,
	})

	assert.Equal(t, 10*time.Millisecond, d.next(ClassTransientNotReady))
	assert.Equal(t, 10*time.Millisecond, d.next(ClassUnknown))
	assert.Equal(t, 10*time.Millisecond, d.next(ClassOnChainRejected))
	assert.Equal(t, 70*time.Millisecond, d.next(ClassNetworkError))
}

func TestDelaysRateLimitLaneGrowsAndCaps(t *testing.T) {
	d := newDelays(BackoffPolicy{
		BaseDelay:        time.Millisecond,
		NetworkDelay:     time.Millisecond,
		RateLimitInitial: 100 * time.Millisecond,
		RateLimitCap:     300 * time.Millisecond,
	})

	prev := time.Duration(0)
	for i := 0; i < 8; i++ {
		next := d.next(ClassRateLimited)
		assert.GreaterOrEqual(t, next, prev, "ramp must be non-decreasing")
		assert.LessOrEqual(t, next, 300*time.Millisecond, "ramp must respect the cap")
		prev = next
	}
	assert.Equal(t, 300*time.Millisecond, prev, "ramp must reach the cap")
}

func TestDelaysResetRestartsRamp(t *testing.T) {
	d := newDelays(BackoffPolicy{
		RateLimitInitial: 50 * time.Millisecond,
		RateLimitCap:     400 * time.Millisecond,
	})

	first := d.next(ClassRateLimited)
	for i := 0; i < 5; i++ {
		d.next(ClassRateLimited)
	}
	d.resetRate()
	assert.Equal(t, first, d.next(ClassRateLimited))
}

func TestPolicyWithDefaultsFillsZeroes(t *testing.T) {
	p := BackoffPolicy{}.withDefaults()
	assert.Equal(t, DefaultBaseDelay, p.BaseDelay)
	assert.Equal(t, DefaultNetworkDelay, p.NetworkDelay)
	assert.Equal(t, DefaultRateLimitInitial, p.RateLimitInitial)
	assert.Equal(t, DefaultRateLimitCap, p.RateLimitCap)

	keep := BackoffPolicy{
		BaseDelay:        time.Millisecond,
		NetworkDelay:     2 * time.Millisecond,
		RateLimitInitial: 3 * time.Millisecond,
		RateLimitCap:     4 * time.Millisecond,
	}
	assert.Equal(t, keep, keep.withDefaults())
}
