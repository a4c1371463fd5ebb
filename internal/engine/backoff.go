// internal/engine/backoff.go
package engine

import (
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Backoff defaults, applied when the policy leaves a field zero.
const (
	DefaultBaseDelay        = 200 * time.Millisecond
	DefaultNetworkDelay     = 500 * time.Millisecond
	DefaultRateLimitInitial = 1 * time.Second
	DefaultRateLimitCap     = 15 * time.Second
)

// BackoffPolicy is the per-class delay table. Transient not-ready and
// unrecognized errors sleep BaseDelay, transport failures sleep
// NetworkDelay, and rate-limit responses ride an exponential ramp from
// RateLimitInitial capped at RateLimitCap.
type BackoffPolicy struct {
	BaseDelay        time.Duration
	NetworkDelay     time.Duration
	RateLimitInitial time.Duration
	RateLimitCap     time.Duration
}

func DefaultBackoffPolicy() BackoffPolicy {
	return BackoffPolicy{
		BaseDelay:        DefaultBaseDelay,
		NetworkDelay:     DefaultNetworkDelay,
		RateLimitInitial: DefaultRateLimitInitial,
		RateLimitCap:     DefaultRateLimitCap,
	}
}

func (p BackoffPolicy) withDefaults() BackoffPolicy {
	def := DefaultBackoffPolicy()
	if p.BaseDelay <= 0 {
		p.BaseDelay = def.BaseDelay
	}
	if p.NetworkDelay <= 0 {
		p.NetworkDelay = def.NetworkDelay
	}
	if p.RateLimitInitial <= 0 {
		p.RateLimitInitial = def.RateLimitInitial
	}
	if p.RateLimitCap < p.RateLimitInitial {
		p.RateLimitCap = def.RateLimitCap
	}
	return p
}

// delays hands out the next sleep for a task. The rate-limit lane keeps its
// exponential growth between calls until resetRate is invoked after a
// successful operation.
type delays struct {
	policy BackoffPolicy
	rate   *backoff.ExponentialBackOff
}

func newDelays(p BackoffPolicy) *delays {
	p = p.withDefaults()
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = p.RateLimitInitial
	eb.MaxInterval = p.RateLimitCap
	eb.RandomizationFactor = 0
	eb.Reset()
	return &delays{policy: p, rate: eb}
}

func (d *delays) next(class ErrorClass) time.Duration {
	switch class {
	case ClassRateLimited:
		return d.rate.NextBackOff()
	case ClassNetworkError:
		return d.policy.NetworkDelay
	default:
		return d.policy.BaseDelay
	}
}

func (d *delays) resetRate() {
	d.rate.Reset()
}
