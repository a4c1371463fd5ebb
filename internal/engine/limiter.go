// internal/engine/limiter.go
package engine

import (
	"context"

	"go.uber.org/ratelimit"
)

// DefaultRequestCeiling is the outbound requests-per-second cap applied
// when the caller does not supply one.
const DefaultRequestCeiling = 10

// Limiter paces every outbound call of a run. One instance is shared by
// all tasks, so the combined request stream never starts calls closer
// together than the ceiling allows. Calls are delayed, never dropped.
type Limiter struct {
	rl ratelimit.Limiter
}

// NewLimiter builds a limiter for ceiling requests per second. Slack is
// disabled: idle seconds do not earn burst credit, keeping the spacing
// guarantee strict.
func NewLimiter(ceiling int) *Limiter {
	if ceiling <= 0 {
		ceiling = DefaultRequestCeiling
	}
	return &Limiter{rl: ratelimit.New(ceiling, ratelimit.WithoutSlack)}
}

// Do blocks until a slot is free, then runs fn and returns its error
// unchanged. A context that died while waiting short-circuits the call so
// a finished run stops hitting providers.
func (l *Limiter) Do(ctx context.Context, fn func() error) error {
	l.rl.Take()
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn()
}
