// internal/trigger/trigger.go
package trigger

import "context"

// Trigger blocks until the sell condition is met. A nil error means fire.
type Trigger interface {
	Wait(ctx context.Context) error
}

// Manual fires immediately: the operator launching the run is the signal.
type Manual struct{}

func (Manual) Wait(context.Context) error { return nil }
