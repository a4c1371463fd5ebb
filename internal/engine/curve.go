// internal/engine/curve.go
package engine

import (
	"sync"
	"time"
)

// BondingCurveState is the run-wide tradability signal. It flips false to
// true exactly once, on the first route any task obtains, and never resets
// for the lifetime of the run. Tasks read it to skip work they already
// know will fail; nothing in the engine ever un-detects liquidity.
type BondingCurveState struct {
	mu         sync.Mutex
	detected   bool
	detectedAt time.Time
	attempt    int
	ready      chan struct{}
}

func NewBondingCurveState() *BondingCurveState {
	return &BondingCurveState{ready: make(chan struct{})}
}

// MarkDetected records the first route sighting. Only the first caller
// flips the state; it reports whether this call was the one that did.
func (s *BondingCurveState) MarkDetected(attempt int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.detected {
		return false
	}
	s.detected = true
	s.detectedAt = time.Now()
	s.attempt = attempt
	close(s.ready)
	return true
}

// Detected reports whether any task has obtained a route yet.
func (s *BondingCurveState) Detected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.detected
}

// DetectedAt returns when the first route was seen, zero if never.
func (s *BondingCurveState) DetectedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.detectedAt
}

// DetectedAtAttempt returns the attempt counter the detecting task was at,
// zero if no route was ever seen.
func (s *BondingCurveState) DetectedAtAttempt() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempt
}

// Ready returns a channel closed once the first route is seen. Watchers
// can block on it instead of polling Detected.
func (s *BondingCurveState) Ready() <-chan struct{} {
	return s.ready
}
