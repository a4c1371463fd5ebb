// internal/engine/errors.go
package engine

import (
	"context"
	"errors"
	"net"
	"strings"
)

// ErrorClass buckets an operation failure for backoff selection. Classes
// pick the delay before the same state is retried; they never change what
// state the task is in.
type ErrorClass int

const (
	ClassUnknown ErrorClass = iota
	ClassTransientNotReady
	ClassRateLimited
	ClassNetworkError
	ClassOnChainRejected
)

func (c ErrorClass) String() string {
	switch c {
	case ClassTransientNotReady:
		return "transient_not_ready"
	case ClassRateLimited:
		return "rate_limited"
	case ClassNetworkError:
		return "network_error"
	case ClassOnChainRejected:
		return "onchain_rejected"
	default:
		return "unknown"
	}
}

var (
	// ErrRateLimited marks 429-class provider responses. Adapters wrap it
	// so classification lands in the exponential lane without string games.
	ErrRateLimited = errors.New("rate limited by provider")

	// ErrRetriesExhausted reports a task that ran out of its retry budget.
	ErrRetriesExhausted = errors.New("retry budget exhausted")
)

// Classify maps an operation error onto its backoff class. Unrecognized
// errors fall through to ClassUnknown and get the base delay.
func Classify(err error) ErrorClass {
	if err == nil {
		return ClassUnknown
	}
	if errors.Is(err, ErrRateLimited) {
		return ClassRateLimited
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ClassNetworkError
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return ClassNetworkError
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429"),
		strings.Contains(msg, "rate limit"),
		strings.Contains(msg, "too many requests"):
		return ClassRateLimited
	case strings.Contains(msg, "custom program error"),
		strings.Contains(msg, "slippage"),
		strings.Contains(msg, "account not initialized"),
		strings.Contains(msg, "instructionerror"),
		strings.Contains(msg, "transaction simulation failed"):
		return ClassOnChainRejected
	case strings.Contains(msg, "blockhash not found"),
		strings.Contains(msg, "not found"),
		strings.Contains(msg, "could not find"),
		strings.Contains(msg, "not tradable"):
		return ClassTransientNotReady
	case strings.Contains(msg, "connection reset"),
		strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "no such host"),
		strings.Contains(msg, "broken pipe"),
		strings.Contains(msg, "network is unreachable"),
		strings.Contains(msg, "timeout"),
		strings.Contains(msg, "timed out"),
		strings.Contains(msg, "eof"):
		return ClassNetworkError
	default:
		return ClassUnknown
	}
}
