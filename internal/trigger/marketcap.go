// internal/trigger/marketcap.go
package trigger

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/yaxeku/pumpfun-bundler/internal/dex/pumpfun"
)

const defaultPollInterval = 500 * time.Millisecond

// CurveReader is the slice of the pump.fun reader the watcher needs.
type CurveReader interface {
	CurveFor(ctx context.Context, mint solana.PublicKey) (*pumpfun.CurveState, error)
}

// MarketCapWatcher fires once the token's bonding curve market cap crosses
// a SOL threshold, or once the curve completes and liquidity migrates,
// whichever happens first. Completion fires because a completed curve
// stops climbing: waiting past it only loses the exit.
type MarketCapWatcher struct {
	curves       CurveReader
	mint         solana.PublicKey
	thresholdSOL float64
	interval     time.Duration
	logger       *zap.Logger
}

func NewMarketCapWatcher(curves CurveReader, mint solana.PublicKey, thresholdSOL float64, interval time.Duration, logger *zap.Logger) *MarketCapWatcher {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &MarketCapWatcher{
		curves:       curves,
		mint:         mint,
		thresholdSOL: thresholdSOL,
		interval:     interval,
		logger:       logger.Named("marketcap-trigger"),
	}
}

// Wait polls the bonding curve until the trigger condition is met or ctx
// dies. Read failures inside one tick are retried a few times and then
// skipped; a curve that does not exist yet is just a token that has not
// launched.
func (w *MarketCapWatcher) Wait(ctx context.Context) error {
	w.logger.Info("watching market cap",
		zap.String("mint", w.mint.String()),
		zap.Float64("threshold_sol", w.thresholdSOL),
		zap.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			state, err := w.readCurve(ctx)
			if err != nil {
				w.logger.Debug("bonding curve read failed, waiting for next tick", zap.Error(err))
				continue
			}
			if state.Complete {
				w.logger.Info("bonding curve completed, firing sell trigger",
					zap.Float64("market_cap_sol", state.MarketCapSOL()))
				return nil
			}
			if mcap := state.MarketCapSOL(); mcap >= w.thresholdSOL {
				w.logger.Info("market cap threshold crossed, firing sell trigger",
					zap.Float64("market_cap_sol", mcap),
					zap.Float64("threshold_sol", w.thresholdSOL))
				return nil
			}
		}
	}
}

// readCurve fetches the curve state, retrying transient failures within
// the tick.
func (w *MarketCapWatcher) readCurve(ctx context.Context) (*pumpfun.CurveState, error) {
	backoffPolicy := backoff.NewExponentialBackOff()
	backoffPolicy.InitialInterval = 50 * time.Millisecond
	backoffPolicy.MaxInterval = w.interval

	notify := func(err error, duration time.Duration) {
		w.logger.Debug("retrying bonding curve read",
			zap.Error(err),
			zap.Duration("backoff", duration))
	}

	operation := func() (*pumpfun.CurveState, error) {
		return w.curves.CurveFor(ctx, w.mint)
	}

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoffPolicy),
		backoff.WithMaxTries(3),
		backoff.WithNotify(notify))
}

var _ Trigger = (*MarketCapWatcher)(nil)
var _ Trigger = Manual{}
