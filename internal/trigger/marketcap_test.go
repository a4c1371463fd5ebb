// internal/trigger/marketcap_test.go
package trigger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/yaxeku/pumpfun-bundler/internal/dex/pumpfun"
)

type fakeCurves struct {
	mu     sync.Mutex
	states []*pumpfun.CurveState
	errs   []error
	calls  int
}

func (f *fakeCurves) CurveFor(context.Context, solana.PublicKey) (*pumpfun.CurveState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	if len(f.states) == 0 {
		return &pumpfun.CurveState{}, nil
	}
	st := f.states[0]
	if len(f.states) > 1 {
		f.states = f.states[1:]
	}
	return st, nil
}

func growingCurve(solLamports uint64) *pumpfun.CurveState {
	return &pumpfun.CurveState{
		VirtualTokenReserves: 1_000_000_000_000_000,
		VirtualSolReserves:   solLamports,
		TokenTotalSupply:     1_000_000_000_000_000,
	}
}

func testMint(t *testing.T) solana.PublicKey {
	t.Helper()
	pk, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	return pk.PublicKey()
}

func TestManualFiresImmediately(t *testing.T) {
	assert.NoError(t, Manual{}.Wait(context.Background()))
}

func TestMarketCapWatcherFiresOnThreshold(t *testing.T) {
	// Market cap equals virtual SOL reserves here because supply and
	// virtual token reserves match: 10, then 30, then 60 SOL.
	curves := &fakeCurves{states: []*pumpfun.CurveState{
		growingCurve(10_000_000_000),
		growingCurve(30_000_000_000),
		growingCurve(60_000_000_000),
	}}

	w := NewMarketCapWatcher(curves, testMint(t), 50, 5*time.Millisecond, zaptest.NewLogger(t))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, w.Wait(ctx))
	assert.GreaterOrEqual(t, curves.calls, 3)
}

func TestMarketCapWatcherFiresOnCurveCompletion(t *testing.T) {
	complete := growingCurve(5_000_000_000)
	complete.Complete = true
	curves := &fakeCurves{states: []*pumpfun.CurveState{complete}}

	w := NewMarketCapWatcher(curves, testMint(t), 1_000_000, 5*time.Millisecond, zaptest.NewLogger(t))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.NoError(t, w.Wait(ctx), "completed curve must fire even far below the threshold")
}

func TestMarketCapWatcherSurvivesReadErrors(t *testing.T) {
	over := growingCurve(100_000_000_000)
	curves := &fakeCurves{
		errs:   []error{errors.New("rpc: account not found"), errors.New("timeout"), errors.New("timeout"), errors.New("timeout")},
		states: []*pumpfun.CurveState{over},
	}

	w := NewMarketCapWatcher(curves, testMint(t), 50, 5*time.Millisecond, zaptest.NewLogger(t))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.NoError(t, w.Wait(ctx))
}

func TestMarketCapWatcherStopsOnContext(t *testing.T) {
	curves := &fakeCurves{states: []*pumpfun.CurveState{growingCurve(1)}}

	w := NewMarketCapWatcher(curves, testMint(t), 1_000_000, 5*time.Millisecond, zaptest.NewLogger(t))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := w.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
