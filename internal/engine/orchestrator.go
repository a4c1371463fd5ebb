// internal/engine/orchestrator.go
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yaxeku/pumpfun-bundler/internal/wallet"
)

// ErrNoWallets is returned when a run is asked to start with no eligible
// wallets.
var ErrNoWallets = errors.New("no eligible wallets to sell from")

// Options tune a single orchestrated run.
type Options struct {
	// InitialDelay is slept once before any task launches.
	InitialDelay time.Duration

	// Stagger offsets each task's launch by its index times this value.
	// Zero launches everything at once.
	Stagger time.Duration

	// CreatorFirst holds the pack until the creator wallet's sale has been
	// broadcast, or until the creator task ends without ever broadcasting.
	CreatorFirst bool

	Task TaskConfig
}

// Orchestrator fans one SellTask per eligible wallet out over goroutines
// and folds their outcomes into a run summary. Partial failure is not a
// run failure: the summary carries per-wallet results either way.
type Orchestrator struct {
	scanner AccountScanner
	quotes  QuoteProvider
	subs    SubmissionChannel
	limiter *Limiter
	logger  *zap.Logger
}

func NewOrchestrator(scanner AccountScanner, quotes QuoteProvider, subs SubmissionChannel, limiter *Limiter, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if limiter == nil {
		limiter = NewLimiter(0)
	}
	return &Orchestrator{
		scanner: scanner,
		quotes:  quotes,
		subs:    subs,
		limiter: limiter,
		logger:  logger.Named("orchestrator"),
	}
}

// Run sells mint across every eligible wallet and waits for all of them.
// Started tasks always run to their own terminal state; a slow or failing
// wallet never cancels its siblings. Only an empty wallet set fails the
// run itself.
func (o *Orchestrator) Run(ctx context.Context, wallets []*wallet.Wallet, mint solana.PublicKey, opts Options) (*RunSummary, error) {
	eligible := make([]*wallet.Wallet, 0, len(wallets))
	for _, w := range wallets {
		if w != nil && w.Eligible {
			eligible = append(eligible, w)
		}
	}
	if len(eligible) == 0 {
		return nil, ErrNoWallets
	}

	runID := uuid.NewString()
	logger := o.logger.With(
		zap.String("run_id", runID),
		zap.String("mint", mint.String()),
	)

	if opts.InitialDelay > 0 {
		logger.Info("holding before launch", zap.Duration("initial_delay", opts.InitialDelay))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(opts.InitialDelay):
		}
	}

	curve := NewBondingCurveState()
	deps := Deps{
		Scanner: o.scanner,
		Quotes:  o.quotes,
		Subs:    o.subs,
		Limiter: o.limiter,
		Curve:   curve,
		Logger:  logger,
	}

	started := time.Now()
	logger.Info(fmt.Sprintf("🚀 Starting sell run across %d wallets", len(eligible)),
		zap.Duration("stagger", opts.Stagger),
		zap.Bool("creator_first", opts.CreatorFirst))

	results := make([]SellResult, len(eligible))
	var g errgroup.Group

	creatorIdx := -1
	if opts.CreatorFirst {
		creatorIdx = creatorIndex(eligible)
		if creatorIdx < 0 {
			logger.Warn("creator-first requested but no creator wallet present, launching all at once")
		}
	}

	if creatorIdx >= 0 {
		creator := eligible[creatorIdx]
		gate := make(chan struct{})
		done := make(chan struct{})

		task := NewSellTask(creator, mint, deps, opts.Task)
		task.OnFirstSubmit(func() { close(gate) })

		idx := creatorIdx
		g.Go(func() error {
			results[idx] = task.Run(ctx)
			close(done)
			return nil
		})

		select {
		case <-gate:
			logger.Info("creator sale broadcast, releasing remaining wallets",
				zap.String("wallet", creator.Name))
		case <-done:
			logger.Warn("creator task ended without broadcasting, releasing remaining wallets",
				zap.String("wallet", creator.Name))
		}
	}

	for i, w := range eligible {
		if i == creatorIdx {
			continue
		}
		offset := time.Duration(i) * opts.Stagger
		g.Go(func() error {
			if offset > 0 {
				select {
				case <-ctx.Done():
				case <-time.After(offset):
				}
			}
			results[i] = NewSellTask(w, mint, deps, opts.Task).Run(ctx)
			return nil
		})
	}

	_ = g.Wait()

	summary := summarize(runID, mint, started, results, curve)
	logger.Info(fmt.Sprintf("✅ Sell run complete: %d sold, %d failed", summary.Successful, summary.Failed),
		zap.Float64("avg_attempts", summary.AvgAttempts),
		zap.Duration("time_to_first_route", summary.TimeToFirstRoute),
		zap.Duration("elapsed", summary.Elapsed))
	return summary, nil
}

// creatorIndex returns the position of the first creator-role wallet, -1
// when the set has none.
func creatorIndex(wallets []*wallet.Wallet) int {
	for i, w := range wallets {
		if w.Role == wallet.RoleCreator {
			return i
		}
	}
	return -1
}

func summarize(runID string, mint solana.PublicKey, started time.Time, results []SellResult, curve *BondingCurveState) *RunSummary {
	s := &RunSummary{
		RunID:     runID,
		Mint:      mint.String(),
		StartedAt: started,
		Results:   results,
	}
	total := 0
	for _, r := range results {
		if r.Success {
			s.Successful++
		} else {
			s.Failed++
		}
		total += r.Attempts
	}
	if len(results) > 0 {
		s.AvgAttempts = float64(total) / float64(len(results))
	}
	if at := curve.DetectedAt(); !at.IsZero() {
		s.TimeToFirstRoute = at.Sub(started)
	}
	s.Elapsed = time.Since(started)
	return s
}
