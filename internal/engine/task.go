// internal/engine/task.go
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/yaxeku/pumpfun-bundler/internal/wallet"
)

// Task defaults, applied when TaskConfig leaves a field zero.
const (
	DefaultMaxRetries         = 500
	DefaultStatusPollInterval = 500 * time.Millisecond
	DefaultStatusPollChecks   = 10
)

// TaskConfig tunes a single wallet's sell task.
type TaskConfig struct {
	// MaxRetries bounds the retry budget shared across all states. Every
	// in-place retry and every rebuild cycle spends one unit; the counter
	// never resets, so a task that keeps looping eventually terminates.
	MaxRetries int

	// StatusPollInterval is the spacing between confirmation checks after
	// a submission, StatusPollChecks the bounded number of checks per
	// submission window.
	StatusPollInterval time.Duration
	StatusPollChecks   int

	Policy BackoffPolicy
}

func (c TaskConfig) withDefaults() TaskConfig {
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.StatusPollInterval <= 0 {
		c.StatusPollInterval = DefaultStatusPollInterval
	}
	if c.StatusPollChecks <= 0 {
		c.StatusPollChecks = DefaultStatusPollChecks
	}
	c.Policy = c.Policy.withDefaults()
	return c
}

// Deps bundles the collaborators every task of a run shares. Limiter and
// Curve must be the same instances across the run's tasks.
type Deps struct {
	Scanner AccountScanner
	Quotes  QuoteProvider
	Subs    SubmissionChannel
	Limiter *Limiter
	Curve   *BondingCurveState
	Logger  *zap.Logger
}

// SellTask drives one wallet from account discovery to a confirmed sale.
// A task is single-goroutine; all cross-task coordination happens through
// the shared Limiter and BondingCurveState.
type SellTask struct {
	owner *wallet.Wallet
	mint  solana.PublicKey

	scanner AccountScanner
	quotes  QuoteProvider
	subs    SubmissionChannel
	limiter *Limiter
	curve   *BondingCurveState
	cfg     TaskConfig
	sleep   *delays
	logger  *zap.Logger

	state    State
	attempts int
	retries  int
	lastErr  error

	account      solana.PublicKey
	accountFound bool
	balance      uint64
	route        *Route

	submitted        solana.Signature
	submittedOnce    bool
	confirmedOnChain bool

	tokensDetected    bool
	routeEverObtained bool

	onFirstSubmit    func()
	firstSubmitFired bool
	started          time.Time
}

func NewSellTask(w *wallet.Wallet, mint solana.PublicKey, deps Deps, cfg TaskConfig) *SellTask {
	cfg = cfg.withDefaults()
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SellTask{
		owner:   w,
		mint:    mint,
		scanner: deps.Scanner,
		quotes:  deps.Quotes,
		subs:    deps.Subs,
		limiter: deps.Limiter,
		curve:   deps.Curve,
		cfg:     cfg,
		sleep:   newDelays(cfg.Policy),
		logger: logger.Named("task").With(
			zap.String("wallet", w.Name),
			zap.String("address", w.PublicKey.String()),
		),
		state: StateSearchingAccount,
	}
}

// OnFirstSubmit registers a hook fired once, right after this task's first
// successful broadcast. The orchestrator uses it to release held wallets
// in creator-first mode. Must be set before Run.
func (t *SellTask) OnFirstSubmit(fn func()) {
	t.onFirstSubmit = fn
}

// Run executes the state machine to a terminal state and reports the
// outcome. It never returns an error: every failure mode ends up inside
// the SellResult.
func (t *SellTask) Run(ctx context.Context) SellResult {
	t.started = time.Now()
	t.logger.Debug("sell task started", zap.String("mint", t.mint.String()))

	for !t.state.Terminal() {
		if err := ctx.Err(); err != nil {
			t.lastErr = err
			t.state = StateRetriesExhausted
			break
		}
		if t.retries >= t.cfg.MaxRetries {
			t.logger.Warn("retry budget exhausted",
				zap.Int("retries", t.retries),
				zap.Int("attempts", t.attempts),
				zap.String("state", t.state.String()))
			t.state = StateRetriesExhausted
			break
		}

		switch t.state {
		case StateSearchingAccount:
			t.searchAccount(ctx)
		case StateHasAccount:
			t.fetchBalance(ctx)
		case StateHasBalance:
			t.fetchRoute(ctx)
		case StateRouteReady:
			t.submit(ctx)
		case StateSubmitted:
			t.awaitConfirmation(ctx)
		case StateFailed:
			t.recoverFromRejection()
		}
	}

	return t.result()
}

// call dispatches one rate-limited operation and charges it to the task's
// attempt count.
func (t *SellTask) call(ctx context.Context, fn func() error) error {
	t.attempts++
	return t.limiter.Do(ctx, fn)
}

// backOff spends one retry unit and sleeps the class's delay before the
// current state is re-entered. err may be nil for expected not-ready
// conditions such as a missing account or an empty route.
func (t *SellTask) backOff(ctx context.Context, class ErrorClass, err error) {
	t.retries++
	if err != nil {
		t.lastErr = err
		if class == ClassUnknown {
			t.logger.Warn("unclassified error, retrying at base delay",
				zap.String("state", t.state.String()),
				zap.Error(err))
		} else {
			t.logger.Debug("retrying",
				zap.String("state", t.state.String()),
				zap.String("class", class.String()),
				zap.Error(err))
		}
	}

	d := t.sleep.next(class)
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

// searchAccount resolves the wallet's token account for the mint. The ref
// is cached for the rest of the run, so re-entering this state after a
// zero balance is a free hop.
func (t *SellTask) searchAccount(ctx context.Context) {
	if t.accountFound {
		t.state = StateHasAccount
		return
	}

	var (
		ref solana.PublicKey
		ok  bool
	)
	err := t.call(ctx, func() error {
		var err error
		ref, ok, err = t.scanner.FindTokenAccount(ctx, t.owner.PublicKey, t.mint)
		return err
	})
	if err != nil {
		t.backOff(ctx, Classify(err), err)
		return
	}
	if !ok {
		t.backOff(ctx, ClassTransientNotReady, nil)
		return
	}

	t.account = ref
	t.accountFound = true
	t.state = StateHasAccount
	t.sleep.resetRate()
	t.logger.Debug("token account found", zap.String("account", ref.String()))
}

// fetchBalance re-reads the held amount. Zero before any submission means
// the tokens have not settled yet, so the task loops back through the
// cached account search. Zero after a submission means the sale actually
// landed despite whatever the channel reported, and the task settles as a
// no-op success.
func (t *SellTask) fetchBalance(ctx context.Context) {
	var bal uint64
	err := t.call(ctx, func() error {
		var err error
		bal, err = t.scanner.TokenBalance(ctx, t.account)
		return err
	})
	if err != nil {
		t.backOff(ctx, Classify(err), err)
		return
	}

	if bal == 0 {
		if t.submittedOnce {
			t.logger.Info("balance drained after submission, nothing left to sell")
			t.lastErr = nil
			t.state = StateConfirmed
			return
		}
		t.state = StateSearchingAccount
		t.backOff(ctx, ClassTransientNotReady, nil)
		return
	}

	t.balance = bal
	t.tokensDetected = true
	t.route = nil
	t.state = StateHasBalance
	t.sleep.resetRate()
	t.logger.Debug("balance read", zap.Uint64("amount", bal))
}

// fetchRoute asks the aggregator to price the full balance. A nil route is
// the token-not-tradable signal and retries in place at the base delay.
func (t *SellTask) fetchRoute(ctx context.Context) {
	var route *Route
	err := t.call(ctx, func() error {
		var err error
		route, err = t.quotes.GetRoute(ctx, t.mint, t.balance)
		return err
	})
	if err != nil {
		t.backOff(ctx, Classify(err), err)
		return
	}
	if route == nil {
		t.backOff(ctx, ClassTransientNotReady, nil)
		return
	}

	t.route = route
	t.routeEverObtained = true
	t.state = StateRouteReady
	t.sleep.resetRate()
	if t.curve.MarkDetected(t.attempts) {
		t.logger.Info("bonding curve tradable, first route obtained",
			zap.Int("attempt", t.attempts),
			zap.Uint64("out_amount", route.OutAmount))
	}
}

// submit signs the routed transaction and broadcasts it. Once Submit has
// been dispatched the wire state is unknowable on error, so every
// non-rejection failure afterwards goes back through a fresh balance read
// rather than a blind resend.
func (t *SellTask) submit(ctx context.Context) {
	var tx *solana.Transaction
	err := t.call(ctx, func() error {
		var err error
		tx, err = t.subs.Sign(ctx, t.route, t.owner)
		return err
	})
	if err != nil {
		t.route = nil
		t.state = StateHasBalance
		t.backOff(ctx, Classify(err), err)
		return
	}

	var sig solana.Signature
	t.submittedOnce = true
	err = t.call(ctx, func() error {
		var err error
		sig, err = t.subs.Submit(ctx, tx)
		return err
	})
	if err != nil {
		class := Classify(err)
		if class == ClassOnChainRejected {
			t.lastErr = err
			t.state = StateFailed
			return
		}
		t.route = nil
		t.state = StateHasAccount
		t.backOff(ctx, class, err)
		return
	}

	t.submitted = sig
	t.state = StateSubmitted
	t.sleep.resetRate()
	t.fireFirstSubmit()
	t.logger.Info("sell submitted",
		zap.String("signature", sig.String()),
		zap.Uint64("amount", t.balance))
}

// awaitConfirmation polls the submitted signature for a bounded window.
// Still pending when the window closes is ambiguous: the sale may or may
// not have landed, so the task rebuilds from a fresh balance instead of
// resubmitting blindly.
func (t *SellTask) awaitConfirmation(ctx context.Context) {
	for i := 0; i < t.cfg.StatusPollChecks; i++ {
		select {
		case <-ctx.Done():
			return
		case <-time.After(t.cfg.StatusPollInterval):
		}

		var st TxStatus
		err := t.call(ctx, func() error {
			var err error
			st, err = t.subs.Status(ctx, t.submitted)
			return err
		})
		if err != nil {
			t.logger.Warn("status check failed", zap.Error(err))
			continue
		}

		switch st.State {
		case TxConfirmed, TxFinalized:
			t.confirmedOnChain = true
			t.lastErr = nil
			t.state = StateConfirmed
			t.logger.Info("sell confirmed",
				zap.String("signature", t.submitted.String()),
				zap.Uint64("slot", st.Slot))
			return
		case TxFailed:
			t.lastErr = fmt.Errorf("transaction failed on-chain: %s", st.Err)
			t.state = StateFailed
			return
		}
	}

	t.logger.Warn("no confirmation within polling window, rebuilding from fresh balance",
		zap.String("signature", t.submitted.String()))
	t.retries++
	t.route = nil
	t.state = StateHasAccount
}

// recoverFromRejection handles an explicit on-chain failure. The
// submission is dead but the task is not: whatever really happened to the
// balance decides the next move, so it is re-read before any new quote.
func (t *SellTask) recoverFromRejection() {
	t.logger.Warn("submission rejected on-chain", zap.Error(t.lastErr))
	t.retries++
	t.route = nil
	t.state = StateHasAccount
}

func (t *SellTask) fireFirstSubmit() {
	if t.firstSubmitFired || t.onFirstSubmit == nil {
		return
	}
	t.firstSubmitFired = true
	t.onFirstSubmit()
}

func (t *SellTask) result() SellResult {
	r := SellResult{
		WalletName:        t.owner.Name,
		WalletAddress:     t.owner.PublicKey.String(),
		Success:           t.state == StateConfirmed,
		Attempts:          t.attempts,
		TokensDetected:    t.tokensDetected,
		RouteEverObtained: t.routeEverObtained,
		FinalState:        t.state,
		Elapsed:           time.Since(t.started),
	}
	if t.confirmedOnChain {
		r.Signature = t.submitted.String()
	}
	if !r.Success {
		switch {
		case t.lastErr != nil:
			r.Err = t.lastErr.Error()
		case t.state == StateRetriesExhausted:
			r.Err = ErrRetriesExhausted.Error()
		}
	}
	return r
}
