// internal/app/runner.go
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/yaxeku/pumpfun-bundler/internal/blockchain/solbc"
	"github.com/yaxeku/pumpfun-bundler/internal/config"
	"github.com/yaxeku/pumpfun-bundler/internal/dex/jupiter"
	"github.com/yaxeku/pumpfun-bundler/internal/dex/pumpfun"
	"github.com/yaxeku/pumpfun-bundler/internal/engine"
	"github.com/yaxeku/pumpfun-bundler/internal/export"
	"github.com/yaxeku/pumpfun-bundler/internal/license"
	"github.com/yaxeku/pumpfun-bundler/internal/trigger"
	"github.com/yaxeku/pumpfun-bundler/internal/types"
	"github.com/yaxeku/pumpfun-bundler/internal/wallet"
)

// Runner wires configuration, wallets and chain clients into one sell run.
type Runner struct {
	logger     *zap.Logger
	config     *config.Config
	wallets    []*wallet.Wallet
	chain      *solbc.Client
	shutdownCh chan os.Signal
}

func NewRunner(cfg *config.Config, logger *zap.Logger) (*Runner, error) {
	wallets, err := wallet.Load(cfg.WalletsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load wallets: %w", err)
	}
	logger.Info("Wallets loaded", zap.Int("count", len(wallets)))

	return &Runner{
		logger:     logger,
		config:     cfg,
		wallets:    wallets,
		chain:      solbc.NewClient(cfg.RPCList[0], logger),
		shutdownCh: make(chan os.Signal, 1),
	}, nil
}

func (r *Runner) Run(ctx context.Context) error {
	signal.Notify(r.shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case sig := <-r.shutdownCh:
			r.logger.Info("📡 Signal received: " + sig.String())
			cancel()
		case <-runCtx.Done():
		}
	}()

	// Validate license first
	if err := r.validateLicense(runCtx); err != nil {
		return fmt.Errorf("license validation failed: %w", err)
	}

	mint, err := solana.PublicKeyFromBase58(r.config.Mint)
	if err != nil {
		return fmt.Errorf("invalid mint: %w", err)
	}

	if err := r.awaitTrigger(runCtx, mint); err != nil {
		return fmt.Errorf("trigger wait aborted: %w", err)
	}

	summary, err := r.executeSellRun(runCtx, mint)
	if err != nil {
		return err
	}

	r.report(summary)
	return nil
}

// awaitTrigger blocks until the configured trigger fires.
func (r *Runner) awaitTrigger(ctx context.Context, mint solana.PublicKey) error {
	switch r.config.Trigger {
	case config.TriggerMarketCap:
		curves := pumpfun.NewReader(r.chain, r.logger)
		watcher := trigger.NewMarketCapWatcher(
			curves,
			mint,
			r.config.MarketCapSOL,
			time.Duration(r.config.TriggerPollMs)*time.Millisecond,
			r.logger,
		)
		r.logger.Info(fmt.Sprintf("⏳ Waiting for market cap of %.1f SOL", r.config.MarketCapSOL),
			zap.String("mint", mint.String()))
		return watcher.Wait(ctx)
	default:
		return trigger.Manual{}.Wait(ctx)
	}
}

func (r *Runner) executeSellRun(ctx context.Context, mint solana.PublicKey) (*engine.RunSummary, error) {
	tier, err := types.ParsePriorityLevel(r.config.PriorityTier)
	if err != nil {
		return nil, err
	}
	feeLamports, err := types.NewPriorityManager(r.logger).FeeLamports(tier)
	if err != nil {
		return nil, err
	}

	api := jupiter.NewClient(jupiter.Config{
		BaseURL:             r.config.QuoteAPIURL,
		SlippageBps:         uint64(r.config.SlippageBps),
		PriorityFeeLamports: feeLamports,
	}, r.logger)
	executor := jupiter.NewExecutor(api, r.chain, r.logger)
	limiter := engine.NewLimiter(r.config.RequestsPerSecond)

	orch := engine.NewOrchestrator(r.chain, api, executor, limiter, r.logger)

	opts := engine.Options{
		InitialDelay: time.Duration(r.config.InitialDelayMs) * time.Millisecond,
		Stagger:      time.Duration(r.config.StaggerMs) * time.Millisecond,
		CreatorFirst: r.config.CreatorFirst,
		Task: engine.TaskConfig{
			MaxRetries:         r.config.MaxRetries,
			StatusPollInterval: time.Duration(r.config.StatusPollMs) * time.Millisecond,
			StatusPollChecks:   r.config.StatusPollChecks,
			Policy: engine.BackoffPolicy{
				BaseDelay:        time.Duration(r.config.BaseDelayMs) * time.Millisecond,
				NetworkDelay:     time.Duration(r.config.NetworkDelayMs) * time.Millisecond,
				RateLimitInitial: time.Duration(r.config.RateLimitInitialMs) * time.Millisecond,
				RateLimitCap:     time.Duration(r.config.RateLimitCapMs) * time.Millisecond,
			},
		},
	}

	return orch.Run(ctx, r.wallets, mint, opts)
}

// report exports run artifacts and emits the fee-collection signal.
func (r *Runner) report(summary *engine.RunSummary) {
	if r.config.ExportDir != "" {
		exporter := export.NewReportExporter(r.logger)
		opts := export.Options{
			Format:    export.ExportFormat(r.config.ExportFormat),
			OutputDir: r.config.ExportDir,
		}
		if _, err := exporter.WriteRunReport(summary, opts); err != nil {
			r.logger.Warn("Failed to export run report", zap.Error(err))
		}
		if err := exporter.AppendHistory(summary, r.config.ExportDir); err != nil {
			r.logger.Warn("Failed to append run history", zap.Error(err))
		}
	}

	if summary.AllSold() {
		r.logger.Info("💰 Position fully closed, fee collection can proceed",
			zap.String("run_id", summary.RunID),
			zap.Int("wallets", summary.Successful))
	}
}

// validateLicense validates the license using either Keygen or fallback validation
func (r *Runner) validateLicense(ctx context.Context) error {
	// Check if Keygen is configured
	if r.config.KeygenAccountID != "" && r.config.KeygenProductToken != "" && r.config.KeygenProductID != "" {
		return r.validateWithKeygen(ctx)
	}

	// Fallback to simple validation
	return r.validateSimple()
}

// validateWithKeygen validates license using Keygen.sh
func (r *Runner) validateWithKeygen(ctx context.Context) error {
	validator := license.NewKeygenValidator(
		r.config.KeygenAccountID,
		r.config.KeygenProductToken,
		r.config.KeygenProductID,
		r.logger,
	)

	if err := validator.ValidateLicense(ctx, r.config.License); err != nil {
		return fmt.Errorf("Keygen validation failed: %w", err)
	}
	return nil
}

// validateSimple performs basic license validation (fallback)
func (r *Runner) validateSimple() error {
	if r.config.License == "" {
		return fmt.Errorf("license key is required")
	}

	if len(r.config.License) < 8 {
		return fmt.Errorf("license key is too short")
	}

	r.logger.Info("License validated")
	return nil
}

// Shutdown flushes the logger, swallowing the bogus sync errors stdout
// sinks report on some platforms.
func (r *Runner) Shutdown() {
	r.logger.Info("👋 Shutting down")

	if err := r.logger.Sync(); err != nil {
		if !os.IsNotExist(err) &&
			err.Error() != "sync /dev/stdout: invalid argument" &&
			err.Error() != "sync /dev/stderr: inappropriate ioctl for device" {
			fmt.Fprintf(os.Stderr, "failed to sync logger during shutdown: %v\n", err)
		}
	}
}
