// ====================================
// File: cmd/bundler/main.go
// ====================================
package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/yaxeku/pumpfun-bundler/internal/app"
	"github.com/yaxeku/pumpfun-bundler/internal/config"
	"github.com/yaxeku/pumpfun-bundler/internal/logger"
)

func main() {
	configPath := "configs/config.json"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, closeLogs, err := logger.Build(cfg.DebugLogging, cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runner, err := app.NewRunner(cfg, log)
	if err != nil {
		log.Error("Failed to initialize runner", zap.Error(err))
		closeLogs()
		os.Exit(1)
	}

	if err := runner.Run(ctx); err != nil {
		log.Error("Sell run failed", zap.Error(err))
		runner.Shutdown()
		closeLogs()
		os.Exit(1)
	}

	runner.Shutdown()
	closeLogs()
}
