// Command agent samples process memory and ships it to a Perfwatch server.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/vshulcz/Perfwatch/internal/config"
	"github.com/vshulcz/Perfwatch/pkg/util"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	util.PrintBuildInfo(os.Stdout, util.BuildInfo{Version: buildVersion, Date: buildDate, Commit: buildCommit})

	cfg, err := config.LoadAgentConfig(os.Args[1:], os.Stderr)
	if err != nil {
		log.Fatalf("failed to parse flags: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("agent started",
		zap.String("server", cfg.Address),
		zap.Duration("poll", cfg.PollInterval),
		zap.Duration("report", cfg.ReportInterval),
		zap.Int("limit", cfg.RateLimit),
		zap.String("source", cfg.Source),
		zap.Int("pid", cfg.PID))
	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("agent failed", zap.Error(err))
	}
}
