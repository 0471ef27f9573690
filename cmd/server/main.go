// Command server ingests performance telemetry over HTTP and serves scores, suggestions and reports.
package main

import (
	"context"
	"log"
	"net"
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

	cfg, err := config.LoadServerConfig(os.Args[1:], os.Stderr)
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

	ln, err := net.Listen("tcp", cfg.Address)
	if err != nil {
		logger.Fatal("listen failed", zap.String("addr", cfg.Address), zap.Error(err))
	}

	logger.Info("server starting",
		zap.String("addr", cfg.Address),
		zap.Duration("report_interval", cfg.ReportInterval),
		zap.String("report_file", cfg.ReportFile),
		zap.Bool("postgres", cfg.DSN != ""),
		zap.String("config", cfg.ConfigFile))

	if err := run(ctx, cfg, logger, ln); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
