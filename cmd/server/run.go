package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vshulcz/Perfwatch/internal/adapters/http/ginserver"
	"github.com/vshulcz/Perfwatch/internal/adapters/http/ginserver/middlewares"
	"github.com/vshulcz/Perfwatch/internal/adapters/metrics/prom"
	"github.com/vshulcz/Perfwatch/internal/config"
	"github.com/vshulcz/Perfwatch/internal/domain"
	"github.com/vshulcz/Perfwatch/internal/services/reporting"
	"github.com/vshulcz/Perfwatch/internal/services/telemetry"
)

const shutdownTimeout = 5 * time.Second

// run wires every component, serves on ln and blocks until ctx is cancelled.
func run(ctx context.Context, cfg config.ServerConfig, logger *zap.Logger, ln net.Listener) error {
	tc, err := buildTelemetry(cfg, logger)
	if err != nil {
		return err
	}
	if err := tc.Start(ctx); err != nil {
		if !errors.Is(err, telemetry.ErrDisabled) {
			return err
		}
		logger.Warn("telemetry disabled by configuration, ingestion is a no-op")
	}
	defer tc.Stop()

	fwd, closeSinks, err := buildForwarder(cfg, logger)
	if err != nil {
		return err
	}
	defer closeSinks()
	if fwd != nil {
		tc.Store().Attach(fwd)
		fwd.Start(ctx)
		defer func() {
			fwd.Stop()
			sent, dropped := fwd.Stats()
			logger.Info("warning forwarder stopped", zap.Int64("sent", sent), zap.Int64("dropped", dropped))
		}()
	}

	store, closeStore := buildStore(ctx, cfg, logger)
	defer closeStore()

	ropts := []reporting.Option{reporting.WithLogger(logger)}
	if p := buildPersister(cfg); p != nil {
		ropts = append(ropts, reporting.WithFile(p))
	}
	reports := reporting.New(tc, store, append(ropts, reporting.OnSaved(func(_ context.Context, id string, r domain.Report) {
		logger.Info("report saved", zap.String("id", id), zap.Int("score", r.Score))
	}))...)

	httpMetrics := prom.NewHTTPMetrics()
	reg, err := prom.NewRegistry(prom.NewCollector(tc), httpMetrics)
	if err != nil {
		return fmt.Errorf("metrics registry: %w", err)
	}

	gin.SetMode(gin.ReleaseMode)
	h := ginserver.NewHandler(tc, reports, ginserver.WithMetricsHandler(prom.Handler(reg)))
	r := ginserver.NewRouter(h, logger,
		httpMetrics.Middleware(),
		middlewares.ZapLogger(logger, "/ping", "/metrics"),
		middlewares.GzipRequest(),
		middlewares.GzipResponse(),
		middlewares.HashSHA256(cfg.Key),
	)

	reportCtx, stopReports := context.WithCancel(ctx)
	waitReports := reports.Start(reportCtx, cfg.ReportInterval)

	srv := &http.Server{Handler: r, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown failed", zap.Error(err))
	}

	stopReports()
	waitReports()

	if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		return serveErr
	}
	return nil
}
