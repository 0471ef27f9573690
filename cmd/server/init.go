package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/vshulcz/Perfwatch/internal/adapters/collector/runtime"
	insight "github.com/vshulcz/Perfwatch/internal/adapters/insight/httpjson"
	"github.com/vshulcz/Perfwatch/internal/adapters/persistence/file"
	memrepo "github.com/vshulcz/Perfwatch/internal/adapters/repository/memory"
	pgrepo "github.com/vshulcz/Perfwatch/internal/adapters/repository/postgres"
	warnfile "github.com/vshulcz/Perfwatch/internal/adapters/warnsink/file"
	"github.com/vshulcz/Perfwatch/internal/adapters/warnsink/kafka"
	"github.com/vshulcz/Perfwatch/internal/adapters/warnsink/webhook"
	"github.com/vshulcz/Perfwatch/internal/config"
	"github.com/vshulcz/Perfwatch/internal/domain"
	"github.com/vshulcz/Perfwatch/internal/misc"
	"github.com/vshulcz/Perfwatch/internal/ports"
	"github.com/vshulcz/Perfwatch/internal/services/forward"
	"github.com/vshulcz/Perfwatch/internal/services/telemetry"
)

const sinkTimeout = 5 * time.Second

// telemetryOptions layers the YAML overrides on top of the defaults.
func telemetryOptions(f config.TelemetryFile) telemetry.Options {
	o := telemetry.DefaultOptions()
	setBool(&o.Enabled, f.Enabled)
	o.Production = f.Production
	setBool(&o.EnableInUnsafeMode, f.EnableInUnsafeMode)
	setBool(&o.LogWarnings, f.LogWarnings)

	setDur(&o.WarningThreshold, f.WarningThreshold)
	setDur(&o.FrequencyWindow, f.FrequencyWindow)
	setDur(&o.MemoryCheckInterval, f.MemoryCheckInterval)
	setDur(&o.HistoryInterval, f.HistoryInterval)
	setDur(&o.MeasureInterval, f.MeasureInterval)
	setDur(&o.ResourceMaxAge, f.ResourceMaxAge)

	setInt(&o.RebuildWarningCount, f.RebuildWarningCount)
	setInt(&o.SetStateWarningCount, f.SetStateWarningCount)
	setInt(&o.MaxWidgetDepth, f.MaxWidgetDepth)
	setInt(&o.MaxNodeCount, f.MaxNodeCount)
	setInt(&o.WarningCapacity, f.WarningCapacity)
	setInt(&o.HistoryCapacity, f.HistoryCapacity)
	setInt(&o.TopN, f.TopN)

	if f.MemoryWarnMB > 0 {
		o.MemoryWarnMB = f.MemoryWarnMB
	}
	if f.MemoryCriticalMB > 0 {
		o.MemoryCriticalMB = f.MemoryCriticalMB
	}
	if f.MaxWidgetDimension > 0 {
		o.MaxWidgetDimension = f.MaxWidgetDimension
	}

	setBool(&o.TrackRebuilds, f.Track.Rebuilds)
	setBool(&o.TrackMemory, f.Track.Memory)
	setBool(&o.TrackAnimations, f.Track.Animations)
	setBool(&o.TrackWidgetSize, f.Track.WidgetSize)
	setBool(&o.TrackWidgetDepth, f.Track.WidgetDepth)
	setBool(&o.TrackSetState, f.Track.SetState)
	return o
}

func setDur(dst *time.Duration, v time.Duration) {
	if v > 0 {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v > 0 {
		*dst = v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func buildTelemetry(cfg config.ServerConfig, logger *zap.Logger) (*telemetry.Context, error) {
	src, err := runtime.ParseSource(cfg.MemorySource)
	if err != nil {
		return nil, err
	}
	opts := []telemetry.Option{telemetry.WithLogger(logger)}
	if src != runtime.SourceNone {
		opts = append(opts, telemetry.WithMemorySampler(runtime.NewSampler(src, cfg.PID)))
	}
	if cfg.InsightURL != "" {
		aug, err := insight.New(cfg.InsightURL, &http.Client{Timeout: 10 * time.Second}, cfg.Key)
		if err != nil {
			return nil, fmt.Errorf("insight client: %w", err)
		}
		opts = append(opts, telemetry.WithAugmenter(aug))
	}
	return telemetry.New(telemetryOptions(cfg.Telemetry), opts...), nil
}

// buildStore connects to Postgres when a DSN is set and falls back to the in-memory
// store when the database stays unreachable.
func buildStore(ctx context.Context, cfg config.ServerConfig, logger *zap.Logger) (ports.ReportStore, func()) {
	if cfg.DSN != "" {
		db, err := sql.Open("postgres", cfg.DSN)
		if err == nil {
			op := func() error {
				if err := db.PingContext(ctx); err != nil {
					return err
				}
				return pgrepo.Migrate(ctx, db)
			}
			notify := func(attempt int, wait time.Duration, err error) {
				logger.Warn("postgres not ready, retrying",
					zap.Int("attempt", attempt), zap.Duration("wait", wait), zap.Error(err))
			}
			if err = misc.RetryNotify(ctx, misc.DefaultBackoff, pgrepo.IsRetryable, op, notify); err == nil {
				logger.Info("db connected & migrated")
				return pgrepo.New(db), func() { _ = db.Close() }
			}
			_ = db.Close()
		}
		logger.Warn("postgres init failed, falling back to memory", zap.Error(err))
	}
	return memrepo.New(0), func() {}
}

func buildPersister(cfg config.ServerConfig) ports.ReportPersister {
	if cfg.ReportFile == "" {
		return nil
	}
	return file.New(cfg.ReportFile)
}

// buildForwarder returns nil when no sink is configured.
func buildForwarder(cfg config.ServerConfig, logger *zap.Logger) (*forward.Forwarder, func(), error) {
	var sinks []forward.Sink
	closers := []func(){}

	if cfg.WarningsFile != "" {
		sinks = append(sinks, warnfile.New(cfg.WarningsFile))
	}
	if cfg.WebhookURL != "" {
		wh, err := webhook.New(cfg.WebhookURL, &http.Client{Timeout: sinkTimeout})
		if err != nil {
			return nil, nil, fmt.Errorf("webhook sink: %w", err)
		}
		sinks = append(sinks, wh)
	}
	if cfg.KafkaBrokers != "" {
		p, err := kafka.New(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return nil, nil, fmt.Errorf("kafka sink: %w", err)
		}
		sinks = append(sinks, p)
		closers = append(closers, func() {
			if err := p.Close(); err != nil {
				logger.Warn("kafka close failed", zap.Error(err))
			}
		})
	}
	if len(sinks) == 0 {
		return nil, func() {}, nil
	}

	host, _ := os.Hostname()
	fwd := forward.New(forward.Config{
		Host:        host,
		MinSeverity: domain.Severity(cfg.MinSeverity),
	}, logger, sinks...)
	return fwd, func() {
		for _, c := range closers {
			c()
		}
	}, nil
}
