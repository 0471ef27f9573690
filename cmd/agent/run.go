package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/vshulcz/Perfwatch/internal/adapters/collector/runtime"
	"github.com/vshulcz/Perfwatch/internal/adapters/publisher/httpjson"
	"github.com/vshulcz/Perfwatch/internal/config"
	agentsvc "github.com/vshulcz/Perfwatch/internal/services/agent"
)

const requestTimeout = 10 * time.Second

// run samples memory and ships it to the server until ctx is cancelled.
func run(ctx context.Context, cfg config.AgentConfig, logger *zap.Logger) error {
	src, err := runtime.ParseSource(cfg.Source)
	if err != nil {
		return err
	}
	if src == runtime.SourceNone {
		return errors.New("agent needs a memory source to sample")
	}
	pub, err := httpjson.New(cfg.Address, &http.Client{Timeout: requestTimeout}, cfg.Key)
	if err != nil {
		return err
	}
	collector := runtime.New(runtime.NewSampler(src, cfg.PID), logger)
	return agentsvc.New(cfg, collector, pub, logger).Run(ctx)
}
