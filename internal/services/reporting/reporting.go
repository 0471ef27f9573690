// Package reporting captures JSON reports from the telemetry context and persists them.
package reporting

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vshulcz/Perfwatch/internal/clock"
	"github.com/vshulcz/Perfwatch/internal/domain"
	"github.com/vshulcz/Perfwatch/internal/ports"
)

// Source renders the current report. *telemetry.Context satisfies it.
type Source interface {
	JSONReport() domain.Report
}

type Service struct {
	src     Source
	store   ports.ReportStore
	file    ports.ReportPersister
	clock   clock.Clock
	log     *zap.Logger
	onSaved func(context.Context, string, domain.Report)
}

// Option customizes a Service.
type Option func(*Service)

// WithFile mirrors every saved report to a local file.
func WithFile(p ports.ReportPersister) Option { return func(s *Service) { s.file = p } }

// WithClock replaces the wall clock used by the periodic loop.
func WithClock(c clock.Clock) Option { return func(s *Service) { s.clock = c } }

// WithLogger sets the logger used by the periodic loop.
func WithLogger(l *zap.Logger) Option { return func(s *Service) { s.log = l } }

// OnSaved registers a callback run after each successful save.
func OnSaved(fn func(ctx context.Context, id string, r domain.Report)) Option {
	return func(s *Service) { s.onSaved = fn }
}

func New(src Source, store ports.ReportStore, opts ...Option) *Service {
	s := &Service{src: src, store: store, clock: clock.Real{}, log: zap.NewNop()}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Capture renders a report without persisting it.
func (s *Service) Capture() domain.Report {
	return s.src.JSONReport()
}

// Save captures a report and writes it to the store, then to the file when configured.
func (s *Service) Save(ctx context.Context) (string, domain.Report, error) {
	r := s.src.JSONReport()
	id, err := s.store.Save(ctx, r)
	if err != nil {
		return "", r, fmt.Errorf("store report: %w", err)
	}
	if s.file != nil {
		if err := s.file.Save(ctx, r); err != nil {
			return id, r, fmt.Errorf("write report file: %w", err)
		}
	}
	if s.onSaved != nil {
		s.onSaved(ctx, id, r)
	}
	return id, r, nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.Report, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Report{}, domain.ErrNotFound
	}
	return s.store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, limit int) ([]domain.StoredReport, error) {
	return s.store.List(ctx, limit)
}

// Last returns the report most recently written to the file.
func (s *Service) Last(ctx context.Context) (domain.Report, error) {
	if s.file == nil {
		return domain.Report{}, domain.ErrNotConfigured
	}
	return s.file.Load(ctx)
}

// Start saves a report every interval until ctx is done, then saves once more.
// The returned func blocks until the loop has exited. A non-positive interval disables the loop.
func (s *Service) Start(ctx context.Context, interval time.Duration) (wait func()) {
	if interval <= 0 {
		return func() {}
	}
	t := s.clock.NewTicker(interval)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				s.saveLogged(context.WithoutCancel(ctx), "final")
				return
			case <-t.C():
				s.saveLogged(ctx, "periodic")
			}
		}
	}()
	return wg.Wait
}

func (s *Service) saveLogged(ctx context.Context, reason string) {
	id, r, err := s.Save(ctx)
	if err != nil {
		s.log.Warn("report save failed", zap.String("reason", reason), zap.Error(err))
		return
	}
	s.log.Debug("report saved", zap.String("reason", reason), zap.String("id", id), zap.Int("score", r.Score))
}
