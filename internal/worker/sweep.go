package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"basegraph.app/studiobot/common/logger"
	"basegraph.app/studiobot/internal/service"
	"basegraph.app/studiobot/internal/store"
)

type SweepConfig struct {
	// Schedule is a six field cron expression (seconds first).
	Schedule string
	Location *time.Location
}

// SweepRunner runs the sweeper on its cron schedule. Overlapping runs are skipped.
type SweepRunner struct {
	sweeper service.SweeperService
	reports store.SweepStore
	cron    *cron.Cron
	logger  *slog.Logger

	mu      sync.Mutex
	baseCtx context.Context
}

// NewSweepRunner parses the schedule up front. reports may be nil.
func NewSweepRunner(sweeper service.SweeperService, reports store.SweepStore, cfg SweepConfig, logger *slog.Logger) (*SweepRunner, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	cronLog := cronLogger{logger: logger}
	r := &SweepRunner{
		sweeper: sweeper,
		reports: reports,
		logger:  logger,
		baseCtx: context.Background(),
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(cfg.Location),
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
	}

	if _, err := r.cron.AddFunc(cfg.Schedule, r.scheduled); err != nil {
		return nil, fmt.Errorf("parsing sweep schedule %q: %w", cfg.Schedule, err)
	}
	return r, nil
}

// Start begins the cron loop. Scheduled sweeps run with ctx's values.
func (r *SweepRunner) Start(ctx context.Context) {
	r.mu.Lock()
	r.baseCtx = context.WithoutCancel(ctx)
	r.mu.Unlock()

	r.cron.Start()
	for _, entry := range r.cron.Entries() {
		r.logger.InfoContext(ctx, "sweep scheduled", "next", entry.Next)
	}
}

// Stop stops scheduling and waits for a running sweep, bounded by ctx.
func (r *SweepRunner) Stop(ctx context.Context) {
	done := r.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		r.logger.WarnContext(ctx, "sweep still running at shutdown")
	}
}

func (r *SweepRunner) scheduled() {
	r.mu.Lock()
	ctx := r.baseCtx
	r.mu.Unlock()

	if _, err := r.RunOnce(ctx); err != nil {
		r.logger.ErrorContext(ctx, "scheduled sweep failed", "error", err)
	}
}

// RunOnce sweeps immediately and stores the report when a store is configured.
func (r *SweepRunner) RunOnce(ctx context.Context) (*service.SweepReport, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "studiobot.worker.sweeper",
	})

	sp := logger.StartSpan(ctx, "worker.sweep", trace.WithSpanKind(trace.SpanKindInternal))
	defer sp.End()
	ctx = sp.Context()

	report, err := r.sweeper.Sweep(ctx)
	if report != nil {
		sp.SetAttributes(
			attribute.Int("studiobot.sweep.issues_scanned", report.IssuesScanned),
			attribute.Int("studiobot.sweep.corrections", report.Corrections),
			attribute.Int("studiobot.sweep.cards_deleted", report.CardsDeleted),
			attribute.Int("studiobot.sweep.failures", len(report.Failures)),
		)
		r.save(ctx, report)
	}
	if err != nil {
		sp.Fail(err)
		return report, fmt.Errorf("sweeping: %w", err)
	}
	return report, nil
}

func (r *SweepRunner) save(ctx context.Context, report *service.SweepReport) {
	if r.reports == nil {
		return
	}
	id, err := r.reports.Save(ctx, report)
	if err != nil {
		r.logger.ErrorContext(ctx, "saving sweep report failed", "error", err)
		return
	}
	r.logger.DebugContext(ctx, "sweep report saved", "sweep_id", id)
}

// cronLogger routes cron's own logging through slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append([]any{"error", err}, keysAndValues...)...)
}
