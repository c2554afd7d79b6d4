package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"basegraph.app/studiobot/common/id"
	"basegraph.app/studiobot/common/logger"
	"basegraph.app/studiobot/common/otel"
	"basegraph.app/studiobot/core/config"
	"basegraph.app/studiobot/core/db"
	"basegraph.app/studiobot/internal/mapper"
	"basegraph.app/studiobot/internal/queue"
	"basegraph.app/studiobot/internal/service"
	"basegraph.app/studiobot/internal/store"
	"basegraph.app/studiobot/internal/worker"
)

func main() {
	opts, err := parseFlags(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeWorker)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	fmt.Printf("%s\n", banner)
	logger.Setup(cfg)

	slog.InfoContext(ctx, "studiobot worker starting",
		"env", cfg.Env,
		"queue_backend", cfg.Queue.Backend,
		"sweep_schedule", cfg.Schedule.SweepSchedule,
		"timezone", cfg.Schedule.Timezone)

	// Use a different node ID than the server
	if err := id.Init(cfg.ServiceID); err != nil {
		slog.ErrorContext(ctx, "failed to initialize id generator", "error", err)
		os.Exit(1)
	}

	var (
		outcomes store.OutcomeStore
		sweeps   store.SweepStore
	)
	if cfg.DB.Enabled() {
		database, err := db.New(ctx, cfg.DB)
		if err != nil {
			slog.ErrorContext(ctx, "failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer database.Close()
		stores := store.NewStores(database.Querier())
		outcomes, sweeps = stores.Outcomes(), stores.Sweeps()
		slog.InfoContext(ctx, "database connected")
	}

	tasks, err := queue.Open(ctx, cfg.Queue, nil)
	if err != nil {
		slog.ErrorContext(ctx, "failed to open task queue", "error", err)
		os.Exit(1)
	}
	defer tasks.Close()

	services := service.NewServices(cfg, tasks)

	sweeper, err := services.Sweeper(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to build sweeper", "error", err)
		os.Exit(1)
	}

	sweepRunner, err := worker.NewSweepRunner(sweeper, sweeps, worker.SweepConfig{
		Schedule: cfg.Schedule.SweepSchedule,
		Location: cfg.Schedule.Location(),
	}, nil)
	if err != nil {
		slog.ErrorContext(ctx, "failed to schedule sweeper", "error", err)
		os.Exit(1)
	}

	if opts.sweep {
		report, err := sweepRunner.RunOnce(ctx)
		shutdownTelemetry(ctx, telemetry)
		if err != nil {
			slog.ErrorContext(ctx, "sweep failed", "error", err)
			os.Exit(1)
		}
		slog.InfoContext(ctx, "sweep complete",
			"issues_scanned", report.IssuesScanned,
			"corrections", report.Corrections,
			"cards_deleted", report.CardsDeleted,
			"failures", len(report.Failures))
		return
	}

	registry, err := services.Registry(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to build actions", "error", err)
		os.Exit(1)
	}

	scheduler := worker.New(tasks, mapper.NewGitHubEventMapper(), registry, outcomes, worker.Config{
		PollInterval: cfg.Schedule.PollInterval,
	}, nil)

	errCh := make(chan error, 1)
	go func() {
		errCh <- scheduler.Run(ctx)
	}()
	sweepRunner.Start(ctx)

	slog.InfoContext(ctx, "worker initialized and running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-errCh:
		slog.ErrorContext(ctx, "scheduler exited", "error", err)
	}

	slog.InfoContext(ctx, "shutting down worker...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	sweepRunner.Stop(shutdownCtx)

	stopped := make(chan struct{})
	go func() {
		scheduler.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-shutdownCtx.Done():
		slog.WarnContext(ctx, "shutdown timeout exceeded")
	}

	shutdownTelemetry(shutdownCtx, telemetry)
	slog.InfoContext(ctx, "worker shutdown complete")
}

type options struct {
	sweep bool
}

func parseFlags(args []string) (options, error) {
	var opts options
	flagSet := pflag.NewFlagSet("worker", pflag.ContinueOnError)
	flagSet.BoolVar(&opts.sweep, "sweep", false, "run one sweep and exit")
	if err := flagSet.Parse(args); err != nil {
		return options{}, err
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return options{}, fmt.Errorf("unexpected arguments: %v", rest)
	}
	return opts, nil
}

func shutdownTelemetry(ctx context.Context, telemetry *otel.Telemetry) {
	if telemetry == nil {
		return
	}
	if err := telemetry.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "otel shutdown error", "error", err)
	}
}

const banner = `
 ___ _             _ _       ___      _
/ __| |_ _  _ __ _| (_)___  | _ ) ___| |_
\__ \  _| || / _' | | / _ \ | _ \/ _ \  _|
|___/\__|\_,_\__,_|_|_\___/ |___/\___/\__|  worker
`
