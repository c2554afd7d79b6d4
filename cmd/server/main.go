package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"basegraph.app/studiobot/common/id"
	"basegraph.app/studiobot/common/logger"
	"basegraph.app/studiobot/common/otel"
	"basegraph.app/studiobot/core/config"
	"basegraph.app/studiobot/core/db"
	"basegraph.app/studiobot/internal/http/middleware"
	httprouter "basegraph.app/studiobot/internal/http/router"
	"basegraph.app/studiobot/internal/mapper"
	"basegraph.app/studiobot/internal/queue"
	"basegraph.app/studiobot/internal/service"
	"basegraph.app/studiobot/internal/store"
	"basegraph.app/studiobot/internal/worker"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeServer)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// OTel must init before logger (logger uses OTel provider in production)
	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if telemetry != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.InfoContext(ctx, "otel disabled (no endpoint configured)")
	}

	slog.InfoContext(ctx, "studiobot server starting", "env", cfg.Env, "queue_backend", cfg.Queue.Backend)
	if err := id.Init(cfg.ServiceID); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
		os.Exit(1)
	}

	var outcomes store.OutcomeStore
	if cfg.DB.Enabled() {
		database, err := db.New(ctx, cfg.DB)
		if err != nil {
			slog.ErrorContext(ctx, "failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer database.Close()
		outcomes = store.NewStores(database.Querier()).Outcomes()
		slog.InfoContext(ctx, "database connected")
	}

	tasks, err := queue.Open(ctx, cfg.Queue, nil)
	if err != nil {
		slog.ErrorContext(ctx, "failed to open task queue", "error", err)
		os.Exit(1)
	}
	defer tasks.Close()

	services := service.NewServices(cfg, tasks)

	// Single binary mode: nothing else drains an in-process queue.
	var scheduler *worker.Scheduler
	if cfg.Queue.InProcess() {
		registry, err := services.Registry(ctx)
		if err != nil {
			slog.ErrorContext(ctx, "failed to build actions", "error", err)
			os.Exit(1)
		}
		scheduler = worker.New(tasks, mapper.NewGitHubEventMapper(), registry, outcomes, worker.Config{
			PollInterval: cfg.Schedule.PollInterval,
		}, nil)
		go func() {
			if err := scheduler.Run(ctx); err != nil {
				slog.ErrorContext(ctx, "scheduler error", "error", err)
			}
		}()
		slog.WarnContext(ctx, "running actions in-process; pending tasks are lost on restart")
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := setupRouter(cfg, services, outcomes)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}

	if scheduler != nil {
		scheduler.Stop()
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

func setupRouter(cfg config.Config, services *service.Services, outcomes store.OutcomeStore) *gin.Engine {
	router := gin.New()

	// Order matters: OTel creates span → Recovery catches panics → Logger logs with trace context
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(middleware.Delivery())
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())

	httprouter.SetupRoutes(router, services, httprouter.RouterConfig{
		WebhookSecret: cfg.GitHub.WebhookSecret,
		Outcomes:      outcomes,
	})

	return router
}

const banner = `
 ___ _             _ _       ___      _
/ __| |_ _  _ __ _| (_)___  | _ ) ___| |_
\__ \  _| || / _' | | / _ \ | _ \/ _ \  _|
|___/\__|\_,_\__,_|_|_\___/ |___/\___/\__|  server
`
