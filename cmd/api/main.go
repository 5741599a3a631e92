package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/veriscan/veriscan/internal/api"
	"github.com/veriscan/veriscan/internal/api/debug"
	"github.com/veriscan/veriscan/internal/app/dispatch"
	"github.com/veriscan/veriscan/internal/config"
	"github.com/veriscan/veriscan/internal/infra/adapters"
	"github.com/veriscan/veriscan/internal/infra/spool"
	"github.com/veriscan/veriscan/internal/infra/storage/memory"
	"github.com/veriscan/veriscan/internal/infra/storage/postgres"
	"github.com/veriscan/veriscan/pkg/common/logger"
	"github.com/veriscan/veriscan/pkg/common/otel"
)

var build = "develop"

const serviceType = "scan-api"

func main() {
	// Set the correct number of threads for the service.
	_, _ = maxprocs.Set()

	hostname, err := os.Hostname()
	if err != nil {
		log.Fatalf("failed to get hostname: %v", err)
	}

	cfg, err := config.Load(os.Getenv("VERISCAN_CONFIG"))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logEvents := logger.Events{
		Error: func(ctx context.Context, r logger.Record) {
			errorAttrs := map[string]any{
				"error_message": r.Message,
				"error_time":    r.Time.UTC().Format(time.RFC3339),
				"trace_id":      otel.GetTraceID(ctx),
			}
			for k, v := range r.Attributes {
				errorAttrs[k] = v
			}

			errorAttrsJSON, err := json.Marshal(errorAttrs)
			if err != nil {
				fmt.Fprintf(os.Stderr, "failed to marshal error attributes: %v\n", err)
				return
			}

			fmt.Fprintf(os.Stderr, "Error event: %s, details: %s\n", r.Message, errorAttrsJSON)
		},
	}

	traceIDFn := func(ctx context.Context) string {
		return otel.GetTraceID(ctx)
	}

	svcName := fmt.Sprintf("SCAN-API-%s", hostname)
	metadata := map[string]string{
		"service":  svcName,
		"hostname": hostname,
		"app":      serviceType,
		"build":    build,
	}

	logg := logger.NewWithMetadata(os.Stdout, logger.ParseLevel(cfg.Log.Level), svcName, traceIDFn, logEvents, metadata)

	ctx := context.Background()

	if err := run(ctx, logg, cfg, hostname); err != nil {
		logg.Error(ctx, "startup", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, log *logger.Logger, cfg *config.Config, hostname string) error {
	// -------------------------------------------------------------------------
	// GOMAXPROCS
	log.Info(ctx, "startup", "GOMAXPROCS", runtime.GOMAXPROCS(0))

	// -------------------------------------------------------------------------
	// Start Tracing Support
	var tracer trace.Tracer
	teardownTracing := func(context.Context) {}

	if cfg.Otel.Enabled {
		log.Info(ctx, "startup", "status", "initializing tracing support")

		traceProvider, teardown, err := otel.InitTelemetry(log, otel.Config{
			ServiceName:      serviceType,
			ExporterEndpoint: cfg.Otel.Endpoint,
			ExcludedRoutes: map[string]struct{}{
				"/api/v1/health":    {},
				"/api/v1/readiness": {},
				"/debug":            {},
			},
			Probability: cfg.Otel.Probability,
			ResourceAttributes: map[string]string{
				"library.language": "go",
				"hostname":         hostname,
			},
			InsecureExporter: cfg.Otel.Insecure,
		})
		if err != nil {
			return fmt.Errorf("starting tracing: %w", err)
		}
		teardownTracing = teardown
		tracer = traceProvider.Tracer(serviceType)
	} else {
		tracer = noop.NewTracerProvider().Tracer(serviceType)
	}
	defer teardownTracing(ctx)

	// -------------------------------------------------------------------------
	// Initialize Store and Spool
	log.Info(ctx, "startup", "status", "initializing store", "org", cfg.Org.Name, "max_runs", cfg.Org.MaxRuns)

	store := memory.NewStore(memory.OrgSeed{
		Name:    cfg.Org.Name,
		Plan:    cfg.Org.Plan,
		MaxRuns: cfg.Org.MaxRuns,
	})

	sp, err := spool.New(cfg.Spool.Dir, tracer)
	if err != nil {
		return fmt.Errorf("creating spool: %w", err)
	}

	// -------------------------------------------------------------------------
	// Optional Run Archive
	var archiver dispatch.Archiver

	if cfg.Archive.Enabled {
		log.Info(ctx, "startup", "status", "connecting run archive")

		pool, err := postgres.ConnectWithRetry(ctx, cfg.Archive.DSN, log)
		if err != nil {
			return fmt.Errorf("connecting archive: %w", err)
		}
		defer pool.Close()

		archiver = postgres.NewArchiveStore(pool, tracer)
	}

	// -------------------------------------------------------------------------
	// Start Worker Pool
	log.Info(ctx, "startup", "status", "starting dispatcher", "workers", cfg.Dispatcher.Workers)

	dispatcher := dispatch.NewDispatcher(dispatch.Config{
		Workers:       cfg.Dispatcher.Workers,
		QueueCapacity: cfg.Dispatcher.QueueCapacity,
		ScanDuration:  cfg.Dispatcher.ScanDuration,
	}, store, sp, adapters.DefaultRegistry(), archiver, log, tracer)

	dispatcher.Start(ctx)

	// -------------------------------------------------------------------------
	// Start Debug Service
	go func() {
		log.Info(ctx, "startup", "status", "debug router started", "host", cfg.Web.DebugHost)

		if err := http.ListenAndServe(cfg.Web.DebugHost, debug.Mux()); err != nil {
			log.Error(ctx, "shutdown", "status", "debug router closed", "host", cfg.Web.DebugHost, "msg", err)
		}
	}()

	// -------------------------------------------------------------------------
	// Start API Service
	log.Info(ctx, "startup", "status", "initializing API support")

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	server := api.NewServer(log, store, sp, dispatcher, tracer)

	apiAddr := fmt.Sprintf("%s:%s", cfg.Web.Host, cfg.Web.Port)
	apiSrv := http.Server{
		Addr:         apiAddr,
		Handler:      server.Handler(),
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     logger.NewStdLogger(log, logger.LevelError),
	}

	serverErrors := make(chan error, 1)

	go func() {
		log.Info(ctx, "startup", "status", "api router started", "host", apiSrv.Addr)
		serverErrors <- apiSrv.ListenAndServe()
	}()

	// -------------------------------------------------------------------------
	// Shutdown

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Info(ctx, "shutdown", "status", "shutdown started", "signal", sig)
		defer log.Info(ctx, "shutdown", "status", "shutdown complete", "signal", sig)

		shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Web.ShutdownTimeout)
		defer cancel()

		if err := apiSrv.Shutdown(shutdownCtx); err != nil {
			_ = apiSrv.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}

		dispatcher.Stop(shutdownCtx)
	}

	return nil
}
