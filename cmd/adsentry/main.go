// adsentry is a marketing campaign monitoring service that collects
// advertising metrics, derives performance indicators, generates
// insight reports and pushes threshold alerts to notification channels.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adsentry-team/adsentry/internal/adcopy"
	"github.com/adsentry-team/adsentry/internal/alerting"
	"github.com/adsentry-team/adsentry/internal/collector"
	"github.com/adsentry-team/adsentry/internal/config"
	"github.com/adsentry-team/adsentry/internal/engine"
	"github.com/adsentry-team/adsentry/internal/insight"
	"github.com/adsentry-team/adsentry/internal/notifier"
	"github.com/adsentry-team/adsentry/internal/report"
	"github.com/adsentry-team/adsentry/internal/scheduler"
	"github.com/adsentry-team/adsentry/internal/server"
	"github.com/adsentry-team/adsentry/internal/store"
	"github.com/adsentry-team/adsentry/internal/usage"
)

var (
	// Version information (set at build time via -ldflags)
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	runOnce := flag.Bool("once", false, "Run one collection cycle and exit")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("adsentry %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	log.Printf("adsentry %s starting...", version)

	// Initialize metrics store
	db, err := store.New(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize metrics store: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := db.Ping(ctx); err != nil {
		cancel()
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := db.InitSchema(ctx); err != nil {
		cancel()
		log.Fatalf("Failed to initialize schema: %v", err)
	}
	cancel()
	log.Println("Database connection established")

	// Initialize components
	coll := collector.New(&cfg.Collector)
	if coll.UsingMock() {
		log.Println("No platform credentials found, using mock data")
	}

	evaluator := alerting.New(&cfg.Thresholds)
	optimizer := engine.New(&cfg.Optimizer, db)
	tracker := usage.New(cfg.Usage.RPMLimit, cfg.Usage.LogPath)

	agent, err := insight.New(context.Background(), &cfg.Insight, tracker)
	if err != nil {
		log.Fatalf("Failed to initialize insight agent: %v", err)
	}
	if agent.UsingModel() {
		log.Printf("Insight agent using model %s", cfg.Insight.Model)
	} else {
		log.Println("No model API key found, insights use template fallback")
	}

	reports, err := report.New(cfg.Reports.OutputDir)
	if err != nil {
		log.Fatalf("Failed to initialize report generator: %v", err)
	}

	// Initialize notifier
	var notify notifier.Notifier
	switch cfg.Notifier.Type {
	case "slack":
		notify, err = notifier.NewSlackNotifier(&cfg.Notifier)
		if err != nil {
			log.Fatalf("Failed to initialize Slack notifier: %v", err)
		}
	case "console":
		notify = notifier.NewConsoleNotifier()
	default:
		log.Fatalf("Unknown notifier type: %s", cfg.Notifier.Type)
	}
	log.Printf("Notifier initialized: %s", notify.Name())

	lookback, err := cfg.Collector.LookbackParsed()
	if err != nil {
		log.Fatalf("Invalid lookback: %v", err)
	}

	pipeline := scheduler.PipelineFunc(func(ctx context.Context) error {
		metrics, err := coll.CollectAll(ctx)
		if err != nil {
			return fmt.Errorf("collecting metrics: %w", err)
		}

		stored, err := db.InsertMetrics(ctx, metrics)
		if err != nil {
			return fmt.Errorf("storing metrics: %w", err)
		}
		log.Printf("Collected %d campaigns, stored %d rows", len(metrics), stored)

		alerts := evaluator.Evaluate(metrics)
		fresh := evaluator.Fresh(alerts)
		if len(fresh) == 0 {
			return nil
		}

		if err := notify.Send(ctx, fresh); err != nil {
			return fmt.Errorf("sending alerts: %w", err)
		}
		log.Printf("Sent %d alerts via %s", len(fresh), notify.Name())
		return nil
	})

	// Run-once mode
	if *runOnce {
		log.Println("Running single collection cycle (--once mode)")

		runCtx, runCancel := context.WithTimeout(context.Background(), scheduler.DefaultRunTimeout)
		defer runCancel()

		if err := pipeline.Run(runCtx); err != nil {
			if runCtx.Err() == context.DeadlineExceeded {
				log.Fatalf("Collection timed out after %v", scheduler.DefaultRunTimeout)
			}
			log.Fatalf("Collection failed: %v", err)
		}

		log.Println("Collection complete, exiting")
		return
	}

	// Initialize API server
	apiServer := server.New(&cfg.Server, server.Deps{
		Collector: coll,
		Store:     db,
		Alerting:  evaluator,
		Optimizer: optimizer,
		Insight:   agent,
		Notifier:  notify,
		Usage:     tracker,
		Reports:   reports,
		AdCopy:    adcopy.New(),
		Lookback:  lookback,
	})
	if err := apiServer.Start(); err != nil {
		log.Fatalf("Failed to start API server: %v", err)
	}

	// Optional scheduled collection (cron interpreted in configured timezone;
	// Location set by config.Validate)
	var sched *scheduler.Scheduler
	if cfg.Schedule.Enabled {
		sched = scheduler.New(pipeline, cfg.Schedule.Location)
		if err := sched.Schedule(cfg.Schedule.Cron); err != nil {
			log.Fatalf("Failed to schedule job: %v", err)
		}
		sched.Start()
		log.Printf("Scheduler started with cron: %s (timezone: %s)", cfg.Schedule.Cron, cfg.Schedule.Timezone)
	}

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Printf("Received signal %v, shutting down...", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if sched != nil {
		schedCtx := sched.Stop()
		select {
		case <-schedCtx.Done():
		case <-shutdownCtx.Done():
		}
	}

	if err := apiServer.Stop(shutdownCtx); err != nil {
		log.Printf("Error stopping API server: %v", err)
	}

	if err := tracker.Persist(); err != nil {
		log.Printf("Error persisting usage stats: %v", err)
	}

	log.Println("Shutdown complete")
}
