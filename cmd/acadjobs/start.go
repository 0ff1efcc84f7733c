package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/amishk599/acadjobs/internal/enricher"
	"github.com/amishk599/acadjobs/internal/ingest"
	"github.com/amishk599/acadjobs/internal/scheduler"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the ingestion/enrichment daemon and the query API",
	Long:  "Runs the ingest and enrichment loops alongside the HTTP query API; blocks until SIGINT/SIGTERM.",
	RunE:  runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("config loaded",
		"interval", cfg.PollingInterval.String(),
		"sources", len(cfg.EnabledSources()),
		"title_keywords", len(cfg.Filters.TitleKeywords),
		"locations", len(cfg.Filters.Locations),
		"enrich_interval", cfg.Enrichment.Interval.String(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	postingStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer postingStore.Close()

	httpClient := newHTTPClient()
	dedup := ingest.NewDeduplicator(postingStore, logger)
	n := setupNotifier(cfg, httpClient, logger)
	llm := setupLLM(cfg, httpClient, logger)

	sources := buildSources(cfg, dedup, n, httpClient, logger)
	if len(sources) == 0 {
		logger.Warn("no sources to poll, only enrichment and the api will run")
	}

	sched := scheduler.NewScheduler(
		sources,
		setupEnricher(cfg, postingStore, llm, logger),
		enricher.NewPassLock(cfg.Enrichment.LockFile),
		schedulerOptions(cfg),
		logger,
	)
	srv := newAPIServer(cfg, postingStore, dedup, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sched.Run(gctx)
	})
	g.Go(func() error {
		logger.Info("query api listening", "addr", cfg.Server.Addr)
		return srv.Listen(cfg.Server.Addr)
	})
	g.Go(func() error {
		<-gctx.Done()
		return srv.Shutdown()
	})

	if err := g.Wait(); err != nil {
		logger.Error("daemon error", "error", err)
		os.Exit(1)
	}

	logger.Info("goodbye")
	return nil
}
