package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amishk599/acadjobs/internal/enricher"
	"github.com/amishk599/acadjobs/internal/scheduler"
)

var enrichBatchSize int

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Run one enrichment pass, then exit",
	Long:  "Summarizes and classifies up to --batch-size stored postings that have no summary yet, oldest first.",
	RunE:  runEnrich,
}

func init() {
	enrichCmd.Flags().IntVar(&enrichBatchSize, "batch-size", 0, "postings per pass (default: enrichment.batch_size from config)")
	rootCmd.AddCommand(enrichCmd)
}

func runEnrich(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	postingStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer postingStore.Close()

	opts := schedulerOptions(cfg)
	if enrichBatchSize > 0 {
		opts.BatchSize = enrichBatchSize
	}

	llm := setupLLM(cfg, newHTTPClient(), logger)
	sched := scheduler.NewScheduler(nil, setupEnricher(cfg, postingStore, llm, logger),
		enricher.NewPassLock(cfg.Enrichment.LockFile), opts, logger)

	res, err := sched.RunEnrichPass(ctx)
	if errors.Is(err, enricher.ErrPassInProgress) {
		fmt.Println("Another enrichment pass is running; try again later.")
		return nil
	}
	if err != nil {
		logger.Error("enrichment pass failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("\nSelected: %d  Enriched: %d  Failed: %d\n", res.Selected, res.Processed, res.Failed)
	return nil
}
