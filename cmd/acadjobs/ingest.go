package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amishk599/acadjobs/internal/ingest"
	"github.com/amishk599/acadjobs/internal/model"
	"github.com/amishk599/acadjobs/internal/notifier"
	"github.com/amishk599/acadjobs/internal/scheduler"
	"github.com/amishk599/acadjobs/internal/store"
)

var ingestDryRun bool

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Poll every enabled source once, then exit",
	Long:  "One-shot ingestion cycle. With --dry-run postings go to an in-memory store and are only logged.",
	RunE:  runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestDryRun, "dry-run", false, "use an in-memory store and log matches instead of notifying")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpClient := newHTTPClient()

	var postingStore model.PostingStore
	var n model.Notifier
	if ingestDryRun {
		logger.Info("dry-run mode: nothing will be stored")
		postingStore = store.NewMemoryStore()
		n = notifier.NewLogNotifier(logger)
	} else {
		postingStore, err = openStore(ctx, cfg, logger)
		if err != nil {
			logger.Error("failed to open store", "error", err)
			os.Exit(1)
		}
		n = setupNotifier(cfg, httpClient, logger)
	}
	defer postingStore.Close()

	sources := buildSources(cfg, ingest.NewDeduplicator(postingStore, logger), n, httpClient, logger)
	if len(sources) == 0 {
		logger.Error("no sources to poll")
		os.Exit(1)
	}

	sched := scheduler.NewScheduler(sources, nil, nil, schedulerOptions(cfg), logger)
	res := sched.RunIngestCycle(ctx)

	fmt.Printf("\nSources: %d (%d failed)  Fetched: %d  Matched: %d  Inserted: %d\n",
		res.Sources, res.Failed, res.Fetched, res.Matched, res.Inserted)
	return nil
}
