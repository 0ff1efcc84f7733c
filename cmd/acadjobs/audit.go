package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/amishk599/acadjobs/internal/ai"
	"github.com/amishk599/acadjobs/internal/audit"
	"github.com/amishk599/acadjobs/internal/config"
	"github.com/amishk599/acadjobs/internal/model"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Browse stored postings interactively (TUI)",
	Long:  "Shows the category picker TUI, then launches the split-pane audit view.",
	RunE:  runAuditCmd,
}

func init() {
	rootCmd.AddCommand(auditCmd)
}

func runAuditCmd(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Audit mode runs a TUI and any log output while the alt screen is up
	// corrupts the display.
	silentLogger := slog.New(slog.DiscardHandler)

	postingStore, err := openStore(context.Background(), cfg, silentLogger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer postingStore.Close()

	llm := setupLLM(cfg, newHTTPClient(), silentLogger)
	summarizer := ai.NewSummarizer(llm, cfg.AI.SummarizeTimeout, silentLogger)
	runAudit(cfg, postingStore, summarizer)
	return nil
}

func runAudit(cfg *config.Config, s model.PostingStore, summarizer model.Summarizer) {
	matcher := newKeywordFilter(cfg)
	active := model.Filter{ActiveOnly: true}

	for {
		groups, err := s.GroupCount(context.Background(), model.GroupByCategory, active, 0)
		if err != nil {
			fmt.Printf("Error counting postings: %v\n", err)
			return
		}
		if len(groups) == 0 {
			fmt.Println("No postings stored yet. Run `acadjobs ingest` first.")
			return
		}

		choice, ok, err := audit.RunCategoryPicker(groups)
		if err != nil {
			fmt.Printf("Picker error: %v\n", err)
			return
		}
		if !ok {
			return
		}

		label := choice
		if choice == audit.AllCategories {
			label = "all"
		}
		postings, err := audit.RunLoader(label, func(ctx context.Context) ([]model.Posting, error) {
			f := active
			f.Category = model.Category(choice)
			return s.Find(ctx, model.Query{Filter: f, Order: model.NewestFirst})
		})
		if errors.Is(err, audit.ErrLoadCancelled) {
			continue
		}
		if err != nil {
			fmt.Printf("Error loading postings: %v\n", err)
			continue
		}

		wantQuit, err := audit.RunAuditTUI(choice, postings, matcher, summarizer)
		if err != nil {
			fmt.Printf("TUI error: %v\n", err)
		}
		if wantQuit {
			return
		}
		// else: loop → back to picker
	}
}
