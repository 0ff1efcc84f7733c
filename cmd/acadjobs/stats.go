package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amishk599/acadjobs/internal/model"
)

const statsTopN = 5

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print posting totals and top categories/universities",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	postingStore, err := openStore(context.Background(), cfg, slog.New(slog.DiscardHandler))
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer postingStore.Close()

	if err := printStats(context.Background(), os.Stdout, postingStore, cfg.Server.DefaultLocation); err != nil {
		logger.Error("failed to compute stats", "error", err)
		os.Exit(1)
	}
	return nil
}

func printStats(ctx context.Context, w io.Writer, s model.PostingStore, location string) error {
	active := model.Filter{ActiveOnly: true}
	local := model.Filter{ActiveOnly: true, LocationLike: location}

	total, err := s.Count(ctx, active)
	if err != nil {
		return fmt.Errorf("counting postings: %w", err)
	}
	inLocation, err := s.Count(ctx, local)
	if err != nil {
		return fmt.Errorf("counting postings in %s: %w", location, err)
	}
	pending, err := s.Count(ctx, model.Filter{ActiveOnly: true, MissingSummary: true})
	if err != nil {
		return fmt.Errorf("counting unenriched postings: %w", err)
	}
	categories, err := s.GroupCount(ctx, model.GroupByCategory, active, statsTopN)
	if err != nil {
		return fmt.Errorf("grouping by category: %w", err)
	}
	orgs, err := s.GroupCount(ctx, model.GroupByOrganization, local, statsTopN)
	if err != nil {
		return fmt.Errorf("grouping by university: %w", err)
	}

	fmt.Fprintf(w, "Active postings:      %d\n", total)
	fmt.Fprintf(w, "In %-18s %d\n", location+":", inLocation)
	fmt.Fprintf(w, "Awaiting enrichment:  %d\n", pending)

	printGroups(w, "Top categories", categories)
	printGroups(w, "Top universities in "+location, orgs)
	return nil
}

func printGroups(w io.Writer, title string, groups []model.GroupCount) {
	fmt.Fprintf(w, "\n%s\n%s\n", title, strings.Repeat("─", len(title)))
	if len(groups) == 0 {
		fmt.Fprintln(w, "  (none)")
		return
	}
	for _, g := range groups {
		fmt.Fprintf(w, "  %-45s %d\n", g.Key, g.Count)
	}
}
