package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amishk599/acadjobs/internal/config"
	"github.com/amishk599/acadjobs/internal/httpapi"
	"github.com/amishk599/acadjobs/internal/ingest"
	"github.com/amishk599/acadjobs/internal/model"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the query API only",
	Long:  "Starts the HTTP query API over the configured store without polling sources.",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func newAPIServer(cfg *config.Config, s model.PostingStore, dedup *ingest.Deduplicator, logger *slog.Logger) *httpapi.Server {
	var infos []httpapi.SourceInfo
	for _, src := range cfg.EnabledSources() {
		infos = append(infos, httpapi.SourceInfo{
			Name:         src.Name,
			Organization: src.Organization,
			Kind:         src.Kind,
			URL:          src.URL,
			Location:     src.Location,
		})
	}
	return httpapi.NewServer(s, dedup, infos, httpapi.Options{
		DefaultLocation: cfg.Server.DefaultLocation,
		DefaultLimit:    cfg.Server.DefaultLimit,
		MaxLimit:        config.MaxLimit,
	}, logger)
}

func runServe(cmd *cobra.Command, args []string) error {
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

	srv := newAPIServer(cfg, postingStore, ingest.NewDeduplicator(postingStore, logger), logger)

	go func() {
		<-ctx.Done()
		if err := srv.Shutdown(); err != nil {
			logger.Error("api shutdown failed", "error", err)
		}
	}()

	logger.Info("query api listening", "addr", cfg.Server.Addr)
	if err := srv.Listen(cfg.Server.Addr); err != nil {
		logger.Error("api server error", "error", err)
		os.Exit(1)
	}

	logger.Info("goodbye")
	return nil
}
