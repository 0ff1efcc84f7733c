package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/acadjobs/internal/adapter"
	"github.com/amishk599/acadjobs/internal/ai"
	"github.com/amishk599/acadjobs/internal/category"
	"github.com/amishk599/acadjobs/internal/config"
	"github.com/amishk599/acadjobs/internal/enricher"
	"github.com/amishk599/acadjobs/internal/filter"
	"github.com/amishk599/acadjobs/internal/ingest"
	"github.com/amishk599/acadjobs/internal/model"
	"github.com/amishk599/acadjobs/internal/notifier"
	"github.com/amishk599/acadjobs/internal/ratelimit"
	"github.com/amishk599/acadjobs/internal/retry"
	"github.com/amishk599/acadjobs/internal/scheduler"
	"github.com/amishk599/acadjobs/internal/secrets"
	"github.com/amishk599/acadjobs/internal/store"
)

var (
	cfgPath string
	debug   bool
)

// renderTimeout bounds one headless-browser page load.
const renderTimeout = 45 * time.Second

var rootCmd = &cobra.Command{
	Use:   "acadjobs",
	Short: "Academic job aggregator",
	Long:  "acadjobs polls university careers pages, stores new postings, enriches them with summaries and categories, and serves them over a query API.",
	// Default to `start` so that `acadjobs` with no args runs the daemon.
	RunE: runStart,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: ACADJOBS_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > ACADJOBS_CONFIG env var > "./config.yaml"
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if env := os.Getenv("ACADJOBS_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (model.PostingStore, error) {
	switch cfg.Storage.Driver {
	case "postgres":
		s, err := store.NewPostgresStore(ctx, cfg.Storage.DSN)
		if err != nil {
			return nil, err
		}
		logger.Info("using postgres store")
		return s, nil
	default:
		s, err := store.NewSQLiteStore(cfg.Storage.Path)
		if err != nil {
			return nil, err
		}
		logger.Info("using sqlite store", "path", cfg.Storage.Path)
		return s, nil
	}
}

func setupNotifier(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) model.Notifier {
	switch cfg.Notification.Type {
	case "slack":
		logger.Info("using slack notifier")
		return notifier.NewSlackNotifier(cfg.Notification.WebhookURL, httpClient, logger)
	default:
		return notifier.NewLogNotifier(logger)
	}
}

func newKeywordFilter(cfg *config.Config) *filter.KeywordFilter {
	return filter.NewKeywordFilter(filter.Criteria{
		TitleKeywords:        cfg.Filters.TitleKeywords,
		TitleExcludeKeywords: cfg.Filters.TitleExcludeKeywords,
		Locations:            cfg.Filters.Locations,
		ExcludeLocations:     cfg.Filters.ExcludeLocations,
	})
}

// resolveAPIKey returns the configured key, falling back to the OS keychain.
// An empty result means no key is available.
func resolveAPIKey(cfg config.AIConfig, logger *slog.Logger) string {
	if cfg.HasKey() {
		return cfg.APIKey
	}
	key, err := secrets.GetAPIKey(cfg.KeyringAccount)
	if err != nil {
		if !errors.Is(err, secrets.ErrNoSecret) {
			logger.Warn("reading api key from keychain failed", "error", err)
		}
		return ""
	}
	return key
}

// setupLLM returns the LLM capability. Without a usable key every call takes
// the rule-based / extractive fallback path.
func setupLLM(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) *ai.Capability {
	if !cfg.AI.Enabled {
		logger.Info("ai enrichment disabled, using keyword rules and extractive summaries")
		return ai.NewCapability(ai.NewNopProvider(), logger)
	}
	key := resolveAPIKey(cfg.AI, logger)
	if key == "" {
		logger.Warn("no llm api key configured, using keyword rules and extractive summaries")
		return ai.NewCapability(ai.NewNopProvider(), logger)
	}
	logger.Info("llm enrichment enabled", "model", cfg.AI.Model)
	return ai.NewCapability(ai.NewOpenAIProvider(cfg.AI.BaseURL, key, cfg.AI.Model, httpClient), logger)
}

func setupEnricher(cfg *config.Config, s model.PostingStore, llm *ai.Capability, logger *slog.Logger) *enricher.BatchEnricher {
	rules := category.NewRuleClassifier(nil)
	return enricher.NewBatchEnricher(
		s,
		ai.NewSummarizer(llm, cfg.AI.SummarizeTimeout, logger),
		ai.NewClassifier(llm, rules, cfg.AI.ClassifyTimeout, logger),
		ratelimit.NewPacer(cfg.Enrichment.Pace),
		logger,
	)
}

// sourceEndpoint is the URL a source fetches from; its host keys rate limits
// and scheduler groups. Seed files have none and share one group.
func sourceEndpoint(src config.SourceConfig) string {
	switch src.Kind {
	case config.KindGreenhouse:
		if src.URL != "" {
			return src.URL
		}
		return adapter.GreenhouseBaseURL
	case config.KindLever:
		if src.URL != "" {
			return src.URL
		}
		return adapter.LeverBaseURL
	case config.KindSeed:
		return ""
	default:
		return src.URL
	}
}

func createFetcher(src config.SourceConfig, httpClient *http.Client, preFilter model.CandidateFilter) (model.SourceFetcher, error) {
	switch src.Kind {
	case config.KindHTML:
		var loader adapter.PageLoader = adapter.NewHTTPLoader(httpClient)
		if src.Render {
			waitFor := src.RenderWait
			if waitFor == "" {
				waitFor = src.Selectors.Item
			}
			loader = adapter.NewChromeLoader(renderTimeout, waitFor)
		}
		sel := adapter.Selectors{
			Item:        src.Selectors.Item,
			Title:       src.Selectors.Title,
			Link:        src.Selectors.Link,
			Description: src.Selectors.Description,
			Location:    src.Selectors.Location,
			Deadline:    src.Selectors.Deadline,
		}
		return adapter.NewHTMLAdapter(src.URL, src.Organization, src.Location, sel, loader), nil
	case config.KindGreenhouse:
		return adapter.NewGreenhouseAdapter(sourceEndpoint(src), src.BoardToken, src.Organization, src.Location, httpClient), nil
	case config.KindLever:
		return adapter.NewLeverAdapter(sourceEndpoint(src), src.BoardToken, src.Organization, src.Location, httpClient), nil
	case config.KindWorkday:
		return adapter.NewWorkdayAdapter(src.URL, src.Organization, httpClient, preFilter), nil
	case config.KindSeed:
		return adapter.NewSeedAdapter(src.SeedFile, src.Organization, src.Location), nil
	default:
		return nil, fmt.Errorf("unsupported source kind %q", src.Kind)
	}
}

// buildSources wires one poller per enabled source. Every fetch goes through
// the per-host limiter and is retried on transient failures.
func buildSources(cfg *config.Config, dedup *ingest.Deduplicator, n model.Notifier, httpClient *http.Client, logger *slog.Logger) []scheduler.Source {
	logger.Info("scheduler min_delay", "min_delay", cfg.RateLimit.MinDelay.String())

	limiter := ratelimit.NewHostLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	limited := limiter.Client(httpClient)
	pacer := ratelimit.NewPacer(cfg.RateLimit.MinDelay)
	kw := newKeywordFilter(cfg)

	var sources []scheduler.Source
	for _, src := range cfg.EnabledSources() {
		fetcher, err := createFetcher(src, limited, kw)
		if err != nil {
			logger.Warn("skipping source", "source", src.Name, "error", err)
			continue
		}

		host := ratelimit.HostKey(sourceEndpoint(src))
		fetcher = retry.NewRetryFetcher(fetcher, retry.DefaultPolicy, logger)
		fetcher = ratelimit.NewRateLimitedFetcher(fetcher, pacer, host)

		p := ingest.NewSourcePoller(src.Name, fetcher, kw, dedup, n, logger)
		sources = append(sources, scheduler.Source{Name: src.Name, Group: host, Poller: p})
		logger.Info("registered source", "name", src.Name, "kind", src.Kind, "host", host)
	}
	return sources
}

func schedulerOptions(cfg *config.Config) scheduler.Options {
	return scheduler.Options{
		PollInterval:   cfg.PollingInterval,
		MinDelay:       cfg.RateLimit.MinDelay,
		EnrichInterval: cfg.Enrichment.Interval,
		BatchSize:      cfg.Enrichment.BatchSize,
	}
}
