package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wodarchive/wodcrawler/internal/api"
	"github.com/wodarchive/wodcrawler/internal/archive"
	"github.com/wodarchive/wodcrawler/internal/clock/system"
	"github.com/wodarchive/wodcrawler/internal/config"
	"github.com/wodarchive/wodcrawler/internal/extract"
	"github.com/wodarchive/wodcrawler/internal/fetcher"
	collyfetcher "github.com/wodarchive/wodcrawler/internal/fetcher/colly"
	"github.com/wodarchive/wodcrawler/internal/logging"
	"github.com/wodarchive/wodcrawler/internal/progress"
	"github.com/wodarchive/wodcrawler/internal/progress/sinks"
	"github.com/wodarchive/wodcrawler/internal/scraper"
	"github.com/wodarchive/wodcrawler/internal/wod"
)

type scrapeFlags struct {
	startDate string
	endDate   string
	maxCount  int
	outputDir string
	delay     int
}

// newScrapeCmd creates the 'scrape' subcommand, which runs one crawl
// session from the start date backward.
func newScrapeCmd() *cobra.Command {
	flags := &scrapeFlags{}
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Walk the archive backward and persist one JSON record per day",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScrape(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.startDate, "start-date", "", "YYMMDD date to start from (default today)")
	cmd.Flags().StringVar(&flags.endDate, "end-date", "", "YYMMDD date to stop before (exclusive bound)")
	cmd.Flags().IntVar(&flags.maxCount, "max-count", -1, "maximum records to persist, 0 for unbounded")
	cmd.Flags().StringVar(&flags.outputDir, "output-dir", "", "directory for record and index files")
	cmd.Flags().IntVar(&flags.delay, "delay", -1, "seconds between requests")
	return cmd
}

func runScrape(ctx context.Context, flags *scrapeFlags) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	applyFlags(&cfg, flags)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return fmt.Errorf("logger init failed: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()
	zap.ReplaceGlobals(logger)

	clk := system.Clock{}
	startDate := flags.startDate
	if startDate == "" {
		startDate = wod.FormatDateCode(clk.Now())
	}
	if _, ok := wod.ParseDateCode(startDate); !ok {
		return fmt.Errorf("invalid start date %q, want YYMMDD", startDate)
	}
	start := startURL(cfg.Site.BaseURL, startDate)

	store, err := archive.New(cfg.Crawl.OutputDir, logger)
	if err != nil {
		return fmt.Errorf("init archive: %w", err)
	}
	extractor, err := extract.New(cfg.Site.BaseURL, logger)
	if err != nil {
		return fmt.Errorf("init extractor: %w", err)
	}

	inner := collyfetcher.New(collyfetcher.Config{
		UserAgent: cfg.Site.UserAgent,
		Timeout:   cfg.Timeout(),
	})
	retrying := fetcher.NewRetrying(inner, fetcher.NewBackoffPolicy(cfg.HTTP.MaxRetries, cfg.Delay()), logger)

	progressSinks := []progress.Sink{sinks.NewLogSink(logger)}
	registry := prometheus.NewRegistry()
	if cfg.Metrics.Enabled {
		promSink, err := sinks.NewPrometheusSink(registry)
		if err != nil {
			return fmt.Errorf("init metrics sink: %w", err)
		}
		progressSinks = append(progressSinks, promSink)
	}
	hub := progress.NewHub(logger, progressSinks...)
	defer func() {
		_ = hub.Close(context.Background())
	}()

	s, err := scraper.New(scraper.Config{
		BaseURL:  cfg.Site.BaseURL,
		StartURL: start,
		EndDate:  cfg.Crawl.EndDate,
		MaxCount: cfg.Crawl.MaxCount,
		Delay:    cfg.Delay(),
	}, retrying, extractor, store, clk, hub, logger)
	if err != nil {
		return fmt.Errorf("init scraper: %w", err)
	}

	if cfg.Metrics.Enabled {
		srv := api.NewServer(registry, logger)
		go func() {
			if serveErr := srv.Serve(ctx, cfg.Metrics.Addr); serveErr != nil {
				logger.Warn("metrics listener stopped", zap.Error(serveErr))
			}
		}()
	}

	stats, err := s.Run(ctx)
	logger.Info("session summary",
		zap.Int("total_scraped", stats.TotalScraped),
		zap.Int("errors", stats.Errors),
	)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("scrape: %w", err)
	}
	return err
}

// startURL builds the first page URL. Daily pages hang directly off the
// origin root as /<YYMMDD>.
func startURL(base, dateCode string) string {
	return strings.TrimRight(base, "/") + "/" + dateCode
}

// applyFlags lets command-line flags override the file/env configuration.
func applyFlags(cfg *config.Config, flags *scrapeFlags) {
	if flags.endDate != "" {
		cfg.Crawl.EndDate = flags.endDate
	}
	if flags.maxCount >= 0 {
		cfg.Crawl.MaxCount = flags.maxCount
	}
	if flags.outputDir != "" {
		cfg.Crawl.OutputDir = flags.outputDir
	}
	if flags.delay >= 0 {
		cfg.Crawl.DelaySeconds = flags.delay
	}
}
