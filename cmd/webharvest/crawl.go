package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/webharvest/webharvest/internal/config"
	"github.com/webharvest/webharvest/internal/crawler"
	"github.com/webharvest/webharvest/internal/database"
	"github.com/webharvest/webharvest/internal/log"
	"github.com/webharvest/webharvest/internal/model"
	"github.com/webharvest/webharvest/internal/report"
	"github.com/webharvest/webharvest/internal/robots"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl <url>",
		Short: "Crawl a website and extract fields from each page",
		Long: `Crawl walks a website breadth-first from the start URL.

Pages are fetched wave by wave up to the worker count, fields are
extracted with the CSS selector map, and discovered links are followed
up to the depth bound. The crawl stays on the start URL's domain unless
--allow-external is given.

Examples:
  # Crawl two levels deep and extract titles
  webharvest crawl --selector title=h1 --depth 2 https://example.com

  # Extract several fields per page
  webharvest crawl -s title=h1 -s "tags=ul.tags li" https://example.com

  # Render script-heavy pages through a headless browser
  webharvest crawl --render https://example.com

  # Write a markdown report to a file
  webharvest crawl -s title=h1 --markdown -o report.md https://example.com

Configuration file (.webharvest) example:
  sites:
    example.com:
      cookie: "session_id=abc123"
      headers:
        Authorization: "Bearer token"
      selectors:
        title: "h1"
        price: "span.price"
      ignorePatterns:
        - "/admin/*"
        - "*.pdf"`,
		Args: cobra.ExactArgs(1),
		RunE: runCrawlCmd,
	}

	// Crawl behavior flags
	cmd.Flags().IntP("depth", "d", config.DefaultMaxDepth,
		"Maximum link-following depth (0 fetches only the start page)")
	cmd.Flags().IntP("workers", "w", config.DefaultMaxWorkers,
		"Number of pages fetched concurrently per wave")
	cmd.Flags().StringToStringP("selector", "s", nil,
		"Field to CSS selector pair to extract (repeatable, e.g. -s title=h1)")
	cmd.Flags().Bool("allow-external", false,
		"Follow links to hosts other than the start URL's")
	cmd.Flags().Bool("render", false,
		"Fetch pages through a headless browser (falls back to plain fetch per URL)")
	cmd.Flags().Bool("robots", false,
		"Respect the site's robots.txt rules")

	// Fetch tuning flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultFetchTimeout,
		"Timeout for each plain HTTP fetch")
	cmd.Flags().Duration("render-timeout", config.DefaultRenderTimeout,
		"Timeout for each rendered fetch")
	cmd.Flags().Duration("settle", config.DefaultSettleDelay,
		"Wait after DOM-ready before snapshotting a rendered page")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent with requests")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .webharvest in current or home directory)")

	// Storage flags
	cmd.Flags().Bool("no-save", false,
		"Do not persist extracted records to the database")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildCrawlConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewLogger(os.Stderr, getVerboseFlag(cmd))
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runCrawl(ctx, cfg, logger)
}

// buildCrawlConfig creates a Config from cobra command flags and the
// optional config file, merging the start host's site configuration.
func buildCrawlConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	seed, err := crawler.Normalize(args[0])
	if err != nil {
		return nil, err
	}
	cfg.StartURL = seed

	if cfg.MaxDepth, err = cmd.Flags().GetInt("depth"); err != nil {
		return nil, err
	}
	if cfg.MaxWorkers, err = cmd.Flags().GetInt("workers"); err != nil {
		return nil, err
	}
	if cfg.Selectors, err = cmd.Flags().GetStringToString("selector"); err != nil {
		return nil, err
	}

	allowExternal, err := cmd.Flags().GetBool("allow-external")
	if err != nil {
		return nil, err
	}
	cfg.RestrictDomain = !allowExternal

	if cfg.UseRenderedFetch, err = cmd.Flags().GetBool("render"); err != nil {
		return nil, err
	}
	if cfg.RespectRobots, err = cmd.Flags().GetBool("robots"); err != nil {
		return nil, err
	}
	if cfg.FetchTimeout, err = cmd.Flags().GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.RenderTimeout, err = cmd.Flags().GetDuration("render-timeout"); err != nil {
		return nil, err
	}
	if cfg.SettleDelay, err = cmd.Flags().GetDuration("settle"); err != nil {
		return nil, err
	}
	if cfg.UserAgent, err = cmd.Flags().GetString("user-agent"); err != nil {
		return nil, err
	}
	if cfg.ConfigFilePath, err = cmd.Flags().GetString("config"); err != nil {
		return nil, err
	}

	// Load site-specific configurations from config file.
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently use empty config if no file found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		cfg.SiteConfigs = &config.File{
			Sites: make(map[string]config.SiteConfig),
		}
	}

	// Site config fills in what the flags left at defaults
	site := cfg.SiteConfig(crawler.Host(seed))
	if len(cfg.Selectors) == 0 && len(site.Selectors) > 0 {
		cfg.Selectors = site.Selectors
	}
	if site.Depth > 0 && !cmd.Flags().Changed("depth") {
		cfg.MaxDepth = site.Depth
	}

	if cfg.JSONReport, err = cmd.Flags().GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = cmd.Flags().GetString("output"); err != nil {
		return nil, err
	}

	noSave, err := cmd.Flags().GetBool("no-save")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noSave
	if cfg.SaveToDB {
		cfg.DBDir = config.XDGDataDir()
	}

	return cfg, nil
}

// runCrawl executes the crawl.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	var sink crawler.Sink
	if cfg.SaveToDB {
		store, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer store.Close()
		sink = store
		logger.Info("database opened", "dir", cfg.DBDir)
	}

	site := cfg.SiteConfig(crawler.Host(cfg.StartURL))

	fetcher, err := buildFetcher(cfg, site, logger)
	if err != nil {
		return fmt.Errorf("failed to create fetcher: %w", err)
	}
	defer func() {
		if err := fetcher.Close(); err != nil {
			logger.Warn("failed to close fetcher", "error", err)
		}
	}()

	opts := []crawler.Option{
		crawler.WithMaxDepth(cfg.MaxDepth),
		crawler.WithMaxWorkers(cfg.MaxWorkers),
		crawler.WithRestrictDomain(cfg.RestrictDomain),
		crawler.WithLogger(logger),
		crawler.WithIgnorePatterns(site.IgnorePatterns),
		crawler.WithFollowPatterns(site.FollowPatterns),
	}
	if sink != nil {
		opts = append(opts, crawler.WithSink(sink))
	}
	if cfg.RespectRobots {
		rules, err := robots.Fetch(ctx, cfg.StartURL, cfg.UserAgent)
		if err != nil {
			return fmt.Errorf("failed to fetch robots.txt: %w", err)
		}
		opts = append(opts, crawler.WithPolicy(rules))
	}

	c := crawler.New(fetcher, opts...)

	fmt.Printf("Crawling %s...\n", cfg.StartURL)
	startTime := time.Now()

	result, err := c.Crawl(ctx, cfg.StartURL, crawler.ParseSelectorMap(cfg.Selectors))
	if err != nil {
		return fmt.Errorf("crawl failed: %w", err)
	}

	elapsed := time.Since(startTime)
	fmt.Printf("Crawl completed in %s\n\n", elapsed.Round(time.Millisecond))

	return outputReport(cfg, model.NewCrawlReport(cfg.StartURL, result))
}

// buildFetcher creates the fetcher the config asks for, applying the
// site's cookie and headers to the plain fetcher.
func buildFetcher(cfg *config.Config, site config.SiteConfig, logger *slog.Logger) (crawler.Fetcher, error) {
	httpOpts := []crawler.HTTPOption{
		crawler.WithTimeout(cfg.FetchTimeout),
		crawler.WithUserAgent(cfg.UserAgent),
		crawler.WithMaxBodySize(cfg.MaxBodySize),
	}
	if len(site.Headers) > 0 {
		httpOpts = append(httpOpts, crawler.WithHeaders(site.Headers))
	}
	if site.Cookie != "" {
		httpOpts = append(httpOpts, crawler.WithCookie(site.Cookie))
	}
	plain := crawler.NewHTTPFetcher(httpOpts...)

	if !cfg.UseRenderedFetch {
		return plain, nil
	}

	return crawler.NewRenderFetcher(
		crawler.WithRenderTimeout(cfg.RenderTimeout),
		crawler.WithSettleDelay(cfg.SettleDelay),
		crawler.WithFallback(plain),
		crawler.WithRenderLogger(logger),
	)
}

// outputReport writes the crawl report in the configured format to
// stdout or the configured file.
func outputReport(cfg *config.Config, crawlReport *model.CrawlReport) error {
	output := os.Stdout
	if cfg.ReportFile != "" {
		if dir := filepath.Dir(cfg.ReportFile); dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create report directory: %w", err)
			}
		}
		f, err := os.Create(cfg.ReportFile)
		if err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}
		defer f.Close()
		output = f
	}

	var writer report.Writer
	switch {
	case cfg.JSONReport:
		writer = report.NewJSONWriter(output, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		writer = report.NewMarkdownWriter(output)
	default:
		writer = report.NewSimpleWriter(output)
	}

	if _, err := writer.Write(crawlReport); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
