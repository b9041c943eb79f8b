package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"steam-market-crawler/checkpoint"
	"steam-market-crawler/config"
	"steam-market-crawler/crawler"
	"steam-market-crawler/models"
	"steam-market-crawler/store"
)

// Default filter: normal and foil trading cards across all games.
const defaultQuery = "category_753_item_class[]=tag_item_class_2&" +
	"category_753_cardborder[]=tag_cardborder_0&category_753_cardborder[]=tag_cardborder_1"

func main() {
	_ = godotenv.Load()

	defaultCfg := config.DefaultConfig()
	batchDefault := defaultCfg.BatchSize
	if value, ok, err := config.EnvInt("CRAWLER_BATCH_SIZE"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid CRAWLER_BATCH_SIZE: %v\n", err)
		os.Exit(1)
	} else if ok {
		batchDefault = value
	}
	queryDefault := defaultQuery
	if value, ok := config.EnvString("CRAWLER_QUERY"); ok {
		queryDefault = value
	}
	outputDefault := defaultCfg.OutputFile
	if value, ok := config.EnvString("CRAWLER_OUTPUT"); ok {
		outputDefault = value
	}
	checkpointKeyDefault := defaultCfg.CheckpointKey
	if value, ok := config.EnvString("CRAWLER_CHECKPOINT_KEY"); ok {
		checkpointKeyDefault = value
	}
	metricsDefault := defaultCfg.MetricsAddr
	if value, ok := config.EnvString("CRAWLER_METRICS_ADDR"); ok {
		metricsDefault = value
	}
	pgDefault, _ := config.EnvString("CRAWLER_PG_DSN")
	apiKeyDefault, _ := config.EnvString("STEAM_API_KEY")

	query := flag.String("query", queryDefault, "Market search filter descriptor")
	batchSize := flag.Int("batch", batchDefault, "Items per page request")
	itemType := flag.String("type", defaultCfg.ItemType, "Type label stamped on each record")
	itemSubtype := flag.String("subtype", defaultCfg.ItemSubtype, "Subtype label stamped on each record")
	outputFile := flag.String("output", outputDefault, "Output file path")
	envFile := flag.String("env-file", defaultCfg.CheckpointFile, "Env file holding the crawl checkpoint")
	checkpointKey := flag.String("checkpoint-key", checkpointKeyDefault, "Env key storing the last crawled page")
	delayMinSec := flag.Int("delay-min", int(defaultCfg.DelayMin/time.Second), "Minimum wait before each request (seconds)")
	delayMaxSec := flag.Int("delay-max", int(defaultCfg.DelayMax/time.Second), "Maximum wait before each request (seconds)")
	timeoutSec := flag.Int("timeout", int(defaultCfg.Timeout/time.Second), "Request timeout (seconds)")
	metricsAddr := flag.String("metrics-addr", metricsDefault, "Prometheus metrics listen address (e.g. :9090)")
	pgDSN := flag.String("pg-dsn", pgDefault, "Optional Postgres DSN mirroring the collection")
	verbose := flag.Bool("v", false, "Enable verbose logging")

	flag.Parse()

	logger, level := newLogger(*verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	cfg := defaultCfg
	cfg.Query = *query
	cfg.BatchSize = *batchSize
	cfg.ItemType = *itemType
	cfg.ItemSubtype = *itemSubtype
	cfg.OutputFile = *outputFile
	cfg.CheckpointFile = *envFile
	cfg.CheckpointKey = *checkpointKey
	cfg.DelayMin = time.Duration(*delayMinSec) * time.Second
	cfg.DelayMax = time.Duration(*delayMaxSec) * time.Second
	cfg.Timeout = time.Duration(*timeoutSec) * time.Second
	cfg.MetricsAddr = *metricsAddr
	cfg.PostgresDSN = *pgDSN
	cfg.APIKey = apiKeyDefault
	cfg.Verbose = *verbose

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}
	if cfg.APIKey == "" {
		slog.Warn("no API key configured; public market data needs none, continuing")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := crawler.NewClient(cfg)
	if err != nil {
		slog.Error("initialising client", slog.Any("error", err))
		os.Exit(1)
	}

	fileStore := store.NewFileStore(cfg.OutputFile)
	var sink store.Sink = fileStore
	if cfg.PostgresDSN != "" {
		pg, err := store.NewPostgresSink(ctx, cfg.PostgresDSN)
		if err != nil {
			slog.Error("initialising postgres sink", slog.Any("error", err))
			os.Exit(1)
		}
		defer pg.Close()
		sink = store.NewDualSink(fileStore, pg)
		slog.Info("postgres mirror enabled")
	}

	cp := checkpoint.New(cfg.CheckpointFile, cfg.CheckpointKey)

	c, err := crawler.New(cfg, client, sink, cp)
	if err != nil {
		slog.Error("initialising crawler", slog.Any("error", err))
		os.Exit(1)
	}

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(c.Metrics.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
	}

	startTime := time.Now()
	result, err := c.Run(ctx)
	if err != nil {
		slog.Error("crawl failed", slog.Any("error", err))
		os.Exit(1)
	}

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}

	printSummary(result, time.Since(startTime), cfg.OutputFile)
}

func printSummary(result *models.CrawlResult, duration time.Duration, outputFile string) {
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	if result.Interrupted {
		fmt.Println("Crawl interrupted")
	} else {
		fmt.Println("Crawl complete")
	}

	fmt.Printf("  Total items:   %d\n", result.TotalCount)
	fmt.Printf("  Total pages:   %d\n", result.TotalPages)
	fmt.Printf("  Processed:     %d\n", len(result.Pages))
	fmt.Printf("  Skipped:       %d\n", result.PagesSkipped())
	for _, page := range result.Pages {
		if page.Status == models.PageSkipped {
			fmt.Printf("    page %d: %s\n", page.Page, page.Reason)
		}
	}
	fmt.Printf("  Records added: %d\n", result.RecordsAdded)
	fmt.Printf("  Records total: %d\n", result.StoreTotal)
	fmt.Printf("  Duration:      %v\n", duration)
	fmt.Printf("  Output file:   %s\n", outputFile)
	fmt.Println(separator)
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
