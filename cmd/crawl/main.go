package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"solscan-harvester/internal/browser"
	"solscan-harvester/internal/checkpoint"
	"solscan-harvester/internal/crawler"
	"solscan-harvester/internal/observability"
	"solscan-harvester/internal/ratelimit"
	"solscan-harvester/internal/storage/migrations"
	pgstore "solscan-harvester/internal/storage/postgres"
)

func main() {
	// .env is optional; real env vars win either way
	_ = godotenv.Load()

	target := flag.Int("n", 1000, "Unique addresses to collect (0 for unlimited)")
	startPage := flag.Int("start-page", 1, "First listing page to fetch")
	pageSize := flag.Int("page-size", browser.DefaultPageSize, "Transactions per listing page")
	maxPages := flag.Int("max-pages", crawler.DefaultMaxPages, "Safety ceiling on pages processed")
	emptyPages := flag.Int("empty-pages", crawler.DefaultSoftExhaustionPages, "Consecutive zero-yield pages before stopping")
	checkpointEvery := flag.Int("checkpoint-every", crawler.DefaultCheckpointEvery, "Pages between checkpoint snapshots")
	out := flag.String("out", "data/wallet_addresses.csv", "Checkpoint snapshot path")
	headless := flag.Bool("headless", true, "Run the browser headless")
	baseURL := flag.String("base-url", browser.DefaultBaseURL, "Explorer transaction listing URL")
	pageTimeout := flag.Duration("page-timeout", browser.DefaultPageTimeout, "Per-page render timeout")
	minInterval := flag.Duration("min-interval", ratelimit.DefaultMinInterval, "Minimum spacing between page fetches")
	maxRetries := flag.Int("max-retries", ratelimit.DefaultMaxRetries, "Retries per page before giving up on it")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string for durable progress (empty to disable)")
	metricsAddr := flag.String("metrics-addr", ":9090", "Prometheus metrics HTTP address (empty to disable)")

	flag.Parse()

	logger := log.New(os.Stdout, "[crawl] ", log.LstdFlags)

	var metrics *observability.Metrics
	if *metricsAddr != "" {
		metrics = observability.NewMetrics("")
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			logger.Printf("Starting metrics server on %s", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil && err != http.ErrServerClosed {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx, cancel, logger, metrics, options{
		target:          *target,
		startPage:       *startPage,
		pageSize:        *pageSize,
		maxPages:        *maxPages,
		emptyPages:      *emptyPages,
		checkpointEvery: *checkpointEvery,
		out:             *out,
		headless:        *headless,
		baseURL:         *baseURL,
		pageTimeout:     *pageTimeout,
		minInterval:     *minInterval,
		maxRetries:      *maxRetries,
		postgresDSN:     *postgresDSN,
	}); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("Error: %v", err)
	}

	logger.Println("Shutdown complete")
}

type options struct {
	target          int
	startPage       int
	pageSize        int
	maxPages        int
	emptyPages      int
	checkpointEvery int
	out             string
	headless        bool
	baseURL         string
	pageTimeout     time.Duration
	minInterval     time.Duration
	maxRetries      int
	postgresDSN     string
}

func run(ctx context.Context, cancel context.CancelFunc, logger *log.Logger, metrics *observability.Metrics, opts options) error {
	session, err := browser.New(ctx, browser.Options{
		BaseURL:     opts.baseURL,
		PageSize:    opts.pageSize,
		PageTimeout: opts.pageTimeout,
		Headless:    opts.headless,
	})
	if err != nil {
		return fmt.Errorf("launch browser: %w", err)
	}
	defer session.Close()

	snapshot, err := checkpoint.NewSnapshotWriter(opts.out)
	if err != nil {
		return fmt.Errorf("open checkpoint writer: %w", err)
	}

	crawlOpts := crawler.Options{
		Fetcher:             session,
		Governor:            ratelimit.New(ratelimit.Config{MinInterval: opts.minInterval, MaxRetries: opts.maxRetries}),
		Checkpoint:          snapshot,
		Logger:              logger,
		Metrics:             metrics,
		Target:              opts.target,
		StartPage:           opts.startPage,
		MaxPages:            opts.maxPages,
		SoftExhaustionPages: opts.emptyPages,
		CheckpointEvery:     opts.checkpointEvery,
	}

	if opts.postgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, opts.postgresDSN)
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		defer pool.Close()

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}

		crawlOpts.ProgressStore = pgstore.NewCrawlProgressStore(pool)
		crawlOpts.AddressStore = pgstore.NewAddressStore(pool)
		logger.Println("Durable progress enabled (PostgreSQL)")
	}

	c, err := crawler.New(crawlOpts)
	if err != nil {
		return err
	}

	// First signal requests a graceful stop: the page in flight finishes
	// and a final checkpoint is written. A second signal aborts.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, finishing current page...", sig)
		c.Stop()

		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			cancel()
		case <-time.After(60 * time.Second):
			logger.Println("Graceful stop timed out after 60s, forcing exit")
			cancel()
		case <-ctx.Done():
		}
	}()

	result, err := c.Run(ctx)
	if err != nil {
		return err
	}

	logger.Printf("Crawl finished: %s", result.StopReason)
	logger.Printf("  Addresses discovered: %d", result.AddressesDiscovered)
	logger.Printf("  Pages processed:      %d (last page %d)", result.PagesProcessed, result.LastPage)
	logger.Printf("  Snapshot:             %s", snapshot.Path())
	return nil
}
