package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"solscan-harvester/internal/checkpoint"
	"solscan-harvester/internal/domain"
	"solscan-harvester/internal/harvester"
	"solscan-harvester/internal/observability"
	"solscan-harvester/internal/ratelimit"
	"solscan-harvester/internal/solscan"
	chstore "solscan-harvester/internal/storage/clickhouse"
	"solscan-harvester/internal/storage/migrations"
	pgstore "solscan-harvester/internal/storage/postgres"
)

func main() {
	// .env is optional; real env vars win either way
	_ = godotenv.Load()

	addressesFile := flag.String("addresses", "", "File with one address per line (or pass addresses as arguments)")
	out := flag.String("out", "data", "Output directory for the records CSV")
	minInterval := flag.Duration("min-interval", ratelimit.DefaultMinInterval, "Minimum spacing between API calls")
	maxRetries := flag.Int("max-retries", ratelimit.DefaultMaxRetries, "Retries per call before dropping the address")
	activityLimit := flag.Int("activity-limit", solscan.DefaultActivityLimit, "Recent transactions to fetch per account")
	minEngagement := flag.Float64("min-engagement", 0, "Skip writing records scoring below this threshold")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string for record storage (empty to disable)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string for analytic snapshots (empty to disable)")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics HTTP address (empty to disable)")

	flag.Parse()

	logger := log.New(os.Stdout, "[harvest] ", log.LstdFlags)

	apiKey := os.Getenv("SOLSCAN_API_KEY")
	if apiKey == "" {
		logger.Fatal("SOLSCAN_API_KEY is not set (add it to the environment or a .env file)")
	}

	addresses, err := loadAddresses(*addressesFile, flag.Args(), logger)
	if err != nil {
		logger.Fatalf("Error: %v", err)
	}
	if len(addresses) == 0 {
		logger.Fatal("No addresses to harvest. Use --addresses or pass them as arguments")
	}

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

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, stopping after current address...", sig)
		cancel()

		sig = <-sigCh
		logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
		os.Exit(1)
	}()

	if err := run(ctx, logger, metrics, runOptions{
		apiKey:        apiKey,
		addresses:     addresses,
		out:           *out,
		minInterval:   *minInterval,
		maxRetries:    *maxRetries,
		activityLimit: *activityLimit,
		minEngagement: *minEngagement,
		postgresDSN:   *postgresDSN,
		clickhouseDSN: *clickhouseDSN,
	}); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("Error: %v", err)
	}

	logger.Println("Shutdown complete")
}

type runOptions struct {
	apiKey        string
	addresses     []domain.Address
	out           string
	minInterval   time.Duration
	maxRetries    int
	activityLimit int
	minEngagement float64
	postgresDSN   string
	clickhouseDSN string
}

func run(ctx context.Context, logger *log.Logger, metrics *observability.Metrics, opts runOptions) error {
	client, err := solscan.NewHTTPClient(opts.apiKey)
	if err != nil {
		return err
	}

	// Probe the key before spending the rate budget on doomed fetches.
	probeCtx, probeCancel := context.WithTimeout(ctx, 30*time.Second)
	defer probeCancel()
	if err := client.ValidateKey(probeCtx); err != nil {
		return fmt.Errorf("validate API key: %w", err)
	}
	logger.Println("API key validated")

	appender, err := checkpoint.NewRecordAppender(filepath.Join(opts.out, "account_records.csv"))
	if err != nil {
		return fmt.Errorf("open records file: %w", err)
	}
	defer func() {
		if err := appender.Close(); err != nil {
			logger.Printf("Close records file: %v", err)
		}
	}()

	harvestOpts := harvester.Options{
		Client:        client,
		Governor:      ratelimit.New(ratelimit.Config{MinInterval: opts.minInterval, MaxRetries: opts.maxRetries}),
		Sink:          appender,
		Logger:        logger,
		Metrics:       metrics,
		ActivityLimit: opts.activityLimit,
		MinEngagement: opts.minEngagement,
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
		harvestOpts.RecordStore = pgstore.NewAccountRecordStore(pool)
		logger.Println("Record storage enabled (PostgreSQL)")
	}

	if opts.clickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, opts.clickhouseDSN)
		if err != nil {
			return fmt.Errorf("connect to clickhouse: %w", err)
		}
		defer conn.Close()

		harvestOpts.SnapshotSink = chstore.NewAccountSnapshotStore(conn)
		logger.Println("Analytic snapshots enabled (ClickHouse)")
	}

	h, err := harvester.New(harvestOpts)
	if err != nil {
		return err
	}

	result, err := h.Run(ctx, opts.addresses)
	if result != nil {
		printSummary(logger, result)
	}
	return err
}

// loadAddresses reads and validates the input addresses. Invalid lines are
// logged and skipped, not fatal.
func loadAddresses(file string, args []string, logger *log.Logger) ([]domain.Address, error) {
	var raw []string

	if file != "" {
		f, err := os.Open(file)
		if err != nil {
			return nil, fmt.Errorf("open addresses file: %w", err)
		}
		defer f.Close()

		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			raw = append(raw, line)
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read addresses file: %w", err)
		}
	}
	raw = append(raw, args...)

	var addresses []domain.Address
	seen := make(map[domain.Address]bool)
	for _, s := range raw {
		addr, err := domain.ParseAddress(s)
		if err != nil {
			logger.Printf("Skipping invalid address %q: %v", s, err)
			continue
		}
		if seen[addr] {
			continue
		}
		seen[addr] = true
		addresses = append(addresses, addr)
	}
	return addresses, nil
}

// printSummary logs run totals and the most active accounts.
func printSummary(logger *log.Logger, result *harvester.Result) {
	logger.Printf("Harvest finished: %d records, %d failures", len(result.Records), len(result.Failures))

	for _, f := range result.Failures {
		logger.Printf("  Failed %s at %s after %d attempts: %s", f.Address, f.Stage, f.Attempts, f.Reason)
	}

	if len(result.Records) == 0 {
		return
	}

	ranked := make([]*domain.AccountRecord, len(result.Records))
	copy(ranked, result.Records)
	sort.Slice(ranked, func(i, j int) bool {
		return ranked[i].EngagementScore() > ranked[j].EngagementScore()
	})

	top := ranked
	if len(top) > 10 {
		top = top[:10]
	}
	logger.Println("Top accounts by engagement:")
	for i, r := range top {
		logger.Printf("  %2d. %s score=%.1f txs=%d holdings=%d lamports=%d",
			i+1, r.Address, r.EngagementScore(), len(r.Activity), len(r.Holdings), r.Profile.Lamports)
	}
}
