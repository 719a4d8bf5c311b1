// Package crawler walks the explorer's transaction listing page by page,
// extracts wallet addresses from the rendered rows, and checkpoints the
// accumulated set. It coordinates: page fetch → extraction → dedup →
// checkpoint, under a shared rate governor.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"solscan-harvester/internal/checkpoint"
	"solscan-harvester/internal/dedup"
	"solscan-harvester/internal/extract"
	"solscan-harvester/internal/observability"
	"solscan-harvester/internal/ratelimit"
	"solscan-harvester/internal/storage"
)

// State of the crawl loop.
type State int

const (
	StateRunning State = iota
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

// Stop reasons reported in Result.
const (
	StopTargetReached = "target reached"
	StopExhausted     = "no new addresses"
	StopPageCeiling   = "page ceiling reached"
	StopInterrupted   = "interrupted"
)

// Default loop tuning. These are observed working values, not tuned
// constants; all are overridable through Options.
const (
	DefaultSoftExhaustionPages = 5
	DefaultCheckpointEvery     = 5
	DefaultMaxPages            = 10000
)

// PageFetcher renders one listing page. *browser.Session satisfies it.
type PageFetcher interface {
	FetchListingPage(ctx context.Context, page int) (string, error)
}

// CheckpointWriter persists the full address set. *checkpoint.SnapshotWriter
// satisfies it.
type CheckpointWriter interface {
	WriteAddresses(set *dedup.AddressSet) error
}

// Options for creating a Crawler.
type Options struct {
	// Required
	Fetcher    PageFetcher
	Governor   *ratelimit.Governor
	Checkpoint CheckpointWriter

	// Optional stores for durable progress and warm starts
	ProgressStore storage.CrawlProgressStore
	AddressStore  storage.AddressStore

	// Optional
	Metrics *observability.Metrics
	Logger  *log.Logger

	// Loop tuning; zero values fall back to defaults
	Target              int // unique addresses to collect, 0 = unlimited
	StartPage           int // first listing page, default 1
	MaxPages            int // safety ceiling on pages processed
	SoftExhaustionPages int // consecutive zero-yield pages before stopping
	CheckpointEvery     int // pages between periodic snapshots
}

// Crawler drives the listing crawl. Run is single-shot: create a new
// Crawler for each run.
type Crawler struct {
	fetcher    PageFetcher
	governor   *ratelimit.Governor
	checkpoint CheckpointWriter
	extractor  *extract.Extractor

	progressStore storage.CrawlProgressStore
	addressStore  storage.AddressStore
	metrics       *observability.Metrics
	logger        *log.Logger

	target              int
	startPage           int
	maxPages            int
	softExhaustionPages int
	checkpointEvery     int

	mu    sync.Mutex
	state State
	set   *dedup.AddressSet
}

// New creates a new Crawler, filling unset options with defaults.
func New(opts Options) (*Crawler, error) {
	if opts.Fetcher == nil {
		return nil, errors.New("crawler: nil fetcher")
	}
	if opts.Governor == nil {
		return nil, errors.New("crawler: nil governor")
	}
	if opts.Checkpoint == nil {
		return nil, errors.New("crawler: nil checkpoint writer")
	}
	if opts.StartPage <= 0 {
		opts.StartPage = 1
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = DefaultMaxPages
	}
	if opts.SoftExhaustionPages <= 0 {
		opts.SoftExhaustionPages = DefaultSoftExhaustionPages
	}
	if opts.CheckpointEvery <= 0 {
		opts.CheckpointEvery = DefaultCheckpointEvery
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	return &Crawler{
		fetcher:             opts.Fetcher,
		governor:            opts.Governor,
		checkpoint:          opts.Checkpoint,
		extractor:           extract.New(),
		progressStore:       opts.ProgressStore,
		addressStore:        opts.AddressStore,
		metrics:             opts.Metrics,
		logger:              opts.Logger,
		target:              opts.Target,
		startPage:           opts.StartPage,
		maxPages:            opts.MaxPages,
		softExhaustionPages: opts.SoftExhaustionPages,
		checkpointEvery:     opts.CheckpointEvery,
		state:               StateRunning,
		set:                 dedup.NewAddressSet(),
	}, nil
}

// State returns the current loop state.
func (c *Crawler) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Stop requests a graceful stop: the current page finishes, a final
// checkpoint is written, then Run returns. Safe to call from any
// goroutine, any number of times.
func (c *Crawler) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateRunning {
		c.state = StateStopping
	}
}

func (c *Crawler) stopping() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state != StateRunning
}

// Addresses returns the deduplicated set collected so far.
func (c *Crawler) Addresses() *dedup.AddressSet {
	return c.set
}

// Result contains the outcome of one crawl run.
type Result struct {
	AddressesDiscovered int
	PagesProcessed      int
	LastPage            int
	StopReason          string
}

// Run executes the crawl loop until the target is met, the listing is
// exhausted, the page ceiling is hit, or a stop is requested. A final
// checkpoint is written on every exit path that processed at least one
// page.
func (c *Crawler) Run(ctx context.Context) (*Result, error) {
	defer c.setState(StateStopped)

	page := c.startPage
	if err := c.warmStart(ctx, &page); err != nil {
		return nil, err
	}

	result := &Result{}
	emptyStreak := 0
	pagesProcessed := 0

	c.logger.Printf("Starting: target=%d start_page=%d max_pages=%d", c.target, page, c.maxPages)

	for {
		if c.stopping() || ctx.Err() != nil {
			result.StopReason = StopInterrupted
			break
		}
		if c.target > 0 && c.set.Len() >= c.target {
			result.StopReason = StopTargetReached
			break
		}
		if page > c.maxPages {
			result.StopReason = StopPageCeiling
			break
		}
		if emptyStreak >= c.softExhaustionPages {
			result.StopReason = StopExhausted
			break
		}

		newCount, err := c.processPage(ctx, page)
		if err != nil {
			if ctx.Err() != nil {
				result.StopReason = StopInterrupted
				break
			}
			// Retry budget ran out for this page. It counts as a
			// zero-yield page; the next page gets a fresh budget.
			c.logger.Printf("Page %d abandoned: %v", page, err)
			c.governor.ResetBudget()
			newCount = 0
		}

		pagesProcessed++
		if newCount > 0 {
			emptyStreak = 0
		} else {
			emptyStreak++
		}

		c.logger.Printf("Page %d: %d new addresses (total %d, empty streak %d/%d)",
			page, newCount, c.set.Len(), emptyStreak, c.softExhaustionPages)

		if err := c.saveProgress(ctx, page, pagesProcessed); err != nil {
			return nil, err
		}
		page++
	}

	result.AddressesDiscovered = c.set.Len()
	result.PagesProcessed = pagesProcessed
	result.LastPage = page - 1

	if pagesProcessed > 0 {
		if err := c.writeCheckpoint(); err != nil {
			return result, fmt.Errorf("final checkpoint: %w", err)
		}
	}

	c.logger.Printf("Stopped: %s (%d addresses, %d pages)",
		result.StopReason, result.AddressesDiscovered, result.PagesProcessed)
	return result, nil
}

func (c *Crawler) setState(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = s
}

// warmStart seeds the dedup set and page position from the progress store.
func (c *Crawler) warmStart(ctx context.Context, page *int) error {
	if c.progressStore == nil {
		return nil
	}

	seen, err := c.progressStore.LoadSeenAddresses(ctx)
	if err != nil {
		return fmt.Errorf("load seen addresses: %w", err)
	}
	if len(seen) > 0 {
		c.set.AddAll(seen)
		c.logger.Printf("Warm start: %d previously seen addresses", len(seen))
	}

	progress, err := c.progressStore.GetLastProcessed(ctx)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("load progress: %w", err)
	}
	if progress.Page+1 > *page {
		*page = progress.Page + 1
		c.logger.Printf("Warm start: resuming from page %d", *page)
	}
	return nil
}

// processPage fetches one listing page under the governor, retrying
// transient failures until the budget runs out, then folds the extracted
// addresses into the set. Returns the number of previously unseen
// addresses.
func (c *Crawler) processPage(ctx context.Context, page int) (int, error) {
	var html string
	for {
		if err := c.governor.Throttle(ctx); err != nil {
			return 0, err
		}

		start := time.Now()
		h, err := c.fetcher.FetchListingPage(ctx, page)
		if c.metrics != nil {
			c.metrics.PageFetchLatency.Observe(time.Since(start).Seconds())
		}
		if err == nil {
			c.governor.OnSuccess()
			html = h
			break
		}
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}

		if c.metrics != nil {
			c.metrics.PageFetchErrors.Inc()
			c.metrics.BackoffEvents.Inc()
		}
		if budgetErr := c.governor.OnFailure(); budgetErr != nil {
			return 0, fmt.Errorf("fetch page %d: %w (%s)", page, budgetErr, err)
		}
		c.logger.Printf("Page %d fetch failed, delay %v: %v", page, c.governor.Delay(), err)
	}

	addrs := c.extractor.Addresses(html)
	if c.metrics != nil {
		c.metrics.PagesFetched.Inc()
		c.metrics.AddressesExtracted.Add(float64(len(addrs)))
		c.metrics.LastSuccessfulPage.SetToCurrentTime()
	}

	newCount := 0
	for _, addr := range addrs {
		if !c.set.Add(addr) {
			continue
		}
		newCount++
		if c.addressStore != nil {
			err := c.addressStore.Insert(ctx, addr, time.Now().UnixMilli())
			if err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
				return newCount, fmt.Errorf("store address %s: %w", addr, err)
			}
		}
		if c.progressStore != nil {
			if err := c.progressStore.MarkAddressSeen(ctx, addr); err != nil {
				return newCount, fmt.Errorf("mark address seen %s: %w", addr, err)
			}
		}
	}
	if c.metrics != nil {
		c.metrics.AddressesNew.Add(float64(newCount))
	}
	return newCount, nil
}

// saveProgress records the processed page and writes a periodic snapshot.
func (c *Crawler) saveProgress(ctx context.Context, page, pagesProcessed int) error {
	if c.progressStore != nil {
		err := c.progressStore.SetLastProcessed(ctx, &storage.CrawlProgress{
			Page:           page,
			DiscoveredAt:   time.Now().UnixMilli(),
			AddressesFound: c.set.Len(),
		})
		if err != nil {
			return fmt.Errorf("save progress for page %d: %w", page, err)
		}
	}

	if pagesProcessed%c.checkpointEvery == 0 {
		if err := c.writeCheckpoint(); err != nil {
			return fmt.Errorf("periodic checkpoint after page %d: %w", page, err)
		}
	}
	return nil
}

func (c *Crawler) writeCheckpoint() error {
	if err := c.checkpoint.WriteAddresses(c.set); err != nil {
		if c.metrics != nil {
			c.metrics.CheckpointErrors.Inc()
		}
		return err
	}
	if c.metrics != nil {
		c.metrics.CheckpointWrites.Inc()
	}
	return nil
}

// compile-time check that the snapshot writer satisfies the interface
var _ CheckpointWriter = (*checkpoint.SnapshotWriter)(nil)
