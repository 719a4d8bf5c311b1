// Package harvester pulls structured account data for known addresses.
// It coordinates: throttled API fetch → record assembly → output sinks.
package harvester

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"solscan-harvester/internal/domain"
	"solscan-harvester/internal/observability"
	"solscan-harvester/internal/ratelimit"
	"solscan-harvester/internal/solscan"
	"solscan-harvester/internal/storage"
)

// Stage names recorded on harvest failures.
const (
	StageProfile  = "profile"
	StageHoldings = "holdings"
	StageActivity = "activity"
)

// APIClient is the structured-API surface the harvester needs.
// *solscan.HTTPClient satisfies it.
type APIClient interface {
	GetAccount(ctx context.Context, addr domain.Address) (*domain.AccountProfile, error)
	GetTokenHoldings(ctx context.Context, addr domain.Address) ([]domain.TokenHolding, error)
	GetAccountTransactions(ctx context.Context, addr domain.Address, limit int) ([]domain.TransactionSummary, error)
}

// RecordSink receives each completed record. *checkpoint.RecordAppender
// satisfies it.
type RecordSink interface {
	Append(r *domain.AccountRecord) error
}

// SnapshotSink receives the full run's records in one batch at the end.
// The clickhouse AccountSnapshotStore satisfies it.
type SnapshotSink interface {
	InsertBulk(ctx context.Context, records []*domain.AccountRecord) error
}

// Options for creating a Harvester.
type Options struct {
	// Required
	Client   APIClient
	Governor *ratelimit.Governor

	// Output sinks, all optional
	Sink         RecordSink
	RecordStore  storage.AccountRecordStore
	SnapshotSink SnapshotSink

	// Optional
	Logger        *log.Logger
	Metrics       *observability.Metrics
	ActivityLimit int     // recent transactions per account, default solscan.DefaultActivityLimit
	MinEngagement float64 // records scoring below this skip the sinks
	Verbose       bool
}

// Harvester fetches profile, holdings and recent activity for each input
// address and assembles immutable AccountRecords. A single address whose
// retry budget runs out is recorded as a failure; the run continues.
type Harvester struct {
	client   APIClient
	governor *ratelimit.Governor

	sink         RecordSink
	recordStore  storage.AccountRecordStore
	snapshotSink SnapshotSink

	logger        *log.Logger
	metrics       *observability.Metrics
	activityLimit int
	minEngagement float64
	verbose       bool
}

// New creates a new Harvester.
func New(opts Options) (*Harvester, error) {
	if opts.Client == nil {
		return nil, errors.New("harvester: nil client")
	}
	if opts.Governor == nil {
		return nil, errors.New("harvester: nil governor")
	}
	if opts.ActivityLimit <= 0 {
		opts.ActivityLimit = solscan.DefaultActivityLimit
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	return &Harvester{
		client:        opts.Client,
		governor:      opts.Governor,
		sink:          opts.Sink,
		recordStore:   opts.RecordStore,
		snapshotSink:  opts.SnapshotSink,
		logger:        opts.Logger,
		metrics:       opts.Metrics,
		activityLimit: opts.ActivityLimit,
		minEngagement: opts.MinEngagement,
		verbose:       opts.Verbose,
	}, nil
}

// Result contains the outcome of one harvest run.
type Result struct {
	Records  []*domain.AccountRecord
	Failures []domain.HarvestFailure
}

// Run harvests every address in order. It returns early only when ctx is
// cancelled or a sink write fails; per-address fetch errors are collected
// in Result.Failures instead.
func (h *Harvester) Run(ctx context.Context, addresses []domain.Address) (*Result, error) {
	result := &Result{}

	h.logger.Printf("Starting run: %d addresses", len(addresses))

	for i, addr := range addresses {
		if err := ctx.Err(); err != nil {
			h.logger.Printf("Interrupted after %d/%d addresses", i, len(addresses))
			return result, err
		}

		rec, failure := h.harvestOne(ctx, addr)
		if failure != nil {
			result.Failures = append(result.Failures, *failure)
			h.logger.Printf("Dropping %s: stage=%s attempts=%d: %s",
				addr, failure.Stage, failure.Attempts, failure.Reason)
			if h.metrics != nil {
				h.metrics.HarvestFailures.WithLabelValues(failure.Stage).Inc()
			}
			// The next address gets a fresh retry budget; the grown
			// delay carries over until a request succeeds.
			h.governor.ResetBudget()
			continue
		}
		if rec == nil {
			// harvestOne returns neither on context cancellation.
			return result, ctx.Err()
		}

		result.Records = append(result.Records, rec)
		if h.metrics != nil {
			h.metrics.RecordsHarvested.Inc()
			h.metrics.LastSuccessfulHarvest.SetToCurrentTime()
		}

		if err := h.writeRecord(ctx, rec); err != nil {
			return result, fmt.Errorf("write record for %s: %w", addr, err)
		}

		if h.verbose {
			h.logger.Printf("%s: lamports=%d holdings=%d txs=%d score=%.1f",
				addr, rec.Profile.Lamports, len(rec.Holdings), len(rec.Activity), rec.EngagementScore())
		}
	}

	if h.snapshotSink != nil && len(result.Records) > 0 {
		if err := h.snapshotSink.InsertBulk(ctx, result.Records); err != nil {
			return result, fmt.Errorf("write snapshots: %w", err)
		}
	}

	h.logger.Printf("Run complete: %d records, %d failures",
		len(result.Records), len(result.Failures))
	return result, nil
}

// harvestOne performs the three governed fetches for a single address.
// Returns (record, nil) on success, (nil, failure) when a stage exhausts
// its retry budget or fails permanently, (nil, nil) on ctx cancellation.
func (h *Harvester) harvestOne(ctx context.Context, addr domain.Address) (*domain.AccountRecord, *domain.HarvestFailure) {
	var profile *domain.AccountProfile
	if failure := h.fetchStage(ctx, addr, StageProfile, func() error {
		p, err := h.client.GetAccount(ctx, addr)
		if err != nil {
			return err
		}
		profile = p
		return nil
	}); failure != nil || ctx.Err() != nil {
		return nil, failure
	}

	var holdings []domain.TokenHolding
	if failure := h.fetchStage(ctx, addr, StageHoldings, func() error {
		hs, err := h.client.GetTokenHoldings(ctx, addr)
		if err != nil {
			return err
		}
		holdings = hs
		return nil
	}); failure != nil || ctx.Err() != nil {
		return nil, failure
	}

	var activity []domain.TransactionSummary
	if failure := h.fetchStage(ctx, addr, StageActivity, func() error {
		txs, err := h.client.GetAccountTransactions(ctx, addr, h.activityLimit)
		if err != nil {
			return err
		}
		activity = txs
		return nil
	}); failure != nil || ctx.Err() != nil {
		return nil, failure
	}

	return &domain.AccountRecord{
		Address:    addr,
		Profile:    *profile,
		Holdings:   holdings,
		Activity:   activity,
		CapturedAt: time.Now().UnixMilli(),
	}, nil
}

// fetchStage runs one governed call, retrying transient errors until the
// governor's budget runs out. Permanent errors fail the stage immediately.
func (h *Harvester) fetchStage(ctx context.Context, addr domain.Address, stage string, call func() error) *domain.HarvestFailure {
	attempts := 0
	for {
		if err := h.governor.Throttle(ctx); err != nil {
			return nil // cancelled; caller checks ctx
		}

		attempts++
		start := time.Now()
		err := call()
		if h.metrics != nil {
			h.metrics.APICallLatency.WithLabelValues(stage).Observe(time.Since(start).Seconds())
		}

		if err == nil {
			h.governor.OnSuccess()
			if h.metrics != nil {
				h.metrics.APICalls.WithLabelValues(stage, "ok").Inc()
				h.metrics.CurrentDelay.Set(h.governor.Delay().Seconds())
			}
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}

		if !solscan.IsTransient(err) {
			if h.metrics != nil {
				h.metrics.APICalls.WithLabelValues(stage, "error").Inc()
			}
			return &domain.HarvestFailure{
				Address:  addr,
				Stage:    stage,
				Attempts: attempts,
				Reason:   err.Error(),
			}
		}

		if h.metrics != nil {
			h.metrics.APICalls.WithLabelValues(stage, "transient").Inc()
			h.metrics.BackoffEvents.Inc()
		}
		if budgetErr := h.governor.OnFailure(); budgetErr != nil {
			if h.metrics != nil {
				h.metrics.CurrentDelay.Set(h.governor.Delay().Seconds())
			}
			return &domain.HarvestFailure{
				Address:  addr,
				Stage:    stage,
				Attempts: attempts,
				Reason:   fmt.Sprintf("%s: %s", budgetErr, err),
			}
		}
		if h.metrics != nil {
			h.metrics.CurrentDelay.Set(h.governor.Delay().Seconds())
		}
		h.logger.Printf("Transient error for %s (%s), attempt %d, delay %v: %v",
			addr, stage, attempts, h.governor.Delay(), err)
	}
}

// writeRecord fans a completed record out to the configured sinks.
// Records below the engagement threshold are counted but not written.
func (h *Harvester) writeRecord(ctx context.Context, rec *domain.AccountRecord) error {
	if h.minEngagement > 0 && rec.EngagementScore() < h.minEngagement {
		if h.verbose {
			h.logger.Printf("%s below engagement threshold (%.1f < %.1f), not writing",
				rec.Address, rec.EngagementScore(), h.minEngagement)
		}
		return nil
	}

	if h.sink != nil {
		if err := h.sink.Append(rec); err != nil {
			return fmt.Errorf("append to sink: %w", err)
		}
	}
	if h.recordStore != nil {
		err := h.recordStore.Insert(ctx, rec)
		if err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			return fmt.Errorf("insert record: %w", err)
		}
	}
	return nil
}
