package storage

import (
	"context"

	"solscan-harvester/internal/domain"
)

// CrawlProgress is the durable projection of crawler state: the last page
// that was fully processed.
type CrawlProgress struct {
	Page           int   // last successfully processed listing page
	DiscoveredAt   int64 // when the page was processed (ms)
	AddressesFound int   // set size after the page
}

// CrawlProgressStore provides persistence for crawl state. A fresh run may
// start from page 1, but previously discovered addresses are never lost:
// the seen-address set survives restarts independently of page position.
type CrawlProgressStore interface {
	// GetLastProcessed returns the last processed page.
	// Returns ErrNotFound if no progress has been saved yet.
	GetLastProcessed(ctx context.Context) (*CrawlProgress, error)

	// SetLastProcessed saves the last processed page.
	SetLastProcessed(ctx context.Context, progress *CrawlProgress) error

	// IsAddressSeen checks if an address has already been discovered.
	IsAddressSeen(ctx context.Context, addr domain.Address) (bool, error)

	// MarkAddressSeen records a discovered address.
	MarkAddressSeen(ctx context.Context, addr domain.Address) error

	// LoadSeenAddresses returns all discovered addresses, for warming the
	// in-memory dedup set at startup.
	LoadSeenAddresses(ctx context.Context) ([]domain.Address, error)
}
