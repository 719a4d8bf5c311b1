package postgres

import (
	"context"

	"solscan-harvester/internal/domain"
	"solscan-harvester/internal/storage"
)

// CrawlProgressStore is a PostgreSQL implementation of storage.CrawlProgressStore.
// Uses two tables:
//   - crawl_progress: single row with the last processed page
//   - crawl_seen_addresses: set of discovered addresses
type CrawlProgressStore struct {
	pool *Pool
}

// NewCrawlProgressStore creates a new PostgreSQL crawl progress store.
func NewCrawlProgressStore(pool *Pool) *CrawlProgressStore {
	return &CrawlProgressStore{pool: pool}
}

// Compile-time interface check.
var _ storage.CrawlProgressStore = (*CrawlProgressStore)(nil)

// GetLastProcessed returns the last processed page.
func (s *CrawlProgressStore) GetLastProcessed(ctx context.Context) (*storage.CrawlProgress, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT page, discovered_at, addresses_found
		FROM crawl_progress
		LIMIT 1
	`)

	var progress storage.CrawlProgress
	err := row.Scan(&progress.Page, &progress.DiscoveredAt, &progress.AddressesFound)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return &progress, nil
}

// SetLastProcessed saves the last processed page.
// Uses upsert to handle initial insert and subsequent updates.
func (s *CrawlProgressStore) SetLastProcessed(ctx context.Context, progress *storage.CrawlProgress) error {
	if progress == nil {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO crawl_progress (id, page, discovered_at, addresses_found, updated_at)
		VALUES (1, $1, $2, $3, NOW())
		ON CONFLICT (id) DO UPDATE
		SET page = EXCLUDED.page,
		    discovered_at = EXCLUDED.discovered_at,
		    addresses_found = EXCLUDED.addresses_found,
		    updated_at = NOW()
	`, progress.Page, progress.DiscoveredAt, progress.AddressesFound)

	return err
}

// IsAddressSeen checks if an address has already been discovered.
func (s *CrawlProgressStore) IsAddressSeen(ctx context.Context, addr domain.Address) (bool, error) {
	if addr == "" {
		return false, storage.ErrInvalidInput
	}

	row := s.pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM crawl_seen_addresses WHERE address = $1)
	`, addr.String())

	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// MarkAddressSeen records a discovered address.
func (s *CrawlProgressStore) MarkAddressSeen(ctx context.Context, addr domain.Address) error {
	if addr == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO crawl_seen_addresses (address, seen_at)
		VALUES ($1, NOW())
		ON CONFLICT (address) DO NOTHING
	`, addr.String())

	return err
}

// LoadSeenAddresses returns all discovered addresses.
func (s *CrawlProgressStore) LoadSeenAddresses(ctx context.Context) ([]domain.Address, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT address FROM crawl_seen_addresses
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var addrs []domain.Address
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, err
		}
		addrs = append(addrs, domain.Address(a))
	}
	return addrs, rows.Err()
}
