package memory

import (
	"context"
	"sync"

	"solscan-harvester/internal/domain"
	"solscan-harvester/internal/storage"
)

// CrawlProgressStore is an in-memory implementation of storage.CrawlProgressStore.
// Used for runs where durability across restarts is not needed.
type CrawlProgressStore struct {
	mu       sync.RWMutex
	progress *storage.CrawlProgress
	seen     map[domain.Address]struct{}
}

// NewCrawlProgressStore creates a new in-memory crawl progress store.
func NewCrawlProgressStore() *CrawlProgressStore {
	return &CrawlProgressStore{
		seen: make(map[domain.Address]struct{}),
	}
}

// GetLastProcessed returns the last processed page.
func (s *CrawlProgressStore) GetLastProcessed(_ context.Context) (*storage.CrawlProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.progress == nil {
		return nil, storage.ErrNotFound
	}
	progressCopy := *s.progress
	return &progressCopy, nil
}

// SetLastProcessed saves the last processed page.
func (s *CrawlProgressStore) SetLastProcessed(_ context.Context, progress *storage.CrawlProgress) error {
	if progress == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	progressCopy := *progress
	s.progress = &progressCopy
	return nil
}

// IsAddressSeen checks if an address has already been discovered.
func (s *CrawlProgressStore) IsAddressSeen(_ context.Context, addr domain.Address) (bool, error) {
	if addr == "" {
		return false, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.seen[addr]
	return exists, nil
}

// MarkAddressSeen records a discovered address.
func (s *CrawlProgressStore) MarkAddressSeen(_ context.Context, addr domain.Address) error {
	if addr == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen[addr] = struct{}{}
	return nil
}

// LoadSeenAddresses returns all discovered addresses.
func (s *CrawlProgressStore) LoadSeenAddresses(_ context.Context) ([]domain.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Address, 0, len(s.seen))
	for a := range s.seen {
		out = append(out, a)
	}
	return out, nil
}

// Verify interface compliance at compile time.
var _ storage.CrawlProgressStore = (*CrawlProgressStore)(nil)
