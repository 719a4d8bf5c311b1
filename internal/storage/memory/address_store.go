package memory

import (
	"context"
	"sort"
	"sync"

	"solscan-harvester/internal/domain"
	"solscan-harvester/internal/storage"
)

// AddressStore is an in-memory implementation of storage.AddressStore.
type AddressStore struct {
	mu   sync.RWMutex
	data map[domain.Address]int64 // address -> discoveredAt (ms)
}

// NewAddressStore creates a new in-memory address store.
func NewAddressStore() *AddressStore {
	return &AddressStore{
		data: make(map[domain.Address]int64),
	}
}

// Insert adds a newly discovered address. Returns ErrDuplicateKey if the
// address was already recorded.
func (s *AddressStore) Insert(_ context.Context, addr domain.Address, discoveredAt int64) error {
	if addr == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[addr]; exists {
		return storage.ErrDuplicateKey
	}
	s.data[addr] = discoveredAt
	return nil
}

// GetAll returns every recorded address in lexical order.
func (s *AddressStore) GetAll(_ context.Context) ([]domain.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Address, 0, len(s.data))
	for a := range s.data {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// Count returns the number of recorded addresses.
func (s *AddressStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data), nil
}

// Verify interface compliance at compile time.
var _ storage.AddressStore = (*AddressStore)(nil)
