package memory

import (
	"context"
	"sort"
	"sync"

	"solscan-harvester/internal/domain"
	"solscan-harvester/internal/storage"
)

// AccountRecordStore is an in-memory implementation of storage.AccountRecordStore.
type AccountRecordStore struct {
	mu   sync.RWMutex
	data map[recordKey]*domain.AccountRecord
}

type recordKey struct {
	addr       domain.Address
	capturedAt int64
}

// NewAccountRecordStore creates a new in-memory account record store.
func NewAccountRecordStore() *AccountRecordStore {
	return &AccountRecordStore{
		data: make(map[recordKey]*domain.AccountRecord),
	}
}

// Insert adds a harvest record. Returns ErrDuplicateKey if a record for
// (address, captured_at) already exists.
func (s *AccountRecordStore) Insert(_ context.Context, r *domain.AccountRecord) error {
	if r == nil || r.Address == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	k := recordKey{addr: r.Address, capturedAt: r.CapturedAt}
	if _, exists := s.data[k]; exists {
		return storage.ErrDuplicateKey
	}

	// Store a copy to prevent external mutation
	recordCopy := *r
	s.data[k] = &recordCopy
	return nil
}

// GetByAddress returns all captures for one address, newest first.
func (s *AccountRecordStore) GetByAddress(_ context.Context, addr domain.Address) ([]*domain.AccountRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.AccountRecord
	for k, r := range s.data {
		if k.addr == addr {
			recordCopy := *r
			result = append(result, &recordCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CapturedAt > result[j].CapturedAt
	})
	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.AccountRecordStore = (*AccountRecordStore)(nil)
