// Package dedup maintains the accumulating set of discovered addresses.
package dedup

import (
	"sort"
	"sync"

	"solscan-harvester/internal/domain"
)

// AddressSet is a hash-backed set of addresses. Membership checks are O(1)
// amortized; the set grows monotonically and never shrinks.
type AddressSet struct {
	mu   sync.RWMutex
	data map[domain.Address]struct{}
}

// NewAddressSet creates an empty AddressSet.
func NewAddressSet() *AddressSet {
	return &AddressSet{
		data: make(map[domain.Address]struct{}),
	}
}

// Add inserts addr and reports whether it was new.
func (s *AddressSet) Add(addr domain.Address) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[addr]; exists {
		return false
	}
	s.data[addr] = struct{}{}
	return true
}

// AddAll inserts every address and returns how many were new.
func (s *AddressSet) AddAll(addrs []domain.Address) int {
	var added int
	for _, a := range addrs {
		if s.Add(a) {
			added++
		}
	}
	return added
}

// Contains reports membership.
func (s *AddressSet) Contains(addr domain.Address) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.data[addr]
	return exists
}

// Len returns the current set size.
func (s *AddressSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Sorted returns the members in lexical order for reproducible output.
func (s *AddressSet) Sorted() []domain.Address {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Address, 0, len(s.data))
	for a := range s.data {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
