package dedup

import (
	"testing"

	"solscan-harvester/internal/domain"
)

func TestAddressSet_AddTwice(t *testing.T) {
	s := NewAddressSet()
	addr := domain.Address("So11111111111111111111111111111111111111112")

	if !s.Add(addr) {
		t.Error("first Add returned false, want true")
	}
	if s.Add(addr) {
		t.Error("second Add returned true, want false")
	}
	if s.Len() != 1 {
		t.Errorf("set size = %d after duplicate add, want 1", s.Len())
	}
}

func TestAddressSet_AddAll(t *testing.T) {
	s := NewAddressSet()
	addrs := []domain.Address{"a1", "a2", "a1", "a3"}

	if added := s.AddAll(addrs); added != 3 {
		t.Errorf("AddAll returned %d, want 3", added)
	}
	if s.Len() != 3 {
		t.Errorf("set size = %d, want 3", s.Len())
	}
}

func TestAddressSet_SortedStable(t *testing.T) {
	s := NewAddressSet()
	s.Add("charlie")
	s.Add("alpha")
	s.Add("bravo")

	got := s.Sorted()
	want := []domain.Address{"alpha", "bravo", "charlie"}
	if len(got) != len(want) {
		t.Fatalf("Sorted returned %d entries, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Sorted[%d] = %s, want %s", i, got[i], want[i])
		}
	}

	// Repeated calls must produce identical order.
	again := s.Sorted()
	for i := range got {
		if got[i] != again[i] {
			t.Fatal("Sorted order not reproducible")
		}
	}
}

func TestAddressSet_Contains(t *testing.T) {
	s := NewAddressSet()
	s.Add("member")

	if !s.Contains("member") {
		t.Error("Contains(member) = false")
	}
	if s.Contains("absent") {
		t.Error("Contains(absent) = true")
	}
}
