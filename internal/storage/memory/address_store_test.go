package memory

import (
	"context"
	"errors"
	"testing"

	"solscan-harvester/internal/storage"
)

func TestAddressStore_InsertAndGetAll(t *testing.T) {
	store := NewAddressStore()
	ctx := context.Background()

	if err := store.Insert(ctx, "bravo", 1000); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.Insert(ctx, "alpha", 2000); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 addresses, got %d", len(got))
	}
	if got[0] != "alpha" || got[1] != "bravo" {
		t.Errorf("addresses not in lexical order: %v", got)
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Count = %d, want 2", count)
	}
}

func TestAddressStore_DuplicateKey(t *testing.T) {
	store := NewAddressStore()
	ctx := context.Background()

	if err := store.Insert(ctx, "addr1", 1000); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}

	err := store.Insert(ctx, "addr1", 2000)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}

	count, _ := store.Count(ctx)
	if count != 1 {
		t.Errorf("Count = %d after duplicate insert, want 1", count)
	}
}

func TestAddressStore_EmptyInvalid(t *testing.T) {
	store := NewAddressStore()

	err := store.Insert(context.Background(), "", 1000)
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCrawlProgressStore_Roundtrip(t *testing.T) {
	store := NewCrawlProgressStore()
	ctx := context.Background()

	_, err := store.GetLastProcessed(ctx)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound before any save, got %v", err)
	}

	if err := store.SetLastProcessed(ctx, &storage.CrawlProgress{Page: 7, AddressesFound: 120}); err != nil {
		t.Fatalf("SetLastProcessed failed: %v", err)
	}

	got, err := store.GetLastProcessed(ctx)
	if err != nil {
		t.Fatalf("GetLastProcessed failed: %v", err)
	}
	if got.Page != 7 || got.AddressesFound != 120 {
		t.Errorf("unexpected progress: %+v", got)
	}
}

func TestCrawlProgressStore_SeenAddresses(t *testing.T) {
	store := NewCrawlProgressStore()
	ctx := context.Background()

	seen, err := store.IsAddressSeen(ctx, "addr1")
	if err != nil || seen {
		t.Errorf("IsAddressSeen before mark = (%v, %v)", seen, err)
	}

	if err := store.MarkAddressSeen(ctx, "addr1"); err != nil {
		t.Fatalf("MarkAddressSeen failed: %v", err)
	}

	seen, err = store.IsAddressSeen(ctx, "addr1")
	if err != nil || !seen {
		t.Errorf("IsAddressSeen after mark = (%v, %v)", seen, err)
	}

	all, err := store.LoadSeenAddresses(ctx)
	if err != nil {
		t.Fatalf("LoadSeenAddresses failed: %v", err)
	}
	if len(all) != 1 || all[0] != "addr1" {
		t.Errorf("LoadSeenAddresses = %v", all)
	}
}
