package storage

import (
	"context"

	"solscan-harvester/internal/domain"
)

// AddressStore persists discovered wallet addresses.
type AddressStore interface {
	// Insert adds a newly discovered address. Returns ErrDuplicateKey if
	// the address was already recorded.
	Insert(ctx context.Context, addr domain.Address, discoveredAt int64) error

	// GetAll returns every recorded address in lexical order.
	GetAll(ctx context.Context) ([]domain.Address, error)

	// Count returns the number of recorded addresses.
	Count(ctx context.Context) (int, error)
}

// AccountRecordStore persists harvested account records.
type AccountRecordStore interface {
	// Insert adds a harvest record. Returns ErrDuplicateKey if a record
	// for (address, captured_at) already exists.
	Insert(ctx context.Context, r *domain.AccountRecord) error

	// GetByAddress returns all captures for one address, newest first.
	GetByAddress(ctx context.Context, addr domain.Address) ([]*domain.AccountRecord, error)
}
