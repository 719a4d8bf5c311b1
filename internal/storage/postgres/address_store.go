package postgres

import (
	"context"
	"fmt"

	"solscan-harvester/internal/domain"
	"solscan-harvester/internal/storage"
)

// AddressStore implements storage.AddressStore using PostgreSQL.
type AddressStore struct {
	pool *Pool
}

// NewAddressStore creates a new AddressStore.
func NewAddressStore(pool *Pool) *AddressStore {
	return &AddressStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AddressStore = (*AddressStore)(nil)

// Insert adds a newly discovered address. Returns ErrDuplicateKey if the
// address was already recorded.
func (s *AddressStore) Insert(ctx context.Context, addr domain.Address, discoveredAt int64) error {
	if addr == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO discovered_addresses (address, discovered_at)
		VALUES ($1, $2)
	`, addr.String(), discoveredAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert address: %w", err)
	}
	return nil
}

// GetAll returns every recorded address in lexical order.
func (s *AddressStore) GetAll(ctx context.Context) ([]domain.Address, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT address FROM discovered_addresses ORDER BY address ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("get addresses: %w", err)
	}
	defer rows.Close()

	var out []domain.Address
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, fmt.Errorf("scan address: %w", err)
		}
		out = append(out, domain.Address(a))
	}
	return out, rows.Err()
}

// Count returns the number of recorded addresses.
func (s *AddressStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM discovered_addresses`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count addresses: %w", err)
	}
	return count, nil
}
