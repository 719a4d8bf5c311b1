package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"solscan-harvester/internal/domain"
	"solscan-harvester/internal/storage"
)

// AccountRecordStore implements storage.AccountRecordStore using PostgreSQL.
// Holdings and activity are stored as JSONB documents alongside the scalar
// profile columns.
type AccountRecordStore struct {
	pool *Pool
}

// NewAccountRecordStore creates a new AccountRecordStore.
func NewAccountRecordStore(pool *Pool) *AccountRecordStore {
	return &AccountRecordStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AccountRecordStore = (*AccountRecordStore)(nil)

// Insert adds a harvest record. Returns ErrDuplicateKey if a record for
// (address, captured_at) already exists.
func (s *AccountRecordStore) Insert(ctx context.Context, r *domain.AccountRecord) error {
	if r == nil || r.Address == "" {
		return storage.ErrInvalidInput
	}

	holdings, err := json.Marshal(r.Holdings)
	if err != nil {
		return fmt.Errorf("marshal holdings: %w", err)
	}
	activity, err := json.Marshal(r.Activity)
	if err != nil {
		return fmt.Errorf("marshal activity: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO account_records (
			address, lamports, owner_program, account_type, executable,
			holdings, activity, captured_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		r.Address.String(),
		strconv.FormatUint(r.Profile.Lamports, 10),
		r.Profile.OwnerProg,
		r.Profile.AccountTyp,
		r.Profile.Executable,
		holdings,
		activity,
		r.CapturedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert account record: %w", err)
	}
	return nil
}

// GetByAddress returns all captures for one address, newest first.
func (s *AccountRecordStore) GetByAddress(ctx context.Context, addr domain.Address) ([]*domain.AccountRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT address, lamports::text, owner_program, account_type, executable,
		       holdings, activity, captured_at
		FROM account_records
		WHERE address = $1
		ORDER BY captured_at DESC
	`, addr.String())
	if err != nil {
		return nil, fmt.Errorf("get account records: %w", err)
	}
	defer rows.Close()

	var out []*domain.AccountRecord
	for rows.Next() {
		var (
			r        domain.AccountRecord
			address  string
			lamports string
			holdings []byte
			activity []byte
		)
		err := rows.Scan(
			&address, &lamports, &r.Profile.OwnerProg, &r.Profile.AccountTyp,
			&r.Profile.Executable, &holdings, &activity, &r.CapturedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan account record: %w", err)
		}
		r.Address = domain.Address(address)
		r.Profile.Lamports, err = strconv.ParseUint(lamports, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse lamports: %w", err)
		}
		if err := json.Unmarshal(holdings, &r.Holdings); err != nil {
			return nil, fmt.Errorf("unmarshal holdings: %w", err)
		}
		if err := json.Unmarshal(activity, &r.Activity); err != nil {
			return nil, fmt.Errorf("unmarshal activity: %w", err)
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}
