package clickhouse

import (
	"context"
	"fmt"

	"solscan-harvester/internal/domain"
)

// AccountSnapshotStore appends analytic snapshots of harvested accounts.
// ClickHouse MergeTree does not enforce uniqueness; the harvester creates
// exactly one record per (address, run), so the table is append-only by
// construction.
type AccountSnapshotStore struct {
	conn *Conn
}

// NewAccountSnapshotStore creates a new AccountSnapshotStore.
func NewAccountSnapshotStore(conn *Conn) *AccountSnapshotStore {
	return &AccountSnapshotStore{conn: conn}
}

// InsertBulk appends snapshot rows derived from harvested records.
func (s *AccountSnapshotStore) InsertBulk(ctx context.Context, records []*domain.AccountRecord) error {
	if len(records) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO account_snapshots (
			address, lamports, holdings_count, total_token_amount,
			tx_count, last_tx_time, engagement_score, captured_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range records {
		err = batch.Append(
			r.Address.String(),
			r.Profile.Lamports,
			uint32(len(r.Holdings)),
			r.TotalTokenAmount(),
			uint32(len(r.Activity)),
			r.LastActivityTime(),
			r.EngagementScore(),
			uint64(r.CapturedAt),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// CountByAddress returns the number of stored snapshots for one address.
func (s *AccountSnapshotStore) CountByAddress(ctx context.Context, addr domain.Address) (uint64, error) {
	var count uint64
	err := s.conn.QueryRow(ctx, `
		SELECT count() FROM account_snapshots WHERE address = ?
	`, addr.String()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count snapshots: %w", err)
	}
	return count, nil
}
