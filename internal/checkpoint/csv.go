// Package checkpoint persists crawl and harvest output as CSV files.
// Snapshot writes are atomic with respect to the previous on-disk state:
// a crash mid-write never leaves a partial file as the visible result.
package checkpoint

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"solscan-harvester/internal/dedup"
	"solscan-harvester/internal/domain"
)

// SnapshotWriter writes full-set address snapshots.
type SnapshotWriter struct {
	path string
}

// NewSnapshotWriter creates a writer targeting path. The parent directory
// is created if missing.
func NewSnapshotWriter(path string) (*SnapshotWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &SnapshotWriter{path: path}, nil
}

// Path returns the snapshot target path.
func (w *SnapshotWriter) Path() string {
	return w.path
}

// WriteAddresses writes the full current set as a two-column CSV
// (address, captured ISO timestamp), one unique address per row in stable
// sorted order. The write goes to a temp file in the same directory which
// is fsynced and renamed over the target.
func (w *SnapshotWriter) WriteAddresses(set *dedup.AddressSet) error {
	tmp, err := os.CreateTemp(filepath.Dir(w.path), ".addresses-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after successful rename

	cw := csv.NewWriter(tmp)
	now := time.Now().UTC().Format(time.RFC3339)

	if err := cw.Write([]string{"address", "timestamp"}); err != nil {
		tmp.Close()
		return fmt.Errorf("write header: %w", err)
	}
	for _, addr := range set.Sorted() {
		if err := cw.Write([]string{addr.String(), now}); err != nil {
			tmp.Close()
			return fmt.Errorf("write row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}

	if err := os.Rename(tmpName, w.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// recordHeader is the harvest output table header.
var recordHeader = []string{
	"address", "lamports", "owner_program", "executable",
	"holdings_count", "total_token_amount", "tx_count",
	"last_tx_time", "engagement_score", "captured_at",
}

// RecordAppender appends harvested account records to a CSV table.
// The header is written once when the file is created.
type RecordAppender struct {
	file *os.File
	cw   *csv.Writer
}

// NewRecordAppender opens (or creates) the records table at path.
func NewRecordAppender(path string) (*RecordAppender, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	info, err := os.Stat(path)
	fresh := os.IsNotExist(err) || (err == nil && info.Size() == 0)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open records file: %w", err)
	}

	a := &RecordAppender{file: f, cw: csv.NewWriter(f)}
	if fresh {
		if err := a.cw.Write(recordHeader); err != nil {
			f.Close()
			return nil, fmt.Errorf("write header: %w", err)
		}
		a.cw.Flush()
		if err := a.cw.Error(); err != nil {
			f.Close()
			return nil, fmt.Errorf("flush header: %w", err)
		}
	}
	return a, nil
}

// Append writes one record row and flushes it to the OS.
func (a *RecordAppender) Append(r *domain.AccountRecord) error {
	row := []string{
		r.Address.String(),
		strconv.FormatUint(r.Profile.Lamports, 10),
		r.Profile.OwnerProg,
		strconv.FormatBool(r.Profile.Executable),
		strconv.Itoa(len(r.Holdings)),
		strconv.FormatFloat(r.TotalTokenAmount(), 'f', 6, 64),
		strconv.Itoa(len(r.Activity)),
		strconv.FormatInt(r.LastActivityTime(), 10),
		strconv.FormatFloat(r.EngagementScore(), 'f', 2, 64),
		strconv.FormatInt(r.CapturedAt, 10),
	}

	if err := a.cw.Write(row); err != nil {
		return fmt.Errorf("write record row: %w", err)
	}
	a.cw.Flush()
	if err := a.cw.Error(); err != nil {
		return fmt.Errorf("flush record row: %w", err)
	}
	return nil
}

// Close syncs and closes the underlying file.
func (a *RecordAppender) Close() error {
	a.cw.Flush()
	if err := a.cw.Error(); err != nil {
		a.file.Close()
		return err
	}
	if err := a.file.Sync(); err != nil {
		a.file.Close()
		return err
	}
	return a.file.Close()
}
