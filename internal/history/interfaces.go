package history

import (
	"context"
	"time"

	"sysinsight/internal/metrics"
)

// SnapshotStore defines the contract for the snapshot history log.
// The Store type implements it on DuckDB; tests and consumers that only
// need a subset can substitute fakes.
type SnapshotStore interface {
	// Record appends one snapshot. It fails with a *StorageError only on
	// unrecoverable I/O failure; the snapshot is then dropped, not retried.
	Record(ctx context.Context, snap metrics.Snapshot) error

	// SnapshotsInRange returns all snapshots with timestamp in [from, to),
	// in ascending timestamp order.
	SnapshotsInRange(ctx context.Context, from, to time.Time) ([]metrics.Snapshot, error)

	// RecentSnapshots returns up to limit of the newest snapshots, in
	// ascending timestamp order.
	RecentSnapshots(ctx context.Context, limit int) ([]metrics.Snapshot, error)

	// LatestSnapshot returns the newest snapshot, or nil when the store
	// is empty.
	LatestSnapshot(ctx context.Context) (*metrics.Snapshot, error)

	// HourlyAverages buckets snapshots in [from, to) into hour-aligned
	// buckets. Buckets with zero samples are omitted, not zero-filled.
	HourlyAverages(ctx context.Context, from, to time.Time) ([]HourlyMetrics, error)

	// DailyAverages is HourlyAverages with day-aligned buckets.
	DailyAverages(ctx context.Context, from, to time.Time) ([]DailyMetrics, error)

	// WeekdayAverages aggregates snapshots in [from, to) by weekday.
	WeekdayAverages(ctx context.Context, from, to time.Time) ([]WeekdayAverage, error)

	// HourOfDayAverages aggregates snapshots in [from, to) by hour of day.
	HourOfDayAverages(ctx context.Context, from, to time.Time) ([]HourOfDayAverage, error)

	// Summarize computes per-metric mean and maximum over [from, to).
	// An empty range yields a zero SummaryRow, not an error.
	Summarize(ctx context.Context, from, to time.Time) (SummaryRow, error)

	// TotalSnapshotCount reports how many snapshots are currently
	// retained. Monotonically non-decreasing between retention trims.
	TotalSnapshotCount(ctx context.Context) (int64, error)

	// TrimOlderThan deletes snapshots older than cutoff and reports how
	// many were removed. Readers observe either the pre- or post-trim
	// state, never a partially trimmed range.
	TrimOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
