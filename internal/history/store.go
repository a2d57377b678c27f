package history

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"sysinsight/internal/metrics"
)

// =============================================================================
// SCHEMA SQL
// =============================================================================

const SchemaSQL = `
CREATE TABLE IF NOT EXISTS snapshots (
  snapshot_id          BIGINT PRIMARY KEY,
  collected_at         TIMESTAMP NOT NULL,

  cpu_usage_pct        DOUBLE NOT NULL,
  cpu_pcore_pct        DOUBLE NOT NULL,
  cpu_ecore_pct        DOUBLE NOT NULL,
  cpu_temp_c           DOUBLE NOT NULL,

  gpu_usage_pct        DOUBLE NOT NULL,
  gpu_temp_c           DOUBLE NOT NULL,

  mem_total_bytes      BIGINT NOT NULL,
  mem_used_bytes       BIGINT NOT NULL,
  mem_wired_bytes      BIGINT NOT NULL,
  mem_compressed_bytes BIGINT NOT NULL,
  swap_used_bytes      BIGINT NOT NULL,

  disk_read_bps        DOUBLE NOT NULL,
  disk_write_bps       DOUBLE NOT NULL,
  net_in_bps           DOUBLE NOT NULL,
  net_out_bps          DOUBLE NOT NULL,

  fan_rpm              DOUBLE NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_snapshots_collected_at ON snapshots(collected_at);
`

// memPctExpr converts the stored byte columns into a used-percent value
// inside aggregation queries, guarding the zero-total case.
const memPctExpr = `CASE WHEN mem_total_bytes > 0 THEN mem_used_bytes * 100.0 / mem_total_bytes ELSE 0 END`

// snapshotColumns is the scan order shared by every raw-row query.
const snapshotColumns = `collected_at,
  cpu_usage_pct, cpu_pcore_pct, cpu_ecore_pct, cpu_temp_c,
  gpu_usage_pct, gpu_temp_c,
  mem_total_bytes, mem_used_bytes, mem_wired_bytes, mem_compressed_bytes, swap_used_bytes,
  disk_read_bps, disk_write_bps, net_in_bps, net_out_bps,
  fan_rpm`

// =============================================================================
// STORE IMPLEMENTATION
// =============================================================================

// DefaultRetentionDays bounds how much history the store keeps before a
// retention trim removes the oldest snapshots.
const DefaultRetentionDays = 90

// Store is the append-only snapshot log. All mutation and read
// operations serialize through a single-writer, many-reader lock; the
// write rate is one snapshot per few seconds, so nothing fancier is
// needed.
type Store struct {
	db *sql.DB
	mu sync.RWMutex

	retentionDays int
}

// StoreOption configures the snapshot store.
type StoreOption func(*Store)

// WithRetentionDays sets the retention horizon used by RetentionCutoff.
// Values below 1 fall back to the default.
func WithRetentionDays(days int) StoreOption {
	return func(s *Store) {
		if days >= 1 {
			s.retentionDays = days
		}
	}
}

// NewStore wraps a DuckDB handle. Call Migrate before first use.
func NewStore(db *sql.DB, opts ...StoreOption) *Store {
	s := &Store{
		db:            db,
		retentionDays: DefaultRetentionDays,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Migrate creates the snapshot schema if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, SchemaSQL)
	return storageErr("migrate", err)
}

// NewID generates a unique snapshot ID (time-based).
func NewID() int64 {
	return time.Now().UnixNano()
}

// Record appends one snapshot. The critical section covers a single
// row insert; callers are never blocked longer than that.
func (s *Store) Record(ctx context.Context, snap metrics.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO snapshots(
		  snapshot_id, collected_at,
		  cpu_usage_pct, cpu_pcore_pct, cpu_ecore_pct, cpu_temp_c,
		  gpu_usage_pct, gpu_temp_c,
		  mem_total_bytes, mem_used_bytes, mem_wired_bytes, mem_compressed_bytes, swap_used_bytes,
		  disk_read_bps, disk_write_bps, net_in_bps, net_out_bps,
		  fan_rpm
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
	`,
		NewID(), snap.Timestamp.UTC(),
		snap.CPUUsagePercent, snap.CPUPerformanceCorePercent, snap.CPUEfficiencyCorePercent, snap.CPUTemperatureC,
		snap.GPUUsagePercent, snap.GPUTemperatureC,
		int64(snap.MemoryTotalBytes), int64(snap.MemoryUsedBytes), int64(snap.MemoryWiredBytes), int64(snap.MemoryCompressedBytes), int64(snap.SwapUsedBytes),
		snap.DiskReadBytesPerSec, snap.DiskWriteBytesPerSec, snap.NetworkInBytesPerSec, snap.NetworkOutBytesPerSec,
		snap.FanRPM,
	)
	return storageErr("record", err)
}

// SnapshotsInRange returns all snapshots with timestamp in [from, to),
// ascending.
func (s *Store) SnapshotsInRange(ctx context.Context, from, to time.Time) ([]metrics.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+snapshotColumns+`
		FROM snapshots
		WHERE collected_at >= ? AND collected_at < ?
		ORDER BY collected_at
	`, from.UTC(), to.UTC())
	if err != nil {
		return nil, storageErr("snapshots in range", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

// RecentSnapshots returns up to limit of the newest snapshots,
// ascending. Non-positive limits clamp to 1, oversized to 10000.
func (s *Store) RecentSnapshots(ctx context.Context, limit int) ([]metrics.Snapshot, error) {
	if limit <= 0 {
		limit = 1
	}
	if limit > 10000 {
		limit = 10000
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+snapshotColumns+`
		FROM (
		  SELECT * FROM snapshots ORDER BY collected_at DESC LIMIT ?
		)
		ORDER BY collected_at
	`, limit)
	if err != nil {
		return nil, storageErr("recent snapshots", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

// LatestSnapshot returns the newest snapshot, or nil when empty.
func (s *Store) LatestSnapshot(ctx context.Context) (*metrics.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT `+snapshotColumns+`
		FROM snapshots
		ORDER BY collected_at DESC
		LIMIT 1
	`)

	snap, err := scanSnapshotRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("latest snapshot", err)
	}
	return &snap, nil
}

// HourlyAverages buckets snapshots in [from, to) into hour-aligned
// buckets. Bucket boundaries are computed in UTC; buckets with zero
// samples are omitted.
func (s *Store) HourlyAverages(ctx context.Context, from, to time.Time) ([]HourlyMetrics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.bucketQuery(ctx, "hour", from, to)
	if err != nil {
		return nil, storageErr("hourly averages", err)
	}
	defer rows.Close()

	out := make([]HourlyMetrics, 0)
	for rows.Next() {
		var m HourlyMetrics
		if err := rows.Scan(&m.BucketStart, &m.AvgCPU, &m.AvgMemory, &m.AvgGPU, &m.AvgTemperature, &m.SampleCount); err != nil {
			return nil, storageErr("hourly averages scan", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("hourly averages rows", err)
	}
	return out, nil
}

// DailyAverages is HourlyAverages with day-aligned buckets.
func (s *Store) DailyAverages(ctx context.Context, from, to time.Time) ([]DailyMetrics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.bucketQuery(ctx, "day", from, to)
	if err != nil {
		return nil, storageErr("daily averages", err)
	}
	defer rows.Close()

	out := make([]DailyMetrics, 0)
	for rows.Next() {
		var m DailyMetrics
		if err := rows.Scan(&m.BucketStart, &m.AvgCPU, &m.AvgMemory, &m.AvgGPU, &m.AvgTemperature, &m.SampleCount); err != nil {
			return nil, storageErr("daily averages scan", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("daily averages rows", err)
	}
	return out, nil
}

// bucketQuery runs the shared aggregation statement; trunc is "hour" or
// "day". Callers hold s.mu and own the returned rows.
func (s *Store) bucketQuery(ctx context.Context, trunc string, from, to time.Time) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, `
		SELECT date_trunc('`+trunc+`', collected_at) AS bucket_start,
		       avg(cpu_usage_pct)  AS avg_cpu,
		       avg(`+memPctExpr+`) AS avg_mem,
		       avg(gpu_usage_pct)  AS avg_gpu,
		       avg(cpu_temp_c)     AS avg_temp,
		       count(*)            AS sample_count
		FROM snapshots
		WHERE collected_at >= ? AND collected_at < ?
		GROUP BY bucket_start
		ORDER BY bucket_start
	`, from.UTC(), to.UTC())
}

// WeekdayAverages aggregates snapshots in [from, to) by weekday
// (Sunday = 0, matching time.Weekday).
func (s *Store) WeekdayAverages(ctx context.Context, from, to time.Time) ([]WeekdayAverage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT CAST(extract(dow FROM collected_at) AS BIGINT) AS weekday,
		       avg(cpu_usage_pct)  AS avg_cpu,
		       avg(`+memPctExpr+`) AS avg_mem,
		       count(*)            AS sample_count
		FROM snapshots
		WHERE collected_at >= ? AND collected_at < ?
		GROUP BY weekday
		ORDER BY weekday
	`, from.UTC(), to.UTC())
	if err != nil {
		return nil, storageErr("weekday averages", err)
	}
	defer rows.Close()

	out := make([]WeekdayAverage, 0)
	for rows.Next() {
		var dow int64
		var w WeekdayAverage
		if err := rows.Scan(&dow, &w.AvgCPU, &w.AvgMemory, &w.SampleCount); err != nil {
			return nil, storageErr("weekday averages scan", err)
		}
		w.Weekday = time.Weekday(dow)
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("weekday averages rows", err)
	}
	return out, nil
}

// HourOfDayAverages aggregates snapshots in [from, to) by hour of day
// (0-23, UTC).
func (s *Store) HourOfDayAverages(ctx context.Context, from, to time.Time) ([]HourOfDayAverage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT CAST(extract(hour FROM collected_at) AS BIGINT) AS hour_of_day,
		       avg(cpu_usage_pct)  AS avg_cpu,
		       avg(`+memPctExpr+`) AS avg_mem,
		       count(*)            AS sample_count
		FROM snapshots
		WHERE collected_at >= ? AND collected_at < ?
		GROUP BY hour_of_day
		ORDER BY hour_of_day
	`, from.UTC(), to.UTC())
	if err != nil {
		return nil, storageErr("hour of day averages", err)
	}
	defer rows.Close()

	out := make([]HourOfDayAverage, 0)
	for rows.Next() {
		var hour int64
		var h HourOfDayAverage
		if err := rows.Scan(&hour, &h.AvgCPU, &h.AvgMemory, &h.SampleCount); err != nil {
			return nil, storageErr("hour of day averages scan", err)
		}
		h.Hour = int(hour)
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("hour of day averages rows", err)
	}
	return out, nil
}

// Summarize computes per-metric mean and maximum over [from, to).
// SampleCount counts underlying snapshots, not buckets. An empty range
// yields a zero row, never an error.
func (s *Store) Summarize(ctx context.Context, from, to time.Time) (SummaryRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT avg(cpu_usage_pct),  max(cpu_usage_pct),
		       avg(`+memPctExpr+`), max(`+memPctExpr+`),
		       avg(gpu_usage_pct),  max(gpu_usage_pct),
		       avg(cpu_temp_c),     max(cpu_temp_c),
		       count(*)
		FROM snapshots
		WHERE collected_at >= ? AND collected_at < ?
	`, from.UTC(), to.UTC())

	var avgCPU, maxCPU, avgMem, maxMem, avgGPU, maxGPU, avgTemp, maxTemp sql.NullFloat64
	var count int64
	if err := row.Scan(&avgCPU, &maxCPU, &avgMem, &maxMem, &avgGPU, &maxGPU, &avgTemp, &maxTemp, &count); err != nil {
		return SummaryRow{}, storageErr("summarize", err)
	}

	return SummaryRow{
		AvgCPU:         avgCPU.Float64,
		MaxCPU:         maxCPU.Float64,
		AvgMemory:      avgMem.Float64,
		MaxMemory:      maxMem.Float64,
		AvgGPU:         avgGPU.Float64,
		MaxGPU:         maxGPU.Float64,
		AvgTemperature: avgTemp.Float64,
		MaxTemperature: maxTemp.Float64,
		SampleCount:    count,
	}, nil
}

// TotalSnapshotCount reports how many snapshots are currently retained.
func (s *Store) TotalSnapshotCount(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM snapshots`).Scan(&count)
	if err != nil {
		return 0, storageErr("total snapshot count", err)
	}
	return count, nil
}

// TrimOlderThan deletes snapshots older than cutoff under the exclusive
// lock, so in-flight readers observe either the pre- or post-trim state.
// A cancelled context aborts before the delete is issued.
func (s *Store) TrimOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return 0, err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE collected_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, storageErr("trim", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, storageErr("trim rows affected", err)
	}
	return removed, nil
}

// RetentionCutoff returns the oldest timestamp worth keeping relative
// to now, per the configured retention horizon.
func (s *Store) RetentionCutoff(now time.Time) time.Time {
	return now.AddDate(0, 0, -s.retentionDays)
}

// RetentionDays exposes the configured horizon.
func (s *Store) RetentionDays() int {
	return s.retentionDays
}

// =============================================================================
// SCAN HELPERS
// =============================================================================

func scanSnapshots(rows *sql.Rows) ([]metrics.Snapshot, error) {
	out := make([]metrics.Snapshot, 0)
	for rows.Next() {
		var snap metrics.Snapshot
		var memTotal, memUsed, memWired, memCompressed, swapUsed int64
		if err := rows.Scan(
			&snap.Timestamp,
			&snap.CPUUsagePercent, &snap.CPUPerformanceCorePercent, &snap.CPUEfficiencyCorePercent, &snap.CPUTemperatureC,
			&snap.GPUUsagePercent, &snap.GPUTemperatureC,
			&memTotal, &memUsed, &memWired, &memCompressed, &swapUsed,
			&snap.DiskReadBytesPerSec, &snap.DiskWriteBytesPerSec, &snap.NetworkInBytesPerSec, &snap.NetworkOutBytesPerSec,
			&snap.FanRPM,
		); err != nil {
			return nil, storageErr("snapshot scan", err)
		}
		snap.MemoryTotalBytes = uint64(memTotal)
		snap.MemoryUsedBytes = uint64(memUsed)
		snap.MemoryWiredBytes = uint64(memWired)
		snap.MemoryCompressedBytes = uint64(memCompressed)
		snap.SwapUsedBytes = uint64(swapUsed)
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("snapshot rows", err)
	}
	return out, nil
}

func scanSnapshotRow(row *sql.Row) (metrics.Snapshot, error) {
	var snap metrics.Snapshot
	var memTotal, memUsed, memWired, memCompressed, swapUsed int64
	err := row.Scan(
		&snap.Timestamp,
		&snap.CPUUsagePercent, &snap.CPUPerformanceCorePercent, &snap.CPUEfficiencyCorePercent, &snap.CPUTemperatureC,
		&snap.GPUUsagePercent, &snap.GPUTemperatureC,
		&memTotal, &memUsed, &memWired, &memCompressed, &swapUsed,
		&snap.DiskReadBytesPerSec, &snap.DiskWriteBytesPerSec, &snap.NetworkInBytesPerSec, &snap.NetworkOutBytesPerSec,
		&snap.FanRPM,
	)
	if err != nil {
		return metrics.Snapshot{}, err
	}
	snap.MemoryTotalBytes = uint64(memTotal)
	snap.MemoryUsedBytes = uint64(memUsed)
	snap.MemoryWiredBytes = uint64(memWired)
	snap.MemoryCompressedBytes = uint64(memCompressed)
	snap.SwapUsedBytes = uint64(swapUsed)
	return snap, nil
}
