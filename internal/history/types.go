package history

import "time"

// =============================================================================
// AGGREGATE ROW TYPES
// =============================================================================

// HourlyMetrics is one hour-aligned aggregation bucket. Averages are
// arithmetic means over the snapshots whose timestamp falls in
// [BucketStart, BucketStart+1h). Memory is expressed as used percent of
// total so it is comparable across machines with different RAM sizes.
type HourlyMetrics struct {
	BucketStart    time.Time
	AvgCPU         float64
	AvgMemory      float64
	AvgGPU         float64
	AvgTemperature float64
	SampleCount    int64
}

// DailyMetrics is one day-aligned aggregation bucket, same field
// semantics as HourlyMetrics.
type DailyMetrics struct {
	BucketStart    time.Time
	AvgCPU         float64
	AvgMemory      float64
	AvgGPU         float64
	AvgTemperature float64
	SampleCount    int64
}

// WeekdayAverage aggregates all snapshots sharing a weekday within a
// range. Weekday follows time.Weekday numbering (Sunday = 0).
type WeekdayAverage struct {
	Weekday     time.Weekday
	AvgCPU      float64
	AvgMemory   float64
	SampleCount int64
}

// HourOfDayAverage aggregates all snapshots sharing an hour of day
// (0-23, UTC) within a range.
type HourOfDayAverage struct {
	Hour        int
	AvgCPU      float64
	AvgMemory   float64
	SampleCount int64
}

// SummaryRow holds per-metric mean and maximum over a range plus the
// number of underlying snapshots (not buckets).
type SummaryRow struct {
	AvgCPU         float64
	MaxCPU         float64
	AvgMemory      float64
	MaxMemory      float64
	AvgGPU         float64
	MaxGPU         float64
	AvgTemperature float64
	MaxTemperature float64
	SampleCount    int64
}

// =============================================================================
// ERRORS
// =============================================================================

// StorageError wraps an unrecoverable persistence failure. It is
// non-fatal by contract: callers log it and carry on without history
// rather than crashing.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return "history: " + e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}
