// Package metrics defines the core value types shared across the
// history, trend, and insight layers: the Snapshot currency type and
// the severity/category vocabulary for derived insights.
package metrics

import "time"

// Snapshot is one timestamped reading of all tracked system metrics.
// It is immutable once created: the collector produces it, the history
// store owns it after ingestion, and nothing mutates it in between.
type Snapshot struct {
	Timestamp time.Time

	// CPU
	CPUUsagePercent           float64 // overall utilization (0-100)
	CPUPerformanceCorePercent float64 // average across performance cores
	CPUEfficiencyCorePercent  float64 // average across efficiency cores
	CPUTemperatureC           float64

	// GPU
	GPUUsagePercent float64
	GPUTemperatureC float64

	// Memory (bytes)
	MemoryTotalBytes      uint64
	MemoryUsedBytes       uint64
	MemoryWiredBytes      uint64
	MemoryCompressedBytes uint64
	SwapUsedBytes         uint64

	// Disk I/O (rates over the last collection interval)
	DiskReadBytesPerSec  float64
	DiskWriteBytesPerSec float64

	// Network I/O (rates over the last collection interval)
	NetworkInBytesPerSec  float64
	NetworkOutBytesPerSec float64

	// Cooling
	FanRPM float64
}

// MemoryUsedPercent returns used memory as a percentage of total.
// Returns 0 when total is unknown rather than dividing by zero.
func (s Snapshot) MemoryUsedPercent() float64 {
	if s.MemoryTotalBytes == 0 {
		return 0
	}
	return float64(s.MemoryUsedBytes) / float64(s.MemoryTotalBytes) * 100
}
