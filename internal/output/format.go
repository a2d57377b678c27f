package output

import (
	"fmt"

	"sysinsight/internal/collector"
	"sysinsight/internal/insight"
	"sysinsight/internal/metrics"
)

// Section constants to avoid hardcoded strings
const (
	SectionCPU     = "cpu"
	SectionGPU     = "gpu"
	SectionMemory  = "memory"
	SectionThermal = "thermal"
	SectionIO      = "io"
)

// Item status strings shared by the TUI and the console report.
const (
	StatusOK   = "OK"
	StatusInfo = "INFO"
	StatusWarn = "WARN"
	StatusCrit = "CRIT"
)

const bytesPerGB = 1024 * 1024 * 1024

// UI/view-model types (no printing here)
type Item struct {
	Key    string
	Label  string
	Value  float64
	Unit   string
	Status string
	Note   string
}

type Section struct {
	ID    string // cpu/gpu/memory/thermal/io
	Title string
	Items []Item
}

type DashboardView struct {
	Sections []Section

	// Engine roll-up for the header line.
	Status      string
	StatusLine  string
	ActiveCount int
}

// BuildDashboard converts one reading plus the engine state into
// UI-ready sections. Item statuses come from the active insight set so
// the view never re-derives thresholds.
func BuildDashboard(reading collector.Reading, state insight.EngineState) DashboardView {
	snap := reading.Snapshot

	cpu := Section{ID: SectionCPU, Title: "CPU"}
	cpu.Items = append(cpu.Items,
		Item{Key: "cpu_usage", Label: "Usage", Value: snap.CPUUsagePercent, Unit: "%",
			Status: statusFor(state.Active, metrics.InsightID(metrics.CategoryCPU, "cpu-saturation"))},
		Item{Key: "cpu_pcores", Label: "P-Cores", Value: snap.CPUPerformanceCorePercent, Unit: "%", Status: StatusOK},
		Item{Key: "cpu_ecores", Label: "E-Cores", Value: snap.CPUEfficiencyCorePercent, Unit: "%", Status: StatusOK},
	)
	if reading.CPUFrequencyMHz > 0 {
		cpu.Items = append(cpu.Items, Item{
			Key: "cpu_freq", Label: "Frequency", Value: reading.CPUFrequencyMHz, Unit: "MHz", Status: StatusOK,
		})
	}
	for i, usage := range reading.PerCorePercent {
		cpu.Items = append(cpu.Items, Item{
			Key:    fmt.Sprintf("core_%d", i),
			Label:  fmt.Sprintf("Core %d", i),
			Value:  usage,
			Unit:   "%",
			Status: StatusOK,
		})
	}

	gpu := Section{ID: SectionGPU, Title: "GPU"}
	gpu.Items = append(gpu.Items,
		Item{Key: "gpu_usage", Label: "Usage", Value: snap.GPUUsagePercent, Unit: "%",
			Status: statusFor(state.Active, metrics.InsightID(metrics.CategoryDevWorkload, "gpu-saturation"))},
		Item{Key: "gpu_temp", Label: "Temperature", Value: snap.GPUTemperatureC, Unit: "°C", Status: StatusOK},
	)

	memory := Section{ID: SectionMemory, Title: "Memory"}
	memory.Items = append(memory.Items,
		Item{Key: "memory_used_pct", Label: "Used", Value: snap.MemoryUsedPercent(), Unit: "%",
			Status: statusFor(state.Active, metrics.InsightID(metrics.CategoryMemory, "memory-pressure"))},
		Item{Key: "memory_used", Label: "Used", Value: gb(snap.MemoryUsedBytes), Unit: "GB", Status: StatusOK},
		Item{Key: "memory_total", Label: "Total", Value: gb(snap.MemoryTotalBytes), Unit: "GB", Status: StatusOK},
		Item{Key: "memory_wired", Label: "Wired", Value: gb(snap.MemoryWiredBytes), Unit: "GB", Status: StatusOK},
		Item{Key: "memory_compressed", Label: "Compressed", Value: gb(snap.MemoryCompressedBytes), Unit: "GB", Status: StatusOK},
		Item{Key: "swap_used", Label: "Swap", Value: gb(snap.SwapUsedBytes), Unit: "GB", Status: StatusOK},
	)

	thermal := Section{ID: SectionThermal, Title: "Thermal"}
	thermal.Items = append(thermal.Items,
		Item{Key: "cpu_temp", Label: "CPU Temperature", Value: snap.CPUTemperatureC, Unit: "°C",
			Status: statusFor(state.Active, metrics.InsightID(metrics.CategoryThermal, "high-temperature"))},
	)
	if snap.FanRPM > 0 {
		thermal.Items = append(thermal.Items, Item{
			Key: "fan_rpm", Label: "Fan", Value: snap.FanRPM, Unit: "RPM", Status: StatusOK,
		})
	}

	io := Section{ID: SectionIO, Title: "I/O"}
	io.Items = append(io.Items,
		Item{Key: "disk_read", Label: "Disk Read", Value: mbps(snap.DiskReadBytesPerSec), Unit: "MB/s", Status: StatusOK},
		Item{Key: "disk_write", Label: "Disk Write", Value: mbps(snap.DiskWriteBytesPerSec), Unit: "MB/s", Status: StatusOK},
		Item{Key: "net_in", Label: "Net In", Value: mbps(snap.NetworkInBytesPerSec), Unit: "MB/s", Status: StatusOK},
		Item{Key: "net_out", Label: "Net Out", Value: mbps(snap.NetworkOutBytesPerSec), Unit: "MB/s", Status: StatusOK},
	)

	return DashboardView{
		Sections:    []Section{cpu, gpu, memory, thermal, io},
		Status:      SystemStatusString(state.Status),
		StatusLine:  state.Summary,
		ActiveCount: len(state.Active),
	}
}

func (v DashboardView) SectionByID(id string) *Section {
	for i := range v.Sections {
		if v.Sections[i].ID == id {
			return &v.Sections[i]
		}
	}
	return nil
}

func (s Section) ItemByKey(key string) *Item {
	for i := range s.Items {
		if s.Items[i].Key == key {
			return &s.Items[i]
		}
	}
	return nil
}

// statusFor maps a metric to the status of its matching active insight,
// OK when absent.
func statusFor(active []metrics.Insight, id string) string {
	for i := range active {
		if active[i].ID == id {
			return SeverityStatusString(active[i].Severity)
		}
	}
	return StatusOK
}

// SeverityStatusString renders an insight severity as an item status.
func SeverityStatusString(sev metrics.Severity) string {
	switch sev {
	case metrics.SeverityCritical:
		return StatusCrit
	case metrics.SeverityWarning:
		return StatusWarn
	case metrics.SeverityInfo:
		return StatusInfo
	default:
		return StatusOK
	}
}

// SystemStatusString renders the engine roll-up for headers.
func SystemStatusString(status metrics.SystemStatus) string {
	switch status {
	case metrics.StatusCritical:
		return StatusCrit
	case metrics.StatusWarning:
		return StatusWarn
	case metrics.StatusInfo:
		return StatusInfo
	default:
		return StatusOK
	}
}

func gb(bytes uint64) float64 {
	return float64(bytes) / bytesPerGB
}

func mbps(bytesPerSec float64) float64 {
	return bytesPerSec / 1024 / 1024
}
