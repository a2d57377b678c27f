package collector

import (
	"context"
	"testing"
	"time"

	"sysinsight/internal/collector/services"
)

// MockProvider satisfies the SnapshotProvider interface
type MockProvider struct {
	Reading *Reading
	Host    *HostInfo
	Err     error
}

func (m MockProvider) Collect(ctx context.Context) (*Reading, error) {
	return m.Reading, m.Err
}

func (m MockProvider) HostInfo(ctx context.Context) (*HostInfo, error) {
	return m.Host, m.Err
}

func TestMockProvider(t *testing.T) {
	expected := &Reading{
		PerCorePercent:      []float64{20, 30},
		CPUFrequencyMHz:     3200,
		CPUBaseFrequencyMHz: 3200,
	}
	expected.Snapshot.CPUUsagePercent = 25

	mock := MockProvider{Reading: expected}

	reading, err := mock.Collect(context.Background())
	switch {
	case err != nil:
		t.Fatalf("Expected no error, got %v", err)
	case reading.Snapshot.CPUUsagePercent != 25:
		t.Errorf("Expected CPU usage 25, got %f", reading.Snapshot.CPUUsagePercent)
	case len(reading.PerCorePercent) != 2:
		t.Errorf("Expected 2 cores, got %d", len(reading.PerCorePercent))
	}
}

func TestSplitCores(t *testing.T) {
	perCore := []float64{10, 20, 70, 80, 90, 60}

	tests := []struct {
		name     string
		effCount int
		wantP    int
		wantE    int
	}{
		{name: "two efficiency cores", effCount: 2, wantP: 4, wantE: 2},
		{name: "no topology", effCount: 0, wantP: 6, wantE: 0},
		{name: "count past the end", effCount: 6, wantP: 6, wantE: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, e := splitCores(perCore, tt.effCount)
			if len(p) != tt.wantP || len(e) != tt.wantE {
				t.Errorf("split = %d/%d cores, want %d/%d", len(p), len(e), tt.wantP, tt.wantE)
			}
		})
	}

	p, e := splitCores(perCore, 2)
	if avgPercent(e) != 15 {
		t.Errorf("efficiency average = %f, want 15", avgPercent(e))
	}
	if avgPercent(p) != 75 {
		t.Errorf("performance average = %f, want 75", avgPercent(p))
	}
}

func TestCounterRate(t *testing.T) {
	if got := counterRate(300, 100, 2); got != 100 {
		t.Errorf("rate = %f, want 100", got)
	}
	// A counter reset must not produce a huge unsigned delta.
	if got := counterRate(100, 300, 2); got != 0 {
		t.Errorf("rate after reset = %f, want 0", got)
	}
}

func TestSumInterfacesSkipsLoopback(t *testing.T) {
	totals := sumInterfaces([]services.InterfaceStat{
		{Name: "lo0", BytesRecv: 500, BytesSent: 500},
		{Name: "en0", BytesRecv: 100, BytesSent: 40},
		{Name: "en1", BytesRecv: 20, BytesSent: 10},
	})

	if totals.read != 120 || totals.write != 50 {
		t.Errorf("totals = %d/%d, want 120/50", totals.read, totals.write)
	}
}

func TestPickTemperatures(t *testing.T) {
	tests := []struct {
		name    string
		temps   []services.TempStat
		wantCPU float64
		wantGPU float64
	}{
		{
			name: "smc style keys",
			temps: []services.TempStat{
				{SensorKey: "TG0P", Temperature: 48},
				{SensorKey: "TC0P", Temperature: 58},
			},
			wantCPU: 58,
			wantGPU: 48,
		},
		{
			name: "tdie preferred over generic cpu key",
			temps: []services.TempStat{
				{SensorKey: "cpu_thermal_zone", Temperature: 51},
				{SensorKey: "tdie", Temperature: 62},
			},
			wantCPU: 62,
		},
		{
			name: "zero readings skipped",
			temps: []services.TempStat{
				{SensorKey: "tdie", Temperature: 0},
				{SensorKey: "cpu", Temperature: 45},
			},
			wantCPU: 45,
		},
		{
			name: "no recognizable keys",
			temps: []services.TempStat{
				{SensorKey: "ambient", Temperature: 28},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cpuC, gpuC := pickTemperatures(tt.temps)
			if cpuC != tt.wantCPU {
				t.Errorf("cpu temp = %f, want %f", cpuC, tt.wantCPU)
			}
			if gpuC != tt.wantGPU {
				t.Errorf("gpu temp = %f, want %f", gpuC, tt.wantGPU)
			}
		})
	}
}

func TestSystemCollectorLive(t *testing.T) {
	c := NewSystemCollector(DefaultCollectorConfig())

	reading, err := c.Collect(context.Background())
	if err != nil {
		t.Skipf("Skipping system test: %v (might be environment specific)", err)
	}

	snap := reading.Snapshot
	switch {
	case snap.CPUUsagePercent < 0 || snap.CPUUsagePercent > 100:
		t.Errorf("CPU usage out of bounds: %f", snap.CPUUsagePercent)
	case snap.MemoryTotalBytes == 0:
		t.Error("memory total should be non-zero")
	case snap.Timestamp.IsZero():
		t.Error("snapshot timestamp not set")
	}

	if pct := snap.MemoryUsedPercent(); pct < 0 || pct > 100 {
		t.Errorf("memory used percent out of bounds: %f", pct)
	}

	// First pass has no baseline, so rates must be zero.
	if snap.DiskReadBytesPerSec != 0 || snap.NetworkInBytesPerSec != 0 {
		t.Errorf("first pass reported rates: disk %f net %f",
			snap.DiskReadBytesPerSec, snap.NetworkInBytesPerSec)
	}

	time.Sleep(50 * time.Millisecond)
	second, err := c.Collect(context.Background())
	if err != nil {
		t.Skipf("Skipping second pass: %v", err)
	}
	if second.Snapshot.DiskReadBytesPerSec < 0 || second.Snapshot.NetworkInBytesPerSec < 0 {
		t.Error("rates should never be negative")
	}
}

func TestHostInfoLive(t *testing.T) {
	c := NewSystemCollector(DefaultCollectorConfig())

	info, err := c.HostInfo(context.Background())
	if err != nil {
		t.Skipf("Skipping host test: %v (might be environment specific)", err)
	}
	if info.Hostname == "" {
		t.Error("hostname should not be empty")
	}
}
