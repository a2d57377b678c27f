// Package collector produces metric snapshots from the local machine.
// One collection pass fans out to the per-concern sensors concurrently,
// derives I/O rates from counter deltas against the previous pass, and
// assembles the result into the shared snapshot type.
package collector

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"sysinsight/internal/collector/services"
	"sysinsight/internal/metrics"
)

// ============================================================================
// DATA STRUCTURES
// ============================================================================

// Reading is one collection pass: the persistable snapshot plus
// short-lived detail that feeds diagnostics and the UI but is not
// stored in history.
type Reading struct {
	Snapshot metrics.Snapshot

	// Per-CPU utilization split into clusters. Without topology the
	// performance slice holds every core and the efficiency slice is
	// empty.
	PerCorePercent []float64
	PCorePercent   []float64
	ECorePercent   []float64

	CPUFrequencyMHz     float64
	CPUBaseFrequencyMHz float64

	TopProcesses []ProcessStat
}

type ProcessStat struct {
	PID    int32
	Name   string
	CPU    float64
	Memory float32
}

// HostInfo identifies the machine the snapshots describe.
type HostInfo struct {
	Hostname        string
	OS              string
	Platform        string
	PlatformVersion string
	KernelVersion   string
	Architecture    string
	UptimeSeconds   uint64
	ProcessCount    uint64
}

// ============================================================================
// INTERFACE DEFINITION
// ============================================================================

// SnapshotProvider defines the contract for any snapshot producer, so
// tests and the TUI can swap in synthetic ones.
type SnapshotProvider interface {
	Collect(ctx context.Context) (*Reading, error)
	HostInfo(ctx context.Context) (*HostInfo, error)
}

// ============================================================================
// CONCRETE IMPLEMENTATION
// ============================================================================

type SystemCollector struct {
	config CollectorConfig

	cpuSensor      services.Sensor
	memSensor      services.Sensor
	diskSensor     services.Sensor
	netSensor      services.Sensor
	physicalSensor services.Sensor
	processSensor  services.Sensor
	hostSensor     services.Sensor

	// Previous pass counters for rate derivation.
	mu       sync.Mutex
	lastDisk ioTotals
	lastNet  ioTotals
	lastAt   time.Time
}

// ioTotals is a cumulative byte counter pair: read/received and
// written/sent.
type ioTotals struct {
	read  uint64
	write uint64
}

func NewSystemCollector(config CollectorConfig) *SystemCollector {
	return &SystemCollector{
		config:         config,
		cpuSensor:      services.NewCPUSensor(),
		memSensor:      services.NewMemSensor(),
		diskSensor:     services.NewDiskSensor(),
		netSensor:      services.NewNetSensor(),
		physicalSensor: services.NewPhysicalSensor(),
		processSensor:  services.NewProcessSensor(config.TopProcessCount),
		hostSensor:     services.NewHostSensor(),
	}
}

// Internal result types for concurrency
type cpuResult struct {
	stats services.CPUResult
	err   error
}

type memResult struct {
	stats services.MemResult
	err   error
}

type diskResult struct {
	stats services.DiskResult
	err   error
}

type netResult struct {
	stats services.NetResult
	err   error
}

type physicalResult struct {
	stats services.PhysicalResult
	err   error
}

type processResult struct {
	stats services.ProcessResult
	err   error
}

// Collect runs one concurrent collection pass. CPU and memory failures
// are fatal; disk, network, temperature, and process probes degrade to
// zero fields so a missing subsystem never stops ingestion.
func (s *SystemCollector) Collect(ctx context.Context) (*Reading, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.CollectTimeout)
	defer cancel()

	cpuCh := make(chan cpuResult, 1)
	memCh := make(chan memResult, 1)
	diskCh := make(chan diskResult, 1)
	netCh := make(chan netResult, 1)
	physCh := make(chan physicalResult, 1)
	processCh := make(chan processResult, 1)

	var wg sync.WaitGroup
	wg.Add(4)

	go func() {
		defer wg.Done()
		res, err := s.cpuSensor.Collect(ctx)
		if err != nil {
			cpuCh <- cpuResult{err: err}
			return
		}
		cpuCh <- cpuResult{stats: res.(services.CPUResult)}
	}()

	go func() {
		defer wg.Done()
		res, err := s.memSensor.Collect(ctx)
		if err != nil {
			memCh <- memResult{err: err}
			return
		}
		memCh <- memResult{stats: res.(services.MemResult)}
	}()

	go func() {
		defer wg.Done()
		res, err := s.diskSensor.Collect(ctx)
		if err != nil {
			diskCh <- diskResult{err: err}
			return
		}
		diskCh <- diskResult{stats: res.(services.DiskResult)}
	}()

	go func() {
		defer wg.Done()
		res, err := s.netSensor.Collect(ctx)
		if err != nil {
			netCh <- netResult{err: err}
			return
		}
		netCh <- netResult{stats: res.(services.NetResult)}
	}()

	if s.config.EnableTemperatures {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := s.physicalSensor.Collect(ctx)
			if err != nil {
				physCh <- physicalResult{err: err}
				return
			}
			physCh <- physicalResult{stats: res.(services.PhysicalResult)}
		}()
	} else {
		physCh <- physicalResult{}
	}

	if s.config.EnableProcessMetrics {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := s.processSensor.Collect(ctx)
			if err != nil {
				processCh <- processResult{err: err}
				return
			}
			processCh <- processResult{stats: res.(services.ProcessResult)}
		}()
	} else {
		processCh <- processResult{}
	}

	wg.Wait()

	// Gather results
	cpuRes := <-cpuCh
	memRes := <-memCh
	diskRes := <-diskCh
	netRes := <-netCh
	physRes := <-physCh
	processRes := <-processCh

	if cpuRes.err != nil {
		return nil, fmt.Errorf("failed to get CPU metrics: %w", cpuRes.err)
	}
	if memRes.err != nil {
		return nil, fmt.Errorf("failed to get memory metrics: %w", memRes.err)
	}

	now := time.Now()

	var diskTotals, netTotals ioTotals
	if diskRes.err == nil {
		diskTotals = sumDiskCounters(diskRes.stats.Counters)
	}
	if netRes.err == nil {
		netTotals = sumInterfaces(netRes.stats.Interfaces)
	}
	diskRead, diskWrite, netIn, netOut := s.rates(now, diskTotals, netTotals)

	pCores, eCores := splitCores(cpuRes.stats.PerCore, s.config.EfficiencyCoreCount)
	perfAvg := avgPercent(pCores)
	effAvg := perfAvg
	if len(eCores) > 0 {
		effAvg = avgPercent(eCores)
	}

	var cpuTemp, gpuTemp float64
	if physRes.err == nil {
		cpuTemp, gpuTemp = pickTemperatures(physRes.stats.Temperatures)
	}

	topProcesses := []ProcessStat{} // Initialize as empty slice
	if processRes.err == nil {
		for _, p := range processRes.stats.Processes {
			topProcesses = append(topProcesses, ProcessStat{
				PID:    p.PID,
				Name:   p.Name,
				CPU:    p.CPU,
				Memory: p.Memory,
			})
		}
	}

	// GPU utilization, compressor occupancy, and fan speed have no
	// portable source; they stay zero until a platform probe fills them.
	snap := metrics.Snapshot{
		Timestamp:                 now,
		CPUUsagePercent:           cpuRes.stats.TotalUsage,
		CPUPerformanceCorePercent: perfAvg,
		CPUEfficiencyCorePercent:  effAvg,
		CPUTemperatureC:           cpuTemp,
		GPUTemperatureC:           gpuTemp,
		MemoryTotalBytes:          memRes.stats.Total,
		MemoryUsedBytes:           memRes.stats.Used,
		MemoryWiredBytes:          memRes.stats.Wired,
		SwapUsedBytes:             memRes.stats.SwapUsed,
		DiskReadBytesPerSec:       diskRead,
		DiskWriteBytesPerSec:      diskWrite,
		NetworkInBytesPerSec:      netIn,
		NetworkOutBytesPerSec:     netOut,
	}

	return &Reading{
		Snapshot:            snap,
		PerCorePercent:      cpuRes.stats.PerCore,
		PCorePercent:        pCores,
		ECorePercent:        eCores,
		CPUFrequencyMHz:     cpuRes.stats.FrequencyMHz,
		CPUBaseFrequencyMHz: cpuRes.stats.BaseFrequencyMHz,
		TopProcesses:        topProcesses,
	}, nil
}

// HostInfo resolves the machine identity. Called once at startup, not
// per tick.
func (s *SystemCollector) HostInfo(ctx context.Context) (*HostInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.HostInfoTimeout)
	defer cancel()

	res, err := s.hostSensor.Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get host info: %w", err)
	}
	stats := res.(services.HostResult)

	return &HostInfo{
		Hostname:        stats.Hostname,
		OS:              stats.OS,
		Platform:        stats.Platform,
		PlatformVersion: stats.PlatformVersion,
		KernelVersion:   stats.KernelVersion,
		Architecture:    stats.KernelArch,
		UptimeSeconds:   stats.Uptime,
		ProcessCount:    stats.Procs,
	}, nil
}

// rates converts cumulative counters into per-second rates against the
// previous pass and stores the new baseline. The first pass has no
// baseline and reports zero.
func (s *SystemCollector) rates(now time.Time, disk, net ioTotals) (diskRead, diskWrite, netIn, netOut float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	elapsed := now.Sub(s.lastAt).Seconds()
	if !s.lastAt.IsZero() && elapsed > 0 {
		diskRead = counterRate(disk.read, s.lastDisk.read, elapsed)
		diskWrite = counterRate(disk.write, s.lastDisk.write, elapsed)
		netIn = counterRate(net.read, s.lastNet.read, elapsed)
		netOut = counterRate(net.write, s.lastNet.write, elapsed)
	}

	s.lastDisk = disk
	s.lastNet = net
	s.lastAt = now
	return diskRead, diskWrite, netIn, netOut
}

// counterRate guards against counter resets after sleep or device
// churn; a shrinking counter reports zero for that interval.
func counterRate(cur, prev uint64, elapsed float64) float64 {
	if cur < prev {
		return 0
	}
	return float64(cur-prev) / elapsed
}

// splitCores divides the per-CPU list into performance and efficiency
// clusters. Apple silicon enumerates efficiency cores first, so the
// leading effCount entries form the efficiency cluster. Without
// topology every core counts as performance.
func splitCores(perCore []float64, effCount int) (pCores, eCores []float64) {
	if effCount <= 0 || effCount >= len(perCore) {
		return perCore, nil
	}
	return perCore[effCount:], perCore[:effCount]
}

func avgPercent(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func sumDiskCounters(counters map[string]services.DiskIOStat) ioTotals {
	var t ioTotals
	for _, c := range counters {
		t.read += c.ReadBytes
		t.write += c.WriteBytes
	}
	return t
}

// sumInterfaces totals non-loopback interface counters.
func sumInterfaces(ifaces []services.InterfaceStat) ioTotals {
	var t ioTotals
	for _, i := range ifaces {
		if strings.HasPrefix(i.Name, "lo") {
			continue
		}
		t.read += i.BytesRecv
		t.write += i.BytesSent
	}
	return t
}

// Die sensor keys in preference order. Darwin exposes SMC-style keys
// (tdie, TC0P), linux hwmon uses coretemp/k10temp labels.
var (
	cpuTempKeys = []string{"tdie", "tc0p", "tctl", "soc", "cpu", "package", "core"}
	gpuTempKeys = []string{"tg0p", "gpu"}
)

func pickTemperatures(temps []services.TempStat) (cpuC, gpuC float64) {
	return matchTemp(temps, cpuTempKeys), matchTemp(temps, gpuTempKeys)
}

func matchTemp(temps []services.TempStat, keys []string) float64 {
	for _, want := range keys {
		for _, t := range temps {
			if t.Temperature > 0 && strings.Contains(strings.ToLower(t.SensorKey), want) {
				return t.Temperature
			}
		}
	}
	return 0
}
