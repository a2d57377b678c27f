package services

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v4/disk"
)

type DiskIOStat struct {
	Name       string
	ReadBytes  uint64
	WriteBytes uint64
	ReadCount  uint64
	WriteCount uint64
	ReadTime   uint64
	WriteTime  uint64
}

// DiskResult carries cumulative per-device counters. Rates come from
// differencing two collection passes, which the collector owns.
type DiskResult struct {
	Counters map[string]DiskIOStat
}

type DiskSensor struct{}

func NewDiskSensor() *DiskSensor {
	return &DiskSensor{}
}

func (s *DiskSensor) Name() string {
	return "Disk"
}

func (s *DiskSensor) Collect(ctx context.Context) (any, error) {
	ioCounters, err := disk.IOCountersWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get IO counters: %w", err)
	}

	counters := make(map[string]DiskIOStat, len(ioCounters))
	for name, c := range ioCounters {
		counters[name] = DiskIOStat{
			Name:       c.Name,
			ReadBytes:  c.ReadBytes,
			WriteBytes: c.WriteBytes,
			ReadCount:  c.ReadCount,
			WriteCount: c.WriteCount,
			ReadTime:   c.ReadTime,
			WriteTime:  c.WriteTime,
		}
	}

	return DiskResult{Counters: counters}, nil
}
