package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/shirou/gopsutil/v4/process"
)

type ProcessInfo struct {
	PID    int32
	Name   string
	CPU    float64
	Memory float32
}

type ProcessResult struct {
	Processes []ProcessInfo
}

// ProcessSensor ranks running processes by CPU and keeps the top slice.
type ProcessSensor struct {
	limit int
}

func NewProcessSensor(limit int) *ProcessSensor {
	if limit <= 0 {
		limit = 10
	}
	return &ProcessSensor{limit: limit}
}

func (s *ProcessSensor) Name() string {
	return "Process"
}

func (s *ProcessSensor) Collect(ctx context.Context) (any, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}

	infos := make([]ProcessInfo, 0, len(procs))
	for _, p := range procs {
		// Processes can exit mid-scan; skip the ones that do.
		cpuPct, err := p.CPUPercentWithContext(ctx)
		if err != nil {
			continue
		}
		name, _ := p.NameWithContext(ctx)
		memPct, _ := p.MemoryPercentWithContext(ctx)

		infos = append(infos, ProcessInfo{
			PID:    p.Pid,
			Name:   name,
			CPU:    cpuPct,
			Memory: memPct,
		})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].CPU > infos[j].CPU })
	if len(infos) > s.limit {
		infos = infos[:s.limit]
	}

	return ProcessResult{Processes: infos}, nil
}
