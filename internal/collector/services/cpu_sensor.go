package services

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v4/cpu"
)

type CPUResult struct {
	TotalUsage       float64   // overall utilization percentage (0-100)
	PerCore          []float64 // per logical CPU, enumeration order
	FrequencyMHz     float64
	BaseFrequencyMHz float64
	Cores            int
}

type CPUSensor struct{}

func NewCPUSensor() *CPUSensor {
	return &CPUSensor{}
}

func (s *CPUSensor) Name() string {
	return "CPU"
}

func (s *CPUSensor) Collect(ctx context.Context) (any, error) {
	total, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil || len(total) == 0 {
		return nil, fmt.Errorf("failed to get total cpu percent: %w", err)
	}

	perCore, err := cpu.PercentWithContext(ctx, 0, true)
	if err != nil {
		return nil, fmt.Errorf("failed to get per-core cpu percent: %w", err)
	}

	// The rated clock doubles as the current reading on platforms
	// without a live frequency counter; zero where unknown.
	freq := 0.0
	if info, err := cpu.InfoWithContext(ctx); err == nil && len(info) > 0 {
		freq = info[0].Mhz
	}

	cores, _ := cpu.CountsWithContext(ctx, true)

	return CPUResult{
		TotalUsage:       total[0],
		PerCore:          perCore,
		FrequencyMHz:     freq,
		BaseFrequencyMHz: freq,
		Cores:            cores,
	}, nil
}
