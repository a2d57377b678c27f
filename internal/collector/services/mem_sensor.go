package services

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v4/mem"
)

type MemResult struct {
	UsedPercent float64
	Total       uint64
	Used        uint64
	Available   uint64
	Free        uint64
	Active      uint64
	Inactive    uint64
	Wired       uint64
	SwapTotal   uint64
	SwapUsed    uint64
	SwapPercent float64
}

type MemSensor struct{}

func NewMemSensor() *MemSensor {
	return &MemSensor{}
}

func (s *MemSensor) Name() string {
	return "Memory"
}

func (s *MemSensor) Collect(ctx context.Context) (any, error) {
	v, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get virtual memory: %w", err)
	}

	swapTotal := v.SwapTotal
	swapUsed := v.SwapTotal - v.SwapFree
	swapPct := 0.0
	if swapStat, swapErr := mem.SwapMemoryWithContext(ctx); swapErr == nil && swapStat != nil {
		swapTotal = swapStat.Total
		swapUsed = swapStat.Used
		swapPct = swapStat.UsedPercent
	}

	return MemResult{
		UsedPercent: v.UsedPercent,
		Total:       v.Total,
		Used:        v.Used,
		Available:   v.Available,
		Free:        v.Free,
		Active:      v.Active,
		Inactive:    v.Inactive,
		Wired:       v.Wired,
		SwapTotal:   swapTotal,
		SwapUsed:    swapUsed,
		SwapPercent: swapPct,
	}, nil
}
