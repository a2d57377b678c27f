package services

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v4/net"
)

type InterfaceStat struct {
	Name      string
	BytesSent uint64
	BytesRecv uint64
}

// NetResult carries cumulative per-interface byte counters; the
// collector differences passes and folds them into in/out rates.
type NetResult struct {
	Interfaces []InterfaceStat
}

type NetSensor struct{}

func NewNetSensor() *NetSensor {
	return &NetSensor{}
}

func (s *NetSensor) Name() string {
	return "Network"
}

func (s *NetSensor) Collect(ctx context.Context) (any, error) {
	counters, err := net.IOCountersWithContext(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to get net io counters: %w", err)
	}

	stats := make([]InterfaceStat, 0, len(counters))
	for _, c := range counters {
		stats = append(stats, InterfaceStat{
			Name:      c.Name,
			BytesSent: c.BytesSent,
			BytesRecv: c.BytesRecv,
		})
	}

	return NetResult{Interfaces: stats}, nil
}
