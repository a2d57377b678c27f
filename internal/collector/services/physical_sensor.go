package services

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v4/sensors"
)

type TempStat struct {
	SensorKey   string
	Temperature float64
}

type PhysicalResult struct {
	Temperatures []TempStat
}

// PhysicalSensor reads whatever temperature keys the platform exposes.
// Key naming is platform-specific; matching a key to the CPU die or
// GPU happens in the collector.
type PhysicalSensor struct{}

func NewPhysicalSensor() *PhysicalSensor {
	return &PhysicalSensor{}
}

func (s *PhysicalSensor) Name() string {
	return "Physical"
}

func (s *PhysicalSensor) Collect(ctx context.Context) (any, error) {
	data, err := sensors.TemperaturesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get temperatures: %w", err)
	}

	var temps []TempStat
	for _, t := range data {
		temps = append(temps, TempStat{
			SensorKey:   t.SensorKey,
			Temperature: t.Temperature,
		})
	}

	return PhysicalResult{Temperatures: temps}, nil
}
