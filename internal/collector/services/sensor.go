// Package services holds one probe per hardware concern. Each sensor
// wraps the matching gopsutil subsystem and returns a typed result; the
// collector owns fan-out, rate derivation, and snapshot assembly.
package services

import "context"

// Sensor is a single stateless metric probe.
type Sensor interface {
	Name() string
	Collect(ctx context.Context) (any, error)
}
