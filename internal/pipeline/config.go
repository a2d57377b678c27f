package pipeline

import "time"

// WorkerConfig contains the cadences the worker runs on. Use
// DefaultWorkerConfig() to get sensible defaults, then override as
// needed.
type WorkerConfig struct {
	// TickInterval is how often a snapshot is collected, recorded, and
	// evaluated (default: 2s).
	TickInterval time.Duration

	// AnalysisInterval is how often trend analysis re-scans history.
	// Analysis reads aggregates over days of data, so it runs far less
	// often than the tick (default: 5m).
	AnalysisInterval time.Duration

	// TrimInterval is how often history past the retention horizon is
	// deleted (default: 6h).
	TrimInterval time.Duration

	// GraphPushTimeout bounds one asynchronous graph ingest (default: 30s).
	GraphPushTimeout time.Duration
}

// DefaultWorkerConfig returns a WorkerConfig with sensible defaults.
func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		TickInterval:     2 * time.Second,
		AnalysisInterval: 5 * time.Minute,
		TrimInterval:     6 * time.Hour,
		GraphPushTimeout: 30 * time.Second,
	}
}

// WithTickInterval returns a copy of the config with modified tick cadence.
func (c WorkerConfig) WithTickInterval(d time.Duration) WorkerConfig {
	c.TickInterval = d
	return c
}

// WithAnalysisInterval returns a copy of the config with modified analysis cadence.
func (c WorkerConfig) WithAnalysisInterval(d time.Duration) WorkerConfig {
	c.AnalysisInterval = d
	return c
}

// WithTrimInterval returns a copy of the config with modified trim cadence.
func (c WorkerConfig) WithTrimInterval(d time.Duration) WorkerConfig {
	c.TrimInterval = d
	return c
}

// Validate checks the configuration for invalid values.
func (c WorkerConfig) Validate() error {
	if c.TickInterval <= 0 {
		return &ConfigError{Field: "TickInterval", Message: "must be positive"}
	}
	if c.AnalysisInterval <= 0 {
		return &ConfigError{Field: "AnalysisInterval", Message: "must be positive"}
	}
	if c.TrimInterval <= 0 {
		return &ConfigError{Field: "TrimInterval", Message: "must be positive"}
	}
	if c.GraphPushTimeout <= 0 {
		return &ConfigError{Field: "GraphPushTimeout", Message: "must be positive"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error: " + e.Field + " " + e.Message
}
