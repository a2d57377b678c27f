package collector

import "time"

// CollectorConfig contains configurable parameters for the snapshot
// collector. Use DefaultCollectorConfig() to get sensible defaults,
// then override as needed.
type CollectorConfig struct {
	// Timeout settings
	CollectTimeout  time.Duration // Timeout for one collection pass (default: 2s)
	HostInfoTimeout time.Duration // Timeout for the host identity lookup (default: 5s)

	// Sampling cadence (for the ingest worker/TUI)
	SampleInterval time.Duration // How often a snapshot is collected (default: 2s)

	// Core topology
	EfficiencyCoreCount int // Leading logical CPUs treated as the efficiency cluster (default: 0 = unknown)

	// Collection limits
	TopProcessCount int // Number of top processes to report (default: 10)

	// Feature flags
	EnableTemperatures   bool // Whether to probe temperature sensors (default: true)
	EnableProcessMetrics bool // Whether to rank processes by CPU (default: true)
}

// DefaultCollectorConfig returns a CollectorConfig with sensible defaults.
func DefaultCollectorConfig() CollectorConfig {
	return CollectorConfig{
		CollectTimeout:  2 * time.Second,
		HostInfoTimeout: 5 * time.Second,

		SampleInterval: 2 * time.Second,

		EfficiencyCoreCount: 0,

		TopProcessCount: 10,

		EnableTemperatures:   true,
		EnableProcessMetrics: true,
	}
}

// WithCollectTimeout returns a copy of the config with modified collection timeout.
func (c CollectorConfig) WithCollectTimeout(d time.Duration) CollectorConfig {
	c.CollectTimeout = d
	return c
}

// WithSampleInterval returns a copy of the config with modified sampling cadence.
func (c CollectorConfig) WithSampleInterval(d time.Duration) CollectorConfig {
	c.SampleInterval = d
	return c
}

// WithEfficiencyCores returns a copy of the config with the efficiency
// cluster size set. Apple silicon enumerates efficiency cores first, so
// the count names the leading logical CPUs.
func (c CollectorConfig) WithEfficiencyCores(count int) CollectorConfig {
	c.EfficiencyCoreCount = count
	return c
}

// WithTopProcessCount returns a copy of the config with modified process limit.
func (c CollectorConfig) WithTopProcessCount(n int) CollectorConfig {
	c.TopProcessCount = n
	return c
}

// WithTemperatures returns a copy of the config with temperature probing enabled/disabled.
func (c CollectorConfig) WithTemperatures(enabled bool) CollectorConfig {
	c.EnableTemperatures = enabled
	return c
}

// WithProcessMetrics returns a copy of the config with process ranking enabled/disabled.
func (c CollectorConfig) WithProcessMetrics(enabled bool) CollectorConfig {
	c.EnableProcessMetrics = enabled
	return c
}

// Validate checks if the configuration is valid and returns an error if not.
func (c CollectorConfig) Validate() error {
	if c.CollectTimeout <= 0 {
		return &ConfigError{Field: "CollectTimeout", Message: "must be positive"}
	}
	if c.HostInfoTimeout <= 0 {
		return &ConfigError{Field: "HostInfoTimeout", Message: "must be positive"}
	}
	if c.SampleInterval <= 0 {
		return &ConfigError{Field: "SampleInterval", Message: "must be positive"}
	}
	if c.EfficiencyCoreCount < 0 {
		return &ConfigError{Field: "EfficiencyCoreCount", Message: "must not be negative"}
	}
	if c.TopProcessCount <= 0 {
		return &ConfigError{Field: "TopProcessCount", Message: "must be positive"}
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
