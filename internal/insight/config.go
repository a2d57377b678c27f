package insight

// EngineConfig contains the per-metric thresholds evaluated on every
// tick plus the bound on retained insight history.
// Use DefaultEngineConfig() to get sensible defaults, then override as needed.
type EngineConfig struct {
	// Thresholds (percent for usage metrics, Celsius for temperature)
	CPUThresholdPercent    float64 // Warning once CPU usage exceeds this (default: 80)
	MemoryThresholdPercent float64 // Warning once memory usage exceeds this (default: 75)
	GPUThresholdPercent    float64 // Warning once GPU usage exceeds this (default: 80)
	TemperatureThresholdC  float64 // Warning once CPU temperature exceeds this (default: 80)

	// Lifecycle
	HistoryLimit int // Resolved insights retained, oldest evicted (default: 50)
}

// DefaultEngineConfig returns an EngineConfig with sensible defaults.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		CPUThresholdPercent:    80,
		MemoryThresholdPercent: 75,
		GPUThresholdPercent:    80,
		TemperatureThresholdC:  80,

		HistoryLimit: 50,
	}
}

// WithCPUThreshold returns a copy of the config with modified CPU threshold.
func (c EngineConfig) WithCPUThreshold(pct float64) EngineConfig {
	c.CPUThresholdPercent = pct
	return c
}

// WithMemoryThreshold returns a copy of the config with modified memory threshold.
func (c EngineConfig) WithMemoryThreshold(pct float64) EngineConfig {
	c.MemoryThresholdPercent = pct
	return c
}

// WithGPUThreshold returns a copy of the config with modified GPU threshold.
func (c EngineConfig) WithGPUThreshold(pct float64) EngineConfig {
	c.GPUThresholdPercent = pct
	return c
}

// WithTemperatureThreshold returns a copy of the config with modified temperature threshold.
func (c EngineConfig) WithTemperatureThreshold(celsius float64) EngineConfig {
	c.TemperatureThresholdC = celsius
	return c
}

// WithHistoryLimit returns a copy of the config with modified history bound.
func (c EngineConfig) WithHistoryLimit(n int) EngineConfig {
	c.HistoryLimit = n
	return c
}

// Validate checks if the configuration is valid and returns an error if not.
// Thresholds are bounded to [50, 100] so a typo cannot silence or flood
// the engine.
func (c EngineConfig) Validate() error {
	check := func(field string, v float64) error {
		if v < 50 || v > 100 {
			return &ConfigError{Field: field, Message: "must be within [50, 100]"}
		}
		return nil
	}
	if err := check("CPUThresholdPercent", c.CPUThresholdPercent); err != nil {
		return err
	}
	if err := check("MemoryThresholdPercent", c.MemoryThresholdPercent); err != nil {
		return err
	}
	if err := check("GPUThresholdPercent", c.GPUThresholdPercent); err != nil {
		return err
	}
	if err := check("TemperatureThresholdC", c.TemperatureThresholdC); err != nil {
		return err
	}
	if c.HistoryLimit < 1 {
		return &ConfigError{Field: "HistoryLimit", Message: "must be positive"}
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
