package trend

// AnalysisConfig contains tunable parameters for trend analysis.
// Use DefaultAnalysisConfig() to get sensible defaults, then override as needed.
type AnalysisConfig struct {
	// Anomaly detection
	AnomalyWindow     int     // Trailing samples forming the expected range (default: 50)
	AnomalyMultiplier float64 // Stddev multiplier k for the expected range (default: 2.0)

	// Memory-leak detection
	LeakWindowDays int     // Days of daily averages fitted for leak detection (default: 14)
	LeakMinPoints  int     // Minimum daily points before a fit is attempted (default: 7)
	LeakMinSlope   float64 // Minimum growth in percent points per day (default: 0.1)
	LeakMinR2      float64 // Minimum fit quality to report a suspect (default: 0.7)

	// Pattern extraction
	PatternWindowDays int // History window for weekday/hour-of-day patterns (default: 30)
}

// DefaultAnalysisConfig returns an AnalysisConfig with sensible defaults.
func DefaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		AnomalyWindow:     50,
		AnomalyMultiplier: 2.0,

		LeakWindowDays: 14,
		LeakMinPoints:  7,
		LeakMinSlope:   0.1,
		LeakMinR2:      0.7,

		PatternWindowDays: 30,
	}
}

// WithAnomalyWindow returns a copy of the config with modified anomaly window.
func (c AnalysisConfig) WithAnomalyWindow(n int) AnalysisConfig {
	c.AnomalyWindow = n
	return c
}

// WithAnomalyMultiplier returns a copy of the config with modified stddev multiplier.
func (c AnalysisConfig) WithAnomalyMultiplier(k float64) AnalysisConfig {
	c.AnomalyMultiplier = k
	return c
}

// WithLeakWindow returns a copy of the config with modified leak window and minimum points.
func (c AnalysisConfig) WithLeakWindow(days, minPoints int) AnalysisConfig {
	c.LeakWindowDays = days
	c.LeakMinPoints = minPoints
	return c
}

// WithLeakThresholds returns a copy of the config with modified slope and fit thresholds.
func (c AnalysisConfig) WithLeakThresholds(minSlope, minR2 float64) AnalysisConfig {
	c.LeakMinSlope = minSlope
	c.LeakMinR2 = minR2
	return c
}

// WithPatternWindow returns a copy of the config with modified pattern window.
func (c AnalysisConfig) WithPatternWindow(days int) AnalysisConfig {
	c.PatternWindowDays = days
	return c
}

// Validate checks if the configuration is valid and returns an error if not.
func (c AnalysisConfig) Validate() error {
	if c.AnomalyWindow < 3 {
		return &ConfigError{Field: "AnomalyWindow", Message: "must be at least 3"}
	}
	if c.AnomalyMultiplier <= 0 {
		return &ConfigError{Field: "AnomalyMultiplier", Message: "must be positive"}
	}
	if c.LeakMinPoints < 2 {
		return &ConfigError{Field: "LeakMinPoints", Message: "must be at least 2"}
	}
	if c.LeakWindowDays < c.LeakMinPoints {
		return &ConfigError{Field: "LeakWindowDays", Message: "must cover at least LeakMinPoints days"}
	}
	if c.LeakMinR2 < 0 || c.LeakMinR2 > 1 {
		return &ConfigError{Field: "LeakMinR2", Message: "must be within [0, 1]"}
	}
	if c.LeakMinSlope < 0 {
		return &ConfigError{Field: "LeakMinSlope", Message: "must not be negative"}
	}
	if c.PatternWindowDays < 1 {
		return &ConfigError{Field: "PatternWindowDays", Message: "must be positive"}
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
