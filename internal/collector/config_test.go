package collector

import (
	"testing"
	"time"
)

func TestDefaultCollectorConfig(t *testing.T) {
	cfg := DefaultCollectorConfig()

	if cfg.CollectTimeout != 2*time.Second {
		t.Errorf("Expected CollectTimeout 2s, got %v", cfg.CollectTimeout)
	}
	if cfg.HostInfoTimeout != 5*time.Second {
		t.Errorf("Expected HostInfoTimeout 5s, got %v", cfg.HostInfoTimeout)
	}
	if cfg.SampleInterval != 2*time.Second {
		t.Errorf("Expected SampleInterval 2s, got %v", cfg.SampleInterval)
	}
	if cfg.EfficiencyCoreCount != 0 {
		t.Errorf("Expected EfficiencyCoreCount 0, got %d", cfg.EfficiencyCoreCount)
	}
	if cfg.TopProcessCount != 10 {
		t.Errorf("Expected TopProcessCount 10, got %d", cfg.TopProcessCount)
	}
	if !cfg.EnableTemperatures {
		t.Error("Expected EnableTemperatures to be true by default")
	}
	if !cfg.EnableProcessMetrics {
		t.Error("Expected EnableProcessMetrics to be true by default")
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should validate, got %v", err)
	}
}

func TestCollectorConfigChaining(t *testing.T) {
	cfg := DefaultCollectorConfig().
		WithCollectTimeout(500 * time.Millisecond).
		WithSampleInterval(5 * time.Second).
		WithEfficiencyCores(4).
		WithTopProcessCount(5).
		WithTemperatures(false).
		WithProcessMetrics(false)

	if cfg.CollectTimeout != 500*time.Millisecond {
		t.Errorf("Expected CollectTimeout 500ms, got %v", cfg.CollectTimeout)
	}
	if cfg.SampleInterval != 5*time.Second {
		t.Errorf("Expected SampleInterval 5s, got %v", cfg.SampleInterval)
	}
	if cfg.EfficiencyCoreCount != 4 {
		t.Errorf("Expected EfficiencyCoreCount 4, got %d", cfg.EfficiencyCoreCount)
	}
	if cfg.TopProcessCount != 5 {
		t.Errorf("Expected TopProcessCount 5, got %d", cfg.TopProcessCount)
	}
	if cfg.EnableTemperatures || cfg.EnableProcessMetrics {
		t.Error("Expected feature flags disabled after chaining")
	}

	// Original defaults untouched by the copies.
	if DefaultCollectorConfig().CollectTimeout != 2*time.Second {
		t.Error("Chaining must not mutate defaults")
	}
}

func TestCollectorConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     CollectorConfig
		wantErr string
	}{
		{
			name: "valid default config",
			cfg:  DefaultCollectorConfig(),
		},
		{
			name:    "zero collect timeout",
			cfg:     DefaultCollectorConfig().WithCollectTimeout(0),
			wantErr: "CollectTimeout",
		},
		{
			name:    "zero sample interval",
			cfg:     DefaultCollectorConfig().WithSampleInterval(0),
			wantErr: "SampleInterval",
		},
		{
			name:    "negative efficiency cores",
			cfg:     DefaultCollectorConfig().WithEfficiencyCores(-1),
			wantErr: "EfficiencyCoreCount",
		},
		{
			name:    "zero process count",
			cfg:     DefaultCollectorConfig().WithTopProcessCount(0),
			wantErr: "TopProcessCount",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Expected valid config, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Expected error mentioning %q, got nil", tt.wantErr)
			}
			cfgErr, ok := err.(*ConfigError)
			if !ok {
				t.Fatalf("Expected *ConfigError, got %T", err)
			}
			if cfgErr.Field != tt.wantErr {
				t.Errorf("Expected field %q, got %q", tt.wantErr, cfgErr.Field)
			}
		})
	}
}
