package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.HTTPAddr != DefaultHTTPAddr {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, DefaultHTTPAddr)
	}
	if cfg.Evaluation.Interval != DefaultEvalInterval {
		t.Errorf("Evaluation.Interval = %s, want %s", cfg.Evaluation.Interval, DefaultEvalInterval)
	}
	if cfg.Rules.SystolicMax != 180 {
		t.Errorf("Rules.SystolicMax = %v, want 180", cfg.Rules.SystolicMax)
	}
	if cfg.Rules.SaturationDrop != 5.0 || cfg.Rules.SaturationDropWindowMs != 600_000 || cfg.Rules.SaturationLow != 92.0 {
		t.Errorf("saturation defaults = %v/%d/%v, want 5/600000/92",
			cfg.Rules.SaturationDrop, cfg.Rules.SaturationDropWindowMs, cfg.Rules.SaturationLow)
	}
	if cfg.Rules.ECGWindowSize != 5 || cfg.Rules.ECGMultiplier != 1.5 {
		t.Errorf("ECG defaults = %d/%v, want 5/1.5", cfg.Rules.ECGWindowSize, cfg.Rules.ECGMultiplier)
	}
	if cfg.Kafka.Enabled() {
		t.Error("Kafka must be disabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config must validate: %v", err)
	}
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
http_addr: ":9000"
log_level: debug
evaluation:
  interval: 2s
  workers: 8
rules:
  heart_rate_max: 130
  saturation_low: 94
  ecg_window_size: 3
kafka:
  brokers:
    - localhost:9092
  topic: alerts
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.HTTPAddr != ":9000" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":9000")
	}
	if cfg.Evaluation.Interval != 2*time.Second {
		t.Errorf("Evaluation.Interval = %s, want 2s", cfg.Evaluation.Interval)
	}
	if cfg.Evaluation.Workers != 8 {
		t.Errorf("Evaluation.Workers = %d, want 8", cfg.Evaluation.Workers)
	}
	if cfg.Rules.HeartRateMax != 130 {
		t.Errorf("Rules.HeartRateMax = %v, want 130", cfg.Rules.HeartRateMax)
	}
	if cfg.Rules.SaturationLow != 94 {
		t.Errorf("Rules.SaturationLow = %v, want 94", cfg.Rules.SaturationLow)
	}
	if cfg.Rules.ECGWindowSize != 3 {
		t.Errorf("Rules.ECGWindowSize = %d, want 3", cfg.Rules.ECGWindowSize)
	}
	// Fields absent from the file keep their defaults.
	if cfg.Rules.HeartRateMin != 50 {
		t.Errorf("Rules.HeartRateMin = %v, want default 50", cfg.Rules.HeartRateMin)
	}
	if cfg.Rules.SaturationDrop != 5.0 {
		t.Errorf("Rules.SaturationDrop = %v, want default 5", cfg.Rules.SaturationDrop)
	}
	if !cfg.Kafka.Enabled() {
		t.Error("Kafka should be enabled with brokers set")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "http_addr: [broken")
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"empty addr", func(c *Config) { c.HTTPAddr = "" }, true},
		{"zero interval", func(c *Config) { c.Evaluation.Interval = 0 }, true},
		{"zero workers", func(c *Config) { c.Evaluation.Workers = 0 }, true},
		{"inverted heart rate bounds", func(c *Config) { c.Rules.HeartRateMin = 150 }, true},
		{"inverted systolic bounds", func(c *Config) { c.Rules.SystolicMax = 80 }, true},
		{"zero saturation drop", func(c *Config) { c.Rules.SaturationDrop = 0 }, true},
		{"zero drop window", func(c *Config) { c.Rules.SaturationDropWindowMs = 0 }, true},
		{"zero saturation low", func(c *Config) { c.Rules.SaturationLow = 0 }, true},
		{"zero ecg window", func(c *Config) { c.Rules.ECGWindowSize = 0 }, true},
		{"ecg multiplier at 1", func(c *Config) { c.Rules.ECGMultiplier = 1 }, true},
		{"kafka brokers without topic", func(c *Config) {
			c.Kafka.Brokers = []string{"localhost:9092"}
			c.Kafka.Topic = ""
		}, true},
		{"simulate without patients", func(c *Config) {
			c.Sources.Simulate = true
			c.Sources.SimulatePatients = 0
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
