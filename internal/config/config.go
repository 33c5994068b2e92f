package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"vitalwatch/internal/rules"
)

// Defaults for the service configuration.
const (
	DefaultHTTPAddr     = ":8080"
	DefaultEvalInterval = 5 * time.Second
	DefaultEvalWorkers  = 4
	DefaultLogLevel     = "info"
)

// Config holds runtime configuration for the monitor.
type Config struct {
	// HTTPAddr is the listen address for the ingest/metrics HTTP server.
	HTTPAddr string `yaml:"http_addr"`

	// LogLevel is the zerolog level: debug | info | warn | error.
	LogLevel string `yaml:"log_level"`

	// Evaluation controls the periodic alert evaluation passes.
	Evaluation EvaluationConfig `yaml:"evaluation"`

	// Rules holds the clinical rule thresholds.
	Rules RulesConfig `yaml:"rules"`

	// Sources configures optional ingestion sources beyond HTTP.
	Sources SourcesConfig `yaml:"sources"`

	// Kafka configures the optional Kafka alert sink. Disabled when no
	// brokers are set; alerts then go to the console sink only.
	Kafka KafkaConfig `yaml:"kafka"`
}

// EvaluationConfig controls the evaluation scheduler.
type EvaluationConfig struct {
	// Interval between full evaluation passes over all patients.
	Interval time.Duration `yaml:"interval"`

	// Workers is the number of concurrent per-patient evaluation tasks.
	Workers int `yaml:"workers"`
}

// RulesConfig holds the tunable rule thresholds. Default() seeds every
// field with the clinical defaults; Load starts from Default(), so only
// fields present in the file deviate from them.
type RulesConfig struct {
	HeartRateMin float64 `yaml:"heart_rate_min"`
	HeartRateMax float64 `yaml:"heart_rate_max"`
	SystolicMin  float64 `yaml:"systolic_min"`
	SystolicMax  float64 `yaml:"systolic_max"`
	DiastolicMin float64 `yaml:"diastolic_min"`
	DiastolicMax float64 `yaml:"diastolic_max"`

	// Blood oxygen saturation: the minimum fall to count as a rapid
	// drop, the pairing window in milliseconds, and the low-value
	// fallback threshold.
	SaturationDrop         float64 `yaml:"saturation_drop"`
	SaturationDropWindowMs int64   `yaml:"saturation_drop_window_ms"`
	SaturationLow          float64 `yaml:"saturation_low"`

	// ECG sliding-window peak detection.
	ECGWindowSize int     `yaml:"ecg_window_size"`
	ECGMultiplier float64 `yaml:"ecg_multiplier"`
}

// SourcesConfig configures the file and websocket data readers.
type SourcesConfig struct {
	// FileDir is a directory of .txt files in the line feed format.
	// Empty disables the file reader.
	FileDir string `yaml:"file_dir"`

	// WebSocketURL is the address of a real-time data server, e.g.
	// ws://localhost:9090. Empty disables the websocket reader.
	WebSocketURL string `yaml:"websocket_url"`

	// Simulate enables the built-in synthetic data generator.
	Simulate bool `yaml:"simulate"`

	// SimulatePatients is the number of synthetic patients.
	SimulatePatients int `yaml:"simulate_patients"`
}

// KafkaConfig configures the Kafka alert sink.
type KafkaConfig struct {
	Brokers      []string      `yaml:"brokers"`
	Topic        string        `yaml:"topic"`
	PoolSize     int           `yaml:"pool_size"`
	MaxRetries   int           `yaml:"max_retries"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// Enabled reports whether the Kafka sink is configured.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

// Default returns a sensible default config for local dev.
func Default() *Config {
	return &Config{
		HTTPAddr: DefaultHTTPAddr,
		LogLevel: DefaultLogLevel,
		Evaluation: EvaluationConfig{
			Interval: DefaultEvalInterval,
			Workers:  DefaultEvalWorkers,
		},
		Rules: RulesConfig{
			HeartRateMin:           50,
			HeartRateMax:           120,
			SystolicMin:            90,
			SystolicMax:            180,
			DiastolicMin:           60,
			DiastolicMax:           120,
			SaturationDrop:         rules.DefaultDropThreshold,
			SaturationDropWindowMs: rules.DefaultDropWindowMs,
			SaturationLow:          rules.DefaultLowSaturation,
			ECGWindowSize:          rules.DefaultECGWindowSize,
			ECGMultiplier:          rules.DefaultECGMultiplier,
		},
		Sources: SourcesConfig{
			SimulatePatients: 10,
		},
		Kafka: KafkaConfig{
			Topic:        "vitalwatch.alerts",
			PoolSize:     2,
			MaxRetries:   3,
			RetryBackoff: 100 * time.Millisecond,
			WriteTimeout: 5 * time.Second,
		},
	}
}

// Load reads and parses the YAML config file at path. Missing fields are
// filled with defaults before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// Validate checks structural constraints on the configuration.
func (c *Config) Validate() error {
	if c.HTTPAddr == "" {
		return fmt.Errorf("http_addr must not be empty")
	}
	if c.Evaluation.Interval <= 0 {
		return fmt.Errorf("evaluation.interval must be positive, got %s", c.Evaluation.Interval)
	}
	if c.Evaluation.Workers <= 0 {
		return fmt.Errorf("evaluation.workers must be positive, got %d", c.Evaluation.Workers)
	}
	if c.Rules.HeartRateMin >= c.Rules.HeartRateMax {
		return fmt.Errorf("rules: heart_rate_min %v must be below heart_rate_max %v",
			c.Rules.HeartRateMin, c.Rules.HeartRateMax)
	}
	if c.Rules.SystolicMin >= c.Rules.SystolicMax {
		return fmt.Errorf("rules: systolic_min %v must be below systolic_max %v",
			c.Rules.SystolicMin, c.Rules.SystolicMax)
	}
	if c.Rules.DiastolicMin >= c.Rules.DiastolicMax {
		return fmt.Errorf("rules: diastolic_min %v must be below diastolic_max %v",
			c.Rules.DiastolicMin, c.Rules.DiastolicMax)
	}
	if c.Rules.SaturationDrop <= 0 {
		return fmt.Errorf("rules: saturation_drop must be positive, got %v", c.Rules.SaturationDrop)
	}
	if c.Rules.SaturationDropWindowMs <= 0 {
		return fmt.Errorf("rules: saturation_drop_window_ms must be positive, got %d", c.Rules.SaturationDropWindowMs)
	}
	if c.Rules.SaturationLow <= 0 {
		return fmt.Errorf("rules: saturation_low must be positive, got %v", c.Rules.SaturationLow)
	}
	if c.Rules.ECGWindowSize <= 0 {
		return fmt.Errorf("rules: ecg_window_size must be positive, got %d", c.Rules.ECGWindowSize)
	}
	if c.Rules.ECGMultiplier <= 1 {
		return fmt.Errorf("rules: ecg_multiplier must exceed 1, got %v", c.Rules.ECGMultiplier)
	}
	if c.Kafka.Enabled() && c.Kafka.Topic == "" {
		return fmt.Errorf("kafka.topic is required when brokers are set")
	}
	if c.Sources.Simulate && c.Sources.SimulatePatients <= 0 {
		return fmt.Errorf("sources.simulate_patients must be positive, got %d", c.Sources.SimulatePatients)
	}
	return nil
}
