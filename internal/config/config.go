// Package config handles configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/rankfuse/rankfuse/fusion"
)

// Config holds all application configuration.
type Config struct {
	// Server configuration
	Host string `envconfig:"RANKFUSE_HOST" yaml:"host"`
	Port int    `envconfig:"RANKFUSE_PORT" yaml:"port"`

	// Fusion defaults applied when a request omits options
	Fusion FusionConfig `yaml:"fusion"`

	// Bus configuration
	Bus BusConfig `yaml:"bus"`

	// Logging configuration
	Log LogConfig `yaml:"log"`

	// Security configuration
	Security SecurityConfig `yaml:"security"`

	// Observability configuration
	Observability ObservabilityConfig `yaml:"observability"`
}

// FusionConfig holds the server-side defaults for fusion requests.
type FusionConfig struct {
	DefaultMethod        string  `envconfig:"RANKFUSE_DEFAULT_METHOD" yaml:"default_method"`
	DefaultK             int     `envconfig:"RANKFUSE_DEFAULT_K" yaml:"default_k"`
	DefaultTopK          int     `envconfig:"RANKFUSE_DEFAULT_TOP_K" yaml:"default_top_k"` // 0 = unlimited
	DefaultNormalization string  `envconfig:"RANKFUSE_DEFAULT_NORMALIZATION" yaml:"default_normalization"`
	ClipMin              float64 `envconfig:"RANKFUSE_CLIP_MIN" yaml:"clip_min"`
	ClipMax              float64 `envconfig:"RANKFUSE_CLIP_MAX" yaml:"clip_max"`
	MaxLists             int     `envconfig:"RANKFUSE_MAX_LISTS" yaml:"max_lists"`
	MaxListSize          int     `envconfig:"RANKFUSE_MAX_LIST_SIZE" yaml:"max_list_size"`
	MaxBatch             int     `envconfig:"RANKFUSE_MAX_BATCH" yaml:"max_batch"`
	BatchWorkers         int     `envconfig:"RANKFUSE_BATCH_WORKERS" yaml:"batch_workers"`
}

// BusConfig holds event bus settings.
type BusConfig struct {
	Type         string `envconfig:"RANKFUSE_BUS_TYPE" yaml:"type"`
	KafkaBrokers string `envconfig:"RANKFUSE_KAFKA_BROKERS" yaml:"kafka_brokers"`
	Topic        string `envconfig:"RANKFUSE_BUS_TOPIC" yaml:"topic"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `envconfig:"RANKFUSE_LOG_LEVEL" yaml:"level"`
	Format string `envconfig:"RANKFUSE_LOG_FORMAT" yaml:"format"`
	File   string `envconfig:"RANKFUSE_LOG_FILE" yaml:"file"`
}

// SecurityConfig holds security settings.
type SecurityConfig struct {
	APIKey      string `envconfig:"RANKFUSE_API_KEY" yaml:"api_key"`
	RateLimit   int    `envconfig:"RANKFUSE_RATE_LIMIT" yaml:"rate_limit"` // requests/second, 0 = disabled
	CORSOrigins string `envconfig:"RANKFUSE_CORS_ORIGINS" yaml:"cors_origins"`
}

// ObservabilityConfig holds observability settings.
type ObservabilityConfig struct {
	MetricsEnabled bool   `envconfig:"RANKFUSE_METRICS_ENABLED" yaml:"metrics_enabled"`
	MetricsPath    string `envconfig:"RANKFUSE_METRICS_PATH" yaml:"metrics_path"`
}

// Load loads configuration from environment variables and optional config file.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	// Set defaults first
	setDefaults(cfg)

	// Load from YAML file if provided (overrides defaults)
	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	// Override with environment variables (highest priority)
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("processing env config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables only.
func LoadFromEnv() (*Config, error) {
	return Load("")
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

func setDefaults(cfg *Config) {
	cfg.Host = "0.0.0.0"
	cfg.Port = 8080

	cfg.Fusion = FusionConfig{
		DefaultMethod:        string(fusion.MethodRRF),
		DefaultK:             fusion.DefaultRRFK,
		DefaultTopK:          0,
		DefaultNormalization: "minmax",
		ClipMin:              fusion.DefaultClipMin,
		ClipMax:              fusion.DefaultClipMax,
		MaxLists:             32,
		MaxListSize:          10000,
		MaxBatch:             64,
		BatchWorkers:         8,
	}

	cfg.Bus = BusConfig{
		Type:  "memory",
		Topic: "fusion.completed",
	}

	cfg.Log = LogConfig{
		Level:  "info",
		Format: "text",
	}

	cfg.Security = SecurityConfig{
		RateLimit:   0,
		CORSOrigins: "*",
	}

	cfg.Observability = ObservabilityConfig{
		MetricsEnabled: true,
		MetricsPath:    "/metrics",
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []string

	// Server validation
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, "port must be between 1 and 65535")
	}

	// Fusion validation
	if _, err := fusion.ParseMethod(c.Fusion.DefaultMethod); err != nil {
		errs = append(errs, fmt.Sprintf("invalid default_method: %s", c.Fusion.DefaultMethod))
	}

	if _, err := fusion.ParseNormalization(c.Fusion.DefaultNormalization); err != nil {
		errs = append(errs, fmt.Sprintf("invalid default_normalization: %s", c.Fusion.DefaultNormalization))
	}

	if c.Fusion.DefaultK < 1 {
		errs = append(errs, "default_k must be positive")
	}

	if c.Fusion.DefaultTopK < 0 {
		errs = append(errs, "default_top_k must not be negative (0 = unlimited)")
	}

	if c.Fusion.ClipMin > c.Fusion.ClipMax {
		errs = append(errs, "clip_min must not exceed clip_max")
	}

	if c.Fusion.MaxLists < 2 {
		errs = append(errs, "max_lists must be at least 2")
	}

	if c.Fusion.MaxBatch < 1 {
		errs = append(errs, "max_batch must be positive")
	}

	if c.Fusion.BatchWorkers < 1 {
		errs = append(errs, "batch_workers must be positive")
	}

	// Bus validation
	validBusTypes := map[string]bool{"memory": true, "kafka": true}
	if !validBusTypes[c.Bus.Type] {
		errs = append(errs, fmt.Sprintf("invalid bus type: %s (must be memory or kafka)", c.Bus.Type))
	}

	if c.Bus.Type == "kafka" && c.Bus.KafkaBrokers == "" {
		errs = append(errs, "kafka_brokers is required for the kafka bus")
	}

	// Log validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Log.Level] {
		errs = append(errs, fmt.Sprintf("invalid log level: %s (must be debug, info, warn, or error)", c.Log.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Log.Format] {
		errs = append(errs, fmt.Sprintf("invalid log format: %s (must be text or json)", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// Address returns the server address.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Log.Level == "debug"
}
