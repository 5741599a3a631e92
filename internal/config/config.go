// Package config loads service configuration from an optional YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the top-level service configuration.
type Config struct {
	Web        WebConfig        `mapstructure:"web" yaml:"web"`
	Log        LogConfig        `mapstructure:"log" yaml:"log"`
	Spool      SpoolConfig      `mapstructure:"spool" yaml:"spool"`
	Dispatcher DispatcherConfig `mapstructure:"dispatcher" yaml:"dispatcher"`
	Org        OrgConfig        `mapstructure:"org" yaml:"org"`
	Archive    ArchiveConfig    `mapstructure:"archive" yaml:"archive"`
	Otel       OtelConfig       `mapstructure:"otel" yaml:"otel"`
}

// WebConfig sizes the HTTP listeners.
type WebConfig struct {
	Host            string        `mapstructure:"host" yaml:"host"`
	Port            string        `mapstructure:"port" yaml:"port"`
	DebugHost       string        `mapstructure:"debug_host" yaml:"debug_host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// LogConfig controls log output.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

// SpoolConfig locates the queue/results directories.
type SpoolConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// DispatcherConfig sizes the scan worker pool.
type DispatcherConfig struct {
	Workers       int           `mapstructure:"workers" yaml:"workers"`
	QueueCapacity int           `mapstructure:"queue_capacity" yaml:"queue_capacity"`
	ScanDuration  time.Duration `mapstructure:"scan_duration" yaml:"scan_duration"`
}

// OrgConfig seeds the singleton demo tenant.
type OrgConfig struct {
	Name    string `mapstructure:"name" yaml:"name"`
	Plan    string `mapstructure:"plan" yaml:"plan"`
	MaxRuns int    `mapstructure:"max_runs" yaml:"max_runs"`
}

// ArchiveConfig enables the durable Postgres archive for terminal runs.
type ArchiveConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	DSN     string `mapstructure:"dsn" yaml:"dsn"`
}

// OtelConfig configures trace export.
type OtelConfig struct {
	Enabled     bool    `mapstructure:"enabled" yaml:"enabled"`
	Endpoint    string  `mapstructure:"endpoint" yaml:"endpoint"`
	Probability float64 `mapstructure:"probability" yaml:"probability"`
	Insecure    bool    `mapstructure:"insecure" yaml:"insecure"`
}

// Load reads configuration from the given file path (optional; empty path
// skips the file) applying VERISCAN_-prefixed env overrides and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("web.host", "0.0.0.0")
	v.SetDefault("web.port", "8080")
	v.SetDefault("web.debug_host", "0.0.0.0:8090")
	v.SetDefault("web.read_timeout", "5s")
	v.SetDefault("web.write_timeout", "10s")
	v.SetDefault("web.idle_timeout", "120s")
	v.SetDefault("web.shutdown_timeout", "20s")
	v.SetDefault("log.level", "info")
	v.SetDefault("spool.dir", "/var/lib/veriscan/spool")
	v.SetDefault("dispatcher.workers", 4)
	v.SetDefault("dispatcher.queue_capacity", 64)
	v.SetDefault("dispatcher.scan_duration", "2s")
	v.SetDefault("org.name", "Acme Security")
	v.SetDefault("org.plan", "team")
	v.SetDefault("org.max_runs", 100)
	v.SetDefault("archive.enabled", false)
	v.SetDefault("archive.dsn", "")
	v.SetDefault("otel.enabled", false)
	v.SetDefault("otel.endpoint", "localhost:4317")
	v.SetDefault("otel.probability", 0.05)
	v.SetDefault("otel.insecure", true)

	v.SetEnvPrefix("VERISCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return &cfg, nil
}
