// Package config loads refgraph settings from refgraph.yaml, REFGRAPH_*
// environment variables and command flags bound into viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. REFGRAPH_EXEC_TIMEOUT.
const EnvPrefix = "REFGRAPH"

type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Exec    ExecConfig    `mapstructure:"exec"`
	Otel    OtelConfig    `mapstructure:"otel"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Cache   CacheConfig   `mapstructure:"cache"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type ExecConfig struct {
	// Timeout bounds each request document. 0 disables it.
	Timeout     time.Duration `mapstructure:"timeout"`
	Parallelism int           `mapstructure:"parallelism"`
	Pretty      bool          `mapstructure:"pretty"`
}

type OtelConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Service  string `mapstructure:"service"`
}

type MetricsConfig struct {
	// File receives the metrics in text exposition format when the command
	// exits. Empty disables the export.
	File string `mapstructure:"file"`
}

type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// SetDefaults registers the default of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", true)
	v.SetDefault("exec.timeout", 30*time.Second)
	v.SetDefault("exec.parallelism", 1)
	v.SetDefault("exec.pretty", false)
	v.SetDefault("otel.endpoint", "")
	v.SetDefault("otel.service", "refgraph")
	v.SetDefault("metrics.file", "")
	v.SetDefault("cache.ttl", 5*time.Minute)
}

// Init prepares v to read file, or refgraph.yaml in the working directory
// when file is empty, and the REFGRAPH_ environment. A missing default
// config file is not an error.
func Init(v *viper.Viper, file string) error {
	SetDefaults(v)
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("refgraph")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	}
	return nil
}

// Load decodes and validates the settings held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log.level %q: %w", c.Log.Level, err)
	}
	if c.Exec.Parallelism < 1 {
		return fmt.Errorf("invalid exec.parallelism %d: must be at least 1", c.Exec.Parallelism)
	}
	if c.Exec.Timeout < 0 {
		return fmt.Errorf("invalid exec.timeout %s", c.Exec.Timeout)
	}
	return nil
}
