// Package jioconfig loads jfsck's CLI configuration from an optional
// config file over built-in defaults, with JFSCK_*-prefixed environment
// variables overriding the keys that file sets, mirroring the layered
// approach the rest of the corpus uses for its own server configuration.
// Command-line flags are applied by the caller on top of the result.
package jioconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/aasselin/libjio/internal/autosync"
	"github.com/aasselin/libjio/internal/bytesize"
	"github.com/aasselin/libjio/internal/logger"
	"github.com/aasselin/libjio/internal/telemetry"
)

// Config is jfsck's top-level configuration.
type Config struct {
	// Logging controls log output behaviour.
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Telemetry controls OpenTelemetry tracing export.
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`

	// Metrics controls the Prometheus /metrics HTTP endpoint.
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// Profiling controls continuous profiling export to Pyroscope.
	Profiling ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`

	// Autosync holds the default lingering-commit worker parameters
	// applied when a caller starts autosync without its own Config.
	Autosync AutosyncConfig `mapstructure:"autosync" yaml:"autosync"`
}

// LoggingConfig controls logging behaviour.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
}

// TelemetryConfig controls OTLP trace export.
type TelemetryConfig struct {
	Enabled        bool    `mapstructure:"enabled" yaml:"enabled"`
	ServiceName    string  `mapstructure:"service_name" validate:"required" yaml:"service_name"`
	ServiceVersion string  `mapstructure:"service_version" yaml:"service_version"`
	Endpoint       string  `mapstructure:"endpoint" validate:"required_if=Enabled true" yaml:"endpoint"`
	Insecure       bool    `mapstructure:"insecure" yaml:"insecure"`
	SampleRate     float64 `mapstructure:"sample_rate" validate:"gte=0,lte=1" yaml:"sample_rate"`
}

// MetricsConfig controls the Prometheus metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Addr    string `mapstructure:"addr" validate:"required_if=Enabled true" yaml:"addr"`
}

// ProfilingConfig controls continuous profiling export to Pyroscope.
type ProfilingConfig struct {
	Enabled        bool     `mapstructure:"enabled" yaml:"enabled"`
	ServiceName    string   `mapstructure:"service_name" validate:"required_if=Enabled true" yaml:"service_name"`
	ServiceVersion string   `mapstructure:"service_version" yaml:"service_version"`
	Endpoint       string   `mapstructure:"endpoint" validate:"required_if=Enabled true" yaml:"endpoint"`
	ProfileTypes   []string `mapstructure:"profile_types" validate:"dive,oneof=cpu alloc_objects alloc_space inuse_objects inuse_space goroutines mutex_count mutex_duration block_count block_duration" yaml:"profile_types"`
}

// ToProfiling converts the decoded config into a telemetry.ProfilingConfig.
func (c ProfilingConfig) ToProfiling() telemetry.ProfilingConfig {
	return telemetry.ProfilingConfig{
		Enabled:        c.Enabled,
		ServiceName:    c.ServiceName,
		ServiceVersion: c.ServiceVersion,
		Endpoint:       c.Endpoint,
		ProfileTypes:   c.ProfileTypes,
	}
}

// AutosyncConfig mirrors autosync.Config with struct tags for decoding.
// MaxBytes accepts human-readable sizes ("1Mi", "500KB", or a plain byte
// count) the same way the rest of the corpus sizes its buffers and caches.
type AutosyncConfig struct {
	MaxInterval time.Duration     `mapstructure:"max_interval" validate:"gt=0" yaml:"max_interval"`
	MaxBytes    bytesize.ByteSize `mapstructure:"max_bytes" validate:"gt=0" yaml:"max_bytes"`
}

// ToAutosync converts the decoded config into an autosync.Config.
func (c AutosyncConfig) ToAutosync() autosync.Config {
	return autosync.Config{MaxInterval: c.MaxInterval, MaxBytes: c.MaxBytes.Uint64()}
}

// ToLogger converts the decoded config into a logger.Config.
func (c LoggingConfig) ToLogger() logger.Config {
	return logger.Config{Level: c.Level, Format: c.Format, Output: c.Output}
}

// ToTelemetry converts the decoded config into a telemetry.Config.
func (c TelemetryConfig) ToTelemetry() telemetry.Config {
	return telemetry.Config{
		Enabled:        c.Enabled,
		ServiceName:    c.ServiceName,
		ServiceVersion: c.ServiceVersion,
		Endpoint:       c.Endpoint,
		Insecure:       c.Insecure,
		SampleRate:     c.SampleRate,
	}
}

// Default returns jfsck's built-in configuration, used when no config
// file is present and no flags override it.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "text",
			Output: "stdout",
		},
		Telemetry: TelemetryConfig{
			Enabled:        false,
			ServiceName:    "jfsck",
			ServiceVersion: "dev",
			Endpoint:       "localhost:4317",
			Insecure:       true,
			SampleRate:     1.0,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    ":9090",
		},
		Profiling: ProfilingConfig{
			Enabled:        false,
			ServiceName:    "jfsck",
			ServiceVersion: "dev",
			Endpoint:       "http://localhost:4040",
			ProfileTypes:   []string{"cpu", "alloc_objects"},
		},
		Autosync: AutosyncConfig{
			MaxInterval: 5 * time.Second,
			MaxBytes:    1 << 20,
		},
	}
}

// Load builds a Config from defaults, an optional config file, and
// JFSCK_*-prefixed environment variables, then validates the result.
// configPath may be empty, in which case only the default search paths
// ($XDG_CONFIG_HOME/jfsck/config.yaml) are consulted; a missing file at
// that point is not an error; it just means defaults apply. Environment
// variables override only keys present in the config file; when no file
// is found, Default() is returned as-is and the environment is not read.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	found, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if !found {
		return cfg, nil
	}

	hook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		stringToByteSizeHookFunc(),
	)
	if err := v.Unmarshal(cfg, viper.DecodeHook(hook)); err != nil {
		return nil, fmt.Errorf("jioconfig: unmarshal: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("jioconfig: validate: %w", err)
	}

	return cfg, nil
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("JFSCK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}

	configDir := defaultConfigDir()
	v.AddConfigPath(configDir)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("jioconfig: read config file: %w", err)
	}
	return true, nil
}

func defaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "jfsck")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".jfsck"
	}
	return filepath.Join(home, ".config", "jfsck")
}

// Validate checks struct-tag constraints via go-playground/validator, plus
// the one constraint a struct tag can't express: the autosync threshold
// must be large enough to ever actually hold a committed record.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return err
	}
	if !cfg.Autosync.MaxBytes.FitsOneRecord() {
		return fmt.Errorf("autosync.max_bytes %s is below the minimum of %s (one record header, descriptor, and byte of payload)",
			cfg.Autosync.MaxBytes, bytesize.MinAutosyncThreshold)
	}
	return nil
}

// stringToByteSizeHookFunc lets max_bytes be written as "1Gi", "500MB", or
// a plain integer in the config file and, when that file sets
// autosync.max_bytes, in JFSCK_AUTOSYNC_MAX_BYTES.
func stringToByteSizeHookFunc() mapstructure.DecodeHookFuncType {
	return func(from, to reflect.Type, data any) (any, error) {
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}

		switch from.Kind() {
		case reflect.String:
			return bytesize.ParseByteSize(data.(string))
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return bytesize.ByteSize(reflect.ValueOf(data).Int()), nil
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return bytesize.ByteSize(reflect.ValueOf(data).Uint()), nil
		default:
			return data, nil
		}
	}
}
