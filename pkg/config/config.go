// Package config provides configuration loading and validation for gridstat.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"

	"github.com/Sumatoshi-tech/gridstat/pkg/observability"
	"github.com/Sumatoshi-tech/gridstat/pkg/stats"
)

// Sentinel validation errors.
var (
	ErrInvalidPort         = errors.New("invalid server port")
	ErrInvalidWorkers      = errors.New("compute workers must not be negative")
	ErrInvalidStatistic    = errors.New("unknown default statistic")
	ErrInvalidQuantile     = errors.New("default quantile must be within [0, 1]")
	ErrInvalidOutputFormat = errors.New("unsupported output format")
	ErrInvalidLogFormat    = errors.New("unsupported log format")
	ErrInvalidLogLevel     = errors.New("unsupported log level")
	ErrInvalidBodySize     = errors.New("invalid server max body size")
	ErrInvalidSampleRatio  = errors.New("telemetry sample ratio must be within [0, 1]")
)

// Output formats.
const (
	OutputTable = "table"
	OutputJSON  = "json"
	OutputYAML  = "yaml"
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Default configuration values.
const (
	defaultPort        = 8080
	defaultHost        = "127.0.0.1"
	defaultStatistic   = "mean"
	defaultQuantile    = 0.5
	defaultMaxBodySize = "16MB"
	maxPort            = 65535
)

// Config holds all configuration for gridstat.
type Config struct {
	Compute   ComputeConfig   `mapstructure:"compute"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Output    OutputConfig    `mapstructure:"output"`
	Server    ServerConfig    `mapstructure:"server"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// ComputeConfig controls the statistics kernel.
type ComputeConfig struct {
	DefaultStatistic string  `mapstructure:"default_statistic"`
	DefaultQuantile  float64 `mapstructure:"default_quantile"`
	// Workers bounds per-row parallelism for grid operations. Zero means GOMAXPROCS.
	Workers int `mapstructure:"workers"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// OutputConfig controls CLI rendering.
type OutputConfig struct {
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	MaxBodySize  string        `mapstructure:"max_body_size"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	Port         int           `mapstructure:"port"`
}

// TelemetryConfig holds OpenTelemetry export settings.
type TelemetryConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	Environment  string  `mapstructure:"environment"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
}

// LoadConfig loads configuration from file and environment variables.
// A missing default config file is not an error; defaults apply.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName("gridstat")
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("./config")
		viperCfg.AddConfigPath("/etc/gridstat")
	}

	viperCfg.SetEnvPrefix("GRIDSTAT")
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	validateErr := config.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

// Default returns the configuration used when no file or environment is present.
func Default() *Config {
	viperCfg := viper.New()
	setDefaults(viperCfg)

	var config Config

	// Defaults are static and always decode.
	_ = viperCfg.Unmarshal(&config)

	return &config
}

func setDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("compute.workers", 0)
	viperCfg.SetDefault("compute.default_statistic", defaultStatistic)
	viperCfg.SetDefault("compute.default_quantile", defaultQuantile)

	viperCfg.SetDefault("logging.level", "info")
	viperCfg.SetDefault("logging.format", LogFormatText)

	viperCfg.SetDefault("output.format", OutputTable)
	viperCfg.SetDefault("output.color", true)

	viperCfg.SetDefault("server.host", defaultHost)
	viperCfg.SetDefault("server.port", defaultPort)
	viperCfg.SetDefault("server.read_timeout", "30s")
	viperCfg.SetDefault("server.write_timeout", "30s")
	viperCfg.SetDefault("server.idle_timeout", "60s")
	viperCfg.SetDefault("server.max_body_size", defaultMaxBodySize)

	viperCfg.SetDefault("telemetry.otlp_endpoint", "")
	viperCfg.SetDefault("telemetry.otlp_insecure", false)
	viperCfg.SetDefault("telemetry.sample_ratio", 0.0)
	viperCfg.SetDefault("telemetry.environment", "")
}

// Validate checks every section and returns the first violation.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > maxPort {
		return fmt.Errorf("%w: %d", ErrInvalidPort, c.Server.Port)
	}

	if _, err := c.Server.BodyLimit(); err != nil {
		return err
	}

	if c.Compute.Workers < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkers, c.Compute.Workers)
	}

	if stats.GetStatistic(c.Compute.DefaultStatistic) == stats.Unknown {
		return fmt.Errorf("%w: %q", ErrInvalidStatistic, c.Compute.DefaultStatistic)
	}

	if !ValidQuantile(c.Compute.DefaultQuantile) {
		return fmt.Errorf("%w: %v", ErrInvalidQuantile, c.Compute.DefaultQuantile)
	}

	switch c.Output.Format {
	case OutputTable, OutputJSON, OutputYAML:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidOutputFormat, c.Output.Format)
	}

	switch c.Logging.Format {
	case LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.Logging.Format)
	}

	if _, err := observability.ParseLogLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging.Level)
	}

	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidSampleRatio, c.Telemetry.SampleRatio)
	}

	return nil
}

// BodyLimit parses MaxBodySize ("16MB", "512KiB", ...) into bytes.
func (s ServerConfig) BodyLimit() (int64, error) {
	size, err := humanize.ParseBytes(s.MaxBodySize)
	if err != nil || size == 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidBodySize, s.MaxBodySize)
	}

	return int64(size), nil
}

// Address returns the host:port listen address.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Statistic returns the configured default statistic.
func (c ComputeConfig) Statistic() stats.Statistic {
	return stats.GetStatistic(c.DefaultStatistic)
}

// ValidQuantile reports whether fraction lies in [0, 1].
func ValidQuantile(fraction float64) bool {
	return fraction >= 0 && fraction <= 1
}

// Observability converts the logging and telemetry sections into an
// observability.Config for the given mode and service version.
func (c *Config) Observability(mode observability.AppMode, serviceVersion string) observability.Config {
	cfg := observability.DefaultConfig()
	cfg.Mode = mode
	cfg.ServiceVersion = serviceVersion
	cfg.Environment = c.Telemetry.Environment
	cfg.OTLPEndpoint = c.Telemetry.OTLPEndpoint
	cfg.OTLPInsecure = c.Telemetry.OTLPInsecure
	cfg.SampleRatio = c.Telemetry.SampleRatio
	cfg.LogJSON = c.Logging.Format == LogFormatJSON

	if level, err := observability.ParseLogLevel(c.Logging.Level); err == nil {
		cfg.LogLevel = level
	}

	return cfg
}
