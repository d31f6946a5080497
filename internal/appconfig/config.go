package appconfig

import (
	"os"
	"path/filepath"
	"time"

	"pkt.systems/benchdeck/schema"
)

// Config is the top-level application configuration.
type Config struct {
	ConfigVersion int           `mapstructure:"config_version" yaml:"config_version"`
	API           APIConfig     `mapstructure:"api" yaml:"api"`
	Poll          PollConfig    `mapstructure:"poll" yaml:"poll"`
	HTTP          HTTPConfig    `mapstructure:"http" yaml:"http"`
	Metrics       MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// CurrentConfigVersion marks the supported config version.
const CurrentConfigVersion = 1

// EnvPrefix prefixes environment overrides, e.g. BENCHDECK_API_BASE_URL.
const EnvPrefix = "BENCHDECK"

// APIConfig configures the gobench API gateway client.
type APIConfig struct {
	BaseURL        string        `mapstructure:"base_url" yaml:"base_url"`
	TimeoutSeconds float64       `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	Breaker        BreakerConfig `mapstructure:"breaker" yaml:"breaker"`
}

// BreakerConfig configures the gateway circuit breaker.
type BreakerConfig struct {
	Failures           uint32  `mapstructure:"failures" yaml:"failures"`
	OpenTimeoutSeconds float64 `mapstructure:"open_timeout_seconds" yaml:"open_timeout_seconds"`
	HalfOpenRequests   uint32  `mapstructure:"half_open_requests" yaml:"half_open_requests"`
}

// PollConfig configures the polling scheduler.
type PollConfig struct {
	IntervalSeconds float64 `mapstructure:"interval_seconds" yaml:"interval_seconds"`
}

// HTTPConfig configures the console HTTP server.
type HTTPConfig struct {
	Addr             string `mapstructure:"addr" yaml:"addr"`
	BaseURL          string `mapstructure:"base_url" yaml:"base_url"`
	BasePath         string `mapstructure:"base_path" yaml:"base_path"`
	HistorySize      int    `mapstructure:"history_size" yaml:"history_size"`
	HeartbeatSeconds int    `mapstructure:"heartbeat_seconds" yaml:"heartbeat_seconds"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		ConfigVersion: CurrentConfigVersion,
		API: APIConfig{
			BaseURL:        "http://localhost:8080",
			TimeoutSeconds: 0,
			Breaker: BreakerConfig{
				Failures:           5,
				OpenTimeoutSeconds: 30,
				HalfOpenRequests:   1,
			},
		},
		Poll: PollConfig{
			IntervalSeconds: schema.DefaultPollInterval.Seconds(),
		},
		HTTP: HTTPConfig{
			Addr:             "127.0.0.1:27490",
			BaseURL:          "",
			BasePath:         "",
			HistorySize:      1000,
			HeartbeatSeconds: 15,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// ServiceConfig converts the poll and api sections for the core.
func (c Config) ServiceConfig() schema.ServiceConfig {
	return schema.ServiceConfig{
		PollInterval:   seconds(c.Poll.IntervalSeconds),
		GatewayTimeout: seconds(c.API.TimeoutSeconds),
	}
}

// OpenTimeout returns the breaker open timeout.
func (b BreakerConfig) OpenTimeout() time.Duration {
	return seconds(b.OpenTimeoutSeconds)
}

// Heartbeat returns the stream keepalive interval.
func (h HTTPConfig) Heartbeat() time.Duration {
	return time.Duration(h.HeartbeatSeconds) * time.Second
}

func seconds(value float64) time.Duration {
	return time.Duration(value * float64(time.Second))
}

// DefaultConfigPath returns the standard config path.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".benchdeck", "config.yaml"), nil
}
