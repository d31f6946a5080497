package schema

import (
	"errors"
	"time"
)

// ServiceConfig defines the polling and gateway behavior of the core.
type ServiceConfig struct {
	// PollInterval is the fixed refresh interval of the poller.
	PollInterval time.Duration
	// GatewayTimeout bounds each gateway call. Zero means no timeout.
	GatewayTimeout time.Duration
}

// DefaultPollInterval matches the refresh interval of the gobench UI.
const DefaultPollInterval = 2 * time.Second

// MinPollInterval keeps the poller from spinning.
const MinPollInterval = 100 * time.Millisecond

// NormalizeServiceConfig applies defaults and validates the config.
func NormalizeServiceConfig(cfg ServiceConfig) (ServiceConfig, error) {
	if cfg.PollInterval == 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.PollInterval < MinPollInterval {
		return ServiceConfig{}, errors.New("poll interval must be at least 100ms")
	}
	if cfg.GatewayTimeout < 0 {
		return ServiceConfig{}, errors.New("gateway timeout must not be negative")
	}
	return cfg, nil
}
