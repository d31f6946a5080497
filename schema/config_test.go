package schema

import (
	"testing"
	"time"
)

func TestNormalizeServiceConfigDefaults(t *testing.T) {
	cfg, err := NormalizeServiceConfig(ServiceConfig{})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.PollInterval != DefaultPollInterval {
		t.Fatalf("expected default interval, got %v", cfg.PollInterval)
	}
}

func TestNormalizeServiceConfigRejectsTinyInterval(t *testing.T) {
	if _, err := NormalizeServiceConfig(ServiceConfig{PollInterval: time.Millisecond}); err == nil {
		t.Fatalf("expected interval error")
	}
}
