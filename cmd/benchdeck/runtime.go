package main

import (
	"context"
	"strings"

	"pkt.systems/benchdeck"
	"pkt.systems/benchdeck/core"
	"pkt.systems/benchdeck/httpapi"
	"pkt.systems/benchdeck/internal/appconfig"
	"pkt.systems/benchdeck/internal/gateway"
	"pkt.systems/benchdeck/internal/metrics"
	"pkt.systems/benchdeck/internal/version"
	"pkt.systems/pslog"
)

func (o *rootOptions) load() (appconfig.Config, error) {
	cfg, err := appconfig.Load(o.configPath)
	if err != nil {
		return appconfig.Config{}, err
	}
	if api := strings.TrimSpace(o.apiURL); api != "" {
		cfg.API.BaseURL = api
	}
	return cfg, nil
}

func newGateway(ctx context.Context, cfg appconfig.Config, m *metrics.Metrics) (*gateway.Client, error) {
	return gateway.New(gateway.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.ServiceConfig().GatewayTimeout,
		Breaker: gateway.BreakerConfig{
			Failures:         cfg.API.Breaker.Failures,
			OpenTimeout:      cfg.API.Breaker.OpenTimeout(),
			HalfOpenRequests: cfg.API.Breaker.HalfOpenRequests,
		},
		Logger:          pslog.Ctx(ctx),
		UserAgent:       version.UserAgent(),
		OnBreakerChange: m.BreakerChanged,
	})
}

// openConsole builds a console for one-shot commands.
func (o *rootOptions) openConsole(ctx context.Context, sinks ...core.EventSink) (*benchdeck.Console, appconfig.Config, error) {
	cfg, err := o.load()
	if err != nil {
		return nil, appconfig.Config{}, err
	}
	gw, err := newGateway(ctx, cfg, nil)
	if err != nil {
		return nil, appconfig.Config{}, err
	}
	console, err := benchdeck.NewConsole(cfg.ServiceConfig(), benchdeck.ConsoleDeps{
		Gateway: gw,
		Sinks:   sinks,
		Logger:  pslog.Ctx(ctx),
	})
	if err != nil {
		return nil, appconfig.Config{}, err
	}
	return console, cfg, nil
}

func toHTTPConfig(cfg appconfig.HTTPConfig) httpapi.Config {
	return httpapi.Config{
		Addr:        cfg.Addr,
		BaseURL:     cfg.BaseURL,
		BasePath:    cfg.BasePath,
		HistorySize: cfg.HistorySize,
	}
}
