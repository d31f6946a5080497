package benchdeck

import (
	"context"
	"errors"
	"sync"
	"time"

	"pkt.systems/benchdeck/core"
	"pkt.systems/benchdeck/httpapi"
	"pkt.systems/benchdeck/internal/metrics"
	"pkt.systems/benchdeck/schema"
	"pkt.systems/pslog"
)

// Server composes the console, poller, and HTTP API.
type Server interface {
	Start(ctx context.Context) error
	Wait() error
	Stop(ctx context.Context) error
}

// ServerConfig configures the compositor.
type ServerConfig struct {
	Service   schema.ServiceConfig
	HTTP      httpapi.Config
	Heartbeat time.Duration
}

// ServerDeps captures dependencies required to build the server.
type ServerDeps struct {
	Console ConsoleDeps
	Metrics *metrics.Metrics
}

// ServerOption toggles compositor components.
type ServerOption func(*serverOptions)

type serverOptions struct {
	enableHTTP   bool
	enablePoller bool
}

// WithHTTP enables the console HTTP API.
func WithHTTP() ServerOption {
	return func(o *serverOptions) { o.enableHTTP = true }
}

// WithPoller enables the background poller.
func WithPoller() ServerOption {
	return func(o *serverOptions) { o.enablePoller = true }
}

// New constructs a composable benchdeck server.
func New(cfg ServerConfig, deps ServerDeps, opts ...ServerOption) (Server, error) {
	options := serverOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	if !options.enableHTTP && !options.enablePoller {
		return nil, errors.New("no services enabled")
	}
	normalized, err := schema.NormalizeServiceConfig(cfg.Service)
	if err != nil {
		return nil, err
	}
	cfg.Service = normalized

	consoleDeps := deps.Console
	if consoleDeps.Recorder == nil && deps.Metrics != nil {
		consoleDeps.Recorder = deps.Metrics
	}
	var hub *httpapi.Hub
	if options.enableHTTP {
		hub = httpapi.NewHub(cfg.HTTP.HistorySize)
		consoleDeps.Sinks = append(append([]core.EventSink(nil), consoleDeps.Sinks...), hub)
	}
	console, err := NewConsole(cfg.Service, consoleDeps)
	if err != nil {
		return nil, err
	}

	var httpSrv *httpapi.Server
	if options.enableHTTP {
		httpOpts := []httpapi.Option{
			httpapi.WithClock(console.Clock()),
			httpapi.WithHeartbeat(cfg.Heartbeat),
		}
		if deps.Metrics != nil {
			httpOpts = append(httpOpts,
				httpapi.WithMetricsHandler(deps.Metrics.Handler()),
				httpapi.WithStreamObserver(deps.Metrics),
			)
		}
		httpSrv = httpapi.NewServer(cfg.HTTP, console.Store(), console.Dispatcher(), hub, httpOpts...)
	}

	return &compositeServer{
		cfg:     cfg,
		options: options,
		console: console,
		httpSrv: httpSrv,
	}, nil
}

type compositeServer struct {
	cfg     ServerConfig
	options serverOptions
	console *Console
	httpSrv *httpapi.Server
	logger  pslog.Logger

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	errCh   chan error
	poll    *core.PollHandle
	started bool
}

func (s *compositeServer) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		pslog.Ctx(ctx).Warn("server start rejected", "reason", "already started")
		return errors.New("server already started")
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.errCh = make(chan error, 2)
	s.started = true
	s.logger = pslog.Ctx(s.ctx)
	s.mu.Unlock()

	log := s.logger
	log.Info(
		"server start",
		"http", s.options.enableHTTP,
		"poller", s.options.enablePoller,
		"poll_interval", s.cfg.Service.PollInterval.String(),
		"http_addr", s.cfg.HTTP.Addr,
		"http_base_url", s.cfg.HTTP.BaseURL,
		"http_base_path", s.cfg.HTTP.BasePath,
	)
	if s.options.enablePoller {
		handle, err := s.console.Open(s.ctx)
		if err != nil {
			log.Warn("initial load failed", "err", err)
		}
		s.mu.Lock()
		s.poll = handle
		s.mu.Unlock()
	} else if _, err := s.console.Store().Load(s.ctx); err != nil {
		log.Warn("initial load failed", "err", err)
	}
	if s.options.enableHTTP && s.httpSrv != nil {
		go func() {
			if err := httpapi.ListenAndServe(s.ctx, s.cfg.HTTP.Addr, s.httpSrv.Handler()); err != nil {
				log.Error("http server failed", "err", err)
				s.errCh <- err
			}
		}()
	}
	return nil
}

func (s *compositeServer) Wait() error {
	s.mu.Lock()
	ctx := s.ctx
	errCh := s.errCh
	started := s.started
	s.mu.Unlock()
	if !started {
		return errors.New("server not started")
	}

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		if err != nil {
			pslog.Ctx(ctx).Error("server stopped", "err", err)
			_ = s.Stop(context.Background())
			return err
		}
		return nil
	}
}

func (s *compositeServer) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel := s.cancel
	started := s.started
	poll := s.poll
	log := s.logger
	s.mu.Unlock()
	if !started {
		return nil
	}
	if log == nil {
		log = pslog.Ctx(context.Background())
	}
	log.Info("server stop requested")
	if cancel != nil {
		cancel()
	}
	done := make(chan struct{})
	go func() {
		poll.Stop()
		close(done)
	}()
	if ctx == nil {
		<-done
		log.Info("server stop completed")
		return nil
	}
	select {
	case <-ctx.Done():
		log.Warn("server stop timed out", "err", ctx.Err())
		return ctx.Err()
	case <-done:
		log.Info("server stopped")
		return nil
	}
}
