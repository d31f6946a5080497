package core

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"pkt.systems/benchdeck/schema"
	"pkt.systems/pslog"
)

const pollKey = "poll"

// Poller refreshes the store on a fixed interval while the collection is
// non-empty. Overlapping poll refreshes are coalesced; refreshes issued by
// dispatchers are never joined with a poll.
type Poller struct {
	store    *Store
	interval time.Duration
	clock    clockwork.Clock
	sink     EventSink
	rec      Recorder
	logger   pslog.Logger
	group    singleflight.Group
}

// NewPoller constructs a poller for the store.
func NewPoller(cfg schema.ServiceConfig, store *Store, deps Deps) (*Poller, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	normalized, err := schema.NormalizeServiceConfig(cfg)
	if err != nil {
		return nil, err
	}
	deps = deps.normalized()
	return &Poller{
		store:    store,
		interval: normalized.PollInterval,
		clock:    deps.Clock,
		sink:     deps.EventSink,
		rec:      deps.Recorder,
		logger:   deps.Logger.With("component", "poller"),
	}, nil
}

// Interval returns the configured poll interval.
func (p *Poller) Interval() time.Duration {
	return p.interval
}

// PollHandle stops a running poll loop.
type PollHandle struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Stop cancels the timer and waits for in-flight poll refreshes to return.
// It is safe to call more than once.
func (h *PollHandle) Stop() {
	if h == nil {
		return
	}
	h.once.Do(h.cancel)
	<-h.done
}

// Done is closed once the poll loop has exited.
func (h *PollHandle) Done() <-chan struct{} {
	return h.done
}

// Start begins polling until ctx is canceled or the handle is stopped.
func (p *Poller) Start(ctx context.Context) *PollHandle {
	ctx, cancel := context.WithCancel(ctx)
	h := &PollHandle{cancel: cancel, done: make(chan struct{})}
	ticker := p.clock.NewTicker(p.interval)
	p.logger.Info("poller start", "interval", p.interval.String())
	go func() {
		var inflight sync.WaitGroup
		defer close(h.done)
		defer inflight.Wait()
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				p.logger.Info("poller stop")
				return
			case <-ticker.Chan():
				p.tick(ctx, &inflight)
			}
		}
	}()
	return h
}

func (p *Poller) tick(ctx context.Context, inflight *sync.WaitGroup) {
	snap := p.store.Snapshot()
	if snap.Empty() {
		p.rec.PollTick(PollSkipped)
		p.logger.Trace("poller tick skipped", "loaded", snap.Loaded)
		return
	}
	var led atomic.Bool
	ch := p.group.DoChan(pollKey, func() (any, error) {
		led.Store(true)
		return p.refresh(ctx)
	})
	p.rec.PollTick(PollIssued)
	inflight.Add(1)
	go func() {
		defer inflight.Done()
		<-ch
		if !led.Load() {
			p.rec.PollTick(PollJoined)
			p.logger.Debug("poller tick joined in-flight refresh")
		}
	}()
}

func (p *Poller) refresh(ctx context.Context) (schema.Snapshot, error) {
	snap, err := p.store.Refresh(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return snap, err
		}
		p.sink.OnNotice(schema.Notice{
			Level:       schema.NoticeError,
			Action:      schema.ActionRefresh,
			Message:     "refresh failed.",
			Description: err.Error(),
			Time:        p.clock.Now(),
		})
	}
	return snap, err
}
