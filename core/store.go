package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"pkt.systems/benchdeck/schema"
	"pkt.systems/pslog"
)

// Store holds the last applied application collection and the registered
// action handles. Refreshes are sequenced at issue time; a response older
// than the applied one is discarded.
type Store struct {
	gateway Gateway
	sink    EventSink
	rec     Recorder
	logger  pslog.Logger
	timeout time.Duration

	mu     sync.Mutex
	issued uint64
	snap   schema.Snapshot
	subs   map[chan schema.Snapshot]struct{}
}

// NewStore constructs a store. The gateway dependency is required.
func NewStore(cfg schema.ServiceConfig, deps Deps) (*Store, error) {
	normalized, err := schema.NormalizeServiceConfig(cfg)
	if err != nil {
		return nil, err
	}
	if deps.Gateway == nil {
		return nil, errors.New("gateway dependency is required")
	}
	deps = deps.normalized()
	return &Store{
		gateway: deps.Gateway,
		sink:    deps.EventSink,
		rec:     deps.Recorder,
		logger:  deps.Logger.With("component", "store"),
		timeout: normalized.GatewayTimeout,
		snap:    schema.Snapshot{Loading: true},
		subs:    make(map[chan schema.Snapshot]struct{}),
	}, nil
}

// Snapshot returns the current snapshot.
func (s *Store) Snapshot() schema.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Load performs the initial refresh when the collection is still unknown.
func (s *Store) Load(ctx context.Context) (schema.Snapshot, error) {
	if snap := s.Snapshot(); snap.Loaded {
		return snap, nil
	}
	return s.Refresh(ctx)
}

// Refresh re-lists the applications and replaces the collection wholesale.
// On failure the collection is left unchanged.
func (s *Store) Refresh(ctx context.Context) (schema.Snapshot, error) {
	if ctx == nil {
		return schema.Snapshot{}, errors.New("missing context")
	}
	s.mu.Lock()
	s.issued++
	seq := s.issued
	s.mu.Unlock()

	log := s.logger.With("seq", seq)
	start := time.Now()
	callCtx, cancel := s.callContext(ctx)
	apps, err := s.gateway.List(callCtx)
	cancel()
	elapsed := time.Since(start)
	if err != nil {
		s.rec.RefreshObserved(RefreshFailed, elapsed, 0)
		log.Warn("store refresh failed", "err", err)
		return s.Snapshot(), fmt.Errorf("list applications: %w", err)
	}

	s.mu.Lock()
	if seq <= s.snap.Seq {
		current := s.snap
		s.mu.Unlock()
		s.rec.RefreshObserved(RefreshStale, elapsed, len(apps))
		log.Debug("store refresh discarded", "applied_seq", current.Seq)
		return current, nil
	}
	next := s.snap
	next.Version++
	next.Seq = seq
	next.Apps = cloneApps(apps)
	next.Loaded = true
	next.Loading = false
	s.snap = next
	s.publishLocked(next)
	s.mu.Unlock()

	s.rec.RefreshObserved(RefreshApplied, elapsed, len(next.Apps))
	log.Debug("store refresh applied", "version", next.Version, "apps", len(next.Apps), "duration_ms", elapsed.Milliseconds())
	return next, nil
}

// Register attaches an action handle. Registering a name twice is a no-op
// and reports false.
func (s *Store) Register(name schema.Action, fn schema.ActionFunc) bool {
	if name == "" || fn == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.snap.Actions[name]; ok {
		return false
	}
	actions := make(map[schema.Action]schema.ActionFunc, len(s.snap.Actions)+1)
	for k, v := range s.snap.Actions {
		actions[k] = v
	}
	actions[name] = fn
	next := s.snap
	next.Version++
	next.Actions = actions
	s.snap = next
	s.publishLocked(next)
	s.logger.Debug("store action registered", "action", name, "version", next.Version)
	return true
}

// Subscribe registers a snapshot subscriber and returns a channel + cancel.
// A lagging subscriber only ever sees the latest snapshot.
func (s *Store) Subscribe() (<-chan schema.Snapshot, func()) {
	ch := make(chan schema.Snapshot, 1)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	count := len(s.subs)
	s.mu.Unlock()
	s.logger.Debug("store subscribe", "subs", count)
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, ch)
			close(ch)
			remaining := len(s.subs)
			s.mu.Unlock()
			s.logger.Debug("store unsubscribe", "subs", remaining)
		})
	}
}

func (s *Store) publishLocked(snap schema.Snapshot) {
	for ch := range s.subs {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
	s.sink.OnSnapshot(snap)
}

func (s *Store) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(ctx, s.timeout)
	}
	return context.WithCancel(ctx)
}

func cloneApps(apps []schema.Application) []schema.Application {
	out := make([]schema.Application, len(apps))
	copy(out, apps)
	return out
}
