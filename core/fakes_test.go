package core

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"pkt.systems/benchdeck/schema"
)

type fakeGateway struct {
	mu        sync.Mutex
	apps      []schema.Application
	nextID    int
	listErr   error
	createErr error
	deleteErr error
	cancelErr error
	listHook  func(ctx context.Context, call int) (apps []schema.Application, handled bool, err error)
	calls     map[string]int
	created   []schema.GatewayCreateRequest
}

func newFakeGateway(apps ...schema.Application) *fakeGateway {
	return &fakeGateway{apps: apps, nextID: 100, calls: make(map[string]int)}
}

func (g *fakeGateway) List(ctx context.Context) ([]schema.Application, error) {
	g.mu.Lock()
	g.calls["list"]++
	call := g.calls["list"]
	hook := g.listHook
	g.mu.Unlock()
	if hook != nil {
		if apps, handled, err := hook(ctx, call); handled {
			return apps, err
		}
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.listErr != nil {
		return nil, g.listErr
	}
	out := make([]schema.Application, len(g.apps))
	copy(out, g.apps)
	return out, nil
}

func (g *fakeGateway) Create(_ context.Context, req schema.GatewayCreateRequest) (schema.Application, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls["create"]++
	g.created = append(g.created, req)
	if g.createErr != nil {
		return schema.Application{}, g.createErr
	}
	scenario, err := schema.DecodeScenario(req.Scenario)
	if err != nil {
		return schema.Application{}, err
	}
	g.nextID++
	app := schema.Application{
		ID:       schema.AppID(strconv.Itoa(g.nextID)),
		Name:     req.Name,
		Scenario: scenario,
		Status:   schema.AppStatusPending,
	}
	g.apps = append(g.apps, app)
	return app, nil
}

func (g *fakeGateway) Delete(_ context.Context, id schema.AppID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls["delete"]++
	if g.deleteErr != nil {
		return g.deleteErr
	}
	for i, app := range g.apps {
		if app.ID == id {
			g.apps = append(g.apps[:i], g.apps[i+1:]...)
			return nil
		}
	}
	return schema.ErrAppNotFound
}

func (g *fakeGateway) Cancel(_ context.Context, id schema.AppID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls["cancel"]++
	if g.cancelErr != nil {
		return g.cancelErr
	}
	for i, app := range g.apps {
		if app.ID == id {
			g.apps[i].Status = schema.AppStatusCancel
			return nil
		}
	}
	return schema.ErrAppNotFound
}

func (g *fakeGateway) count(op string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[op]
}

func (g *fakeGateway) total() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	total := 0
	for _, n := range g.calls {
		total += n
	}
	return total
}

func (g *fakeGateway) setApps(apps ...schema.Application) {
	g.mu.Lock()
	g.apps = apps
	g.mu.Unlock()
}

type recordingSink struct {
	mu        sync.Mutex
	snapshots []schema.Snapshot
	notices   []schema.Notice
	navs      []schema.Navigation
}

func (s *recordingSink) OnSnapshot(snap schema.Snapshot) {
	s.mu.Lock()
	s.snapshots = append(s.snapshots, snap)
	s.mu.Unlock()
}

func (s *recordingSink) OnNotice(notice schema.Notice) {
	s.mu.Lock()
	s.notices = append(s.notices, notice)
	s.mu.Unlock()
}

func (s *recordingSink) OnNavigate(nav schema.Navigation) {
	s.mu.Lock()
	s.navs = append(s.navs, nav)
	s.mu.Unlock()
}

func (s *recordingSink) noticeList() []schema.Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]schema.Notice(nil), s.notices...)
}

func (s *recordingSink) navList() []schema.Navigation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]schema.Navigation(nil), s.navs...)
}

type chanRecorder struct {
	ticks     chan PollOutcome
	refreshes chan RefreshResult
}

func newChanRecorder() *chanRecorder {
	return &chanRecorder{
		ticks:     make(chan PollOutcome, 64),
		refreshes: make(chan RefreshResult, 64),
	}
}

func (r *chanRecorder) RefreshObserved(result RefreshResult, _ time.Duration, _ int) {
	r.refreshes <- result
}

func (r *chanRecorder) PollTick(outcome PollOutcome) {
	r.ticks <- outcome
}

func (r *chanRecorder) DispatchObserved(schema.Action, DispatchResult) {}

func waitFor[T comparable](ch <-chan T, want T) error {
	timeout := time.After(2 * time.Second)
	for {
		select {
		case got := <-ch:
			if got == want {
				return nil
			}
		case <-timeout:
			return errors.New("timed out waiting for " + toString(want))
		}
	}
}

func toString(v any) string {
	switch t := v.(type) {
	case PollOutcome:
		return string(t)
	case RefreshResult:
		return string(t)
	default:
		return "value"
	}
}

var errBackend = errors.New("backend down")

func newTestStore(gw Gateway, sink EventSink, rec Recorder) *Store {
	store, err := NewStore(schema.ServiceConfig{}, Deps{Gateway: gw, EventSink: sink, Recorder: rec})
	if err != nil {
		panic(err)
	}
	return store
}
