package benchdeck

import (
	"context"
	"strconv"
	"sync"
	"testing"

	"pkt.systems/benchdeck/core"
	"pkt.systems/benchdeck/internal/eventbus"
	"pkt.systems/benchdeck/schema"
)

type memoryGateway struct {
	mu     sync.Mutex
	apps   []schema.Application
	nextID int
}

func (g *memoryGateway) List(context.Context) ([]schema.Application, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]schema.Application(nil), g.apps...), nil
}

func (g *memoryGateway) Create(_ context.Context, req schema.GatewayCreateRequest) (schema.Application, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	scenario, err := schema.DecodeScenario(req.Scenario)
	if err != nil {
		return schema.Application{}, err
	}
	g.nextID++
	app := schema.Application{ID: schema.AppID(strconv.Itoa(g.nextID)), Name: req.Name, Scenario: scenario}
	g.apps = append(g.apps, app)
	return app, nil
}

func (g *memoryGateway) Delete(_ context.Context, id schema.AppID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i, app := range g.apps {
		if app.ID == id {
			g.apps = append(g.apps[:i], g.apps[i+1:]...)
			return nil
		}
	}
	return schema.ErrAppNotFound
}

func (g *memoryGateway) Cancel(_ context.Context, id schema.AppID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i, app := range g.apps {
		if app.ID == id {
			g.apps[i].Status = schema.AppStatusCancel
			return nil
		}
	}
	return schema.ErrAppNotFound
}

func TestConsoleFansOutEvents(t *testing.T) {
	first := eventbus.New(nil)
	second := eventbus.New(nil)
	firstCh, cancelFirst := first.Subscribe(eventbus.EventNavigate)
	defer cancelFirst()
	secondCh, cancelSecond := second.Subscribe(eventbus.EventNavigate)
	defer cancelSecond()

	console, err := NewConsole(schema.ServiceConfig{}, ConsoleDeps{
		Gateway: &memoryGateway{},
		Sinks:   []core.EventSink{first, nil, second},
	})
	if err != nil {
		t.Fatalf("new console: %v", err)
	}
	if _, err := console.Dispatcher().Create(context.Background(), schema.CreateAppRequest{Name: "a", Scenario: "b"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	for _, ch := range []<-chan eventbus.Event{firstCh, secondCh} {
		select {
		case event := <-ch:
			if event.Navigation.Route != schema.RouteApplication("1") {
				t.Fatalf("unexpected navigation %+v", event.Navigation)
			}
		default:
			t.Fatalf("expected navigation on every sink")
		}
	}
}

func TestConsoleBindsActions(t *testing.T) {
	console, err := NewConsole(schema.ServiceConfig{}, ConsoleDeps{Gateway: &memoryGateway{}})
	if err != nil {
		t.Fatalf("new console: %v", err)
	}
	snap := console.Store().Snapshot()
	for _, action := range []schema.Action{schema.ActionCreate, schema.ActionClone, schema.ActionDelete, schema.ActionCancel} {
		if _, ok := snap.Action(action); !ok {
			t.Fatalf("missing %s handle", action)
		}
	}
}

func TestConsoleOpen(t *testing.T) {
	gw := &memoryGateway{apps: []schema.Application{{ID: "1", Name: "a"}}}
	console, err := NewConsole(schema.ServiceConfig{}, ConsoleDeps{Gateway: gw})
	if err != nil {
		t.Fatalf("new console: %v", err)
	}
	handle, err := console.Open(context.Background())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer handle.Stop()
	if !console.Store().Snapshot().Loaded {
		t.Fatalf("expected collection to be loaded")
	}
}
