// Package benchdeck composes the application store, poller, and dispatcher
// into a console that the CLI and the HTTP API drive.
package benchdeck

import (
	"context"
	"errors"

	"github.com/jonboulle/clockwork"

	"pkt.systems/benchdeck/core"
	"pkt.systems/benchdeck/schema"
	"pkt.systems/pslog"
)

// ConsoleDeps captures the dependencies of a console.
type ConsoleDeps struct {
	Gateway  core.Gateway
	Sinks    []core.EventSink
	Recorder core.Recorder
	Clock    clockwork.Clock
	Logger   pslog.Logger
}

// Console owns one store with its poller and dispatcher.
type Console struct {
	store      *core.Store
	poller     *core.Poller
	dispatcher *core.Dispatcher
	clock      clockwork.Clock
}

// NewConsole wires a store, poller, and dispatcher around the gateway and
// binds the dispatcher's action handles to the store.
func NewConsole(cfg schema.ServiceConfig, deps ConsoleDeps) (*Console, error) {
	if deps.Gateway == nil {
		return nil, errors.New("gateway dependency is required")
	}
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	coreDeps := core.Deps{
		Gateway:   deps.Gateway,
		EventSink: fanout(deps.Sinks...),
		Recorder:  deps.Recorder,
		Clock:     deps.Clock,
		Logger:    deps.Logger,
	}
	store, err := core.NewStore(cfg, coreDeps)
	if err != nil {
		return nil, err
	}
	poller, err := core.NewPoller(cfg, store, coreDeps)
	if err != nil {
		return nil, err
	}
	dispatcher, err := core.NewDispatcher(store, coreDeps)
	if err != nil {
		return nil, err
	}
	dispatcher.Bind()
	return &Console{store: store, poller: poller, dispatcher: dispatcher, clock: deps.Clock}, nil
}

// Store returns the application store.
func (c *Console) Store() *core.Store {
	return c.store
}

// Poller returns the polling scheduler.
func (c *Console) Poller() *core.Poller {
	return c.poller
}

// Dispatcher returns the mutation dispatcher.
func (c *Console) Dispatcher() *core.Dispatcher {
	return c.dispatcher
}

// Clock returns the console clock.
func (c *Console) Clock() clockwork.Clock {
	return c.clock
}

// Open performs the initial load and starts polling. The returned handle
// stops the poller. A failed initial load is returned alongside the handle;
// the poller stays idle until an explicit refresh makes the collection known.
func (c *Console) Open(ctx context.Context) (*core.PollHandle, error) {
	_, err := c.store.Load(ctx)
	return c.poller.Start(ctx), err
}
