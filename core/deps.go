package core

import (
	"context"

	"github.com/jonboulle/clockwork"

	"pkt.systems/pslog"
)

// Deps captures the dependencies shared by the store, poller, and dispatcher.
type Deps struct {
	Gateway   Gateway
	EventSink EventSink
	Recorder  Recorder
	Clock     clockwork.Clock
	Logger    pslog.Logger
}

func (d Deps) normalized() Deps {
	if d.EventSink == nil {
		d.EventSink = nopSink{}
	}
	if d.Recorder == nil {
		d.Recorder = nopRecorder{}
	}
	if d.Clock == nil {
		d.Clock = clockwork.NewRealClock()
	}
	if d.Logger == nil {
		d.Logger = pslog.Ctx(context.Background())
	}
	return d
}
