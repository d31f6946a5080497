package benchdeck

import (
	"pkt.systems/benchdeck/core"
	"pkt.systems/benchdeck/schema"
)

type eventFanout struct {
	sinks []core.EventSink
}

func (f eventFanout) OnSnapshot(snap schema.Snapshot) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnSnapshot(snap)
	}
}

func (f eventFanout) OnNotice(notice schema.Notice) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnNotice(notice)
	}
}

func (f eventFanout) OnNavigate(nav schema.Navigation) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnNavigate(nav)
	}
}

// fanout collapses the non-nil sinks into a single sink.
func fanout(sinks ...core.EventSink) core.EventSink {
	out := make([]core.EventSink, 0, len(sinks))
	for _, sink := range sinks {
		if sink != nil {
			out = append(out, sink)
		}
	}
	switch len(out) {
	case 0:
		return nil
	case 1:
		return out[0]
	default:
		return eventFanout{sinks: out}
	}
}
