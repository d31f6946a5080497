package core

import "pkt.systems/benchdeck/schema"

// EventSink receives snapshot, notice, and navigation events from the core.
// Implementations must not call back into the Store.
type EventSink interface {
	OnSnapshot(snapshot schema.Snapshot)
	OnNotice(notice schema.Notice)
	OnNavigate(nav schema.Navigation)
}

type nopSink struct{}

func (nopSink) OnSnapshot(schema.Snapshot)   {}
func (nopSink) OnNotice(schema.Notice)       {}
func (nopSink) OnNavigate(schema.Navigation) {}
