package eventbus

import (
	"context"
	"sync"

	"pkt.systems/benchdeck/schema"
	"pkt.systems/pslog"
)

// EventType identifies the event payload.
type EventType string

const (
	// EventSnapshot carries a new store snapshot.
	EventSnapshot EventType = "snapshot"
	// EventNotice carries an error surface entry.
	EventNotice EventType = "notice"
	// EventNavigate carries a navigation request.
	EventNavigate EventType = "navigate"
)

// Event represents a presentation-facing event emitted by the core.
type Event struct {
	Type       EventType
	Snapshot   schema.Snapshot
	Notice     schema.Notice
	Navigation schema.Navigation
}

// Bus fans events out to subscribers. Publishing never blocks; a full
// subscriber drops the event.
type Bus struct {
	mu    sync.Mutex
	subs  map[chan Event]map[EventType]bool
	log   pslog.Logger
	depth int
}

// New constructs a Bus.
func New(logger pslog.Logger) *Bus {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Bus{
		subs:  make(map[chan Event]map[EventType]bool),
		log:   logger,
		depth: 256,
	}
}

// Subscribe registers a subscriber and returns a channel + cancel. With no
// types the subscriber receives every event.
func (b *Bus) Subscribe(types ...EventType) (<-chan Event, func()) {
	if b == nil {
		return nil, func() {}
	}
	var filter map[EventType]bool
	if len(types) > 0 {
		filter = make(map[EventType]bool, len(types))
		for _, t := range types {
			filter[t] = true
		}
	}
	ch := make(chan Event, b.depth)
	b.mu.Lock()
	b.subs[ch] = filter
	count := len(b.subs)
	b.mu.Unlock()
	b.log.Debug("eventbus subscribe", "subs", count)
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
			close(ch)
			b.log.Debug("eventbus unsubscribe")
		})
	}
}

// OnSnapshot publishes a snapshot event.
func (b *Bus) OnSnapshot(snap schema.Snapshot) {
	b.publish(Event{Type: EventSnapshot, Snapshot: snap})
}

// OnNotice publishes a notice event.
func (b *Bus) OnNotice(notice schema.Notice) {
	b.publish(Event{Type: EventNotice, Notice: notice})
}

// OnNavigate publishes a navigation event.
func (b *Bus) OnNavigate(nav schema.Navigation) {
	b.publish(Event{Type: EventNavigate, Navigation: nav})
}

func (b *Bus) publish(event Event) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	dropped := 0
	for sub, filter := range b.subs {
		if filter != nil && !filter[event.Type] {
			continue
		}
		select {
		case sub <- event:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		b.log.Trace("eventbus dropped", "type", event.Type, "count", dropped)
	}
}
