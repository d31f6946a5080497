package httpapi

import (
	"context"
	"sync"
	"time"

	"pkt.systems/benchdeck/schema"
	"pkt.systems/pslog"
)

// Stream event types.
const (
	EventSnapshot = "snapshot"
	EventNotice   = "notice"
	EventNavigate = "navigate"
)

// StreamEvent is sent to SSE clients.
type StreamEvent struct {
	Seq        uint64               `json:"seq"`
	Type       string               `json:"type"`
	Snapshot   *schema.SnapshotView `json:"snapshot,omitempty"`
	Notice     *schema.Notice       `json:"notice,omitempty"`
	Navigation *schema.Navigation   `json:"navigation,omitempty"`
	Href       string               `json:"href,omitempty"`
	Timestamp  time.Time            `json:"timestamp"`
}

// Hub broadcasts core events to stream clients. Notices and navigations are
// kept in a bounded history for Last-Event-ID replay; snapshots are not, a
// reconnecting client is seeded with the current one instead.
type Hub struct {
	mu          sync.Mutex
	seq         uint64
	history     []StreamEvent
	subs        map[chan StreamEvent]struct{}
	historySize int
	log         pslog.Logger
}

// NewHub constructs a hub with the given history size.
func NewHub(historySize int) *Hub {
	if historySize <= 0 {
		historySize = 1000
	}
	return &Hub{
		subs:        make(map[chan StreamEvent]struct{}),
		historySize: historySize,
		log:         pslog.Ctx(context.Background()).With("component", "hub"),
	}
}

// OnSnapshot implements core.EventSink.
func (h *Hub) OnSnapshot(snap schema.Snapshot) {
	view := snap.View()
	h.log.Trace("hub snapshot event", "version", snap.Version, "apps", len(snap.Apps))
	h.publish(StreamEvent{
		Type:      EventSnapshot,
		Snapshot:  &view,
		Timestamp: time.Now(),
	}, false)
}

// OnNotice implements core.EventSink.
func (h *Hub) OnNotice(notice schema.Notice) {
	h.log.Trace("hub notice event", "action", notice.Action, "message", notice.Message)
	h.publish(StreamEvent{
		Type:      EventNotice,
		Notice:    &notice,
		Timestamp: time.Now(),
	}, true)
}

// OnNavigate implements core.EventSink.
func (h *Hub) OnNavigate(nav schema.Navigation) {
	h.log.Trace("hub navigate event", "route", nav.Route)
	h.publish(StreamEvent{
		Type:       EventNavigate,
		Navigation: &nav,
		Timestamp:  time.Now(),
	}, true)
}

// Subscribe registers a subscriber and returns the current seq.
func (h *Hub) Subscribe() (<-chan StreamEvent, func(), uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch := make(chan StreamEvent, 256)
	h.subs[ch] = struct{}{}
	seq := h.seq
	h.log.Info("hub subscribe", "subs", len(h.subs), "history", len(h.history))
	var once sync.Once
	unsub := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			close(ch)
			remaining := len(h.subs)
			h.mu.Unlock()
			h.log.Info("hub unsubscribe", "subs", remaining)
		})
	}
	return ch, unsub, seq
}

// Replay returns retained events after the provided seq.
func (h *Hub) Replay(after uint64) []StreamEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	events := make([]StreamEvent, 0, len(h.history))
	for _, event := range h.history {
		if event.Seq > after {
			events = append(events, event)
		}
	}
	h.log.Debug("hub replay", "after", after, "count", len(events))
	return events
}

func (h *Hub) publish(event StreamEvent, retain bool) {
	h.mu.Lock()
	h.seq++
	event.Seq = h.seq
	if retain {
		h.history = append(h.history, event)
		if len(h.history) > h.historySize {
			h.history = h.history[len(h.history)-h.historySize:]
		}
	}
	dropped := 0
	for sub := range h.subs {
		select {
		case sub <- event:
		default:
			dropped++
		}
	}
	h.mu.Unlock()
	if dropped > 0 {
		h.log.Warn("hub event dropped", "type", event.Type, "dropped", dropped)
	}
}
