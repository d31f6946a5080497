package httpapi

import (
	"testing"
	"time"

	"pkt.systems/benchdeck/schema"
)

func TestHubReplayRetainsNoticesAndNavigation(t *testing.T) {
	hub := NewHub(10)
	hub.OnSnapshot(schema.Snapshot{Version: 1})
	hub.OnNotice(schema.Notice{Level: schema.NoticeError, Message: "name is required."})
	hub.OnNavigate(schema.Navigation{Route: schema.RouteRoot})

	events := hub.Replay(0)
	if len(events) != 2 {
		t.Fatalf("expected notice and navigate in history, got %d", len(events))
	}
	if events[0].Type != EventNotice || events[0].Seq != 2 {
		t.Fatalf("unexpected first event %+v", events[0])
	}
	if events[1].Type != EventNavigate || events[1].Seq != 3 {
		t.Fatalf("unexpected second event %+v", events[1])
	}
	if got := hub.Replay(2); len(got) != 1 || got[0].Seq != 3 {
		t.Fatalf("expected replay after seq 2 to return one event, got %+v", got)
	}
}

func TestHubHistoryIsBounded(t *testing.T) {
	hub := NewHub(2)
	for i := 0; i < 5; i++ {
		hub.OnNotice(schema.Notice{Message: "x"})
	}
	events := hub.Replay(0)
	if len(events) != 2 || events[0].Seq != 4 {
		t.Fatalf("expected the two newest events, got %+v", events)
	}
}

func TestHubSubscribe(t *testing.T) {
	hub := NewHub(0)
	ch, unsub, seq := hub.Subscribe()
	defer unsub()
	if seq != 0 {
		t.Fatalf("expected seq 0, got %d", seq)
	}
	hub.OnSnapshot(schema.Snapshot{Version: 4, Loaded: true})
	select {
	case event := <-ch:
		if event.Type != EventSnapshot || event.Snapshot == nil || event.Snapshot.Version != 4 {
			t.Fatalf("unexpected event %+v", event)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("timed out waiting for event")
	}
	unsub()
	unsub()
	if _, ok := <-ch; ok {
		t.Fatalf("expected channel to be closed")
	}
}
