package core

import (
	"time"

	"pkt.systems/benchdeck/schema"
)

// RefreshResult classifies the outcome of a store refresh.
type RefreshResult string

const (
	RefreshApplied RefreshResult = "applied"
	RefreshStale   RefreshResult = "stale"
	RefreshFailed  RefreshResult = "error"
)

// PollOutcome classifies a poller tick.
type PollOutcome string

const (
	PollSkipped PollOutcome = "skipped"
	PollIssued  PollOutcome = "issued"
	PollJoined  PollOutcome = "joined"
)

// DispatchResult classifies a dispatcher call.
type DispatchResult string

const (
	DispatchOK      DispatchResult = "ok"
	DispatchInvalid DispatchResult = "invalid"
	DispatchFailed  DispatchResult = "error"
)

// Recorder observes core activity, typically for metrics.
type Recorder interface {
	RefreshObserved(result RefreshResult, elapsed time.Duration, apps int)
	PollTick(outcome PollOutcome)
	DispatchObserved(action schema.Action, result DispatchResult)
}

type nopRecorder struct{}

func (nopRecorder) RefreshObserved(RefreshResult, time.Duration, int) {}
func (nopRecorder) PollTick(PollOutcome)                              {}
func (nopRecorder) DispatchObserved(schema.Action, DispatchResult)    {}
