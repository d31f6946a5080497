package core

import (
	"context"
	"errors"

	"github.com/jonboulle/clockwork"

	"pkt.systems/benchdeck/schema"
)

// CreateForm holds the state of the creation view. When opened from a clone
// route it pre-fills itself from the source application exactly once.
type CreateForm struct {
	clock    clockwork.Clock
	source   string
	applied  bool
	name     string
	scenario string
}

// CreateFormView is the transport form of a CreateForm.
type CreateFormView struct {
	Source    string `json:"source,omitempty"`
	Name      string `json:"name"`
	Scenario  string `json:"scenario"`
	Prefilled bool   `json:"prefilled"`
}

// NewCreateForm constructs the form for the given creation route.
func NewCreateForm(route schema.Route, clock clockwork.Clock) *CreateForm {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	source := route.CloneName()
	return &CreateForm{
		clock:   clock,
		source:  source,
		applied: source == "",
	}
}

// Prefill copies the clone source into the form. It applies at most once per
// form and only when the source is present in the snapshot.
func (f *CreateForm) Prefill(snap schema.Snapshot) bool {
	if f.applied || !snap.Loaded {
		return false
	}
	app, ok := schema.FindApplication(snap.Apps, f.source)
	if !ok {
		return false
	}
	f.name = schema.CloneName(f.source, f.clock.Now())
	f.scenario = app.Scenario
	f.applied = true
	return true
}

// Cloning reports whether the form was opened from a clone route.
func (f *CreateForm) Cloning() bool {
	return f.source != ""
}

// Source returns the clone source name.
func (f *CreateForm) Source() string {
	return f.source
}

// Name returns the current name field.
func (f *CreateForm) Name() string {
	return f.name
}

// Scenario returns the current scenario field.
func (f *CreateForm) Scenario() string {
	return f.scenario
}

// SetName records a user edit of the name field.
func (f *CreateForm) SetName(name string) {
	f.name = name
}

// SetScenario records a user edit of the scenario field.
func (f *CreateForm) SetScenario(scenario string) {
	f.scenario = scenario
}

// View returns the transport form of the current state.
func (f *CreateForm) View() CreateFormView {
	return CreateFormView{
		Source:    f.source,
		Name:      f.name,
		Scenario:  f.scenario,
		Prefilled: f.source != "" && f.applied,
	}
}

// Submit sends the form through the dispatcher's create path.
func (f *CreateForm) Submit(ctx context.Context, d *Dispatcher) (schema.CreateAppResponse, error) {
	if d == nil {
		return schema.CreateAppResponse{}, errors.New("dispatcher is required")
	}
	return d.Create(ctx, schema.CreateAppRequest{Name: f.name, Scenario: f.scenario})
}
