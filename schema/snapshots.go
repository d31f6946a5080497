package schema

// Snapshot is an immutable view of the application collection plus the
// registered action handles. A new value is built for every change.
type Snapshot struct {
	// Version counts published snapshots: applied refreshes and action
	// registrations.
	Version uint64
	// Seq is the issue sequence of the refresh that produced Apps.
	Seq uint64
	// Apps is nil until the first successful list.
	Apps    []Application
	Loaded  bool
	Loading bool
	Actions map[Action]ActionFunc
}

// Known reports whether at least one list has been applied.
func (s Snapshot) Known() bool {
	return s.Loaded
}

// Empty reports whether the collection is unknown or has no entries.
func (s Snapshot) Empty() bool {
	return !s.Loaded || len(s.Apps) == 0
}

// Action returns the registered action handle.
func (s Snapshot) Action(name Action) (ActionFunc, bool) {
	fn, ok := s.Actions[name]
	return fn, ok && fn != nil
}

// Find returns the application with the given id.
func (s Snapshot) Find(id AppID) (Application, bool) {
	for _, app := range s.Apps {
		if app.ID == id {
			return app, true
		}
	}
	return Application{}, false
}

// SnapshotView is the transport form of a snapshot.
type SnapshotView struct {
	Version uint64        `json:"version"`
	Seq     uint64        `json:"seq"`
	Apps    []Application `json:"apps"`
	Loaded  bool          `json:"loaded"`
	Loading bool          `json:"loading"`
	Actions []Action      `json:"actions"`
}

// View converts the snapshot into its transport form.
func (s Snapshot) View() SnapshotView {
	view := SnapshotView{
		Version: s.Version,
		Seq:     s.Seq,
		Apps:    s.Apps,
		Loaded:  s.Loaded,
		Loading: s.Loading,
	}
	for _, name := range []Action{ActionCreate, ActionClone, ActionDelete, ActionCancel} {
		if _, ok := s.Action(name); ok {
			view.Actions = append(view.Actions, name)
		}
	}
	return view
}
