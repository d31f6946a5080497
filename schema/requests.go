package schema

import "context"

// Action names the mutation entry points carried by a snapshot.
type Action string

const (
	// ActionCreate creates an application.
	ActionCreate Action = "create"
	// ActionClone opens the creation view pre-filled from an application.
	ActionClone Action = "clone"
	// ActionDelete deletes an application.
	ActionDelete Action = "delete"
	// ActionCancel cancels a running application.
	ActionCancel Action = "cancel"
	// ActionRefresh marks notices raised by refreshes.
	ActionRefresh Action = "refresh"
)

// ActionRequest is the input accepted by every action handle.
type ActionRequest struct {
	ID       AppID
	Name     string
	Scenario string
}

// ActionFunc is an action handle registered on the store.
type ActionFunc func(ctx context.Context, req ActionRequest) error

// Application lifecycle.

// CreateAppRequest describes a request to create an application. Scenario is
// plain text; it is encoded before it reaches the gateway.
type CreateAppRequest struct {
	Name     string
	Scenario string
}

// CreateAppResponse reports the created application and where to go next.
type CreateAppResponse struct {
	App      Application
	Location Route
}

// CloneAppRequest describes a request to clone an application by name.
type CloneAppRequest struct {
	Name string
}

// CloneAppResponse reports the creation view route.
type CloneAppResponse struct {
	Location Route
}

// DeleteAppRequest describes a request to delete an application.
type DeleteAppRequest struct {
	ID AppID
}

// DeleteAppResponse reports where to go after the delete.
type DeleteAppResponse struct {
	Location Route
}

// CancelAppRequest describes a request to cancel a running application.
type CancelAppRequest struct {
	ID AppID
}

// CancelAppResponse reports the snapshot observed after the cancel.
type CancelAppResponse struct {
	Snapshot Snapshot
}

// GatewayCreateRequest is the wire payload sent to the backend. Scenario is
// base64 encoded.
type GatewayCreateRequest struct {
	Name     string `json:"name"`
	Scenario string `json:"scenario"`
}
