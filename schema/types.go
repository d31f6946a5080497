package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// AppID identifies an application. It is assigned by the backend and is
// opaque to the client.
type AppID string

// AppStatus is the backend-owned lifecycle state of an application.
type AppStatus string

const (
	// AppStatusPending indicates the application is queued.
	AppStatusPending AppStatus = "pending"
	// AppStatusProvisioning indicates the scenario is being compiled.
	AppStatusProvisioning AppStatus = "provisioning"
	// AppStatusRunning indicates the benchmark is running.
	AppStatusRunning AppStatus = "running"
	// AppStatusFinished indicates the benchmark completed.
	AppStatusFinished AppStatus = "finished"
	// AppStatusCancel indicates the run was canceled.
	AppStatusCancel AppStatus = "cancel"
	// AppStatusError indicates the run failed.
	AppStatusError AppStatus = "error"
)

// Application is the last-known record of a benchmark application.
type Application struct {
	ID        AppID     `json:"id"`
	Name      string    `json:"name"`
	Status    AppStatus `json:"status,omitempty"`
	Scenario  string    `json:"scenario,omitempty"`
	Tags      string    `json:"tags,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// UnmarshalJSON accepts numeric and string identifiers.
func (id *AppID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = AppID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.New("application id must be a string or number")
	}
	*id = AppID(n.String())
	return nil
}

// FindApplication returns the first application with the given name.
func FindApplication(apps []Application, name string) (Application, bool) {
	for _, app := range apps {
		if app.Name == name {
			return app, true
		}
	}
	return Application{}, false
}
