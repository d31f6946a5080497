package gateway

import (
	"time"

	"pkt.systems/benchdeck/schema"
)

type wireApplication struct {
	ID        schema.AppID     `json:"id"`
	Name      string           `json:"name"`
	Status    schema.AppStatus `json:"status"`
	Scenario  string           `json:"scenario"`
	Tags      string           `json:"tags"`
	CreatedAt *time.Time       `json:"created_at"`
	UpdatedAt *time.Time       `json:"updated_at"`
}

// application converts the wire record. Scenario text that is not valid
// base64 UTF-8 is kept as sent.
func (w wireApplication) application() schema.Application {
	app := schema.Application{
		ID:       w.ID,
		Name:     w.Name,
		Status:   w.Status,
		Scenario: w.Scenario,
		Tags:     w.Tags,
	}
	if w.Scenario != "" {
		if decoded, err := schema.DecodeScenario(w.Scenario); err == nil {
			app.Scenario = decoded
		}
	}
	if w.CreatedAt != nil {
		app.CreatedAt = *w.CreatedAt
	}
	if w.UpdatedAt != nil {
		app.UpdatedAt = *w.UpdatedAt
	}
	return app
}
