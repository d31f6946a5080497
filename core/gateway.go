package core

import (
	"context"

	"pkt.systems/benchdeck/schema"
)

// Gateway is the remote API consumed by the core. Failures surface as
// returned errors.
type Gateway interface {
	List(ctx context.Context) ([]schema.Application, error)
	Create(ctx context.Context, req schema.GatewayCreateRequest) (schema.Application, error)
	Delete(ctx context.Context, id schema.AppID) error
	Cancel(ctx context.Context, id schema.AppID) error
}
