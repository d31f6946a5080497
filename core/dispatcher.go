package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonboulle/clockwork"

	"pkt.systems/benchdeck/internal/logx"
	"pkt.systems/benchdeck/schema"
	"pkt.systems/pslog"
)

// Dispatcher validates and performs application mutations, then reconciles
// the store with an explicit refresh.
type Dispatcher struct {
	gateway Gateway
	store   *Store
	sink    EventSink
	rec     Recorder
	clock   clockwork.Clock
	logger  pslog.Logger
}

// NewDispatcher constructs a dispatcher bound to the store.
func NewDispatcher(store *Store, deps Deps) (*Dispatcher, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if deps.Gateway == nil {
		return nil, errors.New("gateway dependency is required")
	}
	deps = deps.normalized()
	return &Dispatcher{
		gateway: deps.Gateway,
		store:   store,
		sink:    deps.EventSink,
		rec:     deps.Recorder,
		clock:   deps.Clock,
		logger:  deps.Logger.With("component", "dispatcher"),
	}, nil
}

// Bind registers the dispatcher's action handles on the store.
func (d *Dispatcher) Bind() {
	d.store.Register(schema.ActionCreate, func(ctx context.Context, req schema.ActionRequest) error {
		_, err := d.Create(ctx, schema.CreateAppRequest{Name: req.Name, Scenario: req.Scenario})
		return err
	})
	d.store.Register(schema.ActionClone, func(ctx context.Context, req schema.ActionRequest) error {
		_, err := d.Clone(ctx, schema.CloneAppRequest{Name: req.Name})
		return err
	})
	d.store.Register(schema.ActionDelete, func(ctx context.Context, req schema.ActionRequest) error {
		_, err := d.Delete(ctx, schema.DeleteAppRequest{ID: req.ID})
		return err
	})
	d.store.Register(schema.ActionCancel, func(ctx context.Context, req schema.ActionRequest) error {
		_, err := d.Cancel(ctx, schema.CancelAppRequest{ID: req.ID})
		return err
	})
}

// Create validates the request, submits the encoded scenario, refreshes the
// store, and navigates to the new application.
func (d *Dispatcher) Create(ctx context.Context, req schema.CreateAppRequest) (schema.CreateAppResponse, error) {
	if ctx == nil {
		return schema.CreateAppResponse{}, errors.New("missing context")
	}
	log := logx.WithAction(ctx, d.logger, schema.ActionCreate, "").With("name", req.Name)
	if err := schema.ValidateCreate(req); err != nil {
		return schema.CreateAppResponse{}, d.reject(log, schema.ActionCreate, err)
	}
	app, err := d.gateway.Create(ctx, schema.GatewayCreateRequest{
		Name:     req.Name,
		Scenario: schema.EncodeScenario(req.Scenario),
	})
	if err != nil {
		return schema.CreateAppResponse{}, d.fail(log, schema.ActionCreate, "create application failed.", fmt.Errorf("create application: %w", err))
	}
	log = logx.WithApp(log, app)
	d.reconcile(ctx, log, schema.ActionCreate)
	if app.ID == "" {
		return schema.CreateAppResponse{App: app}, d.fail(log, schema.ActionCreate, "create application failed.", errors.New("create application: backend returned no id"))
	}
	location := schema.RouteApplication(app.ID)
	d.navigate(schema.Navigation{Route: location, Action: schema.ActionCreate, AppID: app.ID})
	d.rec.DispatchObserved(schema.ActionCreate, DispatchOK)
	log.Info("dispatch create ok", "location", location)
	return schema.CreateAppResponse{App: app, Location: location}, nil
}

// Clone navigates to the creation view carrying the source name.
func (d *Dispatcher) Clone(ctx context.Context, req schema.CloneAppRequest) (schema.CloneAppResponse, error) {
	if ctx == nil {
		return schema.CloneAppResponse{}, errors.New("missing context")
	}
	location := schema.RouteClone(req.Name)
	d.navigate(schema.Navigation{Route: location, Action: schema.ActionClone})
	d.rec.DispatchObserved(schema.ActionClone, DispatchOK)
	logx.WithAction(ctx, d.logger, schema.ActionClone, "").Debug("dispatch clone ok", "name", req.Name, "location", location)
	return schema.CloneAppResponse{Location: location}, nil
}

// Delete removes an application, refreshes the store, and navigates to the list.
func (d *Dispatcher) Delete(ctx context.Context, req schema.DeleteAppRequest) (schema.DeleteAppResponse, error) {
	if ctx == nil {
		return schema.DeleteAppResponse{}, errors.New("missing context")
	}
	log := logx.WithAction(ctx, d.logger, schema.ActionDelete, req.ID)
	if err := schema.ValidateID(req.ID); err != nil {
		return schema.DeleteAppResponse{}, d.reject(log, schema.ActionDelete, err)
	}
	if err := d.gateway.Delete(ctx, req.ID); err != nil {
		return schema.DeleteAppResponse{}, d.fail(log, schema.ActionDelete, "delete application failed.", fmt.Errorf("delete application %s: %w", req.ID, err))
	}
	d.reconcile(ctx, log, schema.ActionDelete)
	d.navigate(schema.Navigation{Route: schema.RouteRoot, Action: schema.ActionDelete, AppID: req.ID})
	d.rec.DispatchObserved(schema.ActionDelete, DispatchOK)
	log.Info("dispatch delete ok")
	return schema.DeleteAppResponse{Location: schema.RouteRoot}, nil
}

// Cancel stops a running application and refreshes the store. The record is
// not patched locally.
func (d *Dispatcher) Cancel(ctx context.Context, req schema.CancelAppRequest) (schema.CancelAppResponse, error) {
	if ctx == nil {
		return schema.CancelAppResponse{}, errors.New("missing context")
	}
	log := logx.WithAction(ctx, d.logger, schema.ActionCancel, req.ID)
	if err := schema.ValidateID(req.ID); err != nil {
		return schema.CancelAppResponse{}, d.reject(log, schema.ActionCancel, err)
	}
	if err := d.gateway.Cancel(ctx, req.ID); err != nil {
		return schema.CancelAppResponse{}, d.fail(log, schema.ActionCancel, "cancel application failed.", fmt.Errorf("cancel application %s: %w", req.ID, err))
	}
	snap := d.reconcile(ctx, log, schema.ActionCancel)
	d.rec.DispatchObserved(schema.ActionCancel, DispatchOK)
	log.Info("dispatch cancel ok")
	return schema.CancelAppResponse{Snapshot: snap}, nil
}

// reconcile refreshes the store after a successful mutation. A failed
// refresh is reported but does not fail the mutation.
func (d *Dispatcher) reconcile(ctx context.Context, log pslog.Logger, action schema.Action) schema.Snapshot {
	snap, err := d.store.Refresh(ctx)
	if err != nil {
		log.Warn("dispatch refresh failed", "err", err)
		d.notice(action, "refresh failed.", err.Error())
	}
	return snap
}

func (d *Dispatcher) reject(log pslog.Logger, action schema.Action, err error) error {
	d.rec.DispatchObserved(action, DispatchInvalid)
	log.Info("dispatch rejected", "err", err)
	var verr *schema.ValidationError
	if errors.As(err, &verr) {
		notice := verr.Notice(action)
		notice.Time = d.clock.Now()
		d.sink.OnNotice(notice)
	} else {
		d.notice(action, err.Error(), "")
	}
	return err
}

func (d *Dispatcher) fail(log pslog.Logger, action schema.Action, message string, err error) error {
	d.rec.DispatchObserved(action, DispatchFailed)
	log.Warn("dispatch failed", "err", err)
	d.notice(action, message, err.Error())
	return err
}

func (d *Dispatcher) notice(action schema.Action, message, description string) {
	d.sink.OnNotice(schema.Notice{
		Level:       schema.NoticeError,
		Action:      action,
		Message:     message,
		Description: description,
		Time:        d.clock.Now(),
	})
}

func (d *Dispatcher) navigate(nav schema.Navigation) {
	d.sink.OnNavigate(nav)
}
