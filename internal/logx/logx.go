package logx

import (
	"context"

	"pkt.systems/benchdeck/schema"
	"pkt.systems/pslog"
)

type contextKey int

const requestIDKey contextKey = iota

// Ctx returns the logger bound to the provided context.
func Ctx(ctx context.Context) pslog.Logger {
	if ctx == nil {
		ctx = context.Background()
	}
	return pslog.Ctx(ctx)
}

// ContextWithRequestID records the request id so components logging through
// their own logger can still tag it.
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	if ctx == nil || requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestID returns the request id carried by ctx.
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithAction annotates log with the dispatcher action, the application id
// when present, and the request id carried by ctx.
func WithAction(ctx context.Context, log pslog.Logger, action schema.Action, appID schema.AppID) pslog.Logger {
	if action != "" {
		log = log.With("action", action)
	}
	if appID != "" {
		log = log.With("app", appID)
	}
	return WithRequestID(log, RequestID(ctx))
}

// WithApp annotates the logger with application metadata when available.
func WithApp(log pslog.Logger, app schema.Application) pslog.Logger {
	if app.ID != "" {
		log = log.With("app", app.ID)
	}
	if app.Name != "" {
		log = log.With("app_name", app.Name)
	}
	return log
}

// WithRequestID annotates the logger with a request id.
func WithRequestID(log pslog.Logger, requestID string) pslog.Logger {
	if requestID != "" {
		log = log.With("request_id", requestID)
	}
	return log
}
