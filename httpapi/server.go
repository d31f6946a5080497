package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"pkt.systems/benchdeck/core"
	"pkt.systems/benchdeck/internal/logx"
	"pkt.systems/benchdeck/schema"
)

const maxBodySize = 4 << 20

// StreamObserver tracks connected stream clients.
type StreamObserver interface {
	StreamClients(delta int)
}

// Option customizes a Server.
type Option func(*Server)

// WithMetricsHandler mounts a metrics endpoint at /metrics.
func WithMetricsHandler(handler http.Handler) Option {
	return func(s *Server) {
		s.metrics = handler
	}
}

// WithStreamObserver reports stream client counts.
func WithStreamObserver(observer StreamObserver) Option {
	return func(s *Server) {
		s.streams = observer
	}
}

// WithClock sets the clock used for clone names.
func WithClock(clock clockwork.Clock) Option {
	return func(s *Server) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithHeartbeat sets the stream keepalive interval.
func WithHeartbeat(interval time.Duration) Option {
	return func(s *Server) {
		s.heartbeat = interval
	}
}

// Server serves the console HTTP API.
type Server struct {
	cfg        Config
	store      *core.Store
	dispatcher *core.Dispatcher
	hub        *Hub
	clock      clockwork.Clock
	metrics    http.Handler
	streams    StreamObserver
	heartbeat  time.Duration
	mount      mount
}

// NewServer constructs an HTTP server.
func NewServer(cfg Config, store *core.Store, dispatcher *core.Dispatcher, hub *Hub, opts ...Option) *Server {
	s := &Server{
		cfg:        cfg,
		store:      store,
		dispatcher: dispatcher,
		hub:        hub,
		clock:      clockwork.NewRealClock(),
		heartbeat:  15 * time.Second,
		mount:      newMount(cfg.BaseURL, cfg.BasePath),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Handler returns an http.Handler for the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}
	mux.HandleFunc("GET /api/apps", s.handleList)
	mux.HandleFunc("POST /api/apps", s.handleCreate)
	mux.HandleFunc("POST /api/apps/clone", s.handleClone)
	mux.HandleFunc("GET /api/apps/form", s.handleForm)
	mux.HandleFunc("DELETE /api/apps/{id}", s.handleDelete)
	mux.HandleFunc("POST /api/apps/{id}/cancel", s.handleCancel)
	mux.HandleFunc("POST /api/actions/{action}", s.handleAction)
	mux.HandleFunc("POST /api/refresh", s.handleRefresh)
	mux.HandleFunc("GET /api/stream", s.handleStream)

	return s.mount.wrap(withRequestLogging(mux))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "loaded": snap.Loaded, "version": snap.Version})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()
	writeJSON(w, http.StatusOK, snap.View())
	logx.Ctx(r.Context()).Debug("http apps list", "version", snap.Version, "apps", len(snap.Apps))
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	log := logx.Ctx(r.Context())
	var payload struct {
		Name     string `json:"name"`
		Scenario string `json:"scenario"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		log.Warn("http create decode failed", "err", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := s.dispatcher.Create(r.Context(), schema.CreateAppRequest{Name: payload.Name, Scenario: payload.Scenario})
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"app":      resp.App,
		"location": resp.Location,
		"href":     s.mount.resolve(resp.Location),
	})
}

func (s *Server) handleClone(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		logx.Ctx(r.Context()).Warn("http clone decode failed", "err", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := s.dispatcher.Clone(r.Context(), schema.CloneAppRequest{Name: payload.Name})
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"location": resp.Location, "href": s.mount.resolve(resp.Location)})
}

func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	route := schema.RouteClone(r.URL.Query().Get("n"))
	form := core.NewCreateForm(route, s.clock)
	if form.Cloning() {
		snap, err := s.store.Load(r.Context())
		if err != nil {
			writeFailure(w, err)
			return
		}
		form.Prefill(snap)
	}
	writeJSON(w, http.StatusOK, form.View())
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	resp, err := s.dispatcher.Delete(r.Context(), schema.DeleteAppRequest{ID: schema.AppID(r.PathValue("id"))})
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"location": resp.Location, "href": s.mount.resolve(resp.Location)})
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	resp, err := s.dispatcher.Cancel(r.Context(), schema.CancelAppRequest{ID: schema.AppID(r.PathValue("id"))})
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp.Snapshot.View())
}

// handleAction invokes an action handle carried by the current snapshot.
func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	action := schema.Action(r.PathValue("action"))
	fn, ok := s.store.Snapshot().Action(action)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("action %q is not registered", action))
		return
	}
	var payload struct {
		ID       schema.AppID `json:"id"`
		Name     string       `json:"name"`
		Scenario string       `json:"scenario"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil && !errors.Is(err, io.EOF) {
		logx.Ctx(r.Context()).Warn("http action decode failed", "action", action, "err", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := fn(r.Context(), schema.ActionRequest{ID: payload.ID, Name: payload.Name, Scenario: payload.Scenario}); err != nil {
		writeFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.Refresh(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap.View())
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, errors.New("stream unsupported"))
		return
	}
	log := logx.Ctx(r.Context())

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	lastID := parseUint(r.Header.Get("Last-Event-ID"))

	ch, unsubscribe, _ := s.hub.Subscribe()
	defer unsubscribe()
	if s.streams != nil {
		s.streams.StreamClients(1)
		defer s.streams.StreamClients(-1)
	}

	view := s.store.Snapshot().View()
	_ = s.writeEvent(w, StreamEvent{
		Type:      EventSnapshot,
		Snapshot:  &view,
		Timestamp: time.Now(),
	})
	sent := lastID
	replayCount := 0
	if lastID > 0 {
		replay := s.hub.Replay(lastID)
		replayCount = len(replay)
		for _, event := range replay {
			_ = s.writeEvent(w, event)
			sent = max(sent, event.Seq)
		}
	}
	flusher.Flush()

	var heartbeat <-chan time.Time
	if s.heartbeat > 0 {
		ticker := time.NewTicker(s.heartbeat)
		defer ticker.Stop()
		heartbeat = ticker.C
	}
	notify := r.Context().Done()
	log.Info("http stream opened", "last_id", lastID, "replay", replayCount, "apps", len(view.Apps))
	for {
		select {
		case <-notify:
			log.Info("http stream closed")
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			if event.Seq <= sent {
				continue
			}
			sent = event.Seq
			_ = s.writeEvent(w, event)
			flusher.Flush()
		case <-heartbeat:
			_, _ = io.WriteString(w, ": keepalive\n\n")
			flusher.Flush()
		}
	}
}

func (s *Server) writeEvent(w http.ResponseWriter, event StreamEvent) error {
	if event.Navigation != nil && event.Href == "" {
		event.Href = s.mount.resolve(event.Navigation.Route)
	}
	return writeSSEvent(w, event)
}

func decodeJSON(body io.Reader, target any) error {
	decoder := json.NewDecoder(io.LimitReader(body, maxBodySize))
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	data, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

// writeFailure maps core errors onto HTTP statuses.
func writeFailure(w http.ResponseWriter, err error) {
	var verr *schema.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": verr.Message, "description": verr.Description})
	case errors.Is(err, context.Canceled):
		writeError(w, http.StatusServiceUnavailable, err)
	case errors.Is(err, schema.ErrAppNotFound):
		writeError(w, http.StatusNotFound, err)
	default:
		writeError(w, http.StatusBadGateway, err)
	}
}

func writeSSEvent(w http.ResponseWriter, event StreamEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if event.Seq > 0 {
		_, _ = fmt.Fprintf(w, "id: %d\n", event.Seq)
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", event.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", strings.TrimSpace(string(data)))
	return nil
}

func parseUint(value string) uint64 {
	if value == "" {
		return 0
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0
	}
	return parsed
}
