package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"pkt.systems/benchdeck/internal/eventbus"
	"pkt.systems/benchdeck/internal/version"
	"pkt.systems/benchdeck/schema"
)

type fakeBackend struct {
	mu       sync.Mutex
	apps     []map[string]any
	created  []schema.GatewayCreateRequest
	deleted  []string
	canceled []string
	failList bool
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/api/applications":
		if b.failList {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"boom"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(b.apps)
	case r.Method == http.MethodPost && r.URL.Path == "/api/applications":
		var req schema.GatewayCreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		b.created = append(b.created, req)
		app := map[string]any{"id": 42, "name": req.Name, "status": "pending", "scenario": req.Scenario}
		b.apps = append(b.apps, app)
		_ = json.NewEncoder(w).Encode(app)
	case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/api/applications/"):
		b.deleted = append(b.deleted, strings.TrimPrefix(r.URL.Path, "/api/applications/"))
		w.WriteHeader(http.StatusNoContent)
	case r.Method == http.MethodPut && strings.HasSuffix(r.URL.Path, "/cancel"):
		id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/applications/"), "/cancel")
		b.canceled = append(b.canceled, id)
		for _, app := range b.apps {
			if app["id"] == id {
				app["status"] = "cancelled"
			}
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newBackend(t *testing.T, apps ...map[string]any) (*fakeBackend, string) {
	t.Helper()
	backend := &fakeBackend{apps: apps}
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)
	return backend, srv.URL
}

func runRoot(t *testing.T, apiURL string, stdin string, args ...string) (string, error) {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "missing.yaml")
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"-c", configPath, "--api", apiURL}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootRegistersCommands(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"serve", "list", "create", "clone", "delete", "cancel", "watch", "config", "version"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd == nil || cmd.Name() != name {
			t.Fatalf("expected %s command, got %v (err %v)", name, cmd, err)
		}
	}
}

func TestListPrintsTable(t *testing.T) {
	_, url := newBackend(t,
		map[string]any{"id": "1", "name": "load", "status": "running", "scenario": schema.EncodeScenario("x"), "created_at": "2024-03-05T10:07:09Z"},
		map[string]any{"id": "2", "name": "soak", "status": "finished", "scenario": ""},
	)
	out, err := runRoot(t, url, "", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, want := range []string{"ID", "NAME", "load", "running", "2024-03-05 10:07:09", "soak", "finished"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestListJSON(t *testing.T) {
	_, url := newBackend(t, map[string]any{"id": 7, "name": "load", "status": "running", "scenario": ""})
	out, err := runRoot(t, url, "", "list", "--json")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var apps []schema.Application
	if err := json.Unmarshal([]byte(out), &apps); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if len(apps) != 1 || apps[0].ID != "7" || apps[0].Name != "load" {
		t.Fatalf("unexpected apps %+v", apps)
	}
}

func TestListReportsGatewayFailure(t *testing.T) {
	backend, url := newBackend(t)
	backend.failList = true
	if _, err := runRoot(t, url, "", "list"); err == nil {
		t.Fatalf("expected list failure")
	}
}

func TestCreateReadsScenarioFromStdin(t *testing.T) {
	backend, url := newBackend(t)
	out, err := runRoot(t, url, "package main\n", "create", "--name", "load", "--scenario-file", "-")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.Contains(out, "created load (42) -> /application/42") {
		t.Fatalf("unexpected output %q", out)
	}
	backend.mu.Lock()
	defer backend.mu.Unlock()
	if len(backend.created) != 1 || backend.created[0].Scenario != schema.EncodeScenario("package main\n") {
		t.Fatalf("unexpected create payloads %+v", backend.created)
	}
}

func TestCreateReadsScenarioFile(t *testing.T) {
	backend, url := newBackend(t)
	path := filepath.Join(t.TempDir(), "scenario.go")
	if err := os.WriteFile(path, []byte("package scenario"), 0o600); err != nil {
		t.Fatalf("write scenario: %v", err)
	}
	if _, err := runRoot(t, url, "", "create", "-n", "file", "-f", path); err != nil {
		t.Fatalf("create: %v", err)
	}
	backend.mu.Lock()
	defer backend.mu.Unlock()
	if len(backend.created) != 1 || backend.created[0].Name != "file" {
		t.Fatalf("unexpected create payloads %+v", backend.created)
	}
}

func TestCreateValidationError(t *testing.T) {
	backend, url := newBackend(t)
	_, err := runRoot(t, url, "", "create", "--name", "load")
	if err == nil || !strings.Contains(err.Error(), schema.ErrScenarioRequired().Message) {
		t.Fatalf("expected scenario validation error, got %v", err)
	}
	backend.mu.Lock()
	defer backend.mu.Unlock()
	if len(backend.created) != 0 {
		t.Fatalf("expected no create call, got %+v", backend.created)
	}
}

func TestCloneCopiesScenario(t *testing.T) {
	backend, url := newBackend(t, map[string]any{"id": "1", "name": "load", "status": "finished", "scenario": schema.EncodeScenario("package main")})
	if _, err := runRoot(t, url, "", "clone", "load", "--name", "load-copy"); err != nil {
		t.Fatalf("clone: %v", err)
	}
	backend.mu.Lock()
	defer backend.mu.Unlock()
	if len(backend.created) != 1 {
		t.Fatalf("expected one create, got %+v", backend.created)
	}
	got := backend.created[0]
	if got.Name != "load-copy" || got.Scenario != schema.EncodeScenario("package main") {
		t.Fatalf("unexpected clone payload %+v", got)
	}
}

func TestCloneUnknownSource(t *testing.T) {
	_, url := newBackend(t)
	if _, err := runRoot(t, url, "", "clone", "missing"); err == nil || !strings.Contains(err.Error(), "missing") {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestDeleteAndCancel(t *testing.T) {
	backend, url := newBackend(t, map[string]any{"id": "5", "name": "load", "status": "running", "scenario": ""})
	out, err := runRoot(t, url, "", "cancel", "5")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if !strings.Contains(out, "canceled 5 (status: cancelled)") {
		t.Fatalf("unexpected cancel output %q", out)
	}
	if _, err := runRoot(t, url, "", "delete", "5"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	backend.mu.Lock()
	defer backend.mu.Unlock()
	if len(backend.canceled) != 1 || backend.canceled[0] != "5" {
		t.Fatalf("unexpected cancel calls %+v", backend.canceled)
	}
	if len(backend.deleted) != 1 || backend.deleted[0] != "5" {
		t.Fatalf("unexpected delete calls %+v", backend.deleted)
	}
}

func TestConfigInitWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"config", "init", "--output", path})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("config init: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if !strings.Contains(string(data), "config_version: 1") {
		t.Fatalf("unexpected config:\n%s", data)
	}
	root = newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"config", "init", "--output", path})
	if err := root.ExecuteContext(context.Background()); err == nil {
		t.Fatalf("expected error without --force")
	}
}

func TestPrintEventsSkipsRepeatedVersions(t *testing.T) {
	events := make(chan eventbus.Event, 4)
	snap := schema.Snapshot{Version: 1, Loaded: true, Apps: []schema.Application{{ID: "1", Name: "load", Status: schema.AppStatusRunning}}}
	events <- eventbus.Event{Type: eventbus.EventSnapshot, Snapshot: schema.Snapshot{Loading: true}}
	events <- eventbus.Event{Type: eventbus.EventSnapshot, Snapshot: snap}
	events <- eventbus.Event{Type: eventbus.EventSnapshot, Snapshot: snap}
	events <- eventbus.Event{Type: eventbus.EventNotice, Notice: schema.Notice{Action: schema.ActionRefresh, Message: "Failed to refresh applications"}}
	close(events)

	var out bytes.Buffer
	if err := printEvents(make(chan struct{}), &out, events); err != nil {
		t.Fatalf("print events: %v", err)
	}
	if got := strings.Count(out.String(), "-- version 1"); got != 1 {
		t.Fatalf("expected one version header, got %d:\n%s", got, out.String())
	}
	if !strings.Contains(out.String(), "!! refresh Failed to refresh applications") {
		t.Fatalf("missing notice line:\n%s", out.String())
	}
}

func TestVersionPrintsUserAgent(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out.String(), "user-agent: "+version.UserAgent()) {
		t.Fatalf("expected user agent line, got %q", out.String())
	}

	out.Reset()
	root = newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"version", "--short"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("version --short: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != version.Current() {
		t.Fatalf("version --short = %q, want %q", got, version.Current())
	}
}
