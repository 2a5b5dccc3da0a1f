package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"portolan"
	"portolan/internal/signal/freshness"
	"portolan/internal/signal/ntp"
	"portolan/internal/watch"
)

// --- fakes ---

type stubSource struct {
	snap portolan.Snapshot
	ok   bool
}

func (s *stubSource) Current() (portolan.Snapshot, bool) { return s.snap, s.ok }

type stubRefresher struct {
	snap  portolan.Snapshot
	err   error
	calls int
}

func (s *stubRefresher) Refresh(context.Context) (portolan.Snapshot, error) {
	s.calls++
	return s.snap, s.err
}

type stubClock struct {
	status ntp.Status
}

func (s *stubClock) Status() ntp.Status { return s.status }

type stubCycles struct {
	report freshness.Report
}

func (s *stubCycles) Report() freshness.Report { return s.report }

// --- helpers ---

func testSnapshot() portolan.Snapshot {
	return portolan.Snapshot{
		Containers: map[string]portolan.ContainerRecord{
			"c1": {ID: "c1", Name: "web", Status: portolan.StatusRunning,
				Networks: map[string]string{"net0": "172.18.0.2"}},
			"c2": {ID: "c2", Name: "db", Status: portolan.StatusRunning,
				Networks: map[string]string{"net0": "172.18.0.3"}},
		},
		Connections: []portolan.Connection{
			{ID: "c1-c2-net0", Source: "c1", Target: "c2", Network: "net0"},
		},
		Timestamp:       time.Date(2025, 11, 3, 12, 0, 0, 0, time.UTC),
		Summary:         portolan.Summary{TotalContainers: 2, RunningContainers: 2, TotalNetworks: 1, TotalConnections: 1},
		DockerAvailable: true,
	}
}

func get(t *testing.T, handler http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response: %v\nbody: %s", err, rr.Body.String())
	}
}

// --- tests ---

func TestNetworkData_NotReady(t *testing.T) {
	s := New(&stubSource{}, &stubRefresher{}, watch.NewHub())

	rr := get(t, s.Handler(), "/api/network-data")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var body map[string]string
	decode(t, rr, &body)
	if body["error"] != "Not ready" {
		t.Errorf("body = %v", body)
	}
}

func TestNetworkData_ServesSnapshot(t *testing.T) {
	s := New(&stubSource{snap: testSnapshot(), ok: true}, &stubRefresher{}, watch.NewHub())

	rr := get(t, s.Handler(), "/api/network-data")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("content type = %q", ct)
	}

	var snap portolan.Snapshot
	decode(t, rr, &snap)
	if !snap.DockerAvailable {
		t.Error("docker_available lost")
	}
	if len(snap.Containers) != 2 || snap.Containers["c1"].Name != "web" {
		t.Errorf("containers = %+v", snap.Containers)
	}
	if snap.Summary.TotalConnections != 1 {
		t.Errorf("summary = %+v", snap.Summary)
	}
}

func TestExportJSON_MatchesNetworkData(t *testing.T) {
	s := New(&stubSource{snap: testSnapshot(), ok: true}, &stubRefresher{}, watch.NewHub())
	h := s.Handler()

	data := get(t, h, "/api/network-data")
	export := get(t, h, "/api/export/json")
	if data.Body.String() != export.Body.String() {
		t.Error("export payload differs from network-data")
	}
}

func TestPlantUML(t *testing.T) {
	s := New(&stubSource{snap: testSnapshot(), ok: true}, &stubRefresher{}, watch.NewHub())

	rr := get(t, s.Handler(), "/api/plantuml")
	var body map[string]string
	decode(t, rr, &body)
	text := body["plantuml"]
	if !strings.HasPrefix(text, "@startuml") {
		t.Errorf("plantuml = %q", text)
	}
	if !strings.Contains(text, "component \"🟢 web\" as c1") {
		t.Errorf("missing component line:\n%s", text)
	}
	if !strings.Contains(text, "c1 --> c2 : net0") {
		t.Errorf("missing edge line:\n%s", text)
	}
}

func TestPlantUML_NotReady(t *testing.T) {
	s := New(&stubSource{}, &stubRefresher{}, watch.NewHub())

	rr := get(t, s.Handler(), "/api/plantuml")
	var body map[string]string
	decode(t, rr, &body)
	if body["plantuml"] != "@startuml\nnote\n Not ready\nend note\n@enduml" {
		t.Errorf("plantuml = %q", body["plantuml"])
	}
}

func TestRefresh(t *testing.T) {
	refresher := &stubRefresher{snap: testSnapshot()}
	s := New(&stubSource{}, refresher, watch.NewHub())

	req := httptest.NewRequest(http.MethodPost, "/api/refresh", nil)
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if refresher.calls != 1 {
		t.Errorf("refresher calls = %d, want 1", refresher.calls)
	}
	var snap portolan.Snapshot
	decode(t, rr, &snap)
	if len(snap.Containers) != 2 {
		t.Errorf("containers = %d, want 2", len(snap.Containers))
	}
}

func TestRefresh_RejectsGet(t *testing.T) {
	s := New(&stubSource{}, &stubRefresher{}, watch.NewHub())

	rr := get(t, s.Handler(), "/api/refresh")
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rr.Code)
	}
}

func TestRefresh_Interrupted(t *testing.T) {
	refresher := &stubRefresher{err: errors.New("canceled")}
	s := New(&stubSource{}, refresher, watch.NewHub())

	req := httptest.NewRequest(http.MethodPost, "/api/refresh", nil)
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rr.Code)
	}
}

func TestHealthz(t *testing.T) {
	clock := &stubClock{status: ntp.Status{
		Phase:     ntp.Healthy,
		Offset:    12 * time.Millisecond,
		CheckedAt: time.Date(2025, 11, 3, 12, 0, 0, 0, time.UTC),
	}}
	cycles := &stubCycles{report: freshness.Report{
		LastAt:   time.Date(2025, 11, 3, 12, 0, 10, 0, time.UTC),
		Duration: 80 * time.Millisecond,
		Age:      2 * time.Second,
		Phase:    freshness.Fresh,
		Cycles:   5,
	}}
	hub := watch.NewHub()
	s := New(&stubSource{snap: testSnapshot(), ok: true}, &stubRefresher{}, hub,
		WithClockStatus(clock), WithCycleStatus(cycles))

	obs := hub.Subscribe()
	defer hub.Unsubscribe(obs)

	rr := get(t, s.Handler(), "/healthz")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	var body healthResponse
	decode(t, rr, &body)
	if body.Status != "ok" || !body.Ready || !body.DockerAvailable {
		t.Errorf("health = %+v", body)
	}
	if body.Uptime == "" {
		t.Error("uptime missing from health report")
	}
	if body.Observers != 1 {
		t.Errorf("observers = %d, want 1", body.Observers)
	}
	if body.Clock == nil || body.Clock.Phase != "healthy" {
		t.Errorf("clock = %+v", body.Clock)
	}
	if body.LastCycle == nil || body.LastCycle.Phase != "fresh" || body.LastCycle.Cycles != 5 {
		t.Errorf("last cycle = %+v", body.LastCycle)
	}
}

func TestHealthz_BeforeFirstCollection(t *testing.T) {
	s := New(&stubSource{}, &stubRefresher{}, watch.NewHub())

	rr := get(t, s.Handler(), "/healthz")
	var body healthResponse
	decode(t, rr, &body)
	if body.Ready {
		t.Error("ready before first collection")
	}
	if body.DockerAvailable {
		t.Error("docker_available without a snapshot")
	}
}

func TestMetricsRoute(t *testing.T) {
	mounted := New(&stubSource{}, &stubRefresher{}, watch.NewHub(),
		WithMetricsHandler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})))
	if rr := get(t, mounted.Handler(), "/metrics"); rr.Code != http.StatusOK {
		t.Errorf("mounted /metrics status = %d", rr.Code)
	}

	bare := New(&stubSource{}, &stubRefresher{}, watch.NewHub())
	if rr := get(t, bare.Handler(), "/metrics"); rr.Code != http.StatusNotFound {
		t.Errorf("unmounted /metrics status = %d", rr.Code)
	}
}
