package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"portolan"

	"github.com/gorilla/websocket"
)

// --- helpers ---

func testSnapshot(at time.Time) portolan.Snapshot {
	return portolan.Snapshot{
		Containers: map[string]portolan.ContainerRecord{
			"c1": {
				ID:       "c1",
				Name:     "web",
				Status:   portolan.StatusRunning,
				Image:    "nginx:latest",
				Networks: map[string]string{"net0": "172.18.0.2"},
				Stats:    portolan.ResourceStats{CPUPercent: 12.5},
			},
		},
		Connections: []portolan.Connection{},
		Timestamp:   at,
		Summary: portolan.Summary{
			TotalContainers:   1,
			RunningContainers: 1,
			TotalNetworks:     1,
		},
		DockerAvailable: true,
	}
}

func serve(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := Dial(srv.URL)
	if err != nil {
		t.Fatalf("Dial(%q): %v", srv.URL, err)
	}
	return c
}

func recvSnap(t *testing.T, w *Watch) portolan.Snapshot {
	t.Helper()
	select {
	case snap, ok := <-w.Snapshots():
		if !ok {
			t.Fatalf("stream closed early: %v", w.Err())
		}
		return snap
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for snapshot")
	}
	return portolan.Snapshot{}
}

// --- tests ---

func TestDialTargetForms(t *testing.T) {
	c, err := Dial("http://example.com:8000/")
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	if c.base != "http://example.com:8000" {
		t.Errorf("base = %q, want %q", c.base, "http://example.com:8000")
	}
	if c.wsBase != "ws://example.com:8000" {
		t.Errorf("wsBase = %q, want %q", c.wsBase, "ws://example.com:8000")
	}

	c, err = Dial("https://example.com")
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	if c.wsBase != "wss://example.com" {
		t.Errorf("wsBase = %q, want %q", c.wsBase, "wss://example.com")
	}

	if _, err := Dial("ftp://example.com"); err == nil {
		t.Error("Dial(ftp://…) err = nil, want scheme error")
	}
}

func TestNetworkData(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c := serve(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/network-data" {
			t.Errorf("path = %q, want /api/network-data", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(testSnapshot(at))
	}))

	snap, err := c.NetworkData(context.Background())
	if err != nil {
		t.Fatalf("NetworkData: %v", err)
	}
	if !snap.Timestamp.Equal(at) {
		t.Errorf("Timestamp = %v, want %v", snap.Timestamp, at)
	}
	rec, ok := snap.Containers["c1"]
	if !ok {
		t.Fatalf("snapshot is missing container c1: %+v", snap.Containers)
	}
	if rec.Name != "web" || rec.Stats.CPUPercent != 12.5 {
		t.Errorf("record = %+v, want name web, cpu 12.5", rec)
	}
}

func TestNetworkDataNotReady(t *testing.T) {
	c := serve(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "Not ready"})
	}))

	_, err := c.NetworkData(context.Background())
	if !errors.Is(err, ErrNotReady) {
		t.Fatalf("NetworkData err = %v, want ErrNotReady", err)
	}
}

func TestRefresh(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c := serve(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %q, want POST", r.Method)
		}
		_ = json.NewEncoder(w).Encode(testSnapshot(at))
	}))

	snap, err := c.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if !snap.DockerAvailable {
		t.Error("DockerAvailable = false, want true")
	}
}

func TestRefreshErrorCarriesDaemonMessage(t *testing.T) {
	c := serve(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "refresh interrupted", http.StatusServiceUnavailable)
	}))

	_, err := c.Refresh(context.Background())
	if err == nil {
		t.Fatal("Refresh err = nil, want error")
	}
	want := "refresh interrupted"
	if got := err.Error(); !bytes.Contains([]byte(got), []byte(want)) {
		t.Errorf("err = %q, want it to mention %q", got, want)
	}
}

func TestPlantUML(t *testing.T) {
	diagram := "@startuml\n@enduml"
	c := serve(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"plantuml": diagram})
	}))

	got, err := c.PlantUML(context.Background())
	if err != nil {
		t.Fatalf("PlantUML: %v", err)
	}
	if got != diagram {
		t.Errorf("PlantUML = %q, want %q", got, diagram)
	}
}

func TestExportReturnsRawBody(t *testing.T) {
	body := []byte(`{"containers":{},"connections":[]}` + "\n")
	c := serve(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(body)
	}))

	got, err := c.Export(context.Background())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if !bytes.Equal(got, body) {
		t.Errorf("Export = %q, want %q", got, body)
	}
}

func TestHealth(t *testing.T) {
	c := serve(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/healthz" {
			t.Errorf("path = %q, want /healthz", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":           "ok",
			"version":          "1.2.3",
			"uptime":           "1h2m3s",
			"ready":            true,
			"docker_available": true,
			"observers":        2,
			"clock":            map[string]string{"phase": "healthy", "offset": "12ms"},
			"last_cycle":       map[string]any{"phase": "fresh", "age": "2s", "cycles": 7},
		})
	}))

	h, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if h.Version != "1.2.3" || !h.Ready || h.Observers != 2 {
		t.Errorf("health = %+v, want version 1.2.3, ready, 2 observers", h)
	}
	if h.Uptime != "1h2m3s" {
		t.Errorf("uptime = %q, want 1h2m3s", h.Uptime)
	}
	if h.Clock == nil || h.Clock.Phase != "healthy" || h.Clock.Offset != "12ms" {
		t.Errorf("clock = %+v, want healthy/12ms", h.Clock)
	}
	if h.LastCycle == nil || h.LastCycle.Phase != "fresh" || h.LastCycle.Cycles != 7 {
		t.Errorf("last cycle = %+v, want fresh/7", h.LastCycle)
	}
}

func TestDialUnixSocket(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "portoland.sock")
	ln, err := net.Listen("unix", socket)
	if err != nil {
		t.Fatalf("listen unix: %v", err)
	}
	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok", "version": "test"})
	})}
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() { _ = srv.Close() })

	c, err := Dial(socket)
	if err != nil {
		t.Fatalf("Dial(%q): %v", socket, err)
	}
	defer c.Close()

	h, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("Health over unix socket: %v", err)
	}
	if h.Status != "ok" {
		t.Errorf("Status = %q, want ok", h.Status)
	}
}

func TestWatchStreams(t *testing.T) {
	first := testSnapshot(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	second := testSnapshot(time.Date(2025, 6, 1, 12, 0, 10, 0, time.UTC))

	up := websocket.Upgrader{}
	c := serve(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		_ = conn.WriteJSON(first)
		_ = conn.WriteJSON(second)
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		// Hold the connection open until the client acknowledges the close.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))

	w, err := c.Watch(context.Background())
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer w.Close()

	if got := recvSnap(t, w); !got.Timestamp.Equal(first.Timestamp) {
		t.Errorf("first snapshot at %v, want %v", got.Timestamp, first.Timestamp)
	}
	if got := recvSnap(t, w); !got.Timestamp.Equal(second.Timestamp) {
		t.Errorf("second snapshot at %v, want %v", got.Timestamp, second.Timestamp)
	}

	select {
	case _, ok := <-w.Snapshots():
		if ok {
			t.Error("received a third snapshot, want closed stream")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not close after server close frame")
	}
	if err := w.Err(); err != nil {
		t.Errorf("Err() = %v, want nil after clean close", err)
	}
}
