// Package sdk provides a Go client for the portolan daemon.
// CLI commands and external tools use this to read topology snapshots
// from a local or remote daemon over its HTTP and WebSocket API.
package sdk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"runtime"
	"strings"

	"portolan"

	"github.com/gorilla/websocket"
)

const envSocket = "PORTOLAND_SOCKET"

// ErrNotReady is returned when the daemon is up but has not published
// its first snapshot yet.
var ErrNotReady = errors.New("daemon has no snapshot yet")

// DefaultSocketPath returns the local daemon socket path. It honors
// the PORTOLAND_SOCKET environment variable.
func DefaultSocketPath() string {
	if fromEnv := strings.TrimSpace(os.Getenv(envSocket)); fromEnv != "" {
		return fromEnv
	}
	if runtime.GOOS == "darwin" {
		return "/tmp/portoland.sock"
	}
	return "/var/run/portoland.sock"
}

// Client talks to one portolan daemon.
type Client struct {
	base   string // http(s) base for pull endpoints
	wsBase string // ws(s) base for the watch endpoint
	http   *http.Client
	dialer *websocket.Dialer
}

// Dial builds a client for target. Three target forms are understood:
// an "http://" or "https://" URL, an SSH destination containing "@"
// (e.g. "root@host"), and a local unix socket path. An empty target
// means the default local socket.
func Dial(target string, opts ...DialOption) (*Client, error) {
	var cfg dialConfig
	for _, o := range opts {
		o(&cfg)
	}

	switch {
	case strings.Contains(target, "://"):
		return dialURL(target)
	case strings.Contains(target, "@"):
		return dialSSH(target, cfg), nil
	default:
		if target == "" {
			target = DefaultSocketPath()
		}
		return dialUnix(target), nil
	}
}

// NetworkData returns the daemon's current snapshot. Before the first
// collection cycle completes it returns ErrNotReady.
func (c *Client) NetworkData(ctx context.Context) (portolan.Snapshot, error) {
	var snap portolan.Snapshot
	if err := c.getJSON(ctx, "/api/network-data", &snap); err != nil {
		return portolan.Snapshot{}, fmt.Errorf("get network data: %w", err)
	}
	// The pre-first-cycle payload is {"error": "Not ready"}; a real
	// snapshot always carries its collection timestamp.
	if snap.Timestamp.IsZero() {
		return portolan.Snapshot{}, ErrNotReady
	}
	return snap, nil
}

// Refresh asks the daemon for an immediate collection cycle and
// returns the freshly published snapshot.
func (c *Client) Refresh(ctx context.Context) (portolan.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/refresh", nil)
	if err != nil {
		return portolan.Snapshot{}, fmt.Errorf("refresh: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return portolan.Snapshot{}, fmt.Errorf("refresh: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return portolan.Snapshot{}, fmt.Errorf("refresh: %w", responseError(resp))
	}

	var snap portolan.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return portolan.Snapshot{}, fmt.Errorf("refresh: decode response: %w", err)
	}
	return snap, nil
}

// PlantUML returns the daemon's current topology as PlantUML text.
func (c *Client) PlantUML(ctx context.Context) (string, error) {
	var payload struct {
		PlantUML string `json:"plantuml"`
	}
	if err := c.getJSON(ctx, "/api/plantuml", &payload); err != nil {
		return "", fmt.Errorf("get plantuml: %w", err)
	}
	return payload.PlantUML, nil
}

// Export returns the snapshot export document exactly as the daemon
// serialized it.
func (c *Client) Export(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/api/export/json", nil)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("export: %w", responseError(resp))
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("export: read response: %w", err)
	}
	return body, nil
}

// ClockHealth is the clock-audit block of a health report.
type ClockHealth struct {
	Phase   string `json:"phase"`
	Offset  string `json:"offset,omitempty"`
	Error   string `json:"error,omitempty"`
	Checked string `json:"checked_at,omitempty"`
}

// CycleHealth is the collection-freshness block of a health report.
type CycleHealth struct {
	Phase     string `json:"phase"`
	Completed string `json:"completed_at,omitempty"`
	Duration  string `json:"duration,omitempty"`
	Age       string `json:"age,omitempty"`
	Cycles    uint64 `json:"cycles"`
}

// Health is the daemon's health report.
type Health struct {
	Status          string       `json:"status"`
	Version         string       `json:"version"`
	Uptime          string       `json:"uptime"`
	Ready           bool         `json:"ready"`
	DockerAvailable bool         `json:"docker_available"`
	Observers       int          `json:"observers"`
	Clock           *ClockHealth `json:"clock,omitempty"`
	LastCycle       *CycleHealth `json:"last_cycle,omitempty"`
}

// Health returns the daemon's health report.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var h Health
	if err := c.getJSON(ctx, "/healthz", &h); err != nil {
		return Health{}, fmt.Errorf("get health: %w", err)
	}
	return h, nil
}

// Close releases idle connections held by the client.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return responseError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// responseError turns a non-200 response into an error carrying the
// daemon's message.
func responseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = resp.Status
	}
	return fmt.Errorf("daemon responded %d: %s", resp.StatusCode, msg)
}
