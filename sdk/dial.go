package sdk

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const handshakeTimeout = 45 * time.Second

// DialOption adjusts how Dial reaches a daemon.
type DialOption func(*dialConfig)

type dialConfig struct {
	sshPort          int
	remoteSocketPath string
}

// WithSSHPort overrides the SSH port for user@host targets.
func WithSSHPort(port int) DialOption {
	return func(c *dialConfig) { c.sshPort = port }
}

// WithRemoteSocketPath points dial-stdio at a non-default daemon
// socket on the remote host.
func WithRemoteSocketPath(path string) DialOption {
	return func(c *dialConfig) { c.remoteSocketPath = path }
}

func dialURL(base string) (*Client, error) {
	base = strings.TrimSuffix(base, "/")

	var wsBase string
	switch {
	case strings.HasPrefix(base, "http://"):
		wsBase = "ws://" + strings.TrimPrefix(base, "http://")
	case strings.HasPrefix(base, "https://"):
		wsBase = "wss://" + strings.TrimPrefix(base, "https://")
	default:
		return nil, fmt.Errorf("unsupported scheme in %q", base)
	}

	return &Client{
		base:   base,
		wsBase: wsBase,
		http:   &http.Client{},
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: handshakeTimeout,
		},
	}, nil
}

func dialUnix(socketPath string) *Client {
	dial := func(ctx context.Context, _, _ string) (net.Conn, error) {
		var d net.Dialer
		return d.DialContext(ctx, "unix", socketPath)
	}
	return transportClient(dial, 0)
}

func dialSSH(target string, cfg dialConfig) *Client {
	dial := func(_ context.Context, _, _ string) (net.Conn, error) {
		return startSSH(target, cfg)
	}
	// One SSH session per client; requests queue on it rather than
	// spawning a subprocess each.
	return transportClient(dial, 1)
}

// transportClient builds a client whose connections come from dial
// instead of TCP. The host in the base URLs is a placeholder the
// dialer ignores.
func transportClient(dial func(context.Context, string, string) (net.Conn, error), maxConns int) *Client {
	return &Client{
		base:   "http://portoland",
		wsBase: "ws://portoland",
		http: &http.Client{
			Transport: &http.Transport{
				DialContext:     dial,
				MaxConnsPerHost: maxConns,
				IdleConnTimeout: 90 * time.Second,
			},
		},
		dialer: &websocket.Dialer{
			NetDialContext:   dial,
			HandshakeTimeout: handshakeTimeout,
		},
	}
}

// startSSH launches "ssh target portoland dial-stdio" and wraps its
// stdio as a net.Conn. The subprocess lives until the connection is
// closed; it is deliberately not bound to a request context, because
// the transport reuses the connection across requests.
func startSSH(target string, cfg dialConfig) (net.Conn, error) {
	args := []string{target}
	if cfg.sshPort != 0 {
		args = append(args, "-p", strconv.Itoa(cfg.sshPort))
	}

	remoteCmd := "portoland dial-stdio"
	if cfg.remoteSocketPath != "" {
		remoteCmd += " --socket " + cfg.remoteSocketPath
	}
	args = append(args, remoteCmd)

	cmd := exec.Command("ssh", args...)
	cmd.Stderr = os.Stderr // surface auth prompts and ssh failures

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("ssh stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("ssh stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ssh: %w", err)
	}

	return &sshConn{cmd: cmd, stdin: stdin, stdout: stdout, target: target}, nil
}
