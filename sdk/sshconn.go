package sdk

import (
	"io"
	"net"
	"os/exec"
	"time"
)

// sshConn adapts an SSH subprocess's stdio to net.Conn so the HTTP
// transport and websocket dialer can reach a remote daemon socket
// through it.
type sshConn struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	target string
}

func (c *sshConn) Read(b []byte) (int, error)  { return c.stdout.Read(b) }
func (c *sshConn) Write(b []byte) (int, error) { return c.stdin.Write(b) }

// Close shuts the pipes and reaps the subprocess. The remote
// dial-stdio end exits once its stdin drains, which lets ssh exit too.
func (c *sshConn) Close() error {
	_ = c.stdin.Close()
	_ = c.stdout.Close()
	return c.cmd.Wait()
}

func (c *sshConn) LocalAddr() net.Addr  { return sshAddr{target: "local"} }
func (c *sshConn) RemoteAddr() net.Addr { return sshAddr{target: c.target} }

// Deadlines are not supported on subprocess pipes. The HTTP transport
// tolerates this as long as requests carry their own contexts.
func (c *sshConn) SetDeadline(time.Time) error      { return nil }
func (c *sshConn) SetReadDeadline(time.Time) error  { return nil }
func (c *sshConn) SetWriteDeadline(time.Time) error { return nil }

type sshAddr struct {
	target string
}

func (a sshAddr) Network() string { return "ssh" }
func (a sshAddr) String() string  { return a.target }
