package sdk

import (
	"context"
	"fmt"
	"sync"
	"time"

	"portolan"

	"github.com/gorilla/websocket"
)

// Watch is a live snapshot stream from the daemon's watch endpoint.
// A snapshot arrives for every collection cycle until the stream ends.
type Watch struct {
	conn   *websocket.Conn
	snaps  chan portolan.Snapshot
	closed chan struct{}
	once   sync.Once

	mu  sync.Mutex
	err error
}

// Watch opens a snapshot stream. The stream starts with the daemon's
// current snapshot when one exists.
func (c *Client) Watch(ctx context.Context) (*Watch, error) {
	conn, resp, err := c.dialer.DialContext(ctx, c.wsBase+"/ws", nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial watch (status %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("dial watch: %w", err)
	}

	w := &Watch{
		conn:   conn,
		snaps:  make(chan portolan.Snapshot, 1),
		closed: make(chan struct{}),
	}
	go w.read()
	return w, nil
}

// Snapshots is the stream of published snapshots. It is closed when
// the stream ends; Err then reports why.
func (w *Watch) Snapshots() <-chan portolan.Snapshot {
	return w.snaps
}

// Err reports why the stream ended, nil for a clean close. Valid after
// Snapshots is closed.
func (w *Watch) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// Close ends the stream and releases the connection.
func (w *Watch) Close() error {
	w.once.Do(func() { close(w.closed) })
	_ = w.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return w.conn.Close()
}

func (w *Watch) read() {
	defer close(w.snaps)
	for {
		var snap portolan.Snapshot
		if err := w.conn.ReadJSON(&snap); err != nil {
			select {
			case <-w.closed:
				// Torn down locally, not a stream failure.
			default:
				if !websocket.IsCloseError(err,
					websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					w.setErr(err)
				}
			}
			return
		}

		select {
		case w.snaps <- snap:
		case <-w.closed:
			return
		}
	}
}

func (w *Watch) setErr(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.err = err
}
