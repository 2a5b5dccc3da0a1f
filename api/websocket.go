package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
)

// handleWatch upgrades the connection and streams every topology
// snapshot until the client goes away or the hub evicts the observer.
func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("websocket upgrade failed", "err", err)
		return
	}

	obs := s.hub.Subscribe()
	log := s.log.With("observer", obs.ID(), "remote", conn.RemoteAddr().String())
	log.Debug("observer connected")

	// Inbound frames are keep-alive only; the reader exists to notice
	// the client going away.
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		conn.SetReadLimit(1024)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Debug("observer read failed", "err", err)
				}
				return
			}
			_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		s.hub.Unsubscribe(obs)
		_ = conn.Close()
		<-readerDone
		log.Debug("observer disconnected")
	}()

	for {
		select {
		case snap, ok := <-obs.Snapshots():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Evicted by the hub: tell the client and stop.
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "observer evicted"))
				return
			}
			if err := conn.WriteJSON(snap); err != nil {
				log.Debug("observer write failed", "err", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-readerDone:
			return
		}
	}
}
