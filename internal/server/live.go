package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/matzehuels/selgraph/pkg/graph"
	"github.com/matzehuels/selgraph/pkg/render/nodelink"
	"github.com/matzehuels/selgraph/pkg/selection"
)

// Live message types.
const (
	msgSnapshot = "snapshot" // Full state, sent on connect
	msgChanges  = "changes"  // One mutation's changeset
	msgReload   = "reload"   // Full state after the graph file changed
)

const (
	liveBuffer   = 64
	writeTimeout = 10 * time.Second
	pongTimeout  = 60 * time.Second
	pingInterval = 50 * time.Second
)

// liveMessage is the JSON frame pushed to websocket subscribers.
type liveMessage struct {
	Type    string              `json:"type"`
	Changes *graph.ChangeSetDoc `json:"changes,omitempty"`
	Patches []nodelink.Patch    `json:"patches,omitempty"`
	State   *graph.StateDoc     `json:"state,omitempty"`
}

func changesMessage(cs selection.ChangeSet) []byte {
	doc := graph.FromChangeSet(cs)
	data, _ := json.Marshal(liveMessage{Type: msgChanges, Changes: &doc, Patches: nodelink.Restyle(cs)})
	return data
}

func snapshotMessage(typ string, t *selection.Tracker) []byte {
	state := graph.Snapshot(t)
	data, _ := json.Marshal(liveMessage{Type: typ, State: &state})
	return data
}

// broadcast queues msg for every subscriber. A subscriber whose buffer is
// full is disconnected rather than allowed to stall the mutation.
// Must be called with v.mu held.
func (v *view) broadcast(msg []byte) {
	for ch := range v.subs {
		select {
		case ch <- msg:
		default:
			close(ch)
			delete(v.subs, ch)
		}
	}
}

// Must be called with v.mu held.
func (v *view) closeSubscribers() {
	for ch := range v.subs {
		close(ch)
	}
	clear(v.subs)
}

func (v *view) unsubscribe(ch chan []byte) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.subs[ch]; ok {
		close(ch)
		delete(v.subs, ch)
	}
}

// GET /sessions/{id}/live
func (s *Server) live(w http.ResponseWriter, r *http.Request) {
	v, err := s.lookup(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already answered the request.
		s.logger.Debug("Websocket upgrade failed", "err", err)
		return
	}

	ch := make(chan []byte, liveBuffer)
	v.mu.Lock()
	ch <- snapshotMessage(msgSnapshot, v.tracker)
	v.subs[ch] = struct{}{}
	sessionID := v.sess.ID
	v.mu.Unlock()

	s.logger.Debug("Live subscriber connected", "session", sessionID)
	go s.readPump(conn, v, ch)
	s.writePump(conn, ch)
	s.logger.Debug("Live subscriber disconnected", "session", sessionID)
}

// readPump drains client frames so control messages are processed, and
// unsubscribes once the connection fails.
func (s *Server) readPump(conn *websocket.Conn, v *view, ch chan []byte) {
	defer v.unsubscribe(ch)

	_ = conn.SetReadDeadline(time.Now().Add(pongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("Live connection closed", "err", err)
			}
			return
		}
	}
}

// writePump is the only writer of conn.
func (s *Server) writePump(conn *websocket.Conn, ch chan []byte) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case msg, ok := <-ch:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
