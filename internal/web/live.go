package web

import (
	"maps"
	"net/http"

	"golang.org/x/net/websocket"

	"github.com/wolfman30/salon-booking-board/internal/board"
	"github.com/wolfman30/salon-booking-board/internal/session"
)

// Update is one message on the live channel. Regions holds only the
// regions that changed since the previous message on the same connection.
type Update struct {
	Version uint64            `json:"version"`
	Title   string            `json:"title"`
	Regions map[string]string `json:"regions"`
}

// Live upgrades to a websocket and streams the caller's board changes until
// the client goes away. The page has already opened a session; without one
// the client is told to reload.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	s, ok := h.existingSession(r)
	if !ok {
		http.Error(w, "session expired", http.StatusGone)
		return
	}
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveLive(conn, r, s)
	}).ServeHTTP(w, r)
}

func (h *Handler) serveLive(conn *websocket.Conn, r *http.Request, s *session.Session) {
	id, updates, cancel := s.Board.Subscribe()
	defer cancel()
	// idle time counts from when the last page went away
	defer h.sessions.Touch(s.ID)

	h.metrics.ClientConnected()
	defer h.metrics.ClientDisconnected()
	h.logger.Info("web: live client connected", "client_id", id, "session_id", s.ID, "remote_ip", r.RemoteAddr)

	// the page sends nothing; a failed read means the socket closed
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		var discard string
		for {
			if err := websocket.Message.Receive(conn, &discard); err != nil {
				return
			}
		}
	}()

	var sent map[string]string
	var version uint64
	push := func(snap board.Snapshot, initial bool) bool {
		if !initial && snap.Version <= version {
			return true
		}
		regions, err := h.render.regions(snap)
		if err != nil {
			h.logger.Error("web: render regions", "client_id", id, "error", err)
			return false
		}
		msg := Update{Version: snap.Version, Title: pageTitle(snap), Regions: changedRegions(sent, regions)}
		if err := websocket.JSON.Send(conn, msg); err != nil {
			h.logger.Debug("web: live send failed", "client_id", id, "error", err)
			return false
		}
		sent, version = regions, snap.Version
		return true
	}

	if !push(s.Board.Snapshot(), true) {
		return
	}

	for {
		select {
		case <-closed:
			h.logger.Info("web: live client disconnected", "client_id", id)
			return
		case <-r.Context().Done():
			return
		case snap := <-updates:
			if !push(snap, false) {
				return
			}
		}
	}
}

func changedRegions(prev, next map[string]string) map[string]string {
	if prev == nil {
		return maps.Clone(next)
	}
	out := make(map[string]string)
	for id, html := range next {
		if prev[id] != html {
			out[id] = html
		}
	}
	return out
}
