package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"deskshell/pkg/websocket"
)

// SocketPingInterval is how often the websocket feed pings an idle client.
var SocketPingInterval = 30 * time.Second

// socket pushes compositor events to a websocket client, one JSON text
// message per event. It takes the same "types" filter as /events. Client
// messages are read only to answer pings and notice the close.
func (a *API) socket(w http.ResponseWriter, r *http.Request) {
	if a.bus == nil {
		writeError(w, http.StatusNotFound, errNoEvents.Error())
		return
	}
	types := eventTypes(r)

	conn, err := websocket.Upgrade(w, r)
	if err != nil {
		var he *websocket.HandshakeError
		if errors.As(err, &he) {
			writeError(w, he.Status, he.Error())
			return
		}
		a.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	conn.WriteTimeout = 10 * time.Second

	log := a.log.With("socket", conn.RemoteAddr().String())
	log.Debug("event socket opened", "types", len(types))
	defer log.Debug("event socket closed")

	ch, cancel := a.bus.Subscribe(types...)
	defer cancel()

	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(SocketPingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-conn.Done():
			return
		case <-ticker.C:
			if err := conn.Ping(nil); err != nil {
				_ = conn.CloseWithStatus(websocket.CloseGoingAway, "")
				return
			}
		case ev, ok := <-ch:
			if !ok {
				_ = conn.CloseWithStatus(websocket.CloseGoingAway, "")
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				log.Warn("event encode failed", "error", err)
				continue
			}
			if err := conn.WriteText(data); err != nil {
				_ = conn.CloseWithStatus(websocket.CloseGoingAway, "")
				return
			}
		}
	}
}
