package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"deskshell/pkg/wm"
)

// StreamKeepAlive is how often an idle event stream sends a comment line.
var StreamKeepAlive = 15 * time.Second

var errNoEvents = errors.New("event stream is not enabled")

// events streams compositor events as server-sent events. The optional
// "types" query parameter is a comma separated list of event types.
func (a *API) events(w http.ResponseWriter, r *http.Request) {
	if a.bus == nil {
		writeError(w, http.StatusNotFound, errNoEvents.Error())
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	types := eventTypes(r)

	// The stream outlives the server's write timeout.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	ch, cancel := a.bus.Subscribe(types...)
	defer cancel()

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	log := a.log.With("stream", r.RemoteAddr)
	log.Debug("event stream opened", "types", len(types))
	defer log.Debug("event stream closed")

	ticker := time.NewTicker(StreamKeepAlive)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case ev, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				log.Warn("event encode failed", "error", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// eventTypes parses the comma separated "types" query parameter.
func eventTypes(r *http.Request) []wm.EventType {
	var types []wm.EventType
	for _, t := range strings.Split(r.URL.Query().Get("types"), ",") {
		if t = strings.TrimSpace(t); t != "" {
			types = append(types, wm.EventType(t))
		}
	}
	return types
}
