package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/verte-zerg/speedtype/internal/engine"
)

const eventBuffer = 8

// streamEvents sends the current snapshot, then one event per state change, until the
// client leaves or the session is closed.
func (s *Server) streamEvents(w http.ResponseWriter, r *http.Request) {
	id, runner, ok := s.lookup(w, r)
	if !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	events := runner.Subscribe(eventBuffer)
	defer runner.Unsubscribe(events)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, id, runner.Snapshot()); err != nil {
		return
	}
	flusher.Flush()

	for {
		select {
		case snap, ok := <-events:
			if !ok {
				return
			}
			if err := writeEvent(w, id, snap); err != nil {
				s.log.Debugf("event stream for %s ended: %v", id, err)
				return
			}
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

func writeEvent(w http.ResponseWriter, id string, snap engine.Snapshot) error {
	data, err := json.Marshal(sessionResponse{ID: id, Snapshot: snap})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", data)
	return err
}
