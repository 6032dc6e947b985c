package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aretw0/stepper/pkg/domain"
)

// SubscribeEvents handles the GET /sessions/{id}/events request (SSE).
// Each controller change is sent as a JSON encoded view. A slow client skips
// intermediate views but always receives the latest one. The stream ends with a
// "close" event when the session is closed.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("streaming not supported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	latest := make(chan domain.View, 1)
	unsubscribe := sess.Controller.Subscribe(func(v domain.View) {
		for {
			select {
			case latest <- v:
				return
			default:
			}
			// Replace the undelivered view with the newer one.
			select {
			case <-latest:
			default:
			}
		}
	})
	defer unsubscribe()

	s.logger.Info("SSE: client subscribed", "session_id", sess.ID)
	writeEvent(w, "view", sess.Controller.View())
	flusher.Flush()

	done := sess.Controller.Done()
	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE: client disconnected", "session_id", sess.ID)
			return
		case v := <-latest:
			writeEvent(w, "view", v)
			flusher.Flush()
		case <-done:
			select {
			case v := <-latest:
				writeEvent(w, "view", v)
			default:
			}
			writeEvent(w, "close", map[string]string{"id": sess.ID})
			flusher.Flush()
			s.logger.Info("SSE: session closed", "session_id", sess.ID)
			return
		}
	}
}

func writeEvent(w http.ResponseWriter, event string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
}
