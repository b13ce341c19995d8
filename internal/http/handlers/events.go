package handlers

import (
	"fmt"
	"net/http"
	"time"
)

var noDeadline time.Time

// Events streams status, credits, and history updates over SSE. The
// write deadline is cleared because the connection outlives the server's
// WriteTimeout by design.
func (a *App) Events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		a.error(w, http.StatusInternalServerError, "internal", "streaming unsupported")
		return
	}
	rc := http.NewResponseController(w)
	_ = rc.SetWriteDeadline(noDeadline)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := a.Hub.Subscribe()
	defer a.Hub.Unsubscribe(ch)

	// Handshake comment keeps proxies from buffering the stream.
	fmt.Fprintf(w, ": connected\n\n")
	flusher.Flush()

	done := r.Context().Done()
	for {
		select {
		case <-done:
			return
		case ev := <-ch:
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Topic, ev.Data)
			flusher.Flush()
		}
	}
}
