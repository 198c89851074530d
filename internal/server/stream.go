package server

import (
	"fmt"
	"net/http"

	"github.com/ayusman/handvol/internal/dashboard"
)

// StreamHandler serves the processed display frames as MJPEG.
type StreamHandler struct {
	latest *dashboard.Latest
}

// NewStreamHandler creates a StreamHandler fed by latest.
func NewStreamHandler(latest *dashboard.Latest) *StreamHandler {
	return &StreamHandler{latest: latest}
}

// ServeHTTP streams a part for every new panel that carries a frame.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	var seq uint64
	var sent []byte
	for {
		p, err := h.latest.Wait(r.Context(), seq)
		if err != nil {
			return
		}
		seq = p.Seq

		// Rest panels keep the previous frame; skip re-sending it.
		if len(p.Frame) == 0 || (len(sent) > 0 && &p.Frame[0] == &sent[0]) {
			continue
		}
		sent = p.Frame

		fmt.Fprintf(w, "--frame\r\n")
		fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
		fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(p.Frame))
		if _, err := w.Write(p.Frame); err != nil {
			return
		}
		fmt.Fprintf(w, "\r\n")

		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}
