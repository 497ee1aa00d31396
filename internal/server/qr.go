package server

import (
	"fmt"
	"net/http"

	qrcode "github.com/skip2/go-qrcode"
)

// handleRoomQR renders the join link as a PNG so the host can throw it on a
// shared screen.
func (s *Server) handleRoomQR(w http.ResponseWriter, r *http.Request, roomID string) {
	current, err := s.store.Get(roomID)
	if err != nil {
		s.writeRoomError(w, err)
		return
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	joinURL := fmt.Sprintf("%s://%s/join?code=%s", scheme, r.Host, current.Code)
	png, err := qrcode.Encode(joinURL, qrcode.Medium, 256)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not render code")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(png)
}
