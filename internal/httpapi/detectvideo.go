package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// handleDetectVideo implements POST /detect-video/{videoId}?sample_rate=K:
// an application/x-ndjson stream of the same progress/results/error
// records the WebSocket bridge (C10) pushes, flushed incrementally so the
// progress contract holds over a buffered transport too.
func (s *Server) handleDetectVideo(w http.ResponseWriter, r *http.Request) {
	asset, ok := s.resolveVideo(w, r)
	if !ok {
		return
	}

	sampleRate := 1
	if raw := r.URL.Query().Get("sample_rate"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "sample_rate must be a positive integer")
			return
		}
		sampleRate = n
	}

	flusher, canFlush := w.(http.Flusher)
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)

	enc := json.NewEncoder(w)
	records := s.analyzer.Run(r.Context(), asset.InputPath, sampleRate)
	for rec := range records {
		if err := enc.Encode(rec); err != nil {
			return
		}
		if canFlush {
			flusher.Flush()
		}
	}
}
