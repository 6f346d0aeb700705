package httpapi

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const probeTimeout = 30 * time.Second

// handleUploadVideo implements POST /upload-video: multipart file upload,
// stored under uploadDir as "{uuid}.mp4" regardless of source extension
// (the on-disk naming convention), probed for container metadata.
func (s *Server) handleUploadVideo(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing multipart file field")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedExtensions[ext] {
		writeError(w, http.StatusBadRequest, "unsupported file extension")
		return
	}
	contentType := header.Header.Get("Content-Type")
	if contentType != "" && !allowedMIMETypes[contentType] {
		writeError(w, http.StatusBadRequest, "unsupported content type")
		return
	}

	id := newVideoID()
	dest := s.inputPath(id)

	out, err := os.Create(dest)
	if err != nil {
		s.logger.Printf("[httpapi] create %s: %v", dest, err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		os.Remove(dest)
		if err.Error() == "http: request body too large" {
			writeError(w, http.StatusRequestEntityTooLarge, "upload exceeds size limit")
			return
		}
		s.logger.Printf("[httpapi] write %s: %v", dest, err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if err := out.Close(); err != nil {
		os.Remove(dest)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	meta, err := probeWithin(r.Context(), s.ffprobePath, dest, probeTimeout)
	if err != nil {
		os.Remove(dest)
		writeError(w, http.StatusBadRequest, "invalid or unreadable video")
		return
	}

	if err := s.store.Create(id, dest); err != nil {
		os.Remove(dest)
		s.logger.Printf("[httpapi] create asset row %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if err := s.store.SetMetadata(id, meta.FPS, meta.Width, meta.Height, meta.FrameCount); err != nil {
		s.logger.Printf("[httpapi] set metadata %s: %v", id, err)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"videoId": id,
		"metadata": map[string]any{
			"fps":        meta.FPS,
			"width":      meta.Width,
			"height":     meta.Height,
			"frameCount": meta.FrameCount,
		},
	})
}
