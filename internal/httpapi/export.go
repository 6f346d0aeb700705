package httpapi

import (
	"encoding/json"
	"net/http"
	"os"

	"faceguard/internal/auth"
	"faceguard/internal/types"
)

// handleExportPost implements POST /export/{videoId}: runs the pixelation
// pipeline synchronously over the stored input, returns the rendered MP4
// as an attachment, and issues a short-lived export token (C11) carried
// back in X-Export-Token so the same bytes can be re-fetched once without
// resubmitting the spec.
func (s *Server) handleExportPost(w http.ResponseWriter, r *http.Request) {
	asset, ok := s.resolveVideo(w, r)
	if !ok {
		return
	}

	var spec types.ExportSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		writeError(w, http.StatusBadRequest, "invalid export spec JSON")
		return
	}
	if err := spec.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	outputPath := s.blurredPath(asset.ID)
	if err := s.exporter.Export(r.Context(), asset.InputPath, outputPath, spec); err != nil {
		s.logger.Printf("[httpapi] export %s: %v", asset.ID, err)
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	s.exportMu.Lock()
	s.exportCache[asset.ID] = exportCacheEntry{outputPath: outputPath, spec: spec}
	s.exportMu.Unlock()

	token, err := s.tokens.IssueExportToken(asset.ID, spec)
	if err != nil {
		s.logger.Printf("[httpapi] issue export token %s: %v", asset.ID, err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.serveVideoFile(w, r, outputPath, token)
}

// handleExportGet implements GET /export/{videoId}?token=...: re-serves a
// previously rendered export without re-running the pipeline, as long as
// the token is valid and still scoped to the asset's cached spec.
func (s *Server) handleExportGet(w http.ResponseWriter, r *http.Request) {
	asset, ok := s.resolveVideo(w, r)
	if !ok {
		return
	}

	token := r.URL.Query().Get("token")
	if token == "" {
		writeError(w, http.StatusUnauthorized, "missing token")
		return
	}

	s.exportMu.Lock()
	entry, cached := s.exportCache[asset.ID]
	s.exportMu.Unlock()
	if !cached {
		writeError(w, http.StatusNotFound, "no export available for this video")
		return
	}

	if err := s.tokens.VerifyExportToken(token, asset.ID, entry.spec); err != nil {
		if err == auth.ErrExportTokenExpired {
			writeError(w, http.StatusUnauthorized, "export token has expired")
			return
		}
		writeError(w, http.StatusUnauthorized, "invalid export token")
		return
	}

	if _, err := os.Stat(entry.outputPath); err != nil {
		writeError(w, http.StatusNotFound, "export no longer available")
		return
	}

	s.serveVideoFile(w, r, entry.outputPath, "")
}

func (s *Server) serveVideoFile(w http.ResponseWriter, r *http.Request, path, token string) {
	f, err := os.Open(path)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if token != "" {
		w.Header().Set("X-Export-Token", token)
	}
	w.Header().Set("Content-Type", "video/mp4")
	w.Header().Set("Content-Disposition", `attachment; filename="blurred-video.mp4"`)
	http.ServeContent(w, r, "blurred-video.mp4", info.ModTime(), f)
}
