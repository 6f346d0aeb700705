package httpapi

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"net/http"

	"faceguard/internal/types"
)

const maxBatchFrames = 25

type detectRequest struct {
	Image string `json:"image"`
}

type detectResponse struct {
	Faces []types.Detection `json:"faces"`
}

type batchFrame struct {
	FrameIndex uint32 `json:"frameIndex"`
	Image      string `json:"image"`
}

type batchRequest struct {
	Batch []batchFrame `json:"batch"`
}

type batchFrameResult struct {
	FrameIndex uint32            `json:"frameIndex"`
	Faces      []types.Detection `json:"faces"`
}

type batchResponse struct {
	Results []batchFrameResult `json:"results"`
}

// handleDetect implements POST /detect: a single base64-encoded image in,
// its face detections out. Decode failures are a 400 here (unlike batch,
// there is no "isolate one bad frame" to fall back to).
func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	var req detectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	img, err := decodeBase64Image(req.Image)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid or corrupt image")
		return
	}

	faces, err := s.engine.Detect(r.Context(), img)
	if err != nil {
		s.logger.Printf("[httpapi] detect: %v", err)
		writeError(w, http.StatusInternalServerError, "detection failed")
		return
	}

	writeJSON(w, http.StatusOK, detectResponse{Faces: faces})
}

// handleDetectBatch implements POST /detect-batch: 1-25 frames, each
// decoded independently. A DecodeFailure on one frame yields
// "no faces" for that frame without failing the request.
func (s *Server) handleDetectBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Batch) < 1 || len(req.Batch) > maxBatchFrames {
		writeError(w, http.StatusBadRequest, "batch must contain 1-25 frames")
		return
	}

	results := make([]batchFrameResult, len(req.Batch))
	for i, f := range req.Batch {
		results[i] = batchFrameResult{FrameIndex: f.FrameIndex}

		img, err := decodeBase64Image(f.Image)
		if err != nil {
			continue // DecodeFailure: isolated, frame result stays "no faces"
		}
		faces, err := s.engine.Detect(r.Context(), img)
		if err != nil {
			log.Printf("[httpapi] detect-batch frame %d: %v", f.FrameIndex, err)
			continue // DetectorFailure: isolated, frame result stays "no faces"
		}
		results[i].Faces = faces
	}

	writeJSON(w, http.StatusOK, batchResponse{Results: results})
}

func decodeBase64Image(b64 string) (*image.RGBA, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	rgba, ok := img.(*image.RGBA)
	if ok {
		return rgba, nil
	}
	bounds := img.Bounds()
	dst := image.NewRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			dst.Set(x, y, img.At(x, y))
		}
	}
	return dst, nil
}
