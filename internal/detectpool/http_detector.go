package detectpool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// HTTPDetector is the concrete Detector: a client bound to one detection
// microservice endpoint, shaped after an object-detector HTTP client
// HTTP clients (endpoint, *http.Client, enabled flag, cached health check).
type HTTPDetector struct {
	endpoint    string
	client      *http.Client
	enabled     bool
	healthCheck time.Time
}

// NewHTTPDetector builds a detector client against endpoint (e.g.
// "http://detector-1:8000").
func NewHTTPDetector(endpoint string) *HTTPDetector {
	return &HTTPDetector{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 15 * time.Second},
		enabled:  true,
	}
}

type detectResponse struct {
	Detections []struct {
		BBox  [4]float64 `json:"bbox"`
		Score float64    `json:"score"`
	} `json:"detections"`
}

// IsHealthy reports whether the backend answered /health within the last
// 30 seconds, re-checking when the cache has expired.
func (d *HTTPDetector) IsHealthy(ctx context.Context) bool {
	if time.Since(d.healthCheck) < 30*time.Second && d.enabled {
		return true
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.endpoint+"/health", nil)
	if err != nil {
		d.enabled = false
		return false
	}
	resp, err := d.client.Do(req)
	if err != nil {
		d.enabled = false
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		d.healthCheck = time.Now()
		d.enabled = true
		return true
	}
	d.enabled = false
	return false
}

// Detect posts the JPEG-encoded image and the negotiated input size to the
// backend's /detect endpoint, decoding its {detections: [{bbox, score}]}
// response. setInputSize is modeled as the width/height
// form fields: the model's actual input-size negotiation is the external
// service's concern, not this client's.
func (d *HTTPDetector) Detect(ctx context.Context, image []byte, width, height int) ([]RawDetection, error) {
	if !d.IsHealthy(ctx) {
		return nil, fmt.Errorf("detectpool: detector %s unavailable", d.endpoint)
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	fw, err := w.CreateFormFile("file", "frame.jpg")
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(image); err != nil {
		return nil, err
	}
	w.WriteField("input_width", fmt.Sprintf("%d", width))
	w.WriteField("input_height", fmt.Sprintf("%d", height))
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint+"/detect", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := d.client.Do(req)
	if err != nil {
		d.enabled = false
		return nil, fmt.Errorf("detectpool: detect request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("detectpool: detect failed (%d): %s", resp.StatusCode, msg)
	}

	var parsed detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("detectpool: decode response: %w", err)
	}

	out := make([]RawDetection, len(parsed.Detections))
	for i, raw := range parsed.Detections {
		out[i] = RawDetection{X: raw.BBox[0], Y: raw.BBox[1], W: raw.BBox[2], H: raw.BBox[3], Score: raw.Score}
	}
	return out, nil
}
