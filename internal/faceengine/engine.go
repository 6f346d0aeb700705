// Package faceengine runs one detection pass: rescale, lease a detector,
// detect, invert the scale on the returned boxes.
package faceengine

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"

	"golang.org/x/image/draw"

	"faceguard/internal/detectpool"
	"faceguard/internal/types"
)

// maxDim is the detection-resolution cap applied before inference.
const maxDim = 1280

// Engine runs detections against a shared Pool.
type Engine struct {
	pool *detectpool.Pool
}

// New builds an Engine over pool.
func New(pool *detectpool.Pool) *Engine {
	return &Engine{pool: pool}
}

// Detect runs one detection pass on img: scales it down if it exceeds
// maxDim on its longer side, leases a detector, runs detection, releases
// the detector (on every exit path, including error), and maps returned
// boxes back to img's original coordinates.
func (e *Engine) Detect(ctx context.Context, img *image.RGBA) ([]types.Detection, error) {
	scaled, s := rescale(img)

	encoded, err := encodeJPEG(scaled)
	if err != nil {
		return nil, fmt.Errorf("faceengine: encode frame: %w", err)
	}

	handle, err := e.pool.Lease(ctx)
	if err != nil {
		return nil, fmt.Errorf("faceengine: lease detector: %w", err)
	}
	defer e.pool.Release(handle)

	bounds := scaled.Bounds()
	raw, err := handle.Detector().Detect(ctx, encoded, bounds.Dx(), bounds.Dy())
	if err != nil {
		return nil, fmt.Errorf("faceengine: detect: %w", err)
	}

	out := make([]types.Detection, len(raw))
	for i, r := range raw {
		out[i] = types.Detection{
			BBox: types.BoundingBox{
				X: r.X / s,
				Y: r.Y / s,
				W: r.W / s,
				H: r.H / s,
			},
			Score: r.Score,
		}
	}
	return out, nil
}

// rescale scales img uniformly to fit within maxDim on its longer side,
// returning the scaled image and the scale factor s = scaledDim /
// originalDim <= 1 applied. Images already within bounds are returned
// unchanged with s = 1.
func rescale(img *image.RGBA) (*image.RGBA, float64) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	longest := w
	if h > longest {
		longest = h
	}
	if longest <= maxDim {
		return img, 1.0
	}

	s := float64(maxDim) / float64(longest)
	newW := int(float64(w) * s)
	newH := int(float64(h) * s)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst, s
}

func encodeJPEG(img *image.RGBA) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
