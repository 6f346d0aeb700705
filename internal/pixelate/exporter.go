// Package pixelate implements the chunk-then-sort pixelation exporter
// stream the source through the decoder, pixelate every
// selected track's effective region on each frame, reassemble frames in
// source order, and write the result.
package pixelate

import (
	"context"
	"fmt"
	"image"
	"math"
	"sort"

	"golang.org/x/image/draw"

	"faceguard/internal/track"
	"faceguard/internal/types"
	"faceguard/internal/videoio"
	"faceguard/internal/workerpool"
)

// Exporter pixelates selected tracks into a copy of the source video.
type Exporter struct {
	workers     *workerpool.Pool
	poolSize    int
	ffmpegPath  string
	ffprobePath string
}

// New builds an Exporter. poolSize sizes the chunk (4*poolSize) and must
// match the shared worker pool's capacity.
func New(workers *workerpool.Pool, poolSize int, ffmpegPath, ffprobePath string) *Exporter {
	return &Exporter{workers: workers, poolSize: poolSize, ffmpegPath: ffmpegPath, ffprobePath: ffprobePath}
}

type chunkResult struct {
	frameIndex int
	image      *image.RGBA
}

// Export reads inputPath frame by frame, pixelates every track returned by
// spec.SelectedTracks() on every frame, and writes outputPath with the
// same fps and dimensions, no audio.
func (e *Exporter) Export(ctx context.Context, inputPath, outputPath string, spec types.ExportSpec) error {
	if err := spec.Validate(); err != nil {
		return fmt.Errorf("pixelate: invalid export spec: %w", err)
	}

	decoder, meta, err := videoio.Open(ctx, e.ffmpegPath, e.ffprobePath, inputPath)
	if err != nil {
		return fmt.Errorf("pixelate: open %s: %w", inputPath, err)
	}

	writer, err := videoio.NewWriter(ctx, e.ffmpegPath, outputPath, meta.Width, meta.Height, meta.FPS)
	if err != nil {
		return fmt.Errorf("pixelate: open writer for %s: %w", outputPath, err)
	}

	selected := spec.SelectedTracks()
	chunkSize := 4 * e.poolSize
	if chunkSize < 1 {
		chunkSize = 1
	}

	chunk := make([]videoio.Frame, 0, chunkSize)

	flush := func() error {
		if len(chunk) == 0 {
			return nil
		}
		futures := make([]*workerpool.Future[chunkResult], len(chunk))
		for i, f := range chunk {
			f := f
			futures[i] = workerpool.Submit(ctx, e.workers, func(ctx context.Context) (chunkResult, error) {
				processFrame(f.Image, f.Index, selected, spec, meta.Width, meta.Height)
				return chunkResult{frameIndex: f.Index, image: f.Image}, nil
			})
		}

		results := make([]chunkResult, len(futures))
		for i, fut := range futures {
			res, err := fut.Wait()
			if err != nil {
				return fmt.Errorf("pixelate: process frame: %w", err)
			}
			results[i] = res
		}
		sort.Slice(results, func(i, j int) bool { return results[i].frameIndex < results[j].frameIndex })

		for _, r := range results {
			if err := writer.WriteFrame(r.image); err != nil {
				return fmt.Errorf("pixelate: write frame %d: %w", r.frameIndex, err)
			}
		}
		chunk = chunk[:0]
		return nil
	}

	for frame := range decoder.Frames(ctx, 1) {
		if frame.Err != nil {
			_ = writer.Close()
			return fmt.Errorf("pixelate: decode: %w", frame.Err)
		}
		chunk = append(chunk, frame)
		if len(chunk) >= chunkSize {
			if err := flush(); err != nil {
				_ = writer.Close()
				return err
			}
		}
	}
	if err := flush(); err != nil {
		_ = writer.Close()
		return err
	}

	return writer.Close()
}

// processFrame mutates img in place, pixelating the effective region of
// every selected track at frameIndex, frame by frame.
func processFrame(img *image.RGBA, frameIndex int, selected []types.Track, spec types.ExportSpec, width, height int) {
	for _, t := range selected {
		det, ok := track.FindDetectionForFrame(t.Frames, frameIndex)
		if !ok {
			continue
		}

		ox, oy, ow, oh := det.BBox.X, det.BBox.Y, det.BBox.W, det.BBox.H
		padding := spec.Padding

		x := maxInt(0, int(math.Floor(ox-ow*padding)))
		y := maxInt(0, int(math.Floor(oy-oh*padding)))
		w := minInt(int(math.Floor(ow*(1+2*padding))), width-x)
		h := minInt(int(math.Floor(oh*(1+2*padding))), height-y)
		if w <= 0 || h <= 0 {
			continue
		}

		region := image.Rect(x, y, x+w, y+h)
		pixelateRegion(img, region, spec.BlurAmount)
	}
}

// pixelateRegion downsamples rect to (max(1,w/blurAmount),
// max(1,h/blurAmount)) with nearest-neighbor, then upsamples back over the
// same region — two-step nearest-neighbor resize, the block-pixelation
// effect the export requires.
func pixelateRegion(img *image.RGBA, rect image.Rectangle, blurAmount int) {
	w, h := rect.Dx(), rect.Dy()
	if blurAmount < 1 {
		blurAmount = 1
	}
	downW := maxInt(1, w/blurAmount)
	downH := maxInt(1, h/blurAmount)

	small := image.NewRGBA(image.Rect(0, 0, downW, downH))
	draw.NearestNeighbor.Scale(small, small.Bounds(), img, rect, draw.Src, nil)
	draw.NearestNeighbor.Scale(img, rect, small, small.Bounds(), draw.Src, nil)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
