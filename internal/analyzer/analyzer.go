// Package analyzer drives whole-video detection and emits an incremental,
// append-only record stream.
package analyzer

import (
	"context"
	"log"
	"math"

	"faceguard/internal/faceengine"
	"faceguard/internal/types"
	"faceguard/internal/videoio"
	"faceguard/internal/workerpool"
)

// RecordType tags one emitted record.
type RecordType string

const (
	RecordProgress RecordType = "progress"
	RecordResults  RecordType = "results"
	RecordError    RecordType = "error"
)

// Record is one line of the NDJSON stream (or one WebSocket text frame).
// Only the fields relevant to Type are populated.
type Record struct {
	Type     RecordType             `json:"type"`
	Progress float64                `json:"progress,omitempty"`
	Results  []types.FrameDetection `json:"results,omitempty"`
	Error    string                 `json:"error,omitempty"`
}

// minSampleStride/maxSampleStride clamp the caller-supplied stride
// (sampleStride is clamped to [1, 30]).
const (
	minSampleStride = 1
	maxSampleStride = 30
)

// Analyzer ties a frame decoder, a detection engine and the shared worker
// pool together.
type Analyzer struct {
	engine       *faceengine.Engine
	workers      *workerpool.Pool
	poolSize     int
	ffmpegPath   string
	ffprobePath  string
}

// New builds an Analyzer. poolSize must equal the detector pool's size N,
// which is also the shared worker pool's concurrency; the analyzer sizes
// its bounded in-flight FIFO from it (2*N).
func New(engine *faceengine.Engine, workers *workerpool.Pool, poolSize int, ffmpegPath, ffprobePath string) *Analyzer {
	return &Analyzer{
		engine:      engine,
		workers:     workers,
		poolSize:    poolSize,
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
	}
}

type frameResult struct {
	frameIndex int
	faces      []types.Detection
}

// Run streams videoPath's analysis on the returned channel, which is
// closed when the stream ends (terminal results/error record emitted, or
// the context was cancelled and the stream was abandoned — no partial
// results record in that case).
func (a *Analyzer) Run(ctx context.Context, videoPath string, sampleStride int) <-chan Record {
	if sampleStride < minSampleStride {
		sampleStride = minSampleStride
	}
	if sampleStride > maxSampleStride {
		sampleStride = maxSampleStride
	}

	out := make(chan Record)

	go func() {
		defer close(out)

		decoder, meta, err := videoio.Open(ctx, a.ffmpegPath, a.ffprobePath, videoPath)
		if err != nil {
			send(ctx, out, Record{Type: RecordError, Error: err.Error()})
			return
		}

		totalSteps := 1
		if meta.FrameCount > 0 {
			totalSteps = (meta.FrameCount + sampleStride - 1) / sampleStride
			if totalSteps < 1 {
				totalSteps = 1
			}
		}

		maxPending := 2 * a.poolSize
		if maxPending < 1 {
			maxPending = 1
		}

		fifo := make([]*workerpool.Future[frameResult], 0, maxPending)
		var accumulator []types.FrameDetection
		completedSteps := 0

		drainHead := func() bool {
			fut := fifo[0]
			fifo = fifo[1:]
			res, err := fut.Wait()
			if err != nil {
				// DetectorFailure: isolated, logged, treated as
				// "no faces" — the stream and the pool are both unaffected.
				log.Printf("[Analyzer] detection failed for frame %d: %v", res.frameIndex, err)
			} else if len(res.faces) > 0 {
				accumulator = append(accumulator, types.FrameDetection{
					FrameIndex: uint32(res.frameIndex),
					Faces:      res.faces,
				})
			}
			completedSteps++
			progress := math.Min(100, round1(float64(completedSteps)/float64(totalSteps)*100))
			return send(ctx, out, Record{Type: RecordProgress, Progress: progress})
		}

		frames := decoder.Frames(ctx, sampleStride)

	loop:
		for {
			select {
			case <-ctx.Done():
				break loop
			case frame, ok := <-frames:
				if !ok {
					break loop
				}
				if frame.Err != nil {
					send(ctx, out, Record{Type: RecordError, Error: frame.Err.Error()})
					return
				}

				img := frame.Image
				idx := frame.Index
				fut := workerpool.Submit(ctx, a.workers, func(ctx context.Context) (frameResult, error) {
					faces, err := a.engine.Detect(ctx, img)
					return frameResult{frameIndex: idx, faces: faces}, err
				})
				fifo = append(fifo, fut)

				if len(fifo) >= maxPending {
					if !drainHead() {
						break loop
					}
				}
			}
		}

		if ctx.Err() != nil {
			// Consumer disconnected: stop submitting (already done above),
			// abandon pending results, let in-flight detectors finish and
			// return to the pool on their own. No terminal record.
			return
		}

		for len(fifo) > 0 {
			if !drainHead() {
				return
			}
		}

		send(ctx, out, Record{Type: RecordResults, Results: accumulator})
	}()

	return out
}

// send delivers rec on out, respecting cancellation so a disconnected
// consumer never wedges the producer goroutine. Returns false if ctx was
// done before the send completed.
func send(ctx context.Context, out chan<- Record, rec Record) bool {
	select {
	case out <- rec:
		return true
	case <-ctx.Done():
		return false
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
