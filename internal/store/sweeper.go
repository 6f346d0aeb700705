package store

import (
	"context"
	"log"
	"os"
	"time"
)

// sweepInterval and maxIdle are fixed: files older than 24h
// are deleted by a background sweeper every 1h."
const (
	sweepInterval = time.Hour
	maxIdle       = 24 * time.Hour
)

// Sweeper periodically deletes asset rows and their backing files once
// idle longer than maxIdle, grounded on a ticker+select-stopCh
// loop shape (internal/pipeline/frame_provider.go's captureHTTPImages).
type Sweeper struct {
	store *Store
}

// NewSweeper builds a Sweeper over store.
func NewSweeper(store *Store) *Sweeper {
	return &Sweeper{store: store}
}

// Run blocks, sweeping every hour until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepOnce()
		}
	}
}

func (s *Sweeper) sweepOnce() {
	stale, err := s.store.ListStale(maxIdle)
	if err != nil {
		log.Printf("[Sweeper] list stale assets: %v", err)
		return
	}

	for _, rec := range stale {
		if err := os.Remove(rec.InputPath); err != nil && !os.IsNotExist(err) {
			log.Printf("[Sweeper] remove %s: %v", rec.InputPath, err)
		}
		outputPath := blurredPath(rec.InputPath)
		if err := os.Remove(outputPath); err != nil && !os.IsNotExist(err) {
			log.Printf("[Sweeper] remove %s: %v", outputPath, err)
		}
		if err := s.store.Delete(rec.ID); err != nil {
			log.Printf("[Sweeper] delete asset row %s: %v", rec.ID, err)
			continue
		}
		log.Printf("[Sweeper] swept idle asset %s", rec.ID)
	}
}

// blurredPath derives the "{uuid}_blurred.mp4" output path from the
// "{uuid}.mp4" input path naming convention.
func blurredPath(inputPath string) string {
	const suffix = ".mp4"
	if len(inputPath) > len(suffix) && inputPath[len(inputPath)-len(suffix):] == suffix {
		return inputPath[:len(inputPath)-len(suffix)] + "_blurred" + suffix
	}
	return inputPath + "_blurred"
}
