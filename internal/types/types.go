// Package types holds the data model shared across the detection and
// export pipeline: bounding boxes, detections, tracks and export specs.
package types

import "fmt"

// BoundingBox is a rectangle in source-frame pixel coordinates, top-left
// origin. Components are not constrained to integers: interpolation
// produces fractional coordinates, consumers truncate when indexing pixels.
type BoundingBox struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Detection is a single face detection.
type Detection struct {
	BBox  BoundingBox `json:"bbox"`
	Score float64     `json:"score"`
}

// FrameDetection carries every face found on one sampled frame. Only
// emitted for frames with at least one face.
type FrameDetection struct {
	FrameIndex uint32      `json:"frameIndex"`
	Faces      []Detection `json:"faces"`
}

// TrackFrame is one sampled detection belonging to a track.
type TrackFrame struct {
	FrameIndex uint32      `json:"frameIndex"`
	BBox       BoundingBox `json:"bbox"`
	Score      float64     `json:"score"`
}

// Track is a temporally-ordered list of per-frame bounding boxes belonging
// to one face identity, produced upstream by a client-side tracker.
// Frames are assumed strictly increasing on FrameIndex; the core does not
// re-validate this, it trusts the client.
type Track struct {
	ID         uint32       `json:"id"`
	Frames     []TrackFrame `json:"frames"`
	StartFrame uint32       `json:"startFrame"`
	EndFrame   uint32       `json:"endFrame"`
}

// Validate rejects a track with no frames, the one structural invariant
// the core is required to enforce itself.
func (t Track) Validate() error {
	if len(t.Frames) == 0 {
		return fmt.Errorf("track %d: frames must not be empty", t.ID)
	}
	return nil
}

// ExportSpec describes one export request: which tracks to pixelate and
// how.
type ExportSpec struct {
	Tracks           []Track  `json:"tracks"`
	SelectedTrackIDs []uint32 `json:"selectedTrackIds"`
	Padding          float64  `json:"padding"`
	BlurAmount       int      `json:"blurAmount"`
	SampleRate       int      `json:"sampleRate"`
}

const maxSelectedTracks = 100

// Validate checks the constraints from the data model: 0 <= padding <= 2.0,
// 1 <= blurAmount <= 50, 1 <= sampleRate <= 60, |selectedTrackIds| <= 100.
func (s ExportSpec) Validate() error {
	if s.Padding < 0 || s.Padding > 2.0 {
		return fmt.Errorf("padding must be in [0, 2.0], got %v", s.Padding)
	}
	if s.BlurAmount < 1 || s.BlurAmount > 50 {
		return fmt.Errorf("blurAmount must be in [1, 50], got %d", s.BlurAmount)
	}
	if s.SampleRate < 1 || s.SampleRate > 60 {
		return fmt.Errorf("sampleRate must be in [1, 60], got %d", s.SampleRate)
	}
	if len(s.SelectedTrackIDs) > maxSelectedTracks {
		return fmt.Errorf("selectedTrackIds: at most %d allowed, got %d", maxSelectedTracks, len(s.SelectedTrackIDs))
	}
	for _, t := range s.Tracks {
		if err := t.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// SelectedTracks returns the subset of s.Tracks whose ID appears in
// SelectedTrackIDs.
func (s ExportSpec) SelectedTracks() []Track {
	wanted := make(map[uint32]bool, len(s.SelectedTrackIDs))
	for _, id := range s.SelectedTrackIDs {
		wanted[id] = true
	}
	out := make([]Track, 0, len(wanted))
	for _, t := range s.Tracks {
		if wanted[t.ID] {
			out = append(out, t)
		}
	}
	return out
}

// VideoMetadata describes a decoded video's container-level properties.
type VideoMetadata struct {
	FPS        float64 `json:"fps"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	FrameCount int     `json:"frameCount"`
}

// NormalizeFPS returns 30.0 when fps is zero or negative, matching the
// frame decoder's own fallback.
func NormalizeFPS(fps float64) float64 {
	if fps <= 0 {
		return 30.0
	}
	return fps
}
