// Package track reconstructs per-frame bounding boxes from the sparse,
// sampled detections a client-side tracker hands back.
package track

import (
	"sort"

	"faceguard/internal/types"
)

// maxGap bounds how far apart two sampled frames may be before the core
// refuses to interpolate across them (suppresses interpolation across long
// occlusions). padding bounds how far outside a track's first/last frame a
// query may land and still reuse that frame's detection.
const (
	maxGap  = 20
	padding = 0
)

// FindDetectionForFrame returns the effective detection for frameIdx: the
// exact sampled detection on a hit, a linear interpolation between the
// bracketing samples when the gap between them is small enough, or false
// when none of that applies.
//
// frames must be sorted ascending on FrameIndex (the track invariant the
// core assumes rather than re-validates).
func FindDetectionForFrame(frames []types.TrackFrame, frameIdx int) (types.Detection, bool) {
	if len(frames) == 0 {
		return types.Detection{}, false
	}

	first := int(frames[0].FrameIndex)
	last := int(frames[len(frames)-1].FrameIndex)
	if frameIdx < first-maxGap || frameIdx > last+maxGap {
		return types.Detection{}, false
	}

	i := sort.Search(len(frames), func(i int) bool {
		return int(frames[i].FrameIndex) >= frameIdx
	})

	if i < len(frames) && int(frames[i].FrameIndex) == frameIdx {
		return detectionOf(frames[i]), true
	}

	var prevOK, nextOK bool
	var prev, next types.TrackFrame
	if i > 0 {
		prev = frames[i-1]
		prevOK = true
	}
	if i < len(frames) {
		next = frames[i]
		nextOK = true
	}

	switch {
	case prevOK && nextOK:
		gap := int(next.FrameIndex) - int(prev.FrameIndex)
		if gap > maxGap {
			return types.Detection{}, false
		}
		t := float64(frameIdx-int(prev.FrameIndex)) / float64(gap)
		return lerp(prev, next, t), true
	case prevOK:
		if frameIdx-int(prev.FrameIndex) <= padding {
			return detectionOf(prev), true
		}
		return types.Detection{}, false
	case nextOK:
		if int(next.FrameIndex)-frameIdx <= padding {
			return detectionOf(next), true
		}
		return types.Detection{}, false
	default:
		return types.Detection{}, false
	}
}

func detectionOf(f types.TrackFrame) types.Detection {
	return types.Detection{BBox: f.BBox, Score: f.Score}
}

func lerp(prev, next types.TrackFrame, t float64) types.Detection {
	return types.Detection{
		BBox: types.BoundingBox{
			X: prev.BBox.X + t*(next.BBox.X-prev.BBox.X),
			Y: prev.BBox.Y + t*(next.BBox.Y-prev.BBox.Y),
			W: prev.BBox.W + t*(next.BBox.W-prev.BBox.W),
			H: prev.BBox.H + t*(next.BBox.H-prev.BBox.H),
		},
		Score: prev.Score*(1-t) + next.Score*t,
	}
}
