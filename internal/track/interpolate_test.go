package track

import (
	"testing"

	"faceguard/internal/types"
)

func frame(idx uint32, x, y, w, h, score float64) types.TrackFrame {
	return types.TrackFrame{FrameIndex: idx, BBox: types.BoundingBox{X: x, Y: y, W: w, H: h}, Score: score}
}

func TestFindDetectionForFrame_EmptyTrack(t *testing.T) {
	if _, ok := FindDetectionForFrame(nil, 5); ok {
		t.Fatal("expected no detection for empty track")
	}
}

func TestFindDetectionForFrame_ExactHit(t *testing.T) {
	frames := []types.TrackFrame{frame(0, 10, 10, 20, 20, 0.9), frame(10, 30, 10, 20, 20, 0.9)}
	for _, f := range frames {
		got, ok := FindDetectionForFrame(frames, int(f.FrameIndex))
		if !ok {
			t.Fatalf("frame %d: expected a hit", f.FrameIndex)
		}
		if got.BBox != f.BBox || got.Score != f.Score {
			t.Fatalf("frame %d: got %+v, want exact frame %+v", f.FrameIndex, got, f)
		}
	}
}

func TestFindDetectionForFrame_Interpolates(t *testing.T) {
	frames := []types.TrackFrame{frame(0, 10, 10, 20, 20, 0.9), frame(10, 30, 10, 20, 20, 0.9)}
	for k := 0; k <= 10; k++ {
		got, ok := FindDetectionForFrame(frames, k)
		if !ok {
			t.Fatalf("k=%d: expected interpolation", k)
		}
		wantX := 10 + float64(k)/10*(30-10)
		if got.BBox.X != wantX {
			t.Errorf("k=%d: got x=%v, want %v", k, got.BBox.X, wantX)
		}
		if got.BBox.Y != 10 || got.BBox.W != 20 || got.BBox.H != 20 {
			t.Errorf("k=%d: unexpected bbox %+v", k, got.BBox)
		}
	}
}

func TestFindDetectionForFrame_PixelationScenario(t *testing.T) {
	// track {0,[10,10,20,20]},{10,[30,10,20,20]}; at
	// frame 5 the box should be centered at x=20,y=10,w=20,h=20.
	frames := []types.TrackFrame{frame(0, 10, 10, 20, 20, 0.9), frame(10, 30, 10, 20, 20, 0.9)}
	got, ok := FindDetectionForFrame(frames, 5)
	if !ok {
		t.Fatal("expected a detection at frame 5")
	}
	if got.BBox != (types.BoundingBox{X: 20, Y: 10, W: 20, H: 20}) {
		t.Fatalf("got %+v", got.BBox)
	}
}

func TestFindDetectionForFrame_GapTooLarge(t *testing.T) {
	// gap of 25 > maxGap(20) returns None strictly inside the gap.
	frames := []types.TrackFrame{frame(10, 0, 0, 1, 1, 1), frame(35, 0, 0, 1, 1, 1)}
	if _, ok := FindDetectionForFrame(frames, 20); ok {
		t.Fatal("expected no detection across a gap > maxGap")
	}
}

func TestFindDetectionForFrame_BeforeFirstFrame(t *testing.T) {
	frames := []types.TrackFrame{frame(10, 0, 0, 1, 1, 1), frame(12, 0, 0, 1, 1, 1)}
	if _, ok := FindDetectionForFrame(frames, 9); ok {
		t.Fatal("padding=0: expected no detection one frame before the first sample")
	}
}

func TestFindDetectionForFrame_WindowBeyondEnds(t *testing.T) {
	frames := []types.TrackFrame{frame(100, 0, 0, 1, 1, 1)}
	if _, ok := FindDetectionForFrame(frames, 100-21); ok {
		t.Fatal("expected no detection beyond the maxGap window before the only frame")
	}
	if _, ok := FindDetectionForFrame(frames, 100+21); ok {
		t.Fatal("expected no detection beyond the maxGap window after the only frame")
	}
	if got, ok := FindDetectionForFrame(frames, 100-20); ok {
		t.Fatalf("padding=0: expected no detection at the edge of the window before the only frame, got %+v", got)
	}
}
