package pixelate

import (
	"image"
	"image/color"
	"testing"

	"faceguard/internal/types"
)

func solidFrame(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestProcessFrame_NoSelectedTracks_LeavesFrameUntouched(t *testing.T) {
	c := color.RGBA{10, 20, 30, 255}
	img := solidFrame(100, 100, c)
	processFrame(img, 5, nil, types.ExportSpec{Padding: 0, BlurAmount: 10}, 100, 100)

	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			if img.RGBAAt(x, y) != c {
				t.Fatalf("pixel (%d,%d) changed with no selected tracks", x, y)
			}
		}
	}
}

func TestProcessFrame_PixelatesEffectiveRegion(t *testing.T) {
	// track id 7, frames {0,[10,10,20,20]},
	// {10,[30,10,20,20]}; at frame 5 the region is centered at
	// x=20,y=10,w=20,h=20.
	tr := types.Track{
		ID: 7,
		Frames: []types.TrackFrame{
			{FrameIndex: 0, BBox: types.BoundingBox{X: 10, Y: 10, W: 20, H: 20}, Score: 0.9},
			{FrameIndex: 10, BBox: types.BoundingBox{X: 30, Y: 10, W: 20, H: 20}, Score: 0.9},
		},
	}
	spec := types.ExportSpec{
		Tracks:           []types.Track{tr},
		SelectedTrackIDs: []uint32{7},
		Padding:          0,
		BlurAmount:       10,
		SampleRate:       1,
	}

	bg := color.RGBA{255, 0, 0, 255}
	img := solidFrame(100, 100, bg)
	// Paint a distinguishable gradient only inside the expected region so a
	// pixelation pass visibly flattens it.
	for y := 10; y < 30; y++ {
		for x := 20; x < 40; x++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 0, 255})
		}
	}

	processFrame(img, 5, spec.SelectedTracks(), spec, 100, 100)

	// Outside the region, nothing changed.
	if img.RGBAAt(0, 0) != bg {
		t.Fatal("pixel outside the region was modified")
	}

	// Inside the region, blurAmount=10 over a 20x20 box means a single
	// 2x2 downsample block upsampled back to 20x20: every pixel within
	// one 10x10 quadrant must now be identical.
	topLeft := img.RGBAAt(20, 10)
	for y := 10; y < 20; y++ {
		for x := 20; x < 30; x++ {
			if img.RGBAAt(x, y) != topLeft {
				t.Fatalf("pixel (%d,%d)=%v not uniform with quadrant value %v", x, y, img.RGBAAt(x, y), topLeft)
			}
		}
	}
}

func TestProcessFrame_ClampsToImageBounds(t *testing.T) {
	tr := types.Track{
		ID: 1,
		Frames: []types.TrackFrame{
			{FrameIndex: 0, BBox: types.BoundingBox{X: -5, Y: -5, W: 20, H: 20}, Score: 1},
		},
	}
	spec := types.ExportSpec{
		Tracks:           []types.Track{tr},
		SelectedTrackIDs: []uint32{1},
		Padding:          0.5,
		BlurAmount:       5,
		SampleRate:       1,
	}

	img := solidFrame(10, 10, color.RGBA{1, 2, 3, 255})
	// Must not panic indexing out of bounds.
	processFrame(img, 0, spec.SelectedTracks(), spec, 10, 10)
}
