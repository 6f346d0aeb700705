package videoio

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"os/exec"
)

// Writer pipes raw RGBA frames, in strict write order, into an ffmpeg
// encode process producing a silent MP4 ("mp4v" codec,
// preserving source fps and dimensions, no audio track).
type Writer struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	errs   chan error
	width  int
	height int
}

// NewWriter starts the encode process. Call WriteFrame for every output
// frame, in ascending order, then Close.
func NewWriter(ctx context.Context, ffmpegPath, outputPath string, width, height int, fps float64) (*Writer, error) {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if fps <= 0 {
		fps = 30.0
	}

	cmd := exec.CommandContext(ctx, ffmpegPath,
		"-y",
		"-loglevel", "error",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", width, height),
		"-r", fmt.Sprintf("%.6f", fps),
		"-i", "pipe:0",
		"-c:v", "mpeg4",
		"-pix_fmt", "yuv420p",
		"-an",
		outputPath,
	)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("videoio: stdin pipe: %w", err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("videoio: start encoder: %w", err)
	}

	w := &Writer{cmd: cmd, stdin: stdin, errs: make(chan error, 1), width: width, height: height}
	go func() {
		w.errs <- cmd.Wait()
	}()
	return w, nil
}

// WriteFrame writes one RGBA frame. img's dimensions must match the
// writer's width/height.
func (w *Writer) WriteFrame(img *image.RGBA) error {
	if img.Bounds().Dx() != w.width || img.Bounds().Dy() != w.height {
		return fmt.Errorf("videoio: frame size %dx%d does not match writer size %dx%d",
			img.Bounds().Dx(), img.Bounds().Dy(), w.width, w.height)
	}
	_, err := w.stdin.Write(img.Pix)
	return err
}

// Close finishes writing and waits for ffmpeg to flush the output file.
func (w *Writer) Close() error {
	if err := w.stdin.Close(); err != nil {
		return fmt.Errorf("videoio: close stdin: %w", err)
	}
	if err := <-w.errs; err != nil {
		return fmt.Errorf("videoio: encoder: %w", err)
	}
	return nil
}
