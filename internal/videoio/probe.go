// Package videoio opens and writes video files by piping raw frames through
// ffmpeg, the same exec.Command-based approach the retrieval pack uses for
// piping codecs through an external process rather than linking a codec
// library directly.
package videoio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"faceguard/internal/types"
)

// ffprobeOutput mirrors the slice of ffprobe's JSON we actually read.
type ffprobeOutput struct {
	Streams []struct {
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		RFrameRate   string `json:"r_frame_rate"`
		NBFrames     string `json:"nb_frames"`
		CodecType    string `json:"codec_type"`
	} `json:"streams"`
}

// Probe inspects path with ffprobe and returns its container metadata. An
// unreadable file or one with no video stream is InvalidVideo: the caller
// must delete the uploaded file on this error.
func Probe(ctx context.Context, ffprobePath, path string) (types.VideoMetadata, error) {
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}

	cmd := exec.CommandContext(ctx, ffprobePath,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,r_frame_rate,nb_frames,codec_type",
		"-of", "json",
		path,
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return types.VideoMetadata{}, fmt.Errorf("videoio: ffprobe %s: %w: %s", path, err, stderr.String())
	}

	var parsed ffprobeOutput
	if err := json.Unmarshal(stdout.Bytes(), &parsed); err != nil {
		return types.VideoMetadata{}, fmt.Errorf("videoio: parse ffprobe output: %w", err)
	}

	var video *struct {
		Width      int
		Height     int
		RFrameRate string
		NBFrames   string
		CodecType  string
	}
	for i := range parsed.Streams {
		s := parsed.Streams[i]
		if s.CodecType == "video" {
			video = &struct {
				Width      int
				Height     int
				RFrameRate string
				NBFrames   string
				CodecType  string
			}{s.Width, s.Height, s.RFrameRate, s.NBFrames, s.CodecType}
			break
		}
	}
	if video == nil || video.Width == 0 || video.Height == 0 {
		return types.VideoMetadata{}, fmt.Errorf("videoio: %s: no video stream found", path)
	}

	fps := parseFrameRate(video.RFrameRate)
	frameCount, _ := strconv.Atoi(strings.TrimSpace(video.NBFrames))

	return types.VideoMetadata{
		FPS:        types.NormalizeFPS(fps),
		Width:      video.Width,
		Height:     video.Height,
		FrameCount: frameCount,
	}, nil
}

// parseFrameRate turns ffprobe's "30000/1001"-style rational into a float.
// A malformed or zero rate returns 0, which NormalizeFPS turns into 30.0.
func parseFrameRate(rate string) float64 {
	parts := strings.SplitN(rate, "/", 2)
	if len(parts) != 2 {
		v, _ := strconv.ParseFloat(rate, 64)
		return v
	}
	num, err1 := strconv.ParseFloat(parts[0], 64)
	den, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil || den == 0 {
		return 0
	}
	return num / den
}
