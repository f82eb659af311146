// Package video orchestrates the frame pipeline: external decode, per-frame
// depth, stereo synthesis, and external re-encode with audio passthrough.
package video

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"depthd/internal/xproc"
)

const (
	sampleExtractTimeout = 60 * time.Second
	fullExtractTimeout   = 300 * time.Second
	encodeTimeout        = 600 * time.Second
	probeTimeout         = 30 * time.Second

	defaultFPS = 30.0
)

// ExtractMethod selects how sample frames are pulled from a video.
type ExtractMethod string

const (
	// MethodInterval samples at a fixed rate.
	MethodInterval ExtractMethod = "interval"
	// MethodKeyframes restricts extraction to I-frames.
	MethodKeyframes ExtractMethod = "keyframes"
)

// ParseMethod maps a request string to an ExtractMethod, defaulting to
// interval.
func ParseMethod(s string) ExtractMethod {
	if s == string(MethodKeyframes) {
		return MethodKeyframes
	}
	return MethodInterval
}

// Codec selects the output video codec.
type Codec string

const (
	CodecH264 Codec = "h264"
	CodecHEVC Codec = "hevc"
)

// ParseCodec maps a request string to a Codec, defaulting to h264.
func ParseCodec(s string) (Codec, error) {
	switch s {
	case "", "h264":
		return CodecH264, nil
	case "hevc", "h265":
		return CodecHEVC, nil
	}
	return "", fmt.Errorf("unknown codec: %q", s)
}

// Tools wraps the external decoder/encoder contract (ffmpeg/ffprobe).
type Tools struct {
	run func(ctx context.Context, c xproc.Cmd) ([]byte, error)
	log zerolog.Logger
}

// NewTools returns a Tools using real subprocess invocations.
func NewTools(log zerolog.Logger) *Tools {
	return &Tools{run: xproc.Run, log: log}
}

// ExtractSample pulls up to maxFrames preview frames (scaled to 480p height)
// into dir and returns their ordered paths. The caller owns dir cleanup.
func (t *Tools) ExtractSample(ctx context.Context, videoPath, dir string, method ExtractMethod, fps, maxFrames int) ([]string, error) {
	args := extractSampleArgs(videoPath, dir, method, fps, maxFrames)
	if _, err := t.run(ctx, xproc.Cmd{Name: "ffmpeg", Args: args, Timeout: sampleExtractTimeout}); err != nil {
		return nil, err
	}
	return globFrames(dir)
}

// ExtractAll pulls every frame at source rate and full resolution into dir.
func (t *Tools) ExtractAll(ctx context.Context, videoPath, dir string) ([]string, error) {
	args := extractAllArgs(videoPath, dir)
	if _, err := t.run(ctx, xproc.Cmd{Name: "ffmpeg", Args: args, Timeout: fullExtractTimeout}); err != nil {
		return nil, err
	}
	return globFrames(dir)
}

// ProbeFPS detects the source frame rate. Detection failures fall back to
// 30.0 so encoding can always proceed.
func (t *Tools) ProbeFPS(ctx context.Context, videoPath string) float64 {
	out, err := t.run(ctx, xproc.Cmd{
		Name: "ffprobe",
		Args: []string{
			"-v", "error",
			"-select_streams", "v:0",
			"-show_entries", "stream=r_frame_rate",
			"-of", "json",
			videoPath,
		},
		Timeout: probeTimeout,
	})
	if err != nil {
		t.log.Warn().Err(err).Msg("fps probe failed, using default")
		return defaultFPS
	}
	fps, err := parseFrameRate(out)
	if err != nil {
		t.log.Warn().Err(err).Msg("fps parse failed, using default")
		return defaultFPS
	}
	return fps
}

// EncodeJob describes one SBS mux invocation.
type EncodeJob struct {
	FPS float64
	// FramePattern is the printf-style path of the ordered SBS frames.
	FramePattern string
	// Source is the original video; its audio track is copied, not re-encoded.
	Source  string
	Codec   Codec
	OutPath string
}

// EncodeSBS muxes ordered SBS frames into a video, copying the source audio
// track when present.
func (t *Tools) EncodeSBS(ctx context.Context, job EncodeJob) error {
	_, err := t.run(ctx, xproc.Cmd{Name: "ffmpeg", Args: encodeArgs(job), Timeout: encodeTimeout})
	return err
}

func extractSampleArgs(videoPath, dir string, method ExtractMethod, fps, maxFrames int) []string {
	if method == MethodKeyframes {
		return []string{
			"-i", videoPath,
			"-vf", "select=eq(pict_type\\,I),scale=-1:480",
			"-vsync", "vfr",
			"-frames:v", strconv.Itoa(maxFrames),
			filepath.Join(dir, "frame_%04d.png"),
		}
	}
	return []string{
		"-i", videoPath,
		"-vf", fmt.Sprintf("fps=%d,scale=-1:480", fps),
		"-frames:v", strconv.Itoa(maxFrames),
		filepath.Join(dir, "frame_%04d.png"),
	}
}

func extractAllArgs(videoPath, dir string) []string {
	return []string{
		"-i", videoPath,
		"-qscale:v", "2",
		filepath.Join(dir, "frame_%06d.png"),
	}
}

func encodeArgs(job EncodeJob) []string {
	codec := "libx264"
	if job.Codec == CodecHEVC {
		codec = "libx265"
	}
	args := []string{
		"-y",
		"-framerate", strconv.FormatFloat(job.FPS, 'f', -1, 64),
		"-i", job.FramePattern,
		"-i", job.Source,
		"-map", "0:v", "-map", "1:a?",
		"-c:v", codec,
		"-preset", "medium", "-crf", "23",
	}
	if job.Codec == CodecHEVC {
		args = append(args, "-tag:v", "hvc1")
	}
	args = append(args, "-c:a", "copy", "-pix_fmt", "yuv420p", job.OutPath)
	return args
}

// parseFrameRate extracts r_frame_rate from ffprobe JSON output.
func parseFrameRate(b []byte) (float64, error) {
	var probe struct {
		Streams []struct {
			RFrameRate string `json:"r_frame_rate"`
		} `json:"streams"`
	}
	if err := json.Unmarshal(b, &probe); err != nil {
		return 0, err
	}
	if len(probe.Streams) == 0 {
		return 0, fmt.Errorf("no video stream in probe output")
	}
	parts := strings.SplitN(probe.Streams[0].RFrameRate, "/", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("malformed frame rate: %q", probe.Streams[0].RFrameRate)
	}
	num, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, err
	}
	denom, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, err
	}
	if denom == 0 {
		return 0, fmt.Errorf("zero denominator in frame rate")
	}
	return float64(num) / float64(denom), nil
}

func globFrames(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "frame_*.png"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}
