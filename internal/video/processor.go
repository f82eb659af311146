package video

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"

	"depthd/internal/stereo"
)

const (
	defaultBatchSize  = 10
	defaultDivergence = 2.0
	defaultMaxFrames  = 30
	defaultSampleFPS  = 1
)

// DepthEngine is the slice of the depth manager the processor needs.
// *manager.Manager satisfies it.
type DepthEngine interface {
	Predict(ctx context.Context, img image.Image, key string) (*stereo.DepthMap, error)
	// Reclaim requests coalesced device-memory reclamation; invoked once per
	// batch window boundary.
	Reclaim()
}

// FrameTools is the external decoder/encoder contract. *Tools satisfies it.
type FrameTools interface {
	ExtractSample(ctx context.Context, videoPath, dir string, method ExtractMethod, fps, maxFrames int) ([]string, error)
	ExtractAll(ctx context.Context, videoPath, dir string) ([]string, error)
	ProbeFPS(ctx context.Context, videoPath string) float64
	EncodeSBS(ctx context.Context, job EncodeJob) error
}

// Processor runs the batched video pipelines.
type Processor struct {
	depth DepthEngine
	tools FrameTools
	log   zerolog.Logger
}

// NewProcessor wires a Processor to its collaborators.
func NewProcessor(depth DepthEngine, tools FrameTools, log zerolog.Logger) *Processor {
	return &Processor{depth: depth, tools: tools, log: log}
}

// ArchiveOptions tunes DepthArchive.
type ArchiveOptions struct {
	Method    ExtractMethod
	FPS       int
	MaxFrames int
	// Model selects the depth variant; empty means the manager default.
	Model string
}

// DepthArchive extracts sample frames, runs depth estimation on each, and
// packages the normalized maps into an in-memory ZIP archive. Temporary
// directories are removed on every exit path.
func (p *Processor) DepthArchive(ctx context.Context, videoPath string, opts ArchiveOptions) ([]byte, error) {
	if opts.FPS <= 0 {
		opts.FPS = defaultSampleFPS
	}
	if opts.MaxFrames <= 0 {
		opts.MaxFrames = defaultMaxFrames
	}
	framesDir, err := os.MkdirTemp("", "depthd-frames-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(framesDir)

	frames, err := p.tools.ExtractSample(ctx, videoPath, framesDir, opts.Method, opts.FPS, opts.MaxFrames)
	if err != nil {
		return nil, err
	}
	p.log.Info().Int("frames", len(frames)).Str("video", videoPath).Msg("processing depth archive")

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, framePath := range frames {
		img, err := imaging.Open(framePath)
		if err != nil {
			p.log.Warn().Str("frame", framePath).Err(err).Msg("skipping unreadable frame")
			framesSkipped.Inc()
			continue
		}
		depth, err := p.depth.Predict(ctx, img, opts.Model)
		if err != nil {
			return nil, err
		}
		name := "depth_" + trimExt(filepath.Base(framePath)) + ".png"
		w, err := zw.Create(name)
		if err != nil {
			return nil, err
		}
		if err := png.Encode(w, depth.ToGray()); err != nil {
			return nil, err
		}
		framesProcessed.Inc()
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// StereoOptions tunes StereoVideo.
type StereoOptions struct {
	Divergence float64
	Format     stereo.Format
	Codec      Codec
	// BatchSize caps how many frames are processed between device-memory
	// reclamations.
	BatchSize int
	// Model selects the depth variant; empty means the manager default.
	Model string
}

// StereoResult summarizes a completed SBS conversion.
type StereoResult struct {
	// Path of the encoded output video. The caller owns the file.
	Path string
	// Frames actually synthesized.
	Frames int
	// Skipped counts unreadable source frames dropped from the output.
	Skipped int
	// Windows is the number of batch windows processed.
	Windows int
}

// StereoVideo converts a video to side-by-side stereo. Frames are processed
// in source order, in windows of BatchSize; device memory is reclaimed at
// every window boundary before the next window starts. Unreadable frames are
// skipped with a warning and the remaining frames are renumbered so the
// encoder input stays contiguous. All intermediates are deleted whether
// encoding succeeds or fails.
func (p *Processor) StereoVideo(ctx context.Context, videoPath string, opts StereoOptions) (StereoResult, error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.Divergence == 0 {
		opts.Divergence = defaultDivergence
	}
	if opts.Format == "" {
		opts.Format = stereo.FormatFull
	}
	if opts.Codec == "" {
		opts.Codec = CodecH264
	}

	workDir, err := os.MkdirTemp("", "depthd-sbs-")
	if err != nil {
		return StereoResult{}, err
	}
	defer os.RemoveAll(workDir)
	framesDir := filepath.Join(workDir, "frames")
	sbsDir := filepath.Join(workDir, "sbs")
	for _, d := range []string{framesDir, sbsDir} {
		if err := os.Mkdir(d, 0o755); err != nil {
			return StereoResult{}, err
		}
	}

	frames, err := p.tools.ExtractAll(ctx, videoPath, framesDir)
	if err != nil {
		return StereoResult{}, err
	}
	p.log.Info().
		Int("frames", len(frames)).
		Int("batch_size", opts.BatchSize).
		Str("video", videoPath).
		Msg("processing stereo video")

	res := StereoResult{}
	outIdx := 0
	for start := 0; start < len(frames); start += opts.BatchSize {
		end := start + opts.BatchSize
		if end > len(frames) {
			end = len(frames)
		}
		for _, framePath := range frames[start:end] {
			if err := ctx.Err(); err != nil {
				return StereoResult{}, err
			}
			frame, err := openNRGBA(framePath)
			if err != nil {
				p.log.Warn().Str("frame", framePath).Err(err).Msg("skipping unreadable frame")
				framesSkipped.Inc()
				res.Skipped++
				continue
			}
			depth, err := p.depth.Predict(ctx, frame, opts.Model)
			if err != nil {
				return StereoResult{}, err
			}
			b := frame.Bounds()
			if depth.W != b.Dx() || depth.H != b.Dy() {
				depth = depth.Resize(b.Dx(), b.Dy())
			}
			left, right := stereo.GeneratePair(frame, depth, opts.Divergence)
			sbs := stereo.ComposeSBS(left, right, opts.Format)
			outIdx++
			out := filepath.Join(sbsDir, fmt.Sprintf("frame_%06d.png", outIdx))
			if err := imaging.Save(sbs, out); err != nil {
				return StereoResult{}, err
			}
			res.Frames++
			framesProcessed.Inc()
		}
		// Window boundary: give the device runtime a chance to release what
		// the window's predictions accumulated before starting the next one.
		p.depth.Reclaim()
		res.Windows++
		windowsReclaimed.Inc()
	}

	fps := p.tools.ProbeFPS(ctx, videoPath)
	outFile, err := os.CreateTemp("", "depthd-sbs-*.mp4")
	if err != nil {
		return StereoResult{}, err
	}
	outPath := outFile.Name()
	outFile.Close()

	err = p.tools.EncodeSBS(ctx, EncodeJob{
		FPS:          fps,
		FramePattern: filepath.Join(sbsDir, "frame_%06d.png"),
		Source:       videoPath,
		Codec:        opts.Codec,
		OutPath:      outPath,
	})
	if err != nil {
		os.Remove(outPath)
		return StereoResult{}, err
	}
	res.Path = outPath
	p.log.Info().
		Str("output", outPath).
		Int("frames", res.Frames).
		Int("skipped", res.Skipped).
		Float64("fps", fps).
		Msg("stereo video encoded")
	return res, nil
}

func openNRGBA(path string) (*image.NRGBA, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, err
	}
	return imaging.Clone(img), nil
}

func trimExt(name string) string {
	return name[:len(name)-len(filepath.Ext(name))]
}
