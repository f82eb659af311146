package manager

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"

	"depthd/internal/device"
	"depthd/internal/registry"
	"depthd/internal/stereo"
	"depthd/internal/xproc"
)

const defaultInferTimeout = 120 * time.Second

// ToolFactory backs depth estimation with an external estimator CLI invoked
// per prediction. The tool contract:
//
//	<bin> predict --model <external-id> --device <cpu|cuda|metal> -i <in.png> -o <out.png>
//	<bin> download --model <external-id> --cache <dir>
//
// The output is a grayscale PNG depth map in arbitrary relative scale.
type ToolFactory struct {
	Bin          string
	Cache        *registry.Cache
	InferTimeout time.Duration
	Log          zerolog.Logger
}

// NewToolFactory builds a ToolFactory for the given binary.
func NewToolFactory(bin string, cache *registry.Cache, log zerolog.Logger) *ToolFactory {
	return &ToolFactory{Bin: bin, Cache: cache, InferTimeout: defaultInferTimeout, Log: log}
}

// New verifies the tool is available and returns a per-call backend bound to
// the variant and device. The CLI holds no persistent process, so "loading"
// is a cheap handle; weights are paged in by the tool on first use.
func (f *ToolFactory) New(ctx context.Context, v registry.Variant, dev device.Choice) (Backend, error) {
	if !xproc.LookPath(f.Bin) {
		return nil, fmt.Errorf("estimator tool %q not found on PATH", f.Bin)
	}
	return &toolBackend{f: f, variant: v, dev: dev}, nil
}

// Download fetches the variant's weights via the tool. The tool owns partial
// cleanup on failure.
func (f *ToolFactory) Download(ctx context.Context, v registry.Variant) error {
	_, err := xproc.Run(ctx, xproc.Cmd{
		Name: f.Bin,
		Args: []string{"download", "--model", v.ExternalID, "--cache", f.Cache.Dir()},
	})
	return err
}

// Reclaim is a no-op: a per-call subprocess returns its memory to the OS when
// it exits.
func (f *ToolFactory) Reclaim(device.Choice) {}

type toolBackend struct {
	f       *ToolFactory
	variant registry.Variant
	dev     device.Choice
}

func (b *toolBackend) Infer(ctx context.Context, img image.Image) (*stereo.DepthMap, error) {
	dir, err := os.MkdirTemp("", "depthd-infer-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "in.png")
	out := filepath.Join(dir, "out.png")
	if err := imaging.Save(img, in); err != nil {
		return nil, fmt.Errorf("write input frame: %w", err)
	}
	_, err = xproc.Run(ctx, xproc.Cmd{
		Name: b.f.Bin,
		Args: []string{
			"predict",
			"--model", b.variant.ExternalID,
			"--device", string(b.dev),
			"-i", in,
			"-o", out,
		},
		Timeout: b.f.InferTimeout,
	})
	if err != nil {
		return nil, err
	}
	depthImg, err := imaging.Open(out)
	if err != nil {
		return nil, fmt.Errorf("read depth output: %w", err)
	}
	return stereo.DepthMapFromImage(depthImg), nil
}

func (b *toolBackend) Close() error { return nil }
