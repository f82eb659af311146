package manager

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"depthd/internal/device"
	"depthd/internal/registry"
	"depthd/internal/stereo"
)

// fakeBackend records usage and returns a fixed-size depth map.
type fakeBackend struct {
	mu       sync.Mutex
	infers   int
	closed   bool
	inferErr error
	delay    time.Duration
}

func (b *fakeBackend) Infer(ctx context.Context, img image.Image) (*stereo.DepthMap, error) {
	b.mu.Lock()
	b.infers++
	b.mu.Unlock()
	if b.delay > 0 {
		time.Sleep(b.delay)
	}
	if b.inferErr != nil {
		return nil, b.inferErr
	}
	bnd := img.Bounds()
	d := stereo.NewDepthMap(bnd.Dx(), bnd.Dy())
	for i := range d.Pix {
		d.Pix[i] = float32(i)
	}
	return d, nil
}

func (b *fakeBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// fakeFactory counts loads, downloads and reclaims; loadErr forces failures.
type fakeFactory struct {
	mu        sync.Mutex
	loads     int
	downloads int
	reclaims  int
	loadErr   error
	backends  []*fakeBackend
	inferErr  error
	delay     time.Duration
}

func (f *fakeFactory) New(ctx context.Context, v registry.Variant, dev device.Choice) (Backend, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	b := &fakeBackend{inferErr: f.inferErr, delay: f.delay}
	f.backends = append(f.backends, b)
	return b, nil
}

func (f *fakeFactory) Download(ctx context.Context, v registry.Variant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.downloads++
	return nil
}

func (f *fakeFactory) Reclaim(device.Choice) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reclaims++
}

func (f *fakeFactory) counts() (loads, reclaims int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loads, f.reclaims
}

func cpuSelector() *device.Selector {
	return &device.Selector{
		CUDAAvailable:  func() bool { return false },
		MetalAvailable: func() bool { return false },
		Log:            zerolog.Nop(),
	}
}

func newTestManager(t *testing.T, f *fakeFactory) *Manager {
	t.Helper()
	cat, err := registry.New(registry.DefaultVariants(), "small")
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	cache, err := registry.NewCache(t.TempDir())
	if err != nil {
		t.Fatalf("cache: %v", err)
	}
	return New(Config{
		Catalog:  cat,
		Cache:    cache,
		Selector: cpuSelector(),
		Factory:  f,
		Log:      zerolog.Nop(),
	})
}

func testImage() image.Image {
	return image.NewNRGBA(image.Rect(0, 0, 4, 4))
}

var errBoom = errors.New("boom")
