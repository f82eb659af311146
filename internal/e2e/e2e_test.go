package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"

	"depthd/internal/device"
	"depthd/internal/httpapi"
	"depthd/internal/manager"
	"depthd/internal/registry"
	"depthd/internal/splat"
	"depthd/internal/stereo"
	"depthd/internal/video"
	"depthd/pkg/types"
)

// rampBackend returns a gradient depth map so SBS output is non-trivial.
type rampBackend struct{}

func (rampBackend) Infer(ctx context.Context, img image.Image) (*stereo.DepthMap, error) {
	b := img.Bounds()
	d := stereo.NewDepthMap(b.Dx(), b.Dy())
	for y := 0; y < d.H; y++ {
		for x := 0; x < d.W; x++ {
			d.Pix[y*d.W+x] = float32(x)
		}
	}
	return d, nil
}

func (rampBackend) Close() error { return nil }

type rampFactory struct{}

func (rampFactory) New(ctx context.Context, v registry.Variant, dev device.Choice) (manager.Backend, error) {
	return rampBackend{}, nil
}

func (rampFactory) Download(ctx context.Context, v registry.Variant) error { return nil }

func (rampFactory) Reclaim(device.Choice) {}

// stubTools implements the frame decoder/encoder contract on the local
// filesystem so the whole stack runs without ffmpeg.
type stubTools struct{ frames int }

func (s *stubTools) write(dir, pattern string) ([]string, error) {
	var out []string
	for i := 1; i <= s.frames; i++ {
		img := imaging.New(12, 8, color.NRGBA{R: uint8(20 * i), A: 255})
		p := filepath.Join(dir, fmt.Sprintf(pattern, i))
		if err := imaging.Save(img, p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *stubTools) ExtractSample(ctx context.Context, videoPath, dir string, method video.ExtractMethod, fps, maxFrames int) ([]string, error) {
	return s.write(dir, "frame_%04d.png")
}

func (s *stubTools) ExtractAll(ctx context.Context, videoPath, dir string) ([]string, error) {
	return s.write(dir, "frame_%06d.png")
}

func (s *stubTools) ProbeFPS(ctx context.Context, videoPath string) float64 { return 30 }

func (s *stubTools) EncodeSBS(ctx context.Context, job video.EncodeJob) error {
	return os.WriteFile(job.OutPath, []byte("encoded"), 0o644)
}

func newStack(t *testing.T) (*manager.Manager, http.Handler) {
	t.Helper()
	log := zerolog.Nop()
	cat, err := registry.New(registry.DefaultVariants(), "small")
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	cache, err := registry.NewCache(t.TempDir())
	if err != nil {
		t.Fatalf("cache: %v", err)
	}
	sel := &device.Selector{
		CUDAAvailable:  func() bool { return false },
		MetalAvailable: func() bool { return false },
		Log:            log,
	}
	mgr := manager.New(manager.Config{
		Catalog:  cat,
		Cache:    cache,
		Selector: sel,
		Factory:  rampFactory{},
		Log:      log,
	})
	sp := splat.New(splat.Config{
		CheckpointDir: t.TempDir(),
		Selector:      sel,
		Log:           log,
	})
	proc := video.NewProcessor(mgr, &stubTools{frames: 4}, log)
	return mgr, httpapi.NewMux(httpapi.Services{Depth: mgr, Splat: sp, Video: proc})
}

func postImage(t *testing.T, srv *httptest.Server, path string) *http.Response {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 12, 8))
	var pngBuf bytes.Buffer
	if err := png.Encode(&pngBuf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, _ := mw.CreateFormFile("image", "photo.png")
	fw.Write(pngBuf.Bytes())
	mw.Close()
	resp, err := http.Post(srv.URL+path, mw.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("post %s: %v", path, err)
	}
	return resp
}

func TestFullStackDepthFlow(t *testing.T) {
	mgr, mux := newStack(t)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	// Catalog listing before anything is loaded.
	resp, err := http.Get(srv.URL + "/api/models")
	if err != nil {
		t.Fatalf("get models: %v", err)
	}
	var models types.ModelsResponse
	json.NewDecoder(resp.Body).Decode(&models)
	resp.Body.Close()
	if len(models.Models) != 4 { // small, base, large + sharp
		t.Fatalf("expected 4 catalog entries, got %d", len(models.Models))
	}
	if models.CurrentModel != "" {
		t.Fatalf("nothing should be loaded yet")
	}

	// Explicit load of the base variant.
	resp, err = http.Post(srv.URL+"/api/models/base/load", "application/json", bytes.NewBufferString(`{"device":"cpu"}`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("load status %d", resp.StatusCode)
	}
	if mgr.CurrentVariant() != "base" {
		t.Fatalf("manager resident %q", mgr.CurrentVariant())
	}

	// Depth prediction against the resident model.
	resp = postImage(t, srv, "/api/depth")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("depth status %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Model-Used") != "base" {
		t.Fatalf("X-Model-Used = %q", resp.Header.Get("X-Model-Used"))
	}
	if _, err := png.Decode(resp.Body); err != nil {
		t.Fatalf("depth response is not a PNG: %v", err)
	}

	// Status reflects residency and reports the resident key downloaded.
	resp, err = http.Get(srv.URL + "/status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	var st types.StatusResponse
	json.NewDecoder(resp.Body).Decode(&st)
	resp.Body.Close()
	if !st.Loaded || st.CurrentModel != "base" || st.Device != "cpu" {
		t.Fatalf("unexpected status: %+v", st)
	}
	found := false
	for _, k := range st.DownloadedModels {
		if k == "base" {
			found = true
		}
	}
	if !found {
		t.Fatalf("resident model missing from downloaded list: %+v", st.DownloadedModels)
	}
}

func TestFullStackLazyLoadViaPredict(t *testing.T) {
	mgr, mux := newStack(t)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	if mgr.Loaded() {
		t.Fatalf("should start unloaded")
	}
	resp := postImage(t, srv, "/api/depth?model=large")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("depth status %d", resp.StatusCode)
	}
	if mgr.CurrentVariant() != "large" {
		t.Fatalf("lazy load resident %q", mgr.CurrentVariant())
	}
}

func TestFullStackStereoVideo(t *testing.T) {
	_, mux := newStack(t)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, _ := mw.CreateFormFile("video", "clip.mp4")
	fw.Write([]byte("fake-mp4"))
	mw.Close()

	resp, err := http.Post(srv.URL+"/api/video/sbs?batch_size=2", mw.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("sbs: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("sbs status %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Frames-Processed") != "4" {
		t.Fatalf("frames processed header %q", resp.Header.Get("X-Frames-Processed"))
	}
}

func TestFullStackSplatStatus(t *testing.T) {
	_, mux := newStack(t)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/splat/status")
	if err != nil {
		t.Fatalf("splat status: %v", err)
	}
	defer resp.Body.Close()
	var st map[string]any
	json.NewDecoder(resp.Body).Decode(&st)
	if st["model_key"] != "sharp" || st["is_downloaded"] != false {
		t.Fatalf("unexpected splat status: %+v", st)
	}
}
