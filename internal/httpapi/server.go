package httpapi

import (
	"context"
	"encoding/json"
	"image"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"depthd/internal/device"
	"depthd/internal/splat"
	"depthd/internal/stereo"
	"depthd/internal/video"
	"depthd/pkg/types"
)

// DepthService is the slice of the depth-model manager the HTTP layer needs.
// *manager.Manager satisfies it.
type DepthService interface {
	Predict(ctx context.Context, img image.Image, key string) (*stereo.DepthMap, error)
	Load(ctx context.Context, key string, pref device.Preference) error
	Unload() error
	Download(ctx context.Context, key string) error
	Delete(key string) (bool, error)
	Status() types.StatusResponse
	Models() []types.ModelInfo
	CurrentVariant() string
	Loaded() bool
}

// SplatService is the slice of the splat manager the HTTP layer needs.
// *splat.Manager satisfies it.
type SplatService interface {
	Predict(ctx context.Context, imagePath, outputDir string) (string, error)
	Load(ctx context.Context, pref device.Preference) error
	Unload() error
	EnsureDownloaded(ctx context.Context) error
	Downloaded() bool
	DeleteCheckpoint() (bool, error)
	CheckpointPath() string
	Status() splat.Status
}

// VideoService is the video pipeline surface. *video.Processor satisfies it.
type VideoService interface {
	DepthArchive(ctx context.Context, videoPath string, opts video.ArchiveOptions) ([]byte, error)
	StereoVideo(ctx context.Context, videoPath string, opts video.StereoOptions) (video.StereoResult, error)
}

// Services bundles the collaborators injected into the router.
type Services struct {
	Depth DepthService
	Splat SplatService
	Video VideoService
}

func NewMux(svc Services) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	// Compression for JSON endpoints
	r.Use(middleware.Compress(5))
	r.Use(MetricsMiddleware)
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
		}))
	}

	r.Get("/", handleIndex)
	r.Get("/health", handleHealth(svc.Depth))
	r.Get("/status", handleStatus(svc.Depth))

	r.Route("/api/models", func(r chi.Router) {
		r.Get("/", handleListModels(svc.Depth, svc.Splat))
		r.Get("/current", handleStatus(svc.Depth))
		r.Post("/{key}/load", handleLoadModel(svc.Depth, svc.Splat))
		r.Post("/{key}/download", handleDownloadModel(svc.Depth, svc.Splat))
		r.Post("/{key}/unload", handleUnloadModel(svc.Depth, svc.Splat))
		r.Delete("/{key}", handleDeleteModel(svc.Depth, svc.Splat))
	})

	r.Post("/api/depth", handleDepth(svc.Depth))

	r.Post("/api/splat", handleSplat(svc.Splat))
	r.Get("/api/splat/status", handleSplatStatus(svc.Splat))
	r.Post("/api/splat/download", handleSplatDownload(svc.Splat))

	r.Post("/api/video/depth", handleVideoDepth(svc.Video))
	r.Post("/api/video/sbs", handleVideoSBS(svc.Video))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		// Ready as soon as the router is serving; models load lazily.
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ready"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)

	return r
}

func handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "depthd",
		"endpoints": map[string]string{
			"health":      "/health",
			"models":      "/api/models (GET)",
			"depth":       "/api/depth (POST)",
			"splat":       "/api/splat (POST)",
			"video_depth": "/api/video/depth (POST)",
			"video_sbs":   "/api/video/sbs (POST)",
			"metrics":     "/metrics",
		},
	})
}

func handleHealth(depth DepthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		modelStatus := "not_loaded"
		if depth.Loaded() {
			modelStatus = "loaded"
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"status":       "healthy",
			"service":      "depthd",
			"model_status": modelStatus,
		})
	}
}

func handleStatus(depth DepthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, depth.Status())
	}
}

// writeJSON encodes v with a JSON content type. Encoding failures after the
// header is written can only be logged.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logError(err, "encode response")
	}
}
