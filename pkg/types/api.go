package types

// ModelInfo describes one depth-model variant from the catalog for API consumers.
type ModelInfo struct {
	// Stable catalog key used to select the variant.
	// example: small
	Key string `json:"key" example:"small"`
	// Human-readable variant name.
	// example: Small
	Name string `json:"name" example:"Small"`
	// Model kind: "depth" or "splat".
	// example: depth
	Type string `json:"type" example:"depth"`
	// Upstream model identifier.
	// example: depth-anything/Depth-Anything-V2-Small-hf
	ExternalID string `json:"external_id" example:"depth-anything/Depth-Anything-V2-Small-hf"`
	// Approximate parameter count.
	// example: 25M
	Params string `json:"params" example:"25M"`
	// Approximate resident memory footprint.
	// example: ~100MB
	Memory string `json:"memory" example:"~100MB"`
	// Short description of the variant's quality/speed trade-off.
	Description string `json:"description,omitempty"`
	// Whether this variant is the one currently resident in memory.
	IsLoaded bool `json:"is_loaded"`
	// Whether the variant's weights are present in the local cache.
	IsDownloaded bool `json:"is_downloaded"`
}

// ModelsResponse wraps the list of models returned by GET /api/models.
type ModelsResponse struct {
	Models []ModelInfo `json:"models"`
	// Key of the currently resident model, if any.
	CurrentModel string `json:"current_model,omitempty"`
	// Resolved device of the resident model: cpu, cuda or metal.
	CurrentDevice string `json:"current_device,omitempty"`
	// Variant used when requests omit a model key.
	DefaultModel string `json:"default_model"`
}

// StatusResponse is returned by GET /status and GET /api/models/current.
type StatusResponse struct {
	// True when a model is resident in device memory.
	Loaded bool `json:"loaded"`
	// Catalog key of the resident variant, empty when unloaded.
	CurrentModel string `json:"current_model,omitempty"`
	// Resolved device of the resident model: cpu, cuda or metal.
	Device string `json:"device,omitempty"`
	// Unix seconds when the resident model finished loading.
	LoadedAtUnix int64 `json:"loaded_at_unix,omitempty"`
	// Unix seconds of the last prediction against the resident model.
	LastUsedUnix int64 `json:"last_used_unix,omitempty"`
	// Variant used when requests omit a model key.
	DefaultModel string `json:"default_model"`
	// All catalog keys.
	AvailableModels []string `json:"available_models"`
	// Catalog keys whose weights are present in the local cache.
	DownloadedModels []string `json:"downloaded_models"`
}

// LoadRequest selects the target device for POST /api/models/{key}/load.
type LoadRequest struct {
	// Device preference: auto, cpu or gpu. Defaults to auto.
	// example: auto
	Device string `json:"device,omitempty" example:"auto"`
}

// StereoVideoRequest carries the tunables for the SBS conversion endpoint.
type StereoVideoRequest struct {
	// Parallax magnitude in pixels at the nearest depth.
	// example: 2.0
	Divergence float64 `json:"divergence,omitempty" example:"2.0"`
	// SBS layout: full (double width) or half (per-eye downsample).
	// example: full
	Format string `json:"format,omitempty" example:"full"`
	// Output video codec: h264 or hevc.
	// example: h264
	Codec string `json:"codec,omitempty" example:"h264"`
	// Frames processed per memory-reclamation window.
	// example: 10
	BatchSize int `json:"batch_size,omitempty" example:"10"`
}

// DepthArchiveRequest carries the tunables for the depth archive endpoint.
type DepthArchiveRequest struct {
	// Sampling rate in frames per second for interval extraction.
	// example: 1
	FPS int `json:"fps,omitempty" example:"1"`
	// Upper bound on extracted frames.
	// example: 30
	MaxFrames int `json:"max_frames,omitempty" example:"30"`
	// Extraction method: interval or keyframes.
	// example: interval
	Method string `json:"method,omitempty" example:"interval"`
}

// OKResponse is the generic success payload for mutation endpoints.
type OKResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	// Key of the resident model after the operation, when relevant.
	CurrentModel string `json:"current_model,omitempty"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: unknown model variant: huge
	Error string `json:"error" example:"unknown model variant: huge"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}
