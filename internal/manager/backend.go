package manager

import (
	"context"
	"image"

	"depthd/internal/device"
	"depthd/internal/registry"
	"depthd/internal/stereo"
)

// Backend is one instantiated depth-estimation model. Implementations are
// opaque to the manager; Infer returns a single-channel map in arbitrary
// relative scale.
type Backend interface {
	Infer(ctx context.Context, img image.Image) (*stereo.DepthMap, error)
	// Close releases the backend's device memory.
	Close() error
}

// BackendFactory instantiates backends and manages their weight artifacts.
// A factory is injected at manager construction; tests substitute a fake.
type BackendFactory interface {
	// New loads the variant onto the given device. A failed load must not
	// leave device memory allocated.
	New(ctx context.Context, v registry.Variant, dev device.Choice) (Backend, error)
	// Download fetches the variant's weights into the local cache without
	// loading them. A failed download must not leave partial artifacts.
	Download(ctx context.Context, v registry.Variant) error
	// Reclaim asks the device runtime to release freed memory. Called after
	// unloads and at batch-window boundaries, not per tensor.
	Reclaim(dev device.Choice)
}
