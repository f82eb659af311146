package manager

import (
	"context"
	"image"

	"depthd/internal/device"
	"depthd/internal/stereo"
)

// Predict runs depth estimation. An empty key selects the default variant.
// An unloaded manager lazily loads the target; a resident model with a
// different key is switched out first. Lazy-load and switch failures surface
// as inference failures, never as a partially executed call.
//
// Predict blocks while a load or another prediction is in flight; the lock
// also excludes the idle monitor, so the resident model cannot be evicted
// mid-prediction.
func (m *Manager) Predict(ctx context.Context, img image.Image, key string) (*stereo.DepthMap, error) {
	if key == "" {
		key = m.cat.DefaultKey()
	}
	v, ok := m.cat.Get(key)
	if !ok {
		return nil, ErrVariantNotFound(key)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.res == nil || m.res.variant.Key != v.Key {
		if err := m.loadLocked(ctx, v, device.PrefAuto); err != nil {
			return nil, inferenceError{err: err}
		}
	}
	m.res.lastUsed = m.now()
	out, err := m.res.backend.Infer(ctx, img)
	if err != nil {
		return nil, inferenceError{err: err}
	}
	m.res.lastUsed = m.now()
	predictionsTotal.Inc()
	return out, nil
}
