package manager

import (
	"context"

	"depthd/internal/device"
	"depthd/internal/registry"
)

// Load makes the given variant resident on the resolved device. It is a no-op
// when the same variant is already resident on the same device; any other
// resident instance is fully released first. A failed load reverts the
// manager to unloaded.
func (m *Manager) Load(ctx context.Context, key string, pref device.Preference) error {
	v, ok := m.cat.Get(key)
	if !ok {
		return ErrVariantNotFound(key)
	}
	if !m.mu.TryLock() {
		return busyError{op: "load " + key}
	}
	defer m.mu.Unlock()
	return m.loadLocked(ctx, v, pref)
}

// Switch is Load under its operational name: replacing the resident key
// always implies unload-then-load.
func (m *Manager) Switch(ctx context.Context, key string, pref device.Preference) error {
	return m.Load(ctx, key, pref)
}

// Unload releases the resident model, if any, and requests device-memory
// reclamation.
func (m *Manager) Unload() error {
	if !m.mu.TryLock() {
		return busyError{op: "unload"}
	}
	defer m.mu.Unlock()
	m.unloadLocked()
	return nil
}

// loadLocked performs the load transition. Callers hold m.mu.
func (m *Manager) loadLocked(ctx context.Context, v registry.Variant, pref device.Preference) error {
	dev := m.selector.Resolve(pref)
	if m.res != nil && m.res.variant.Key == v.Key && m.res.dev == dev {
		m.log.Debug().Str("model", v.Key).Str("device", string(dev)).Msg("load no-op, already resident")
		return nil
	}
	// Release the previous instance before acquiring the new one; two resident
	// models would double the peak footprint.
	m.unloadLocked()

	m.log.Info().Str("model", v.Key).Str("device", string(dev)).Msg("loading model")
	b, err := m.factory.New(ctx, v, dev)
	if err != nil {
		m.res = nil
		m.log.Error().Str("model", v.Key).Err(err).Msg("model load failed")
		return loadError{key: v.Key, err: err}
	}
	now := m.now()
	m.res = &resident{variant: v, dev: dev, backend: b, loadedAt: now, lastUsed: now}
	loadsTotal.Inc()
	m.log.Info().Str("model", v.Key).Str("device", string(dev)).Msg("model loaded")
	return nil
}

// unloadLocked releases the resident instance. Callers hold m.mu.
func (m *Manager) unloadLocked() {
	if m.res == nil {
		return
	}
	key, dev := m.res.variant.Key, m.res.dev
	if err := m.res.backend.Close(); err != nil {
		m.log.Warn().Str("model", key).Err(err).Msg("backend close error")
	}
	m.res = nil
	m.factory.Reclaim(dev)
	unloadsTotal.Inc()
	m.log.Info().Str("model", key).Str("device", string(dev)).Msg("model unloaded")
}
