package manager

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"depthd/internal/device"
	"depthd/internal/registry"
)

// resident is the single currently loaded model instance. Exactly zero or one
// exists per manager at any time.
type resident struct {
	variant  registry.Variant
	dev      device.Choice
	backend  Backend
	loadedAt time.Time
	lastUsed time.Time
}

// Manager owns at most one resident depth model and serializes every
// transition against it.
type Manager struct {
	mu       sync.Mutex
	res      *resident
	cat      *registry.Catalog
	cache    *registry.Cache
	selector *device.Selector
	factory  BackendFactory

	idleTimeout time.Duration
	idleTick    time.Duration
	log         zerolog.Logger
	now         func() time.Time
}

// Loaded reports whether a model is currently resident.
func (m *Manager) Loaded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.res != nil
}

// CurrentVariant returns the resident variant key, or "" when unloaded.
func (m *Manager) CurrentVariant() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.res == nil {
		return ""
	}
	return m.res.variant.Key
}

// Catalog exposes the variant catalog backing this manager.
func (m *Manager) Catalog() *registry.Catalog { return m.cat }

// Cache exposes the weight cache backing this manager.
func (m *Manager) Cache() *registry.Cache { return m.cache }

// Reclaim requests coalesced device-memory reclamation. The video pipeline
// calls this at batch-window boundaries.
func (m *Manager) Reclaim() {
	m.mu.Lock()
	dev := device.CPU
	if m.res != nil {
		dev = m.res.dev
	}
	m.mu.Unlock()
	m.factory.Reclaim(dev)
	reclaimsTotal.Inc()
}
