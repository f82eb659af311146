package manager

import (
	"time"

	"github.com/rs/zerolog"

	"depthd/internal/device"
	"depthd/internal/registry"
)

// Defaults applied when corresponding Config fields are unset.
const (
	defaultIdleTimeout = 30 * time.Minute
	defaultIdleTick    = 60 * time.Second
)

// Config encapsulates all tunables for Manager construction.
type Config struct {
	Catalog  *registry.Catalog
	Cache    *registry.Cache
	Selector *device.Selector
	Factory  BackendFactory
	// IdleTimeout is the idle span after which the resident model is evicted.
	IdleTimeout time.Duration
	// IdleTick is the monitor's check interval.
	IdleTick time.Duration
	Log      zerolog.Logger
}

// New constructs a Manager from Config, applying package defaults.
func New(cfg Config) *Manager {
	m := &Manager{
		cat:         cfg.Catalog,
		cache:       cfg.Cache,
		selector:    cfg.Selector,
		factory:     cfg.Factory,
		idleTimeout: cfg.IdleTimeout,
		idleTick:    cfg.IdleTick,
		log:         cfg.Log,
		now:         time.Now,
	}
	if m.idleTimeout <= 0 {
		m.idleTimeout = defaultIdleTimeout
	}
	if m.idleTick <= 0 {
		m.idleTick = defaultIdleTick
	}
	return m
}
