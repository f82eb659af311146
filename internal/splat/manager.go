// Package splat manages the single heavyweight Gaussian-splat generation
// model. The model runs as an external CLI; this manager owns checkpoint
// download bookkeeping, residency under the idle-eviction policy, and the
// typed subprocess contract for inference.
package splat

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"depthd/internal/common/fsutil"
	"depthd/internal/device"
	"depthd/internal/xproc"
)

const (
	// CheckpointURL is the fixed remote location of the model weights.
	CheckpointURL = "https://ml-site.cdn-apple.com/models/sharp/sharp_2572gikvuh.pt"
	// CheckpointFilename is the deterministic cache file name.
	CheckpointFilename = "sharp_2572gikvuh.pt"

	defaultBin             = "sharp"
	defaultInferTimeout    = 300 * time.Second
	defaultDownloadTimeout = 600 * time.Second
	defaultIdleTimeout     = 30 * time.Minute
	defaultIdleTick        = 60 * time.Second
)

// runFunc invokes one external command; tests substitute a fake.
type runFunc func(ctx context.Context, c xproc.Cmd) ([]byte, error)

// resident marks the splat model as warm on a device. The CLI stages weights
// through host memory before the accelerator transfer, so residency here
// tracks checkpoint warmth rather than an in-process handle.
type resident struct {
	dev      device.Choice
	loadedAt time.Time
	lastUsed time.Time
}

// Config encapsulates all tunables for Manager construction.
type Config struct {
	// Bin is the splat CLI binary name. Defaults to "sharp".
	Bin string
	// CheckpointDir is where the downloaded checkpoint lives.
	CheckpointDir string
	Selector      *device.Selector
	IdleTimeout   time.Duration
	IdleTick      time.Duration
	InferTimeout  time.Duration
	Log           zerolog.Logger
}

// Manager owns the splat model lifecycle. Same transition rules as the depth
// manager: one resident instance, one mutex over the whole critical section.
type Manager struct {
	mu            sync.Mutex
	res           *resident
	bin           string
	checkpointDir string
	selector      *device.Selector

	idleTimeout  time.Duration
	idleTick     time.Duration
	inferTimeout time.Duration
	log          zerolog.Logger
	now          func() time.Time
	run          runFunc
	lookPath     func(string) bool
}

// New constructs a Manager from Config, applying package defaults.
func New(cfg Config) *Manager {
	m := &Manager{
		bin:           cfg.Bin,
		checkpointDir: cfg.CheckpointDir,
		selector:      cfg.Selector,
		idleTimeout:   cfg.IdleTimeout,
		idleTick:      cfg.IdleTick,
		inferTimeout:  cfg.InferTimeout,
		log:           cfg.Log,
		now:           time.Now,
		run:           xproc.Run,
		lookPath:      xproc.LookPath,
	}
	if m.bin == "" {
		m.bin = defaultBin
	}
	if p, err := fsutil.ExpandHome(m.checkpointDir); err == nil {
		m.checkpointDir = p
	}
	if m.idleTimeout <= 0 {
		m.idleTimeout = defaultIdleTimeout
	}
	if m.idleTick <= 0 {
		m.idleTick = defaultIdleTick
	}
	if m.inferTimeout <= 0 {
		m.inferTimeout = defaultInferTimeout
	}
	return m
}

// Load marks the model resident on the resolved device, downloading the
// checkpoint first when absent. No-op when already resident on the same
// device.
func (m *Manager) Load(ctx context.Context, pref device.Preference) error {
	if !m.mu.TryLock() {
		return busyError{op: "load"}
	}
	defer m.mu.Unlock()
	return m.loadLocked(ctx, pref)
}

func (m *Manager) loadLocked(ctx context.Context, pref device.Preference) error {
	dev := m.selector.Resolve(pref)
	if m.res != nil && m.res.dev == dev {
		return nil
	}
	if err := m.ensureDownloadedLocked(ctx); err != nil {
		return err
	}
	m.unloadLocked()
	now := m.now()
	m.res = &resident{dev: dev, loadedAt: now, lastUsed: now}
	m.log.Info().Str("device", string(dev)).Msg("splat model loaded")
	return nil
}

// Unload drops residency and returns freed host memory to the OS.
func (m *Manager) Unload() error {
	if !m.mu.TryLock() {
		return busyError{op: "unload"}
	}
	defer m.mu.Unlock()
	m.unloadLocked()
	return nil
}

func (m *Manager) unloadLocked() {
	if m.res == nil {
		return
	}
	dev := m.res.dev
	m.res = nil
	debug.FreeOSMemory()
	m.log.Info().Str("device", string(dev)).Msg("splat model unloaded")
}

// StartIdleMonitor runs the idle-eviction loop until ctx is canceled.
func (m *Manager) StartIdleMonitor(ctx context.Context) {
	go func() {
		t := time.NewTicker(m.idleTick)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				m.evictIfIdle(m.now())
			}
		}
	}()
}

func (m *Manager) evictIfIdle(now time.Time) bool {
	if !m.mu.TryLock() {
		return false
	}
	defer m.mu.Unlock()
	if m.res == nil || now.Sub(m.res.lastUsed) <= m.idleTimeout {
		return false
	}
	m.log.Info().Dur("idle", now.Sub(m.res.lastUsed)).Msg("idle timeout, evicting splat model")
	m.unloadLocked()
	return true
}

// Status reports residency and download state.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := Status{Downloaded: m.downloaded()}
	if m.res != nil {
		st.Loaded = true
		st.Device = string(m.res.dev)
	}
	return st
}

// Status is the splat manager's state snapshot.
type Status struct {
	Loaded     bool   `json:"loaded"`
	Downloaded bool   `json:"downloaded"`
	Device     string `json:"device,omitempty"`
}
