package manager

import (
	"context"
	"time"
)

// StartIdleMonitor runs the idle-eviction loop until ctx is canceled. Each
// tick evicts the resident model once its idle span exceeds the configured
// timeout.
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

// evictIfIdle performs one monitor tick. TryLock keeps the tick from ever
// overlapping an in-flight prediction or load; a contended tick is simply
// skipped and retried on the next interval.
func (m *Manager) evictIfIdle(now time.Time) bool {
	if !m.mu.TryLock() {
		return false
	}
	defer m.mu.Unlock()
	if m.res == nil {
		return false
	}
	idle := now.Sub(m.res.lastUsed)
	if idle <= m.idleTimeout {
		return false
	}
	m.log.Info().
		Str("model", m.res.variant.Key).
		Dur("idle", idle).
		Dur("timeout", m.idleTimeout).
		Msg("idle timeout, evicting model")
	m.unloadLocked()
	evictionsTotal.Inc()
	return true
}
