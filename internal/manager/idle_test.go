package manager

import (
	"context"
	"sync"
	"testing"
	"time"

	"depthd/internal/device"
)

func TestEvictIfIdlePastTimeout(t *testing.T) {
	f := &fakeFactory{}
	m := newTestManager(t, f)
	m.idleTimeout = 30 * time.Minute
	if err := m.Load(context.Background(), "small", device.PrefAuto); err != nil {
		t.Fatalf("load: %v", err)
	}
	// 31 minutes idle at the tick: model must be evicted.
	if !m.evictIfIdle(time.Now().Add(31 * time.Minute)) {
		t.Fatalf("expected eviction")
	}
	if m.Loaded() {
		t.Fatalf("expected unloaded after eviction")
	}
}

func TestEvictIfIdleWithinTimeout(t *testing.T) {
	f := &fakeFactory{}
	m := newTestManager(t, f)
	m.idleTimeout = 30 * time.Minute
	if err := m.Load(context.Background(), "small", device.PrefAuto); err != nil {
		t.Fatalf("load: %v", err)
	}
	if m.evictIfIdle(time.Now().Add(29 * time.Minute)) {
		t.Fatalf("eviction before timeout")
	}
	if !m.Loaded() {
		t.Fatalf("model must stay resident")
	}
}

func TestEvictIfIdleUnloadedNoop(t *testing.T) {
	m := newTestManager(t, &fakeFactory{})
	if m.evictIfIdle(time.Now().Add(time.Hour)) {
		t.Fatalf("nothing to evict")
	}
}

// The monitor tick must never unload a model mid-prediction: the tick and the
// predict path share one mutex, so a contended tick skips.
func TestEvictionNeverOverlapsPredict(t *testing.T) {
	f := &fakeFactory{delay: 100 * time.Millisecond}
	m := newTestManager(t, f)
	m.idleTimeout = time.Nanosecond
	if err := m.Load(context.Background(), "small", device.PrefAuto); err != nil {
		t.Fatalf("load: %v", err)
	}

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				m.evictIfIdle(time.Now().Add(time.Hour))
			}
		}
	}()

	for i := 0; i < 10; i++ {
		if _, err := m.Predict(context.Background(), testImage(), "small"); err != nil {
			// A predict may lazily reload after an eviction between calls,
			// but must never fail from racing the monitor.
			t.Fatalf("predict %d: %v", i, err)
		}
	}
	close(stop)
	wg.Wait()
}

func TestStartIdleMonitorStopsOnCancel(t *testing.T) {
	f := &fakeFactory{}
	m := newTestManager(t, f)
	m.idleTick = 10 * time.Millisecond
	m.idleTimeout = time.Nanosecond
	if err := m.Load(context.Background(), "small", device.PrefAuto); err != nil {
		t.Fatalf("load: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.StartIdleMonitor(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for m.Loaded() {
		if time.Now().After(deadline) {
			t.Fatalf("monitor never evicted the idle model")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
}
