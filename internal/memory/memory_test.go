package memory

import (
	"sync/atomic"
	"testing"
	"time"

	"survey-viewer/internal/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/goleak"
)

const testLimit = 100 << 20

// newTestMonitor returns a monitor whose heap reading is controlled by alloc.
func newTestMonitor(alloc *atomic.Uint64) *Monitor {
	m := NewMonitor(Config{
		LimitBytes:        testLimit,
		HighWaterMark:     0.7,
		CriticalWaterMark: 0.85,
		CheckInterval:     10 * time.Millisecond,
	})
	m.readAlloc = alloc.Load
	return m
}

func fraction(f float64) uint64 {
	return uint64(f * testLimit)
}

func TestNewMonitor(t *testing.T) {
	t.Run("explicit limit", func(t *testing.T) {
		m := NewMonitor(Config{LimitBytes: testLimit, CheckInterval: time.Second})
		if m.Limit() != testLimit {
			t.Errorf("Limit() = %d, want %d", m.Limit(), testLimit)
		}
	})

	t.Run("zero interval uses default", func(t *testing.T) {
		m := NewMonitor(Config{LimitBytes: testLimit})
		if m.config.CheckInterval != DefaultConfig().CheckInterval {
			t.Errorf("CheckInterval = %v", m.config.CheckInterval)
		}
	})
}

func TestMonitorThresholds(t *testing.T) {
	var alloc atomic.Uint64
	m := newTestMonitor(&alloc)

	steps := []struct {
		usage        float64
		wantThrottle bool
		wantPaused   bool
	}{
		{0.5, false, false},
		{0.75, true, false},
		{0.9, true, true},
		{0.8, true, true}, // stays paused until below the high mark
		{0.6, false, false},
	}

	for _, step := range steps {
		alloc.Store(fraction(step.usage))
		m.check()

		if got := m.ShouldThrottle(); got != step.wantThrottle {
			t.Errorf("usage %.2f: ShouldThrottle() = %v, want %v", step.usage, got, step.wantThrottle)
		}
		if got := m.IsPaused(); got != step.wantPaused {
			t.Errorf("usage %.2f: IsPaused() = %v, want %v", step.usage, got, step.wantPaused)
		}
		if got := m.Usage(); got < step.usage-0.01 || got > step.usage+0.01 {
			t.Errorf("Usage() = %.3f, want %.2f", got, step.usage)
		}
	}
}

func TestMonitorMetrics(t *testing.T) {
	var alloc atomic.Uint64
	m := newTestMonitor(&alloc)
	before := testutil.ToFloat64(metrics.MemoryGCPauses)

	alloc.Store(fraction(0.9))
	m.check()
	if testutil.ToFloat64(metrics.MemoryPaused) != 1 {
		t.Error("MemoryPaused should be 1 while paused")
	}
	if testutil.ToFloat64(metrics.MemoryGCPauses) != before+1 {
		t.Error("MemoryGCPauses should increment on pause")
	}

	alloc.Store(fraction(0.1))
	m.check()
	if testutil.ToFloat64(metrics.MemoryPaused) != 0 {
		t.Error("MemoryPaused should be 0 after recovery")
	}
}

func TestWaitIfPausedResumes(t *testing.T) {
	var alloc atomic.Uint64
	m := newTestMonitor(&alloc)

	if !m.WaitIfPaused() {
		t.Fatal("WaitIfPaused should return immediately when not paused")
	}

	alloc.Store(fraction(0.95))
	m.check()

	done := make(chan bool, 1)
	go func() { done <- m.WaitIfPaused() }()

	select {
	case <-done:
		t.Fatal("WaitIfPaused returned while paused")
	case <-time.After(20 * time.Millisecond):
	}

	alloc.Store(fraction(0.1))
	m.check()

	select {
	case ok := <-done:
		if !ok {
			t.Error("WaitIfPaused = false after recovery, want true")
		}
	case <-time.After(time.Second):
		t.Fatal("WaitIfPaused did not return after recovery")
	}
}

func TestWaitIfPausedReleasedByStop(t *testing.T) {
	var alloc atomic.Uint64
	m := newTestMonitor(&alloc)

	alloc.Store(fraction(0.95))
	m.check()

	done := make(chan bool, 1)
	go func() { done <- m.WaitIfPaused() }()

	m.Stop()
	m.Stop() // idempotent

	select {
	case ok := <-done:
		if ok {
			t.Error("WaitIfPaused = true after Stop, want false")
		}
	case <-time.After(time.Second):
		t.Fatal("WaitIfPaused did not return after Stop")
	}
}

func TestMonitorStartStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	var alloc atomic.Uint64
	alloc.Store(fraction(0.75))
	m := newTestMonitor(&alloc)
	m.Start()

	deadline := time.Now().Add(time.Second)
	for !m.ShouldThrottle() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if !m.ShouldThrottle() {
		t.Error("background sampling never observed usage")
	}

	m.Stop()
	time.Sleep(20 * time.Millisecond)
}

func TestMonitorWithoutLimit(t *testing.T) {
	m := &Monitor{config: DefaultConfig(), stop: make(chan struct{}), resume: make(chan struct{})}
	m.Start()
	defer m.Stop()

	if m.ShouldThrottle() || m.IsPaused() || m.Usage() != 0 {
		t.Error("monitor without a limit must never throttle")
	}
	if !m.WaitIfPaused() {
		t.Error("WaitIfPaused should not block without a limit")
	}
}
