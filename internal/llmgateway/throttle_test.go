package llmgateway

import (
	"testing"
	"time"
)

func TestThrottle_FirstCallNeverWaits(t *testing.T) {
	tr := newThrottle(10 * time.Second)
	slept := false
	tr.sleep = func(time.Duration) { slept = true }
	tr.wait()
	if slept {
		t.Error("expected first call not to sleep")
	}
}

func TestThrottle_WaitsRemainingInterval(t *testing.T) {
	tr := newThrottle(5 * time.Second)
	base := time.Unix(1000, 0)
	tr.now = func() time.Time { return base }
	tr.wait() // establishes lastCall at `base`

	var slept time.Duration
	tr.sleep = func(d time.Duration) { slept = d }
	tr.now = func() time.Time { return base.Add(2 * time.Second) }
	tr.wait()

	if slept != 3*time.Second {
		t.Errorf("expected to sleep remaining 3s, got %v", slept)
	}
}

func TestThrottle_NoWaitWhenIntervalElapsed(t *testing.T) {
	tr := newThrottle(1 * time.Second)
	base := time.Unix(2000, 0)
	tr.now = func() time.Time { return base }
	tr.wait()

	slept := false
	tr.sleep = func(time.Duration) { slept = true }
	tr.now = func() time.Time { return base.Add(5 * time.Second) }
	tr.wait()

	if slept {
		t.Error("expected no sleep once interval has already elapsed")
	}
}

func TestThrottle_DisabledWhenIntervalZero(t *testing.T) {
	tr := newThrottle(0)
	slept := false
	tr.sleep = func(time.Duration) { slept = true }
	tr.wait()
	tr.wait()
	if slept {
		t.Error("expected disabled throttle never to sleep")
	}
}
