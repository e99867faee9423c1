package pose

import "time"

// DefaultFrameRate is the target detection rate.
const DefaultFrameRate = 30

// Throttle gates frames to a target rate by their timestamps. Frames that
// arrive sooner than the interval after the last accepted frame are dropped.
type Throttle struct {
	interval time.Duration
	last     time.Duration
	started  bool
	dropped  uint64
}

// NewThrottle returns a Throttle for fps frames per second. fps <= 0 accepts
// every frame.
func NewThrottle(fps int) *Throttle {
	t := &Throttle{}
	if fps > 0 {
		t.interval = time.Second / time.Duration(fps)
	}
	return t
}

// Allow reports whether the frame at ts should be processed.
func (t *Throttle) Allow(ts time.Duration) bool {
	if t.started && ts >= t.last && ts-t.last < t.interval {
		t.dropped++
		return false
	}
	t.started = true
	t.last = ts
	return true
}

// Dropped returns how many frames were rejected.
func (t *Throttle) Dropped() uint64 {
	return t.dropped
}

// Reset forgets the last accepted timestamp.
func (t *Throttle) Reset() {
	t.started = false
	t.last = 0
}
