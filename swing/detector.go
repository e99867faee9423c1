// Package swing detects swing phases from pose landmarks and computes the
// backswing to downswing tempo ratio.
package swing

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dylan/swingtempo/pose"
	"github.com/go-gl/mathgl/mgl64"
)

// ErrWrongPhase is returned by manual marking from an incompatible phase.
var ErrWrongPhase = errors.New("not valid in current phase")

// Phase is the detector state.
type Phase int

const (
	Ready Phase = iota
	Backswing
	Downswing
	Complete
)

func (p Phase) String() string {
	switch p {
	case Ready:
		return "ready"
	case Backswing:
		return "backswing"
	case Downswing:
		return "downswing"
	case Complete:
		return "complete"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Handedness selects the trail arm and the direction of "backward".
type Handedness int

const (
	RightHanded Handedness = iota
	LeftHanded
)

func (h Handedness) String() string {
	if h == LeftHanded {
		return "left"
	}
	return "right"
}

// ParseHandedness accepts "right", "left", "r", "l" (any case). Empty means
// right-handed.
func ParseHandedness(s string) (Handedness, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "right", "r":
		return RightHanded, nil
	case "left", "l":
		return LeftHanded, nil
	}
	return RightHanded, fmt.Errorf("unknown handedness %q", s)
}

// EventKind identifies a detector transition.
type EventKind int

const (
	EventStarted    EventKind = iota + 1 // Ready -> Backswing
	EventTransition                      // Backswing -> Downswing
	EventFinished                        // Downswing -> Complete
	EventAbandoned                       // attempt timed out, back to Ready
)

func (k EventKind) String() string {
	switch k {
	case EventStarted:
		return "started"
	case EventTransition:
		return "transition"
	case EventFinished:
		return "finished"
	case EventAbandoned:
		return "abandoned"
	}
	return "none"
}

// Event reports a phase change. Backswing is set from EventTransition on,
// Downswing only on EventFinished.
type Event struct {
	Kind      EventKind
	At        time.Duration
	Backswing time.Duration
	Downswing time.Duration
}

// Default detection parameters.
const (
	DefaultMinVisibility      = 0.7
	DefaultBackswingThreshold = 0.7
	DefaultDownswingThreshold = 0.6
	DefaultIdleTimeout        = 5 * time.Second
)

type DetectorConfig struct {
	Handedness         Handedness
	MinVisibility      float64
	BackswingThreshold float64
	DownswingThreshold float64
	// IdleTimeout abandons an attempt stuck in Backswing or Downswing. Zero
	// disables it.
	IdleTimeout time.Duration
}

// DefaultDetectorConfig returns the standard right-handed parameters.
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		Handedness:         RightHanded,
		MinVisibility:      DefaultMinVisibility,
		BackswingThreshold: DefaultBackswingThreshold,
		DownswingThreshold: DefaultDownswingThreshold,
		IdleTimeout:        DefaultIdleTimeout,
	}
}

// Detector is the swing phase state machine. Frames must be fed in timestamp
// order.
type Detector struct {
	mu  sync.Mutex
	cfg DetectorConfig

	phase Phase
	start mgl64.Vec3 // shoulder-relative wrist at takeaway
	top   mgl64.Vec3 // shoulder-relative wrist at the top

	startedAt    time.Duration
	topAt        time.Duration
	lastChangeAt time.Duration

	// manual is set once Start, MarkTop or Finish drives the attempt. Its
	// anchors are not landmark positions, so frames only check the idle
	// timeout until the next reset.
	manual bool
}

// NewDetector returns a Detector in Ready.
func NewDetector(cfg DetectorConfig) *Detector {
	return &Detector{cfg: cfg}
}

func (d *Detector) Phase() Phase {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.phase
}

func (d *Detector) Config() DetectorConfig {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfg
}

// SetHandedness switches the tracked side and resets the current attempt.
func (d *Detector) SetHandedness(h Handedness) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cfg.Handedness = h
	d.resetLocked()
}

// Reset returns to Ready from any phase.
func (d *Detector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.resetLocked()
}

func (d *Detector) resetLocked() {
	d.phase = Ready
	d.start = mgl64.Vec3{}
	d.top = mgl64.Vec3{}
	d.startedAt = 0
	d.topAt = 0
	d.lastChangeAt = 0
	d.manual = false
}

// Process consumes one frame and reports the transition it caused, if any.
// Frames whose tracked landmarks are missing or below the visibility
// threshold are ignored.
func (d *Detector) Process(f pose.Frame) (Event, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if ev, ok := d.expireLocked(f.Timestamp); ok {
		return ev, true
	}
	if d.manual {
		return Event{}, false
	}

	pos, ok := d.trackedPosition(f)
	if !ok {
		return Event{}, false
	}

	switch d.phase {
	case Ready:
		d.start = pos
		return d.beginLocked(f.Timestamp), true

	case Backswing:
		if d.backward(pos) > d.cfg.BackswingThreshold {
			d.top = pos
			return d.topLocked(f.Timestamp), true
		}

	case Downswing:
		if pos.Y()-d.top.Y() > d.cfg.DownswingThreshold {
			return d.finishLocked(f.Timestamp), true
		}
	}
	return Event{}, false
}

// Start begins an attempt without landmarks.
func (d *Detector) Start(at time.Duration) (Event, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.expireLocked(at)
	if d.phase != Ready {
		return Event{}, fmt.Errorf("start from %s: %w", d.phase, ErrWrongPhase)
	}
	d.manual = true
	return d.beginLocked(at), nil
}

// MarkTop records the top of the backswing.
func (d *Detector) MarkTop(at time.Duration) (Event, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if ev, ok := d.expireLocked(at); ok {
		return ev, nil
	}
	if d.phase != Backswing {
		return Event{}, fmt.Errorf("mark top from %s: %w", d.phase, ErrWrongPhase)
	}
	d.manual = true
	return d.topLocked(at), nil
}

// Finish records impact.
func (d *Detector) Finish(at time.Duration) (Event, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if ev, ok := d.expireLocked(at); ok {
		return ev, nil
	}
	if d.phase != Downswing {
		return Event{}, fmt.Errorf("finish from %s: %w", d.phase, ErrWrongPhase)
	}
	d.manual = true
	return d.finishLocked(at), nil
}

func (d *Detector) beginLocked(at time.Duration) Event {
	d.phase = Backswing
	d.startedAt = at
	d.lastChangeAt = at
	return Event{Kind: EventStarted, At: at}
}

func (d *Detector) topLocked(at time.Duration) Event {
	d.phase = Downswing
	d.topAt = at
	d.lastChangeAt = at
	return Event{Kind: EventTransition, At: at, Backswing: at - d.startedAt}
}

func (d *Detector) finishLocked(at time.Duration) Event {
	ev := Event{
		Kind:      EventFinished,
		At:        at,
		Backswing: d.topAt - d.startedAt,
		Downswing: at - d.topAt,
	}
	d.phase = Complete
	d.start = mgl64.Vec3{}
	d.top = mgl64.Vec3{}
	d.lastChangeAt = at
	return ev
}

// expireLocked abandons an in-progress attempt that has been idle too long.
func (d *Detector) expireLocked(at time.Duration) (Event, bool) {
	if d.cfg.IdleTimeout <= 0 {
		return Event{}, false
	}
	if d.phase != Backswing && d.phase != Downswing {
		return Event{}, false
	}
	if at-d.lastChangeAt <= d.cfg.IdleTimeout {
		return Event{}, false
	}
	d.resetLocked()
	return Event{Kind: EventAbandoned, At: at}, true
}

func (d *Detector) trackedPosition(f pose.Frame) (mgl64.Vec3, bool) {
	wrist, shoulder := f.RightWrist, f.RightShoulder
	if d.cfg.Handedness == LeftHanded {
		wrist, shoulder = f.LeftWrist, f.LeftShoulder
	}
	if !wrist.Visible(d.cfg.MinVisibility) || !shoulder.Visible(d.cfg.MinVisibility) {
		return mgl64.Vec3{}, false
	}
	return wrist.Position.Sub(shoulder.Position), true
}

// backward is the displacement from the takeaway anchor away from the target.
// A right-hander's hands move toward smaller image x.
func (d *Detector) backward(pos mgl64.Vec3) float64 {
	if d.cfg.Handedness == LeftHanded {
		return pos.X() - d.start.X()
	}
	return d.start.X() - pos.X()
}
