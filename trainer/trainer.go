// Package trainer connects the landmark feed, the swing detector and the
// history ledger.
package trainer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dylan/swingtempo/clock"
	"github.com/dylan/swingtempo/history"
	"github.com/dylan/swingtempo/pose"
	"github.com/dylan/swingtempo/swing"
)

// persistTimeout bounds a single history save.
const persistTimeout = 3 * time.Second

// Update reports a detector event and, for a finished swing, the recorded
// item. Err is set when the result could not be computed or saved.
type Update struct {
	Event swing.Event
	Phase swing.Phase
	Item  *history.Item
	Err   error
}

type Options struct {
	Detector  *swing.Detector // default: swing.DefaultDetectorConfig()
	Ledger    *history.Ledger // default: capacity 10
	Store     history.Store   // nil keeps history in memory only
	Clock     clock.Clock
	FrameRate int // frames per second processed; 0 uses pose.DefaultFrameRate
	// AutoReset re-arms the detector after each finished swing.
	AutoReset bool
	Logger    *slog.Logger
	OnUpdate  func(Update)
}

// Trainer processes frames one at a time, in arrival order.
type Trainer struct {
	mu        sync.Mutex
	det       *swing.Detector
	ledger    *history.Ledger
	store     history.Store
	clock     clock.Clock
	throttle  *pose.Throttle
	autoReset bool
	log       *slog.Logger
	onUpdate  func(Update)
	epoch     time.Time
	frames    atomic.Uint64

	// Timestamp of the last accepted frame and the clock time it arrived.
	// Manual marks are stamped on the feed's time base once frames flow.
	lastFrameTS time.Duration
	lastFrameAt time.Time
	haveFrame   bool
}

func New(opts Options) *Trainer {
	t := &Trainer{
		det:       opts.Detector,
		ledger:    opts.Ledger,
		store:     opts.Store,
		clock:     opts.Clock,
		autoReset: opts.AutoReset,
		log:       opts.Logger,
		onUpdate:  opts.OnUpdate,
	}
	if t.det == nil {
		t.det = swing.NewDetector(swing.DefaultDetectorConfig())
	}
	if t.ledger == nil {
		t.ledger = history.NewLedger(history.DefaultCapacity)
	}
	if t.clock == nil {
		t.clock = clock.Real{}
	}
	if t.log == nil {
		t.log = slog.New(slog.DiscardHandler)
	}
	fps := opts.FrameRate
	if fps == 0 {
		fps = pose.DefaultFrameRate
	}
	t.throttle = pose.NewThrottle(fps)
	t.epoch = t.clock.Now()
	return t
}

// HandleFrame feeds one frame to the detector. Frames arriving faster than
// the frame rate are dropped.
func (t *Trainer) HandleFrame(f pose.Frame) {
	t.frames.Add(1)
	t.mu.Lock()
	if !t.throttle.Allow(f.Timestamp) {
		t.mu.Unlock()
		return
	}
	t.lastFrameTS = f.Timestamp
	t.lastFrameAt = t.clock.Now()
	t.haveFrame = true
	ev, ok := t.det.Process(f)
	var u Update
	if ok {
		u = t.handleEventLocked(ev)
	}
	t.mu.Unlock()

	if ok {
		t.emit(u)
	}
}

// Advance steps the swing by hand: start, top, finish. From Complete it
// starts a new attempt.
func (t *Trainer) Advance() (swing.Event, error) {
	t.mu.Lock()
	at := t.nowLocked()

	var ev swing.Event
	var err error
	switch t.det.Phase() {
	case swing.Ready:
		ev, err = t.det.Start(at)
	case swing.Backswing:
		ev, err = t.det.MarkTop(at)
	case swing.Downswing:
		ev, err = t.det.Finish(at)
	case swing.Complete:
		t.det.Reset()
		ev, err = t.det.Start(at)
	}
	if err != nil {
		t.mu.Unlock()
		return ev, err
	}
	u := t.handleEventLocked(ev)
	t.mu.Unlock()

	t.emit(u)
	return ev, u.Err
}

// nowLocked returns the current time on the detector's time base: the feed's
// timestamps once a frame has been accepted, else time since New.
func (t *Trainer) nowLocked() time.Duration {
	if t.haveFrame {
		return t.lastFrameTS + t.clock.Now().Sub(t.lastFrameAt)
	}
	return t.clock.Now().Sub(t.epoch)
}

func (t *Trainer) handleEventLocked(ev swing.Event) Update {
	t.log.Debug("swing event", "kind", ev.Kind, "at", ev.At)
	u := Update{Event: ev}

	if ev.Kind == swing.EventFinished {
		res, err := swing.Compute(ev.Backswing, ev.Downswing)
		if err != nil {
			t.log.Warn("discarding swing", "err", err)
			u.Err = err
		} else {
			item := history.NewItem(res, t.clock.Now())
			t.ledger.Record(item)
			u.Item = &item
			t.log.Info("swing recorded",
				"ratio", res.Ratio, "quality", res.Quality,
				"backswing", res.Backswing, "downswing", res.Downswing)
			u.Err = t.persistLocked()
		}
		if t.autoReset {
			t.det.Reset()
		}
	}
	u.Phase = t.det.Phase()
	return u
}

func (t *Trainer) persistLocked() error {
	if t.store == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := t.store.Save(ctx, t.ledger.Items()); err != nil {
		t.log.Error("saving history", "err", err)
		return fmt.Errorf("saving history: %w", err)
	}
	return nil
}

func (t *Trainer) emit(u Update) {
	if t.onUpdate != nil {
		t.onUpdate(u)
	}
}

// Run checks permission, then processes frames from src until the source
// ends or ctx is cancelled. The source is always closed.
func (t *Trainer) Run(ctx context.Context, src pose.Source, perm pose.Permission) error {
	defer src.Close()

	if perm != nil {
		ok, err := perm.Request(ctx)
		if err != nil {
			return fmt.Errorf("requesting camera permission: %w", err)
		}
		if !ok {
			return pose.ErrPermissionDenied
		}
	}

	frames, err := src.Frames(ctx)
	if err != nil {
		return fmt.Errorf("opening landmark feed: %w", err)
	}

	t.log.Info("landmark feed started")
	for {
		select {
		case <-ctx.Done():
			t.log.Info("landmark feed stopped", "phase", t.Phase())
			return nil
		case f, ok := <-frames:
			if !ok {
				t.log.Info("landmark feed ended")
				return nil
			}
			t.HandleFrame(f)
		}
	}
}

// FramesSeen returns the number of frames received, including dropped ones.
func (t *Trainer) FramesSeen() uint64 {
	return t.frames.Load()
}

// Reset abandons the current attempt.
func (t *Trainer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.det.Reset()
	t.throttle.Reset()
}

func (t *Trainer) SetHandedness(h swing.Handedness) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.det.SetHandedness(h)
}

func (t *Trainer) Handedness() swing.Handedness {
	return t.det.Config().Handedness
}

func (t *Trainer) Phase() swing.Phase {
	return t.det.Phase()
}

// History returns the recorded swings, newest first.
func (t *Trainer) History() []history.Item {
	return t.ledger.Items()
}

// ClearHistory empties the ledger and the store.
func (t *Trainer) ClearHistory() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ledger.Clear()
	return t.persistLocked()
}

// LoadHistory replaces the ledger with the stored history.
func (t *Trainer) LoadHistory(ctx context.Context) error {
	if t.store == nil {
		return nil
	}
	items, err := t.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}
	t.mu.Lock()
	t.ledger.Replace(items)
	t.mu.Unlock()
	t.log.Info("history loaded", "swings", len(items))
	return nil
}

// IsPermissionError reports whether err means the feed was refused.
func IsPermissionError(err error) bool {
	return errors.Is(err, pose.ErrPermissionDenied)
}
