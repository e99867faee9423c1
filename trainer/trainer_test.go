package trainer

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dylan/swingtempo/clock"
	"github.com/dylan/swingtempo/history"
	"github.com/dylan/swingtempo/pose"
	"github.com/dylan/swingtempo/swing"
	"github.com/go-gl/mathgl/mgl64"
)

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

func rightFrame(at time.Duration, x, y float64) pose.Frame {
	return pose.Frame{
		Timestamp:     at,
		RightWrist:    &pose.Landmark{Position: mgl64.Vec3{x, y, 0}, Visibility: 0.95},
		RightShoulder: &pose.Landmark{Position: mgl64.Vec3{0, 0, 0}, Visibility: 0.95},
	}
}

func swingFrames() []pose.Frame {
	return []pose.Frame{
		rightFrame(0, 0, 0),
		rightFrame(ms(600), -0.75, 0),
		rightFrame(ms(800), -0.75, 0.65),
	}
}

type recorder struct {
	updates []Update
}

func (r *recorder) on(u Update) { r.updates = append(r.updates, u) }

func TestHandleFrameRecordsSwing(t *testing.T) {
	var rec recorder
	store := &history.MemoryStore{}
	tr := New(Options{Store: store, OnUpdate: rec.on, Clock: clock.NewFake(time.Date(2026, 3, 1, 15, 4, 5, 0, time.UTC))})

	for _, f := range swingFrames() {
		tr.HandleFrame(f)
	}

	if len(rec.updates) != 3 {
		t.Fatalf("updates = %d, want 3", len(rec.updates))
	}
	last := rec.updates[2]
	if last.Event.Kind != swing.EventFinished || last.Item == nil {
		t.Fatalf("last update = %+v", last)
	}
	if last.Item.Result.Ratio != 3.0 || last.Item.Result.Quality != swing.Good {
		t.Errorf("result = %+v", last.Item.Result)
	}
	if last.Item.Timestamp != "3:04:05 PM" {
		t.Errorf("timestamp = %q", last.Item.Timestamp)
	}
	if tr.Phase() != swing.Complete {
		t.Errorf("phase = %s, want complete", tr.Phase())
	}

	stored, _ := store.Load(context.Background())
	if len(stored) != 1 || stored[0].ID != last.Item.ID {
		t.Errorf("stored = %+v", stored)
	}
}

func TestAutoReset(t *testing.T) {
	tr := New(Options{AutoReset: true})
	for _, f := range swingFrames() {
		tr.HandleFrame(f)
	}
	if tr.Phase() != swing.Ready {
		t.Errorf("phase = %s, want ready", tr.Phase())
	}
	for _, f := range swingFrames() {
		f.Timestamp += 2 * time.Second
		tr.HandleFrame(f)
	}
	if n := len(tr.History()); n != 2 {
		t.Errorf("history = %d, want 2", n)
	}
}

func TestThrottleDropsBurst(t *testing.T) {
	var rec recorder
	tr := New(Options{OnUpdate: rec.on})
	tr.HandleFrame(rightFrame(0, 0, 0))
	// Arrives 10ms later at the top: dropped, so no transition.
	tr.HandleFrame(rightFrame(ms(10), -0.9, 0))
	if tr.Phase() != swing.Backswing || len(rec.updates) != 1 {
		t.Errorf("phase %s updates %d", tr.Phase(), len(rec.updates))
	}
}

func TestManualAdvance(t *testing.T) {
	clk := clock.NewFake(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	tr := New(Options{Clock: clk})

	if ev, err := tr.Advance(); err != nil || ev.Kind != swing.EventStarted {
		t.Fatalf("start: %+v %v", ev, err)
	}
	clk.Advance(ms(900))
	if ev, err := tr.Advance(); err != nil || ev.Kind != swing.EventTransition {
		t.Fatalf("top: %+v %v", ev, err)
	}
	clk.Advance(ms(300))
	ev, err := tr.Advance()
	if err != nil || ev.Kind != swing.EventFinished {
		t.Fatalf("finish: %+v %v", ev, err)
	}
	items := tr.History()
	if len(items) != 1 || items[0].Result.Ratio != 3.0 {
		t.Fatalf("history = %+v", items)
	}

	// From Complete, Advance starts over.
	if ev, err := tr.Advance(); err != nil || ev.Kind != swing.EventStarted {
		t.Errorf("restart: %+v %v", ev, err)
	}
}

func TestManualMarksUseFeedTimeBase(t *testing.T) {
	clk := clock.NewFake(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	tr := New(Options{Clock: clk})

	// The estimator's clock is far ahead of the trainer's.
	tr.HandleFrame(rightFrame(100*time.Second, 0, 0))
	if tr.Phase() != swing.Backswing {
		t.Fatalf("phase = %s, want backswing", tr.Phase())
	}

	clk.Advance(ms(900))
	ev, err := tr.Advance()
	if err != nil || ev.Kind != swing.EventTransition || ev.Backswing != ms(900) {
		t.Fatalf("mark top: %+v %v", ev, err)
	}

	// Frames keep arriving but do not drive a manually marked attempt.
	clk.Advance(ms(100))
	tr.HandleFrame(rightFrame(101*time.Second, -0.75, 0.9))
	if tr.Phase() != swing.Downswing {
		t.Fatalf("phase = %s, want downswing", tr.Phase())
	}

	clk.Advance(ms(200))
	ev, err = tr.Advance()
	if err != nil || ev.Kind != swing.EventFinished {
		t.Fatalf("finish: %+v %v", ev, err)
	}
	items := tr.History()
	if len(items) != 1 || items[0].Result.Ratio != 3.0 {
		t.Fatalf("history = %+v", items)
	}
}

func TestManualStartIgnoresStationaryWrist(t *testing.T) {
	clk := clock.NewFake(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	tr := New(Options{Clock: clk})

	if _, err := tr.Advance(); err != nil {
		t.Fatalf("start: %v", err)
	}
	tr.HandleFrame(rightFrame(ms(100), -0.75, 0))
	tr.HandleFrame(rightFrame(ms(200), -0.75, 0))
	if tr.Phase() != swing.Backswing {
		t.Errorf("phase = %s, want backswing", tr.Phase())
	}
	if n := len(tr.History()); n != 0 {
		t.Errorf("history = %d items, want 0", n)
	}
}

func TestInvalidDurationCreatesNoEntry(t *testing.T) {
	var rec recorder
	clk := clock.NewFake(time.Now())
	tr := New(Options{Clock: clk, OnUpdate: rec.on})

	tr.Advance()
	clk.Advance(ms(700))
	tr.Advance()
	_, err := tr.Advance() // zero downswing
	if !errors.Is(err, swing.ErrInvalidDuration) {
		t.Fatalf("err = %v, want ErrInvalidDuration", err)
	}
	if len(tr.History()) != 0 {
		t.Error("invalid swing was recorded")
	}
	last := rec.updates[len(rec.updates)-1]
	if last.Item != nil || !errors.Is(last.Err, swing.ErrInvalidDuration) {
		t.Errorf("last update = %+v", last)
	}
}

func TestClearAndLoadHistory(t *testing.T) {
	ctx := context.Background()
	store := &history.MemoryStore{}
	tr := New(Options{Store: store})
	for _, f := range swingFrames() {
		tr.HandleFrame(f)
	}

	other := New(Options{Store: store})
	if err := other.LoadHistory(ctx); err != nil {
		t.Fatalf("LoadHistory: %v", err)
	}
	if len(other.History()) != 1 {
		t.Fatalf("loaded %d items", len(other.History()))
	}

	if err := tr.ClearHistory(); err != nil {
		t.Fatalf("ClearHistory: %v", err)
	}
	stored, _ := store.Load(ctx)
	if len(tr.History()) != 0 || len(stored) != 0 {
		t.Error("history not cleared")
	}
}

type failingStore struct{ history.MemoryStore }

func (*failingStore) Save(context.Context, []history.Item) error { return errors.New("disk full") }

func TestPersistFailureIsReported(t *testing.T) {
	var rec recorder
	tr := New(Options{Store: &failingStore{}, OnUpdate: rec.on})
	for _, f := range swingFrames() {
		tr.HandleFrame(f)
	}
	last := rec.updates[len(rec.updates)-1]
	if last.Item == nil || last.Err == nil {
		t.Errorf("update = %+v, want item and error", last)
	}
	if len(tr.History()) != 1 {
		t.Error("ledger should keep the swing when saving fails")
	}
}

type fakeSource struct {
	frames []pose.Frame
	closed bool
	err    error
}

func (s *fakeSource) Frames(ctx context.Context) (<-chan pose.Frame, error) {
	if s.err != nil {
		return nil, s.err
	}
	ch := make(chan pose.Frame)
	go func() {
		defer close(ch)
		for _, f := range s.frames {
			select {
			case ch <- f:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}

func (s *fakeSource) Close() error {
	s.closed = true
	return nil
}

func TestRunProcessesSource(t *testing.T) {
	src := &fakeSource{frames: swingFrames()}
	tr := New(Options{})
	if err := tr.Run(context.Background(), src, pose.StaticPermission(true)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !src.closed {
		t.Error("source not closed")
	}
	if len(tr.History()) != 1 {
		t.Errorf("history = %d", len(tr.History()))
	}
}

func TestRunReplay(t *testing.T) {
	lines := []string{
		`{"ts_ms": 0, "landmarks": {"right_wrist": {"x": 0.6, "y": 0.5, "z": 0, "visibility": 0.9}, "right_shoulder": {"x": 0.5, "y": 0.3, "z": 0, "visibility": 0.9}}}`,
		`{"ts_ms": 600, "landmarks": {"right_wrist": {"x": -0.2, "y": 0.1, "z": 0, "visibility": 0.9}, "right_shoulder": {"x": 0.5, "y": 0.3, "z": 0, "visibility": 0.9}}}`,
		`{"ts_ms": 800, "landmarks": {"right_wrist": {"x": -0.2, "y": 0.8, "z": 0, "visibility": 0.9}, "right_shoulder": {"x": 0.5, "y": 0.3, "z": 0, "visibility": 0.9}}}`,
	}
	src := pose.NewReplay(strings.NewReader(strings.Join(lines, "\n")), nil, nil)
	tr := New(Options{})
	if err := tr.Run(context.Background(), src, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	items := tr.History()
	if len(items) != 1 || items[0].Result.Ratio != 3.0 {
		t.Errorf("history = %+v", items)
	}
}

func TestRunPermissionDenied(t *testing.T) {
	src := &fakeSource{frames: swingFrames()}
	tr := New(Options{})
	err := tr.Run(context.Background(), src, pose.StaticPermission(false))
	if !IsPermissionError(err) {
		t.Fatalf("err = %v, want permission denied", err)
	}
	if !src.closed {
		t.Error("source not closed on denial")
	}
	if tr.Phase() != swing.Ready {
		t.Error("frames processed without permission")
	}
}

func TestRunFeedOpenError(t *testing.T) {
	src := &fakeSource{err: errors.New("address in use")}
	err := New(Options{}).Run(context.Background(), src, nil)
	if err == nil || !src.closed {
		t.Errorf("err = %v closed = %v", err, src.closed)
	}
}

func TestRunCancelMidSwing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := &blockingSource{ch: make(chan pose.Frame)}
	tr := New(Options{})

	done := make(chan error, 1)
	go func() { done <- tr.Run(ctx, src, nil) }()
	src.ch <- rightFrame(0, 0, 0)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if !src.closed.Load() {
		t.Error("source not closed")
	}
}

type blockingSource struct {
	ch     chan pose.Frame
	closed atomic.Bool
}

func (s *blockingSource) Frames(context.Context) (<-chan pose.Frame, error) { return s.ch, nil }

func (s *blockingSource) Close() error {
	s.closed.Store(true)
	return nil
}
