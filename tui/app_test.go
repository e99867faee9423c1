package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dylan/swingtempo/audio"
	"github.com/dylan/swingtempo/clock"
	"github.com/dylan/swingtempo/config"
	"github.com/dylan/swingtempo/metronome"
	"github.com/dylan/swingtempo/swing"
	"github.com/dylan/swingtempo/trainer"
	"github.com/dylan/swingtempo/tui/shared"
)

type harness struct {
	app   App
	clock *clock.Fake
	tr    *trainer.Trainer
	met   *metronome.Engine
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	clk := clock.NewFake(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	tr := trainer.New(trainer.Options{Clock: clk})
	met, err := metronome.New(metronome.DefaultConfig(),
		metronome.WithClock(clk),
		metronome.WithAudio(func() (audio.Output, error) { return &audio.Discard{}, nil }),
	)
	if err != nil {
		t.Fatalf("metronome.New: %v", err)
	}
	t.Cleanup(func() { met.Close() })

	app := NewApp(config.Config{}, Deps{Trainer: tr, Metronome: met})
	m, _ := app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return &harness{app: m.(App), clock: clk, tr: tr, met: met}
}

func (h *harness) press(msgs ...tea.KeyMsg) {
	for _, msg := range msgs {
		m, _ := h.app.Update(msg)
		h.app = m.(App)
	}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	space = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
)

func TestSpaceTogglesMetronome(t *testing.T) {
	h := newHarness(t)

	h.press(space)
	if !h.met.Running() {
		t.Fatal("metronome should be running")
	}
	h.press(space)
	if h.met.Running() {
		t.Error("metronome should be stopped")
	}
}

func TestTempoKeys(t *testing.T) {
	h := newHarness(t)

	h.press(runes("+"), runes("+"), runes("-"), runes("]"), runes("{"))
	cfg := h.met.Config()
	if cfg.BPM != 61 {
		t.Errorf("bpm = %d, want 61", cfg.BPM)
	}
	if cfg.BackswingBeats != 4 || cfg.DownswingBeats != 1 {
		t.Errorf("beats = %d:%d, want 4:1", cfg.BackswingBeats, cfg.DownswingBeats)
	}
}

func TestBPMEntry(t *testing.T) {
	h := newHarness(t)

	h.press(runes("b"))
	backspace := tea.KeyMsg{Type: tea.KeyBackspace}
	h.press(backspace, backspace, runes("9"), runes("0"), enter)

	if got := h.met.Config().BPM; got != 90 {
		t.Errorf("bpm = %d, want 90", got)
	}
	if h.app.metronomePane.Editing() {
		t.Error("entry should close after enter")
	}
}

func TestBPMEntryRejectsOutOfRange(t *testing.T) {
	h := newHarness(t)

	h.press(runes("b"), runes("0"), enter) // "600"
	if got := h.met.Config().BPM; got != 60 {
		t.Errorf("bpm = %d, want unchanged 60", got)
	}
	if !h.app.metronomePane.Editing() {
		t.Error("entry should stay open on invalid input")
	}
}

func TestManualMarking(t *testing.T) {
	h := newHarness(t)

	h.press(enter)
	h.clock.Advance(600 * time.Millisecond)
	h.press(enter)
	h.clock.Advance(200 * time.Millisecond)
	h.press(enter)

	items := h.tr.History()
	if len(items) != 1 {
		t.Fatalf("history = %d items, want 1", len(items))
	}
	if items[0].Result.Ratio != 3.0 {
		t.Errorf("ratio = %v, want 3.0", items[0].Result.Ratio)
	}
}

func TestHandednessToggle(t *testing.T) {
	h := newHarness(t)

	h.press(runes("L"))
	if h.tr.Handedness() != swing.LeftHanded {
		t.Errorf("handedness = %s, want left", h.tr.Handedness())
	}
}

func TestHistoryViewToggle(t *testing.T) {
	h := newHarness(t)

	h.press(runes("h"))
	if h.app.activeView != HistoryView {
		t.Fatal("expected history view")
	}
	m, cmd := h.app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	h.app = m.(App)
	if cmd == nil {
		t.Fatal("expected close command")
	}
	m, _ = h.app.Update(cmd())
	h.app = m.(App)
	if h.app.activeView != TrainerView {
		t.Error("expected trainer view after esc")
	}
}

func TestFeedbackDismissal(t *testing.T) {
	h := newHarness(t)

	f := shared.NewFeedback(shared.FeedbackInfo, "", "hello", nil)
	m, _ := h.app.Update(shared.FeedbackMsg{Feedback: f})
	h.app = m.(App)
	if !strings.Contains(h.app.View(), "hello") {
		t.Error("feedback should be shown in the status bar")
	}

	m, _ = h.app.Update(shared.DismissFeedbackMsg{Timestamp: f.Timestamp.Add(time.Second)})
	h.app = m.(App)
	if h.app.feedback == nil {
		t.Error("stale dismissal should not clear newer feedback")
	}
	m, _ = h.app.Update(shared.DismissFeedbackMsg{Timestamp: f.Timestamp})
	h.app = m.(App)
	if h.app.feedback != nil {
		t.Error("feedback should be cleared")
	}
}

func TestUpdateFeedback(t *testing.T) {
	if f := updateFeedback(swing.ErrInvalidDuration); f.Level != shared.FeedbackWarning {
		t.Errorf("invalid duration level = %v, want warning", f.Level)
	}
	if f := updateFeedback(errors.New("disk full")); f.Level != shared.FeedbackError {
		t.Errorf("save failure level = %v, want error", f.Level)
	}
}

func TestView(t *testing.T) {
	h := newHarness(t)
	view := h.app.View()
	for _, want := range []string{"swingtempo", "60 bpm 3:1", "right-handed", "0 swings"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestEventsDeliverWaitsForRoom(t *testing.T) {
	e := make(Events, 1)
	e.Send(shared.BeatMsg{})

	done := make(chan bool)
	go func() {
		done <- e.Deliver(context.Background(), shared.MetronomeFailedMsg{Err: metronome.ErrTooManyFailures})
	}()

	select {
	case <-done:
		t.Fatal("Deliver returned while the buffer was full")
	case <-time.After(50 * time.Millisecond):
	}

	<-e // UI catches up
	if ok := <-done; !ok {
		t.Fatal("Deliver reported failure")
	}
	msg, ok := (<-e).(shared.MetronomeFailedMsg)
	if !ok || !errors.Is(msg.Err, metronome.ErrTooManyFailures) {
		t.Errorf("queued message = %+v", msg)
	}
}

func TestEventsDeliverGivesUpOnCancel(t *testing.T) {
	e := make(Events, 1)
	e.Send(shared.BeatMsg{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if e.Deliver(ctx, shared.MetronomeFailedMsg{}) {
		t.Error("Deliver should fail once the context is done")
	}
}

func TestEventsSendDoesNotBlock(t *testing.T) {
	e := make(Events, 1)
	e.Send(shared.CloseHistoryMsg{})
	e.Send(shared.CloseHistoryMsg{}) // dropped
	if len(e) != 1 {
		t.Errorf("len = %d, want 1", len(e))
	}
}
