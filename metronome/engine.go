package metronome

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dylan/swingtempo/audio"
	"github.com/dylan/swingtempo/clock"
)

// maxFailures is the number of consecutive tone failures tolerated.
const maxFailures = 5

// Option configures an Engine.
type Option func(*Engine)

func WithClock(c clock.Clock) Option { return func(e *Engine) { e.clock = c } }

// WithAudio replaces the audio opener. It is called on the first Start.
func WithAudio(open func() (audio.Output, error)) Option {
	return func(e *Engine) { e.open = open }
}

// WithBeatHandler is called after each successfully played beat.
func WithBeatHandler(f func(Beat)) Option { return func(e *Engine) { e.onBeat = f } }

// WithFailureHandler is called when the engine stops itself.
func WithFailureHandler(f func(error)) Option { return func(e *Engine) { e.onFailure = f } }

func WithLogger(l *slog.Logger) Option { return func(e *Engine) { e.log = l } }

// WithVolume sets the device volume used by the default audio opener.
func WithVolume(v float64) Option { return func(e *Engine) { e.volume = v } }

// Engine is a self-rescheduling metronome. Each beat schedules the next one
// interval after it fires. A generation counter invalidates firings that were
// already in flight when the engine was stopped or retimed.
type Engine struct {
	mu        sync.Mutex
	cfg       Config
	clock     clock.Clock
	open      func() (audio.Output, error)
	out       audio.Output
	onBeat    func(Beat)
	onFailure func(error)
	log       *slog.Logger
	volume    float64

	running  bool
	closed   bool
	index    int
	gen      uint64
	timer    clock.Timer
	failures int
	current  Beat
	hasBeat  bool
}

// New returns a stopped engine.
func New(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:    cfg,
		clock:  clock.Real{},
		volume: 1,
	}
	for _, o := range opts {
		o(e)
	}
	if e.log == nil {
		e.log = slog.New(slog.DiscardHandler)
	}
	if e.open == nil {
		e.open = func() (audio.Output, error) { return audio.OpenOto(e.volume) }
	}
	return e, nil
}

// Start plays beat 0 immediately and schedules the rest. Starting a running
// engine does nothing.
func (e *Engine) Start() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	if e.running {
		e.mu.Unlock()
		return nil
	}
	if e.out == nil {
		out, err := e.open()
		if err != nil {
			e.mu.Unlock()
			e.log.Error("audio init failed", "err", err)
			return fmt.Errorf("%w: %w", ErrAudioInit, err)
		}
		e.out = out
	}

	e.running = true
	e.index = 0
	e.failures = 0
	e.gen++
	e.log.Info("metronome started", "bpm", e.cfg.BPM, "cycle", fmt.Sprintf("%d:%d", e.cfg.BackswingBeats, e.cfg.DownswingBeats))
	d := e.fireLocked()
	e.mu.Unlock()

	e.dispatch(d)
	return nil
}

// Stop cancels the pending beat.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		e.stopLocked()
		e.log.Info("metronome stopped")
	}
}

// SetConfig validates cfg and applies it. A running engine is retimed from
// now at the new interval; the beat count carries on.
func (e *Engine) SetConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg = cfg
	if e.running {
		e.cancelLocked()
		e.scheduleLocked()
	}
	return nil
}

func (e *Engine) Config() Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Current returns the last played beat. It reports false while stopped.
func (e *Engine) Current() (Beat, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running || !e.hasBeat {
		return Beat{}, false
	}
	return e.current, true
}

// Close stops the engine and releases the audio output. Further calls are
// no-ops.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	if e.running {
		e.stopLocked()
	}
	if e.out == nil {
		return nil
	}
	err := e.out.Close()
	e.out = nil
	if err != nil {
		return fmt.Errorf("closing audio: %w", err)
	}
	return nil
}

// delivery carries callbacks out from under the lock.
type delivery struct {
	beat    *Beat
	failure error
}

func (e *Engine) tick(gen uint64) {
	e.mu.Lock()
	if !e.running || gen != e.gen {
		e.mu.Unlock()
		return
	}
	d := e.fireLocked()
	e.mu.Unlock()

	e.dispatch(d)
}

func (e *Engine) fireLocked() delivery {
	beat := Classify(e.index, e.cfg)
	beat.At = e.clock.Now()
	e.index++

	if err := e.playLocked(beat); err != nil {
		e.failures++
		e.log.Warn("tone failed", "beat", beat.Index, "consecutive", e.failures, "err", err)
		if e.failures > maxFailures {
			e.stopLocked()
			return delivery{failure: fmt.Errorf("%w: %w", ErrTooManyFailures, err)}
		}
		e.scheduleLocked()
		return delivery{}
	}

	e.failures = 0
	e.current = beat
	e.hasBeat = true
	e.scheduleLocked()
	return delivery{beat: &beat}
}

func (e *Engine) playLocked(b Beat) error {
	if e.out.Suspended() {
		if err := e.out.Resume(); err != nil {
			return err
		}
	}
	return e.out.PlayTone(ToneFor(b.Accent))
}

func (e *Engine) scheduleLocked() {
	gen := e.gen
	e.timer = e.clock.AfterFunc(e.cfg.Interval(), func() { e.tick(gen) })
}

func (e *Engine) cancelLocked() {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.gen++
}

func (e *Engine) stopLocked() {
	e.cancelLocked()
	e.running = false
	e.hasBeat = false
}

func (e *Engine) dispatch(d delivery) {
	if d.beat != nil && e.onBeat != nil {
		e.onBeat(*d.beat)
	}
	if d.failure != nil {
		e.log.Error("metronome stopped", "err", d.failure)
		if e.onFailure != nil {
			e.onFailure(d.failure)
		}
	}
}

// IsAudioError reports whether err came from acquiring or driving the audio
// output.
func IsAudioError(err error) bool {
	return errors.Is(err, ErrAudioInit) || errors.Is(err, ErrTooManyFailures)
}
