package audio

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/ebitengine/oto/v3"
)

// Output plays tones. Implementations must be safe for use from the
// metronome's timer goroutine.
type Output interface {
	PlayTone(t Tone) error
	// Suspended reports whether playback is paused, e.g. after Close or a
	// system audio interruption.
	Suspended() bool
	Resume() error
	Close() error
}

// OtoOutput plays tones through the system audio device.
type OtoOutput struct {
	mu        sync.Mutex
	ctx       *oto.Context
	volume    float64
	players   []*oto.Player
	suspended bool
}

var (
	// oto allows one context per process.
	otoOnce sync.Once
	otoCtx  *oto.Context
	otoErr  error
)

// OpenOto acquires the audio device. volume scales every tone (0..1).
func OpenOto(volume float64) (*OtoOutput, error) {
	otoOnce.Do(func() {
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   SampleRate,
			ChannelCount: ChannelCount,
			Format:       oto.FormatSignedInt16LE,
		})
		if err != nil {
			otoErr = err
			return
		}
		<-ready
		otoCtx = ctx
	})
	if otoErr != nil {
		return nil, fmt.Errorf("opening audio device: %w", otoErr)
	}
	if err := otoCtx.Resume(); err != nil {
		return nil, fmt.Errorf("resuming audio device: %w", err)
	}
	return &OtoOutput{ctx: otoCtx, volume: volume}, nil
}

func (o *OtoOutput) PlayTone(t Tone) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.ctx.Err(); err != nil {
		return fmt.Errorf("audio device: %w", err)
	}
	o.reapLocked()

	p := o.ctx.NewPlayer(bytes.NewReader(Synthesize(t)))
	p.SetVolume(o.volume)
	p.Play()
	o.players = append(o.players, p)
	return nil
}

// reapLocked closes players whose tone has finished.
func (o *OtoOutput) reapLocked() {
	live := o.players[:0]
	for _, p := range o.players {
		if p.IsPlaying() {
			live = append(live, p)
			continue
		}
		p.Close()
	}
	o.players = live
}

func (o *OtoOutput) Suspended() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.suspended
}

func (o *OtoOutput) Resume() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.ctx.Resume(); err != nil {
		return fmt.Errorf("resuming audio: %w", err)
	}
	o.suspended = false
	return nil
}

// Close stops pending tones and suspends the device. The device itself stays
// with the process.
func (o *OtoOutput) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, p := range o.players {
		p.Close()
	}
	o.players = nil
	o.suspended = true
	if err := o.ctx.Suspend(); err != nil {
		return fmt.Errorf("suspending audio: %w", err)
	}
	return nil
}

// Discard is a silent Output used when sound is disabled. It counts tones.
type Discard struct {
	mu    sync.Mutex
	tones []Tone
}

func (d *Discard) PlayTone(t Tone) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tones = append(d.tones, t)
	return nil
}

func (d *Discard) Suspended() bool { return false }
func (d *Discard) Resume() error   { return nil }
func (d *Discard) Close() error    { return nil }

// Played returns the tones received so far.
func (d *Discard) Played() []Tone {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Tone(nil), d.tones...)
}
