// Package metronome runs the audible beat cycle used to rehearse a
// backswing:downswing rhythm.
package metronome

import (
	"errors"
	"fmt"
	"time"

	"github.com/dylan/swingtempo/audio"
	"github.com/dylan/swingtempo/swing"
)

// BPM limits.
const (
	MinBPM = 40
	MaxBPM = 208
)

var (
	ErrInvalidConfig   = errors.New("invalid metronome config")
	ErrAudioInit       = errors.New("audio output unavailable")
	ErrTooManyFailures = errors.New("too many consecutive tone failures")
	ErrClosed          = errors.New("metronome closed")
)

// Config is the tempo and the beat split of one swing cycle.
type Config struct {
	BPM            int
	BackswingBeats int
	DownswingBeats int
}

// DefaultConfig is 60 bpm with a 3:1 cycle.
func DefaultConfig() Config {
	return Config{BPM: 60, BackswingBeats: 3, DownswingBeats: 1}
}

func (c Config) Validate() error {
	if c.BPM < MinBPM || c.BPM > MaxBPM {
		return fmt.Errorf("%w: bpm %d outside %d-%d", ErrInvalidConfig, c.BPM, MinBPM, MaxBPM)
	}
	if c.BackswingBeats < 1 || c.DownswingBeats < 1 {
		return fmt.Errorf("%w: beats %d:%d, both must be at least 1", ErrInvalidConfig, c.BackswingBeats, c.DownswingBeats)
	}
	return nil
}

// Interval is the time between beats, 60000/bpm ms.
func (c Config) Interval() time.Duration {
	return time.Minute / time.Duration(c.BPM)
}

// CycleLength is the number of beats in one swing cycle.
func (c Config) CycleLength() int {
	return c.BackswingBeats + c.DownswingBeats
}

// ClampBPM limits bpm to the supported range.
func ClampBPM(bpm int) int {
	return max(MinBPM, min(MaxBPM, bpm))
}

// Accent distinguishes the cycle's boundary beats.
type Accent int

const (
	Plain Accent = iota
	AccentBackswing
	AccentDownswing
)

func (a Accent) String() string {
	switch a {
	case AccentBackswing:
		return "backswing"
	case AccentDownswing:
		return "downswing"
	}
	return "plain"
}

// Beat is one metronome tick.
type Beat struct {
	Index    int // since Start
	Position int // within the cycle
	Phase    swing.Phase
	Accent   Accent
	At       time.Time
}

// Classify places beat index within the cycle described by cfg.
func Classify(index int, cfg Config) Beat {
	pos := index % cfg.CycleLength()
	b := Beat{Index: index, Position: pos, Phase: swing.Backswing}
	if pos >= cfg.BackswingBeats {
		b.Phase = swing.Downswing
	}
	switch pos {
	case 0:
		b.Accent = AccentBackswing
	case cfg.BackswingBeats:
		b.Accent = AccentDownswing
	}
	return b
}

const toneLength = 100 * time.Millisecond

// ToneFor returns the click for an accent.
func ToneFor(a Accent) audio.Tone {
	switch a {
	case AccentBackswing:
		return audio.Tone{Waveform: audio.Sine, Frequency: 1000, Gain: 0.6, Duration: toneLength}
	case AccentDownswing:
		return audio.Tone{Waveform: audio.Sine, Frequency: 1320, Gain: 0.6, Duration: toneLength}
	}
	return audio.Tone{Waveform: audio.Sine, Frequency: 800, Gain: 0.4, Duration: toneLength}
}
