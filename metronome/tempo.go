package metronome

import (
	"math"
	"time"
)

// Marking returns the Italian tempo term for bpm.
func Marking(bpm int) string {
	switch {
	case bpm < 60:
		return "Largo"
	case bpm < 76:
		return "Adagio"
	case bpm < 108:
		return "Andante"
	case bpm < 120:
		return "Moderato"
	case bpm < 168:
		return "Allegro"
	}
	return "Presto"
}

// Tap tempo parameters.
const (
	tapWindow  = 8
	minTaps    = 3
	tapTimeout = 2 * time.Second
)

// TapTempo estimates a tempo from taps. A pause longer than two seconds
// starts a new measurement.
type TapTempo struct {
	taps []time.Time
}

// Tap records a tap at at and returns the estimated bpm once enough taps
// have been collected.
func (t *TapTempo) Tap(at time.Time) (int, bool) {
	if n := len(t.taps); n > 0 && at.Sub(t.taps[n-1]) > tapTimeout {
		t.taps = t.taps[:0]
	}
	t.taps = append(t.taps, at)
	if len(t.taps) > tapWindow {
		t.taps = t.taps[len(t.taps)-tapWindow:]
	}
	return t.BPM()
}

// BPM returns the current estimate.
func (t *TapTempo) BPM() (int, bool) {
	n := len(t.taps)
	if n < minTaps {
		return 0, false
	}
	mean := t.taps[n-1].Sub(t.taps[0]) / time.Duration(n-1)
	if mean <= 0 {
		return 0, false
	}
	return int(math.Round(float64(time.Minute) / float64(mean))), true
}

// Taps returns how many taps are in the current measurement.
func (t *TapTempo) Taps() int { return len(t.taps) }

func (t *TapTempo) Reset() { t.taps = nil }
