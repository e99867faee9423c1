// Package audio synthesizes metronome clicks and plays them.
package audio

import (
	"encoding/binary"
	"math"
	"time"
)

// Output format shared by synthesis and playback.
const (
	SampleRate     = 44100
	ChannelCount   = 2
	bytesPerSample = 2
)

// Waveform shapes a tone.
type Waveform int

const (
	Sine Waveform = iota
	Square
	Triangle
)

// Tone is one click: a waveform at a frequency whose gain decays
// exponentially to near silence over Duration.
type Tone struct {
	Waveform  Waveform
	Frequency float64 // Hz
	Gain      float64 // initial amplitude, 0..1
	Duration  time.Duration
}

// silence is the gain the decay envelope ends at.
const silence = 0.001

// Synthesize renders t as interleaved signed 16-bit little-endian PCM at
// SampleRate with ChannelCount channels.
func Synthesize(t Tone) []byte {
	n := int(t.Duration.Seconds() * SampleRate)
	if n <= 0 || t.Gain <= 0 {
		return nil
	}
	buf := make([]byte, n*ChannelCount*bytesPerSample)

	decay := math.Log(silence / t.Gain)
	for i := 0; i < n; i++ {
		pos := float64(i) / float64(n)
		env := t.Gain * math.Exp(decay*pos)
		phase := math.Mod(t.Frequency*float64(i)/SampleRate, 1)
		v := env * wave(t.Waveform, phase)
		s := int16(math.Max(-1, math.Min(1, v)) * math.MaxInt16)
		for c := 0; c < ChannelCount; c++ {
			off := (i*ChannelCount + c) * bytesPerSample
			binary.LittleEndian.PutUint16(buf[off:], uint16(s))
		}
	}
	return buf
}

// wave evaluates a unit-amplitude waveform at phase in [0,1).
func wave(w Waveform, phase float64) float64 {
	switch w {
	case Square:
		if phase < 0.5 {
			return 1
		}
		return -1
	case Triangle:
		return 1 - 4*math.Abs(phase-0.5)
	}
	return math.Sin(2 * math.Pi * phase)
}
