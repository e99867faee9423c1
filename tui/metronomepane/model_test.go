package metronomepane

import (
	"testing"

	"github.com/dylan/swingtempo/metronome"
)

func TestSetBeatIgnoredWhileStopped(t *testing.T) {
	cfg := metronome.DefaultConfig()
	m := New(cfg)

	m.SetRunning(true)
	m.SetBeat(metronome.Classify(1, cfg))
	if m.beat == nil || m.beat.Position != 1 {
		t.Fatalf("beat = %+v, want position 1", m.beat)
	}

	m.SetRunning(false)
	if m.beat != nil {
		t.Fatal("stop should clear the beat position")
	}
	// A beat queued before the stop arrives late.
	m.SetBeat(metronome.Classify(2, cfg))
	if m.beat != nil {
		t.Errorf("late beat lit position %d while stopped", m.beat.Position)
	}
}
