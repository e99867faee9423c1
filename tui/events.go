package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// Events carries messages from the trainer and metronome goroutines into the
// bubbletea loop.
type Events chan tea.Msg

func NewEvents() Events {
	return make(Events, 256)
}

// Send delivers msg without blocking. When the UI is behind, msg is dropped.
// Use it for high-rate messages such as beats.
func (e Events) Send(msg tea.Msg) {
	select {
	case e <- msg:
	default:
	}
}

// Deliver blocks until msg is queued or ctx is done. State changes the UI
// must not miss, such as the metronome stopping itself, go through Deliver.
// It must not be called from the bubbletea loop.
func (e Events) Deliver(ctx context.Context, msg tea.Msg) bool {
	select {
	case e <- msg:
		return true
	case <-ctx.Done():
		return false
	}
}

// wait returns a command that yields the next event.
func (e Events) wait() tea.Cmd {
	return func() tea.Msg {
		return <-e
	}
}
