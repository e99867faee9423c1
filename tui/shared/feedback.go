package shared

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// FeedbackLevel controls styling and auto-clear duration.
type FeedbackLevel int

const (
	FeedbackInfo    FeedbackLevel = iota // transient, auto-clears 4s
	FeedbackSuccess                      // green styled, auto-clears 4s
	FeedbackWarning                      // yellow, auto-clears 8s
	FeedbackError                        // red, auto-clears 12s
)

// FeedbackTTL returns the auto-clear duration for a given level.
func FeedbackTTL(level FeedbackLevel) time.Duration {
	switch level {
	case FeedbackInfo, FeedbackSuccess:
		return 4 * time.Second
	case FeedbackWarning:
		return 8 * time.Second
	default:
		return 12 * time.Second
	}
}

// Feedback represents a user-facing feedback message.
type Feedback struct {
	Level     FeedbackLevel
	Message   string
	Detail    string // full error text, written to the log
	Timestamp time.Time
	Op        LoaderOp // which operation produced this
}

// Render styles the feedback for the status bar.
func (f Feedback) Render() string {
	switch f.Level {
	case FeedbackSuccess:
		return FeedbackSuccessStyle.Render(f.Message)
	case FeedbackWarning:
		return FeedbackWarningStyle.Render(f.Message)
	case FeedbackError:
		return FeedbackErrorStyle.Render(f.Message)
	}
	return f.Message
}

// FeedbackMsg delivers a feedback message to the app.
type FeedbackMsg struct {
	Feedback Feedback
}

// DismissFeedbackMsg clears the feedback shown at Timestamp, if it is still
// the current one.
type DismissFeedbackMsg struct {
	Timestamp time.Time
}

// DismissAfter schedules the auto-clear for f.
func DismissAfter(f Feedback) tea.Cmd {
	return tea.Tick(FeedbackTTL(f.Level), func(time.Time) tea.Msg {
		return DismissFeedbackMsg{Timestamp: f.Timestamp}
	})
}

// NewFeedback stamps a feedback message with the current time.
func NewFeedback(level FeedbackLevel, op LoaderOp, msg string, err error) Feedback {
	f := Feedback{Level: level, Message: msg, Timestamp: time.Now(), Op: op}
	if err != nil {
		f.Detail = err.Error()
	}
	return f
}
