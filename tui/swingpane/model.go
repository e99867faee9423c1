package swingpane

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dylan/swingtempo/history"
	"github.com/dylan/swingtempo/swing"
	"github.com/dylan/swingtempo/tui/icons"
	"github.com/dylan/swingtempo/tui/shared"
)

// FeedState describes the landmark feed.
type FeedState int

const (
	FeedOff FeedState = iota
	FeedWaiting
	FeedLive
	FeedEnded
)

type Model struct {
	phase      swing.Phase
	handedness swing.Handedness
	last       *history.Item
	backswing  float64 // seconds into the current attempt's backswing, once known
	feed       FeedState
	feedLabel  string
	spinner    string
	lastErr    error
	width      int
	height     int
}

func New(h swing.Handedness) Model {
	return Model{handedness: h}
}

func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
}

func (m *Model) SetHandedness(h swing.Handedness) {
	m.handedness = h
	m.phase = swing.Ready
	m.backswing = 0
}

func (m *Model) SetPhase(p swing.Phase) {
	m.phase = p
	if p == swing.Ready {
		m.backswing = 0
	}
}

// Apply folds a detector update into the view.
func (m *Model) Apply(ev swing.Event, phase swing.Phase, item *history.Item, err error) {
	m.phase = phase
	switch ev.Kind {
	case swing.EventStarted, swing.EventAbandoned:
		m.backswing = 0
	case swing.EventTransition:
		m.backswing = ev.Backswing.Seconds()
	}
	if item != nil {
		m.last = item
		m.backswing = 0
	}
	m.lastErr = err
}

// SetLast shows item as the latest result, e.g. after history is loaded.
func (m *Model) SetLast(item *history.Item) {
	m.last = item
}

func (m *Model) SetFeed(state FeedState, label string) {
	m.feed = state
	m.feedLabel = label
}

// SetSpinnerView sets the rendered spinner shown while waiting for frames.
func (m *Model) SetSpinnerView(view string) {
	m.spinner = view
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(shared.PaneTitleStyle.Render("Swing"))
	b.WriteString("  ")
	b.WriteString(shared.DimStyle.Render(m.handedness.String() + "-handed"))
	b.WriteString("\n\n")

	b.WriteString(m.renderPhases())
	b.WriteString("\n\n")

	if m.backswing > 0 {
		b.WriteString(shared.LabelStyle.Render("backswing "))
		b.WriteString(shared.ValueStyle.Render(fmt.Sprintf("%.2fs", m.backswing)))
		b.WriteString("\n\n")
	}

	if m.last != nil {
		b.WriteString(m.renderResult(*m.last))
	} else {
		b.WriteString(shared.DimStyle.Render("No swings yet. Swing, or press enter to mark start, top and impact."))
	}
	b.WriteString("\n")

	if m.lastErr != nil {
		b.WriteString("\n" + shared.ErrorStyle.Render(m.lastErr.Error()) + "\n")
	}

	b.WriteString("\n" + m.renderFeed())

	style := shared.PaneBorderStyle
	if m.width > 2 {
		style = style.Width(m.width - 2)
	}
	return style.Render(b.String())
}

func (m Model) renderPhases() string {
	phases := []swing.Phase{swing.Ready, swing.Backswing, swing.Downswing, swing.Complete}
	parts := make([]string, len(phases))
	for i, p := range phases {
		label := icons.ForPhase(p) + " " + strings.ToUpper(p.String())
		switch {
		case p == m.phase && p == swing.Complete:
			parts[i] = shared.PhaseDoneStyle.Render(label)
		case p == m.phase:
			parts[i] = shared.PhaseActiveStyle.Render(label)
		default:
			parts[i] = shared.PhaseIdleStyle.Render(" " + label + " ")
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, strings.Join(parts, shared.DimStyle.Render(" › ")))
}

func (m Model) renderResult(it history.Item) string {
	res := it.Result
	verdict := swing.VerdictFor(res.Ratio)

	var b strings.Builder
	b.WriteString(shared.LabelStyle.Render("tempo  "))
	b.WriteString(shared.RenderRatio(res))
	b.WriteString("  ")
	b.WriteString(shared.QualityStyle(res.Quality).Render(icons.ForQuality(res.Quality) + " " + string(res.Quality)))
	b.WriteString(shared.DimStyle.Render("  " + it.Timestamp))
	b.WriteString("\n")
	b.WriteString(shared.LabelStyle.Render("back   "))
	b.WriteString(shared.ValueStyle.Render(swing.Seconds(res.Backswing)))
	b.WriteString(shared.LabelStyle.Render("   down "))
	b.WriteString(shared.ValueStyle.Render(swing.Seconds(res.Downswing)))
	b.WriteString("\n")
	b.WriteString(shared.ValueStyle.Render(verdict.String()))
	b.WriteString(shared.DimStyle.Render(". " + verdict.Advice()))
	return b.String()
}

func (m Model) renderFeed() string {
	switch m.feed {
	case FeedWaiting:
		label := "waiting for landmarks"
		if m.feedLabel != "" {
			label += " on " + m.feedLabel
		}
		if m.spinner != "" {
			label = m.spinner + " " + label
		}
		return shared.DimStyle.Render(label)
	case FeedLive:
		return shared.GoodStyle.Render(icons.Camera() + " ") + shared.DimStyle.Render("tracking "+m.feedLabel)
	case FeedEnded:
		return shared.DimStyle.Render("feed ended " + m.feedLabel)
	}
	return shared.DimStyle.Render("camera off: manual marking only")
}
