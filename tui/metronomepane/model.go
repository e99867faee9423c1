package metronomepane

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dylan/swingtempo/metronome"
	"github.com/dylan/swingtempo/tui/shared"
)

type Model struct {
	cfg       metronome.Config
	running   bool
	beat      *metronome.Beat
	taps      int
	textInput textinput.Model
	editing   bool
	err       error
	width     int
	height    int
}

func New(cfg metronome.Config) Model {
	ti := textinput.New()
	ti.Placeholder = fmt.Sprintf("%d-%d", metronome.MinBPM, metronome.MaxBPM)
	ti.CharLimit = 3
	ti.Width = 6
	return Model{
		cfg:       cfg,
		textInput: ti,
	}
}

func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
}

func (m *Model) SetConfig(cfg metronome.Config) {
	m.cfg = cfg
}

func (m *Model) SetRunning(v bool) {
	m.running = v
	if !v {
		m.beat = nil
	}
}

// SetBeat lights the beat's cell. Beats that arrive after a stop are
// ignored.
func (m *Model) SetBeat(b metronome.Beat) {
	if !m.running {
		return
	}
	m.beat = &b
}

func (m *Model) SetTaps(n int) {
	m.taps = n
}

func (m *Model) SetError(err error) {
	m.err = err
}

// StartEditing focuses the bpm entry.
func (m *Model) StartEditing() tea.Cmd {
	m.editing = true
	m.err = nil
	m.textInput.Reset()
	m.textInput.SetValue(strconv.Itoa(m.cfg.BPM))
	m.textInput.CursorEnd()
	return m.textInput.Focus()
}

func (m *Model) StopEditing() {
	m.editing = false
	m.textInput.Blur()
}

func (m Model) Editing() bool {
	return m.editing
}

// EnteredBPM parses the bpm entry.
func (m Model) EnteredBPM() (int, error) {
	v := strings.TrimSpace(m.textInput.Value())
	bpm, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", v)
	}
	if bpm < metronome.MinBPM || bpm > metronome.MaxBPM {
		return 0, fmt.Errorf("bpm must be %d-%d", metronome.MinBPM, metronome.MaxBPM)
	}
	return bpm, nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(shared.PaneTitleStyle.Render("Metronome"))
	state := "stopped"
	if m.running {
		state = "running"
	}
	b.WriteString("  " + shared.DimStyle.Render(state))
	b.WriteString("\n\n")

	if m.editing {
		b.WriteString(shared.LabelStyle.Render("bpm "))
		b.WriteString(m.textInput.View())
	} else {
		b.WriteString(shared.RatioStyle.Render(strconv.Itoa(m.cfg.BPM)))
		b.WriteString(shared.LabelStyle.Render(" bpm  "))
		b.WriteString(shared.DimStyle.Render(metronome.Marking(m.cfg.BPM)))
	}
	b.WriteString("\n")
	b.WriteString(shared.LabelStyle.Render(fmt.Sprintf("cycle %d:%d  %dms/beat", m.cfg.BackswingBeats, m.cfg.DownswingBeats, m.cfg.Interval().Milliseconds())))
	b.WriteString("\n\n")

	b.WriteString(m.renderBeats())
	b.WriteString("\n")

	if m.taps > 0 {
		b.WriteString("\n" + shared.DimStyle.Render(fmt.Sprintf("tap %d…", m.taps)) + "\n")
	}

	if m.err != nil {
		b.WriteString("\n" + shared.ErrorStyle.Render(m.err.Error()) + "\n")
	}

	if m.editing {
		b.WriteString("\n" + shared.HelpDescStyle.Render("enter: apply  esc: cancel"))
	}

	style := shared.PaneBorderStyle
	if m.running {
		style = shared.PaneBorderFocusedStyle
	}
	if m.width > 2 {
		style = style.Width(m.width - 2)
	}
	return style.Render(b.String())
}

// renderBeats draws one cell per beat in the cycle, lighting the current one.
func (m Model) renderBeats() string {
	n := m.cfg.CycleLength()
	cells := make([]string, n)
	for pos := 0; pos < n; pos++ {
		b := metronome.Classify(pos, m.cfg)
		label := " · "
		if pos == 0 {
			label = " B "
		} else if pos == m.cfg.BackswingBeats {
			label = " D "
		}
		if m.beat == nil || m.beat.Position != pos {
			cells[pos] = shared.BeatIdleStyle.Render(label)
			continue
		}
		switch b.Accent {
		case metronome.AccentBackswing:
			cells[pos] = shared.BeatBackswingStyle.Render(label)
		case metronome.AccentDownswing:
			cells[pos] = shared.BeatDownswingStyle.Render(label)
		default:
			cells[pos] = shared.BeatPlainStyle.Render(label)
		}
	}
	return strings.Join(cells, " ")
}
