package historypane

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/dylan/swingtempo/history"
	"github.com/dylan/swingtempo/swing"
	"github.com/dylan/swingtempo/tui/icons"
	"github.com/dylan/swingtempo/tui/shared"
)

type Model struct {
	viewport viewport.Model
	items    []history.Item
	backend  string
	ready    bool
	width    int
	height   int
}

func New(backend string) Model {
	return Model{backend: backend}
}

func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
	headerHeight := 1
	footerHeight := 1
	contentHeight := h - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}
	m.viewport = viewport.New(w, contentHeight)
	m.viewport.YPosition = headerHeight
	m.ready = true
	m.render(time.Now())
}

// SetItems replaces the listed swings (newest first).
func (m *Model) SetItems(items []history.Item, now time.Time) {
	m.items = items
	m.render(now)
	m.viewport.GotoTop()
}

func (m *Model) render(now time.Time) {
	if !m.ready {
		return
	}
	m.viewport.SetContent(renderHistory(m.items, now))
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := shared.HeaderStyle.Width(m.width).Render(fmt.Sprintf(" Swing history (%d, %s)", len(m.items), m.backend))
	footer := shared.FooterStyle.Width(m.width).Render("j/k: scroll  y: copy  c: clear  q/esc: close")

	return fmt.Sprintf("%s\n%s\n%s", header, m.viewport.View(), footer)
}

func renderHistory(items []history.Item, now time.Time) string {
	if len(items) == 0 {
		return shared.DimStyle.Render("  No swings recorded yet.")
	}

	var b strings.Builder
	for i, it := range items {
		res := it.Result
		fmt.Fprintf(&b, "  %s  %s  %s  %s  %s\n",
			shared.LabelStyle.Render(fmt.Sprintf("%2d", i+1)),
			shared.RenderRatio(res),
			shared.QualityStyle(res.Quality).Render(icons.ForQuality(res.Quality)+" "+fmt.Sprintf("%-5s", res.Quality)),
			shared.ValueStyle.Render(fmt.Sprintf("back %s  down %s", swing.Seconds(res.Backswing), swing.Seconds(res.Downswing))),
			shared.DimStyle.Render(it.Timestamp+" · "+humanize.RelTime(it.RecordedAt, now, "ago", "from now")),
		)
	}

	s := history.Summarize(items)
	b.WriteString("\n")
	b.WriteString("  " + shared.PaneTitleStyle.Render("Summary") + "\n")
	fmt.Fprintf(&b, "  %s %s   %s %.2f   %s %.1f-%.1f\n",
		shared.LabelStyle.Render("average"), shared.RatioStyle.Render(shared.FormatRatio(s.MeanRatio)),
		shared.LabelStyle.Render("sd"), s.StdDevRatio,
		shared.LabelStyle.Render("range"), s.MinRatio, s.MaxRatio)
	fmt.Fprintf(&b, "  %s %s  %s %s  %s %s   %s\n",
		shared.GoodStyle.Render("good"), humanize.Comma(int64(s.Qualities[swing.Good])),
		shared.CloseStyle.Render("close"), humanize.Comma(int64(s.Qualities[swing.Close])),
		shared.OffStyle.Render("off"), humanize.Comma(int64(s.Qualities[swing.Off])),
		shared.DimStyle.Render(fmt.Sprintf("%.0f%% in range, %s", s.Consistency*100, s.Verdict)))
	return b.String()
}
