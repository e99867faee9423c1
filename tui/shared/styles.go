package shared

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/dylan/swingtempo/config"
	"github.com/dylan/swingtempo/swing"
)

var (
	// Header
	TitleStyle    lipgloss.Style
	SubtitleStyle lipgloss.Style

	// Panes
	PaneBorderStyle        lipgloss.Style
	PaneBorderFocusedStyle lipgloss.Style
	PaneTitleStyle         lipgloss.Style
	LabelStyle             lipgloss.Style
	ValueStyle             lipgloss.Style
	DimStyle               lipgloss.Style

	// Swing phases
	PhaseIdleStyle   lipgloss.Style
	PhaseActiveStyle lipgloss.Style
	PhaseDoneStyle   lipgloss.Style

	// Ratio quality
	GoodStyle  lipgloss.Style
	CloseStyle lipgloss.Style
	OffStyle   lipgloss.Style
	RatioStyle lipgloss.Style

	// Metronome beats
	BeatBackswingStyle lipgloss.Style
	BeatDownswingStyle lipgloss.Style
	BeatPlainStyle     lipgloss.Style
	BeatIdleStyle      lipgloss.Style

	// History view header/footer
	HeaderStyle lipgloss.Style
	FooterStyle lipgloss.Style

	// Status bar
	StatusBarStyle lipgloss.Style

	// Help styles
	HelpKeyStyle     lipgloss.Style
	HelpDescStyle    lipgloss.Style
	HelpOverlayStyle lipgloss.Style

	// Error
	ErrorStyle lipgloss.Style

	// Spinner
	SpinnerStyle lipgloss.Style

	// Feedback
	FeedbackSuccessStyle lipgloss.Style
	FeedbackWarningStyle lipgloss.Style
	FeedbackErrorStyle   lipgloss.Style
)

// InitStyles configures all styles from a resolved theme.
func InitStyles(theme config.ThemeConfig) {
	TitleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(theme.Accent))

	SubtitleStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.Dim))

	PaneBorderStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(theme.Muted)).
		Padding(0, 1)

	PaneBorderFocusedStyle = PaneBorderStyle.
		BorderForeground(lipgloss.Color(theme.Accent))

	PaneTitleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(theme.FG))

	LabelStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.Muted))

	ValueStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.FG))

	DimStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.Dim))

	PhaseIdleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(theme.Dim))

	PhaseActiveStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(theme.BG)).
		Background(lipgloss.Color(theme.Accent)).
		Padding(0, 1)

	PhaseDoneStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(theme.BG)).
		Background(lipgloss.Color(theme.Accent2)).
		Padding(0, 1)

	GoodStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(theme.Good))

	CloseStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(theme.Close))

	OffStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(theme.Off))

	RatioStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(theme.FG))

	BeatBackswingStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(theme.BG)).
		Background(lipgloss.Color(theme.Accent))

	BeatDownswingStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(theme.BG)).
		Background(lipgloss.Color(theme.Accent2))

	BeatPlainStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.FG)).
		Background(lipgloss.Color(theme.BeatBG))

	BeatIdleStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.Muted))

	HeaderStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(theme.FG)).
		Background(lipgloss.Color(theme.CursorBG)).
		Padding(0, 1)

	FooterStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.Dim)).
		Padding(0, 1)

	StatusBarStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.StatusBarFG)).
		Background(lipgloss.Color(theme.StatusBarBG)).
		Padding(0, 1)

	HelpKeyStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.Accent))

	HelpDescStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.Dim))

	HelpOverlayStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(theme.Muted)).
		Padding(1, 2)

	ErrorStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.Error))

	SpinnerStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.SpinnerFG))

	FeedbackSuccessStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.FeedbackSuccessFG)).
		Background(lipgloss.Color(theme.FeedbackSuccessBG)).
		Padding(0, 1)

	FeedbackWarningStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.FeedbackWarningFG)).
		Background(lipgloss.Color(theme.FeedbackWarningBG)).
		Padding(0, 1)

	FeedbackErrorStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.FeedbackErrorFG)).
		Background(lipgloss.Color(theme.FeedbackErrorBG)).
		Padding(0, 1)
}

// QualityStyle returns the style for a ratio grade.
func QualityStyle(q swing.Quality) lipgloss.Style {
	switch q {
	case swing.Good:
		return GoodStyle
	case swing.Close:
		return CloseStyle
	default:
		return OffStyle
	}
}

// RenderRatio renders "3.0:1" in the quality's color.
func RenderRatio(r swing.Result) string {
	return QualityStyle(r.Quality).Render(FormatRatio(r.Ratio))
}

func FormatRatio(ratio float64) string {
	return fmt.Sprintf("%.1f:1", ratio)
}

// ResolveSpinnerType maps a config string to a bubbles spinner type.
func ResolveSpinnerType(name string) spinner.Spinner {
	switch strings.ToLower(name) {
	case "dot":
		return spinner.Dot
	case "line":
		return spinner.Line
	case "minidot":
		return spinner.MiniDot
	case "pulse":
		return spinner.Pulse
	case "points":
		return spinner.Points
	case "meter":
		return spinner.Meter
	case "ellipsis":
		return spinner.Ellipsis
	default:
		return spinner.MiniDot
	}
}

func init() {
	// Initialize with defaults so styles work even without explicit InitStyles call
	InitStyles(config.DefaultTheme())
}
