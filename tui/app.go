package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dylan/swingtempo/config"
	"github.com/dylan/swingtempo/history"
	"github.com/dylan/swingtempo/metronome"
	"github.com/dylan/swingtempo/pose"
	"github.com/dylan/swingtempo/swing"
	"github.com/dylan/swingtempo/trainer"
	"github.com/dylan/swingtempo/tui/help"
	"github.com/dylan/swingtempo/tui/historypane"
	"github.com/dylan/swingtempo/tui/icons"
	"github.com/dylan/swingtempo/tui/metronomepane"
	"github.com/dylan/swingtempo/tui/shared"
	"github.com/dylan/swingtempo/tui/swingpane"
)

type ActiveView int

const (
	TrainerView ActiveView = iota
	HistoryView
)

// Deps are the running components the UI drives.
type Deps struct {
	Ctx        context.Context
	Trainer    *trainer.Trainer
	Metronome  *metronome.Engine
	Source     pose.Source // nil when the camera is disabled
	Permission pose.Permission
	FeedLabel  string
	Events     Events
	ConfigPath string
	Logger     *slog.Logger
}

type App struct {
	cfg        config.Config
	deps       Deps
	activeView ActiveView
	showHelp   bool
	feedback   *shared.Feedback

	swingPane     swingpane.Model
	metronomePane metronomepane.Model
	historyPane   historypane.Model
	helpView      help.Model

	spinner spinner.Model
	loading map[shared.LoaderOp]string
	taps    *metronome.TapTempo

	width  int
	height int
}

func NewApp(cfg config.Config, deps Deps) App {
	theme := cfg.ResolvedTheme()
	shared.InitStyles(theme)
	icons.SetNerdFonts(cfg.Display.NerdFonts)

	if deps.Ctx == nil {
		deps.Ctx = context.Background()
	}
	if deps.Events == nil {
		deps.Events = NewEvents()
	}
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}

	sp := spinner.New(
		spinner.WithSpinner(shared.ResolveSpinnerType(theme.SpinnerType)),
		spinner.WithStyle(shared.SpinnerStyle),
	)

	return App{
		cfg:           cfg,
		deps:          deps,
		activeView:    TrainerView,
		swingPane:     swingpane.New(deps.Trainer.Handedness()),
		metronomePane: metronomepane.New(deps.Metronome.Config()),
		historyPane:   historypane.New(cfg.ResolvedHistoryBackend()),
		helpView:      help.New(),
		spinner:       sp,
		loading:       make(map[shared.LoaderOp]string),
		taps:          &metronome.TapTempo{},
	}
}

func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		a.deps.Events.wait(),
		loadHistoryCmd(a.deps.Ctx, a.deps.Trainer),
	}
	if a.deps.Source != nil {
		label := a.deps.FeedLabel
		cmds = append(cmds,
			runFeedCmd(a.deps.Ctx, a.deps.Trainer, a.deps.Source, a.deps.Permission),
			func() tea.Msg { return shared.LoaderStartMsg{Op: shared.OpFeed, Label: label} },
		)
	}
	return tea.Batch(cmds...)
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.layoutSizes()
		a.historyPane.SetSize(msg.Width, msg.Height-1)
		a.helpView.SetSize(msg.Width, msg.Height)
		return a, nil

	case shared.TrainerUpdateMsg:
		u := msg.Update
		a.swingPane.Apply(u.Event, u.Phase, u.Item, u.Err)
		if u.Item != nil && a.activeView == HistoryView {
			a.historyPane.SetItems(a.deps.Trainer.History(), time.Now())
		}
		cmds := []tea.Cmd{a.deps.Events.wait()}
		if u.Err != nil {
			cmds = append(cmds, a.feedbackCmd(updateFeedback(u.Err)))
		}
		return a, tea.Batch(cmds...)

	case shared.BeatMsg:
		if a.deps.Metronome.Running() {
			a.metronomePane.SetBeat(msg.Beat)
		}
		return a, a.deps.Events.wait()

	case shared.MetronomeFailedMsg:
		a.metronomePane.SetRunning(false)
		a.metronomePane.SetError(msg.Err)
		return a, tea.Batch(
			a.deps.Events.wait(),
			a.feedbackCmd(shared.NewFeedback(shared.FeedbackError, "", "Metronome stopped: audio output failing", msg.Err)),
		)

	case shared.LoaderStartMsg:
		a.loading[msg.Op] = msg.Label
		if msg.Op == shared.OpFeed {
			a.swingPane.SetFeed(swingpane.FeedWaiting, msg.Label)
		}
		return a, a.spinner.Tick

	case shared.LoaderStopMsg:
		delete(a.loading, msg.Op)
		if msg.Op == shared.OpFeed {
			a.swingPane.SetSpinnerView("")
		}
		return a, nil

	case spinner.TickMsg:
		if len(a.loading) == 0 {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		a.swingPane.SetSpinnerView(a.spinner.View())
		if _, waiting := a.loading[shared.OpFeed]; waiting && a.deps.Trainer.FramesSeen() > 0 {
			a.swingPane.SetFeed(swingpane.FeedLive, a.loading[shared.OpFeed])
			return a, tea.Batch(cmd, func() tea.Msg { return shared.LoaderStopMsg{Op: shared.OpFeed} })
		}
		return a, cmd

	case shared.FeedStoppedMsg:
		delete(a.loading, shared.OpFeed)
		a.swingPane.SetSpinnerView("")
		if msg.Err != nil {
			a.swingPane.SetFeed(swingpane.FeedOff, "")
			level := shared.FeedbackError
			text := "Landmark feed failed: " + msg.Err.Error()
			if trainer.IsPermissionError(msg.Err) {
				level = shared.FeedbackWarning
				text = "Camera permission denied: manual marking only"
			}
			return a, a.feedbackCmd(shared.NewFeedback(level, shared.OpFeed, text, msg.Err))
		}
		a.swingPane.SetFeed(swingpane.FeedEnded, a.deps.FeedLabel)
		return a, nil

	case shared.HistoryLoadedMsg:
		if msg.Err != nil {
			return a, a.feedbackCmd(shared.NewFeedback(shared.FeedbackWarning, shared.OpHistory, "Could not load swing history", msg.Err))
		}
		if len(msg.Items) > 0 {
			latest := msg.Items[0]
			a.swingPane.SetLast(&latest)
		}
		return a, nil

	case shared.HistoryClearedMsg:
		a.swingPane.SetLast(nil)
		a.historyPane.SetItems(nil, time.Now())
		if msg.Err != nil {
			return a, a.feedbackCmd(shared.NewFeedback(shared.FeedbackError, shared.OpHistory, "History cleared here but not in storage", msg.Err))
		}
		return a, a.feedbackCmd(shared.NewFeedback(shared.FeedbackSuccess, shared.OpHistory, "History cleared", nil))

	case shared.HistoryCopiedMsg:
		if msg.Err != nil {
			return a, a.feedbackCmd(shared.NewFeedback(shared.FeedbackError, shared.OpExport, "Copy failed: "+msg.Err.Error(), msg.Err))
		}
		return a, a.feedbackCmd(shared.NewFeedback(shared.FeedbackSuccess, shared.OpExport, fmt.Sprintf("Copied %d swings to clipboard", msg.Count), nil))

	case shared.SettingsSavedMsg:
		if msg.Err != nil {
			return a, a.feedbackCmd(shared.NewFeedback(shared.FeedbackError, shared.OpSave, "Saving settings failed: "+msg.Err.Error(), msg.Err))
		}
		return a, a.feedbackCmd(shared.NewFeedback(shared.FeedbackSuccess, shared.OpSave, "Settings saved to "+msg.Path, nil))

	case shared.FeedbackMsg:
		f := msg.Feedback
		a.feedback = &f
		return a, shared.DismissAfter(f)

	case shared.DismissFeedbackMsg:
		if a.feedback != nil && a.feedback.Timestamp.Equal(msg.Timestamp) {
			a.feedback = nil
		}
		return a, nil

	case shared.CloseHistoryMsg:
		a.activeView = TrainerView
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	// Route updates to active view
	switch a.activeView {
	case HistoryView:
		var cmd tea.Cmd
		a.historyPane, cmd = a.historyPane.Update(msg)
		return a, cmd
	case TrainerView:
		if a.metronomePane.Editing() {
			var cmd tea.Cmd
			a.metronomePane, cmd = a.metronomePane.Update(msg)
			return a, cmd
		}
	}

	return a, nil
}

func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.metronomePane.Editing() {
		return a.handleBPMEntryKey(msg)
	}

	// Help toggle is global
	if key.Matches(msg, shared.Keys.Help) {
		a.showHelp = !a.showHelp
		return a, nil
	}

	// If help is shown, any key closes it
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	switch a.activeView {
	case TrainerView:
		return a.handleTrainerKey(msg)
	case HistoryView:
		return a.handleHistoryKey(msg)
	}

	return a, nil
}

func (a App) handleTrainerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	met := a.deps.Metronome

	switch {
	case key.Matches(msg, shared.Keys.Quit):
		met.Stop()
		return a, tea.Quit

	case key.Matches(msg, shared.Keys.Metronome):
		if met.Running() {
			met.Stop()
			a.metronomePane.SetRunning(false)
			return a, nil
		}
		if err := met.Start(); err != nil {
			a.metronomePane.SetError(err)
			return a, a.feedbackCmd(shared.NewFeedback(shared.FeedbackError, "", "No audio output: "+err.Error(), err))
		}
		a.metronomePane.SetError(nil)
		a.metronomePane.SetRunning(true)
		return a, nil

	case key.Matches(msg, shared.Keys.FasterBPM):
		return a.adjustMetronome(func(c *metronome.Config) { c.BPM = metronome.ClampBPM(c.BPM + 1) })

	case key.Matches(msg, shared.Keys.SlowerBPM):
		return a.adjustMetronome(func(c *metronome.Config) { c.BPM = metronome.ClampBPM(c.BPM - 1) })

	case key.Matches(msg, shared.Keys.MoreBackBeats):
		return a.adjustMetronome(func(c *metronome.Config) { c.BackswingBeats = min(c.BackswingBeats+1, 8) })

	case key.Matches(msg, shared.Keys.FewerBackBeats):
		return a.adjustMetronome(func(c *metronome.Config) { c.BackswingBeats = max(c.BackswingBeats-1, 1) })

	case key.Matches(msg, shared.Keys.MoreDownBeats):
		return a.adjustMetronome(func(c *metronome.Config) { c.DownswingBeats = min(c.DownswingBeats+1, 8) })

	case key.Matches(msg, shared.Keys.FewerDownBeats):
		return a.adjustMetronome(func(c *metronome.Config) { c.DownswingBeats = max(c.DownswingBeats-1, 1) })

	case key.Matches(msg, shared.Keys.EnterBPM):
		return a, a.metronomePane.StartEditing()

	case key.Matches(msg, shared.Keys.TapTempo):
		bpm, ok := a.taps.Tap(time.Now())
		a.metronomePane.SetTaps(a.taps.Taps())
		if !ok {
			return a, nil
		}
		return a.adjustMetronome(func(c *metronome.Config) { c.BPM = metronome.ClampBPM(bpm) })

	case key.Matches(msg, shared.Keys.Advance):
		if _, err := a.deps.Trainer.Advance(); err != nil && errors.Is(err, swing.ErrWrongPhase) {
			return a, a.feedbackCmd(shared.NewFeedback(shared.FeedbackWarning, "", err.Error(), err))
		}
		return a, nil

	case key.Matches(msg, shared.Keys.Reset):
		a.deps.Trainer.Reset()
		a.swingPane.SetPhase(a.deps.Trainer.Phase())
		return a, nil

	case key.Matches(msg, shared.Keys.Handedness):
		h := swing.LeftHanded
		if a.deps.Trainer.Handedness() == swing.LeftHanded {
			h = swing.RightHanded
		}
		a.deps.Trainer.SetHandedness(h)
		a.swingPane.SetHandedness(h)
		return a, a.feedbackCmd(shared.NewFeedback(shared.FeedbackInfo, "", "Tracking "+h.String()+"-handed swings", nil))

	case key.Matches(msg, shared.Keys.History):
		a.activeView = HistoryView
		a.historyPane.SetItems(a.deps.Trainer.History(), time.Now())
		return a, nil

	case key.Matches(msg, shared.Keys.ClearHistory):
		return a, clearHistoryCmd(a.deps.Trainer)

	case key.Matches(msg, shared.Keys.CopyHistory):
		return a, copyHistoryCmd(a.deps.Trainer.History())

	case key.Matches(msg, shared.Keys.SaveSettings):
		return a, saveSettingsCmd(a.deps.ConfigPath, a.settingsSnapshot())
	}

	return a, nil
}

func (a App) handleHistoryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, shared.Keys.Quit), key.Matches(msg, shared.Keys.Escape), key.Matches(msg, shared.Keys.History):
		return a, func() tea.Msg { return shared.CloseHistoryMsg{} }

	case key.Matches(msg, shared.Keys.CopyHistory):
		return a, copyHistoryCmd(a.deps.Trainer.History())

	case key.Matches(msg, shared.Keys.ClearHistory):
		return a, clearHistoryCmd(a.deps.Trainer)
	}

	// Pass through to viewport for scrolling
	var cmd tea.Cmd
	a.historyPane, cmd = a.historyPane.Update(msg)
	return a, cmd
}

func (a App) handleBPMEntryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, shared.Keys.Escape):
		a.metronomePane.StopEditing()
		return a, nil

	case msg.Type == tea.KeyEnter:
		bpm, err := a.metronomePane.EnteredBPM()
		if err != nil {
			a.metronomePane.SetError(err)
			return a, nil
		}
		a.metronomePane.StopEditing()
		return a.adjustMetronome(func(c *metronome.Config) { c.BPM = bpm })
	}

	// Pass through to text input
	var cmd tea.Cmd
	a.metronomePane, cmd = a.metronomePane.Update(msg)
	return a, cmd
}

// adjustMetronome applies a config change to the engine and the pane.
func (a App) adjustMetronome(change func(*metronome.Config)) (tea.Model, tea.Cmd) {
	cfg := a.deps.Metronome.Config()
	change(&cfg)
	if err := a.deps.Metronome.SetConfig(cfg); err != nil {
		a.metronomePane.SetError(err)
		return a, nil
	}
	a.metronomePane.SetError(nil)
	a.metronomePane.SetConfig(cfg)
	return a, nil
}

// settingsSnapshot folds the live metronome and handedness settings into the
// loaded config.
func (a App) settingsSnapshot() config.Config {
	cfg := a.cfg
	m := a.deps.Metronome.Config()
	cfg.Metronome.BPM = m.BPM
	cfg.Metronome.BackswingBeats = m.BackswingBeats
	cfg.Metronome.DownswingBeats = m.DownswingBeats
	cfg.Swing.Handedness = a.deps.Trainer.Handedness().String()
	return cfg
}

func (a App) feedbackCmd(f shared.Feedback) tea.Cmd {
	if f.Detail != "" {
		a.deps.Logger.Warn(f.Message, "op", string(f.Op), "err", f.Detail)
	}
	return func() tea.Msg { return shared.FeedbackMsg{Feedback: f} }
}

func updateFeedback(err error) shared.Feedback {
	if errors.Is(err, swing.ErrInvalidDuration) {
		return shared.NewFeedback(shared.FeedbackWarning, "", "Swing too short to time, not recorded", err)
	}
	return shared.NewFeedback(shared.FeedbackError, shared.OpHistory, "Swing recorded but not saved", err)
}

func (a App) View() string {
	if a.showHelp {
		return a.helpView.View()
	}

	switch a.activeView {
	case HistoryView:
		return a.historyPane.View() + a.renderStatusBar()
	}

	contentH := a.height - 1 // reserve 1 for status bar
	if contentH < 1 {
		contentH = 1
	}

	var body string
	if a.width >= 80 {
		body = lipgloss.JoinHorizontal(lipgloss.Top, a.swingPane.View(), a.metronomePane.View())
	} else {
		body = lipgloss.JoinVertical(lipgloss.Left, a.swingPane.View(), a.metronomePane.View())
	}

	header := shared.TitleStyle.Render("swingtempo") + "  " + shared.SubtitleStyle.Render("backswing:downswing, target 3:1")
	view := lipgloss.NewStyle().Height(contentH).MaxHeight(contentH).Render(header + "\n\n" + body)
	return view + a.renderStatusBar()
}

func (a *App) layoutSizes() {
	if a.width >= 80 {
		swingW := a.width * 3 / 5
		a.swingPane.SetSize(swingW, a.height-1)
		a.metronomePane.SetSize(a.width-swingW, a.height-1)
		return
	}
	a.swingPane.SetSize(a.width, (a.height-1)/2)
	a.metronomePane.SetSize(a.width, (a.height-1)/2)
}

func (a App) renderStatusBar() string {
	met := a.deps.Metronome.Config()
	parts := []string{
		"swingtempo",
		a.deps.Trainer.Handedness().String() + "-handed",
		fmt.Sprintf("%d bpm %d:%d", met.BPM, met.BackswingBeats, met.DownswingBeats),
		fmt.Sprintf("%d swings", len(a.deps.Trainer.History())),
	}

	status := strings.Join(parts, " │ ")
	if a.feedback != nil {
		status += " │ " + a.feedback.Render()
	}
	status += " │ ? for help"

	return "\n" + shared.StatusBarStyle.Width(a.width).Render(status)
}

// --- Commands ---

func runFeedCmd(ctx context.Context, tr *trainer.Trainer, src pose.Source, perm pose.Permission) tea.Cmd {
	return func() tea.Msg {
		err := tr.Run(ctx, src, perm)
		return shared.FeedStoppedMsg{Err: err}
	}
}

func loadHistoryCmd(ctx context.Context, tr *trainer.Trainer) tea.Cmd {
	return func() tea.Msg {
		if err := tr.LoadHistory(ctx); err != nil {
			return shared.HistoryLoadedMsg{Err: err}
		}
		return shared.HistoryLoadedMsg{Items: tr.History()}
	}
}

func clearHistoryCmd(tr *trainer.Trainer) tea.Cmd {
	return func() tea.Msg {
		err := tr.ClearHistory()
		return shared.HistoryClearedMsg{Err: err}
	}
}

func copyHistoryCmd(items []history.Item) tea.Cmd {
	return func() tea.Msg {
		err := history.CopyExport(items)
		return shared.HistoryCopiedMsg{Count: len(items), Err: err}
	}
}

func saveSettingsCmd(path string, cfg config.Config) tea.Cmd {
	return func() tea.Msg {
		err := config.Save(path, cfg)
		return shared.SettingsSavedMsg{Path: path, Err: err}
	}
}
