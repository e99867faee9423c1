package shared

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Up             key.Binding
	Down           key.Binding
	Metronome      key.Binding
	FasterBPM      key.Binding
	SlowerBPM      key.Binding
	EnterBPM       key.Binding
	MoreBackBeats  key.Binding
	FewerBackBeats key.Binding
	MoreDownBeats  key.Binding
	FewerDownBeats key.Binding
	TapTempo       key.Binding
	Advance        key.Binding
	Reset          key.Binding
	Handedness     key.Binding
	History        key.Binding
	ClearHistory   key.Binding
	CopyHistory    key.Binding
	SaveSettings   key.Binding
	Help           key.Binding
	Quit           key.Binding
	Escape         key.Binding
}

var Keys = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	Metronome: key.NewBinding(
		key.WithKeys(" "),
		key.WithHelp("space", "start/stop metronome"),
	),
	FasterBPM: key.NewBinding(
		key.WithKeys("+", "="),
		key.WithHelp("+", "bpm up"),
	),
	SlowerBPM: key.NewBinding(
		key.WithKeys("-", "_"),
		key.WithHelp("-", "bpm down"),
	),
	EnterBPM: key.NewBinding(
		key.WithKeys("b"),
		key.WithHelp("b", "type bpm"),
	),
	MoreBackBeats: key.NewBinding(
		key.WithKeys("]"),
		key.WithHelp("]", "more backswing beats"),
	),
	FewerBackBeats: key.NewBinding(
		key.WithKeys("["),
		key.WithHelp("[", "fewer backswing beats"),
	),
	MoreDownBeats: key.NewBinding(
		key.WithKeys("}"),
		key.WithHelp("}", "more downswing beats"),
	),
	FewerDownBeats: key.NewBinding(
		key.WithKeys("{"),
		key.WithHelp("{", "fewer downswing beats"),
	),
	TapTempo: key.NewBinding(
		key.WithKeys("t"),
		key.WithHelp("t", "tap tempo"),
	),
	Advance: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "mark start/top/impact"),
	),
	Reset: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reset swing"),
	),
	Handedness: key.NewBinding(
		key.WithKeys("L"),
		key.WithHelp("L", "toggle handedness"),
	),
	History: key.NewBinding(
		key.WithKeys("h"),
		key.WithHelp("h", "swing history"),
	),
	ClearHistory: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "clear history"),
	),
	CopyHistory: key.NewBinding(
		key.WithKeys("y"),
		key.WithHelp("y", "copy history"),
	),
	SaveSettings: key.NewBinding(
		key.WithKeys("W"),
		key.WithHelp("W", "save settings"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Escape: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "back"),
	),
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Metronome, k.FasterBPM, k.SlowerBPM, k.Advance, k.Reset, k.History, k.Help, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Metronome, k.FasterBPM, k.SlowerBPM, k.EnterBPM, k.TapTempo},
		{k.MoreBackBeats, k.FewerBackBeats, k.MoreDownBeats, k.FewerDownBeats},
		{k.Advance, k.Reset, k.Handedness},
		{k.History, k.CopyHistory, k.ClearHistory, k.SaveSettings},
		{k.Help, k.Quit, k.Escape},
	}
}
