package shared

import (
	"github.com/dylan/swingtempo/history"
	"github.com/dylan/swingtempo/metronome"
	"github.com/dylan/swingtempo/trainer"
)

type TrainerUpdateMsg struct {
	Update trainer.Update
}

type BeatMsg struct {
	Beat metronome.Beat
}

type MetronomeFailedMsg struct {
	Err error
}

type FeedStoppedMsg struct {
	Err error
}

type HistoryLoadedMsg struct {
	Items []history.Item
	Err   error
}

type HistoryClearedMsg struct {
	Err error
}

type HistoryCopiedMsg struct {
	Count int
	Err   error
}

type SettingsSavedMsg struct {
	Path string
	Err  error
}

type CloseHistoryMsg struct{}
