// Package analyze times every swing in a landmark recording without the UI.
package analyze

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"

	"github.com/cheggaaa/pb/v3"
	"github.com/dylan/swingtempo/history"
	"github.com/dylan/swingtempo/pose"
	"github.com/dylan/swingtempo/swing"
	"github.com/dylan/swingtempo/trainer"
)

const progressTemplate = `{{ string . "prefix" }} {{counters . }} {{bar . }} {{percent . }} {{etime . "%s elapsed"}}`

type Options struct {
	Detector  swing.DetectorConfig // zero value uses swing.DefaultDetectorConfig

	FrameRate int
	Logger    *slog.Logger
	// Progress receives a progress bar while frames are processed. Nil
	// disables it.
	Progress io.Writer
}

// Report is the outcome of one recording.
type Report struct {
	Frames    int
	Skipped   int
	Abandoned int
	Swings    []history.Item // oldest first
	Errors    []error
}

// Run replays the recording at path as fast as possible and collects every
// finished swing.
func Run(ctx context.Context, path string, opts Options) (Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Report{}, fmt.Errorf("reading recording: %w", err)
	}
	return analyze(ctx, data, opts)
}

func analyze(ctx context.Context, data []byte, opts Options) (Report, error) {
	if opts.Detector == (swing.DetectorConfig{}) {
		opts.Detector = swing.DefaultDetectorConfig()
	}

	var rep Report
	tr := trainer.New(trainer.Options{
		Detector:  swing.NewDetector(opts.Detector),
		FrameRate: opts.FrameRate,
		AutoReset: true,
		Logger:    opts.Logger,
		OnUpdate: func(u trainer.Update) {
			if u.Item != nil {
				rep.Swings = append(rep.Swings, *u.Item)
			}
			if u.Err != nil {
				rep.Errors = append(rep.Errors, u.Err)
			}
			if u.Event.Kind == swing.EventAbandoned {
				rep.Abandoned++
			}
		},
	})

	src := pose.NewReplay(bytes.NewReader(data), nil, opts.Logger)
	defer src.Close()

	frames, err := src.Frames(ctx)
	if err != nil {
		return rep, err
	}

	var bar *pb.ProgressBar
	if opts.Progress != nil {
		total := bytes.Count(data, []byte("\n"))
		if len(data) > 0 && data[len(data)-1] != '\n' {
			total++
		}
		bar = pb.ProgressBarTemplate(progressTemplate).New(total)
		bar.SetWriter(opts.Progress)
		bar.Set("prefix", "frames")
		bar.Start()
	}

	for f := range frames {
		tr.HandleFrame(f)
		rep.Frames++
		if bar != nil {
			bar.Increment()
		}
	}
	rep.Skipped = src.Skipped()
	if bar != nil {
		bar.SetCurrent(int64(rep.Frames + rep.Skipped))
		bar.Finish()
	}

	if err := ctx.Err(); err != nil {
		return rep, err
	}
	return rep, nil
}

// Write prints the swings in rep followed by their summary.
func Write(w io.Writer, rep Report) error {
	if len(rep.Swings) == 0 {
		_, err := fmt.Fprintf(w, "no swings found in %d frames (%d abandoned)\n", rep.Frames, rep.Abandoned)
		return err
	}

	// Export lists newest first, like the ledger.
	items := make([]history.Item, len(rep.Swings))
	for i, it := range rep.Swings {
		items[len(items)-1-i] = it
	}
	if _, err := io.WriteString(w, history.Export(items)); err != nil {
		return err
	}

	s := history.Summarize(items)
	_, err := fmt.Fprintf(w, "\n%d frames, %d skipped lines, %d abandoned attempts\nspread %.2f, best %.1f:1, worst %.1f:1\n",
		rep.Frames, rep.Skipped, rep.Abandoned, s.StdDevRatio, closestToTarget(items), furthestFromTarget(items))
	return err
}

func closestToTarget(items []history.Item) float64 {
	best := items[0].Result.Ratio
	for _, it := range items[1:] {
		if dist(it.Result.Ratio) < dist(best) {
			best = it.Result.Ratio
		}
	}
	return best
}

func furthestFromTarget(items []history.Item) float64 {
	worst := items[0].Result.Ratio
	for _, it := range items[1:] {
		if dist(it.Result.Ratio) > dist(worst) {
			worst = it.Result.Ratio
		}
	}
	return worst
}

func dist(ratio float64) float64 {
	return math.Abs(ratio - swing.TargetRatio)
}
