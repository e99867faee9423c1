package history

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/dylan/swingtempo/swing"
	"gonum.org/v1/gonum/stat"
)

// Summary aggregates a set of swings.
type Summary struct {
	Count       int
	MeanRatio   float64
	StdDevRatio float64
	MinRatio    float64
	MaxRatio    float64
	MeanBack    float64 // seconds
	MeanDown    float64 // seconds
	Qualities   map[swing.Quality]int
	Verdict     swing.Verdict
	Consistency float64 // share of good swings, 0..1
}

// Summarize computes ratio statistics over items. A zero Summary is returned
// for an empty slice.
func Summarize(items []Item) Summary {
	s := Summary{Qualities: make(map[swing.Quality]int)}
	if len(items) == 0 {
		return s
	}

	ratios := make([]float64, len(items))
	backs := make([]float64, len(items))
	downs := make([]float64, len(items))
	s.MinRatio = items[0].Result.Ratio
	s.MaxRatio = items[0].Result.Ratio
	for i, it := range items {
		ratios[i] = it.Result.Ratio
		backs[i] = it.Result.Backswing.Seconds()
		downs[i] = it.Result.Downswing.Seconds()
		s.Qualities[it.Result.Quality]++
		s.MinRatio = min(s.MinRatio, it.Result.Ratio)
		s.MaxRatio = max(s.MaxRatio, it.Result.Ratio)
	}

	s.Count = len(items)
	s.MeanRatio = stat.Mean(ratios, nil)
	if len(ratios) > 1 {
		s.StdDevRatio = stat.StdDev(ratios, nil)
	}
	s.MeanBack = stat.Mean(backs, nil)
	s.MeanDown = stat.Mean(downs, nil)
	s.Verdict = swing.VerdictFor(s.MeanRatio)
	s.Consistency = float64(s.Qualities[swing.Good]) / float64(s.Count)
	return s
}

// Export renders items and their summary as plain text, newest first.
func Export(items []Item) string {
	var b strings.Builder
	b.WriteString("Swing tempo history\n")
	if len(items) == 0 {
		b.WriteString("no swings recorded\n")
		return b.String()
	}
	for i, it := range items {
		fmt.Fprintf(&b, "%2d. %s  %.1f:1  %-5s  back %s  down %s\n",
			i+1, it.Timestamp, it.Result.Ratio, it.Result.Quality,
			swing.Seconds(it.Result.Backswing), swing.Seconds(it.Result.Downswing))
	}
	s := Summarize(items)
	fmt.Fprintf(&b, "\naverage %.2f:1 (sd %.2f), range %.1f-%.1f, %d/%d good, %s\n",
		s.MeanRatio, s.StdDevRatio, s.MinRatio, s.MaxRatio,
		s.Qualities[swing.Good], s.Count, s.Verdict)
	return b.String()
}

// CopyExport puts the Export text on the system clipboard.
func CopyExport(items []Item) error {
	if err := clipboard.WriteAll(Export(items)); err != nil {
		return fmt.Errorf("copying to clipboard: %w", err)
	}
	return nil
}
