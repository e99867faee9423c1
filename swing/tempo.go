package swing

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidDuration is returned when a phase duration is zero or negative.
var ErrInvalidDuration = errors.New("invalid phase duration")

// TargetRatio is the backswing:downswing ratio a good tempo aims for.
const TargetRatio = 3.0

// Quality grades a tempo ratio against the 3:1 target.
type Quality string

const (
	Good  Quality = "good"
	Close Quality = "close"
	Off   Quality = "off"
)

// Result is a completed swing's tempo.
type Result struct {
	Backswing time.Duration `json:"backswing"`
	Downswing time.Duration `json:"downswing"`
	Ratio     float64       `json:"ratio"`
	Quality   Quality       `json:"quality"`
}

// Compute derives the tempo ratio for one swing. The ratio is rounded to one
// decimal place before it is classified.
func Compute(backswing, downswing time.Duration) (Result, error) {
	if backswing <= 0 || downswing <= 0 {
		return Result{}, fmt.Errorf("%w: backswing %v, downswing %v", ErrInvalidDuration, backswing, downswing)
	}
	ratio := math.Round(backswing.Seconds()/downswing.Seconds()*10) / 10
	return Result{
		Backswing: backswing,
		Downswing: downswing,
		Ratio:     ratio,
		Quality:   Classify(ratio),
	}, nil
}

// Classify grades a rounded ratio: good within [2.7, 3.3], close within 0.3
// beyond that on either side, off otherwise.
func Classify(ratio float64) Quality {
	switch {
	case ratio >= 2.7 && ratio <= 3.3:
		return Good
	case ratio >= 2.4 && ratio < 2.7, ratio > 3.3 && ratio <= 3.6:
		return Close
	default:
		return Off
	}
}

// Verdict is the coaching summary shown with a result.
type Verdict int

const (
	Ideal Verdict = iota
	TooSlow
	TooFast
)

func (v Verdict) String() string {
	switch v {
	case Ideal:
		return "Ideal"
	case TooSlow:
		return "Too Slow"
	case TooFast:
		return "Too Fast"
	}
	return "unknown"
}

// Advice returns the one-line coaching hint for the verdict.
func (v Verdict) Advice() string {
	switch v {
	case TooSlow:
		return "Backswing is long relative to the downswing. Shorten the takeaway or accelerate through impact."
	case TooFast:
		return "Backswing is rushed. Let the club reach the top before starting down."
	}
	return "Tempo is in the tour range."
}

// VerdictFor maps a ratio onto the narrower 2.8 to 3.2 tour band.
func VerdictFor(ratio float64) Verdict {
	switch {
	case ratio > 3.2:
		return TooSlow
	case ratio < 2.8:
		return TooFast
	}
	return Ideal
}

// Seconds formats a duration as seconds with two decimals, e.g. "0.60s".
func Seconds(d time.Duration) string {
	return fmt.Sprintf("%.2fs", d.Seconds())
}
