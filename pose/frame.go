// Package pose carries body-landmark frames from an external pose estimator
// into the trainer.
package pose

import (
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// Joint names a tracked body landmark.
type Joint int

const (
	LeftShoulder Joint = iota
	RightShoulder
	LeftElbow
	RightElbow
	LeftWrist
	RightWrist
	LeftHip
	RightHip
)

var jointNames = [...]string{
	LeftShoulder:  "left_shoulder",
	RightShoulder: "right_shoulder",
	LeftElbow:     "left_elbow",
	RightElbow:    "right_elbow",
	LeftWrist:     "left_wrist",
	RightWrist:    "right_wrist",
	LeftHip:       "left_hip",
	RightHip:      "right_hip",
}

// Joints lists every tracked joint in declaration order.
var Joints = []Joint{LeftShoulder, RightShoulder, LeftElbow, RightElbow, LeftWrist, RightWrist, LeftHip, RightHip}

func (j Joint) String() string {
	if j < 0 || int(j) >= len(jointNames) {
		return fmt.Sprintf("joint(%d)", int(j))
	}
	return jointNames[j]
}

// Landmark is a normalized position (x, y in [0,1] of the frame, image y
// pointing down) with the estimator's visibility score.
type Landmark struct {
	Position   mgl64.Vec3
	Visibility float64
}

// Visible reports whether the landmark meets the minimum visibility.
func (l *Landmark) Visible(min float64) bool {
	return l != nil && l.Visibility >= min
}

// Frame is one processed video frame. A nil landmark was not reported.
type Frame struct {
	Timestamp time.Duration // monotonic, since the feed started

	LeftShoulder  *Landmark
	RightShoulder *Landmark
	LeftElbow     *Landmark
	RightElbow    *Landmark
	LeftWrist     *Landmark
	RightWrist    *Landmark
	LeftHip       *Landmark
	RightHip      *Landmark
}

// Landmark returns the landmark for j, or nil.
func (f *Frame) Landmark(j Joint) *Landmark {
	if p := f.slot(j); p != nil {
		return *p
	}
	return nil
}

// Set stores l as the landmark for j.
func (f *Frame) Set(j Joint, l *Landmark) {
	if p := f.slot(j); p != nil {
		*p = l
	}
}

func (f *Frame) slot(j Joint) **Landmark {
	switch j {
	case LeftShoulder:
		return &f.LeftShoulder
	case RightShoulder:
		return &f.RightShoulder
	case LeftElbow:
		return &f.LeftElbow
	case RightElbow:
		return &f.RightElbow
	case LeftWrist:
		return &f.LeftWrist
	case RightWrist:
		return &f.RightWrist
	case LeftHip:
		return &f.LeftHip
	case RightHip:
		return &f.RightHip
	}
	return nil
}
