package pose

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// MediaPipe Pose landmark indices for the tracked joints.
var mediapipeIndex = map[Joint]int{
	LeftShoulder:  11,
	RightShoulder: 12,
	LeftElbow:     13,
	RightElbow:    14,
	LeftWrist:     15,
	RightWrist:    16,
	LeftHip:       23,
	RightHip:      24,
}

// ErrEmptyFrame is returned for a message that carries no landmarks at all.
var ErrEmptyFrame = errors.New("frame has no landmarks")

// PositionVisibility is a landmark as serialized by the estimator.
type PositionVisibility struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

// Message is the JSON wire form of a frame. Either Landmarks (keyed by joint
// name) or PoseLandmarks (MediaPipe's 33-entry array) is set.
type Message struct {
	TimestampMS   float64                       `json:"ts_ms"`
	Landmarks     map[string]PositionVisibility `json:"landmarks,omitempty"`
	PoseLandmarks []PositionVisibility          `json:"pose_landmarks,omitempty"`
}

// Decode parses one JSON message into a Frame.
func Decode(data []byte) (Frame, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return Frame{}, fmt.Errorf("decoding frame: %w", err)
	}
	return msg.Frame()
}

// Frame converts the wire message into a typed Frame.
func (m Message) Frame() (Frame, error) {
	f := Frame{Timestamp: time.Duration(m.TimestampMS * float64(time.Millisecond))}
	found := 0

	for _, j := range Joints {
		if pv, ok := m.Landmarks[j.String()]; ok {
			f.Set(j, pv.landmark())
			found++
			continue
		}
		if idx := mediapipeIndex[j]; idx < len(m.PoseLandmarks) {
			f.Set(j, m.PoseLandmarks[idx].landmark())
			found++
		}
	}

	if found == 0 {
		return f, ErrEmptyFrame
	}
	return f, nil
}

// Encode renders f in the named-landmark wire form.
func Encode(f Frame) ([]byte, error) {
	msg := Message{
		TimestampMS: float64(f.Timestamp) / float64(time.Millisecond),
		Landmarks:   make(map[string]PositionVisibility),
	}
	for _, j := range Joints {
		if l := f.Landmark(j); l != nil {
			msg.Landmarks[j.String()] = PositionVisibility{
				X:          l.Position.X(),
				Y:          l.Position.Y(),
				Z:          l.Position.Z(),
				Visibility: l.Visibility,
			}
		}
	}
	return json.Marshal(msg)
}

func (pv PositionVisibility) landmark() *Landmark {
	return &Landmark{
		Position:   mgl64.Vec3{pv.X, pv.Y, pv.Z},
		Visibility: pv.Visibility,
	}
}
