package pose

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gorilla/websocket"
)

func TestDecodeNamedLandmarks(t *testing.T) {
	data := []byte(`{"ts_ms": 600, "landmarks": {
		"right_wrist": {"x": 0.25, "y": 0.4, "z": -0.1, "visibility": 0.95},
		"right_shoulder": {"x": 0.5, "y": 0.3, "z": 0, "visibility": 0.9}
	}}`)

	f, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if f.Timestamp != 600*time.Millisecond {
		t.Errorf("timestamp = %v, want 600ms", f.Timestamp)
	}
	if f.RightWrist == nil || !f.RightWrist.Position.ApproxEqual(mgl64.Vec3{0.25, 0.4, -0.1}) {
		t.Errorf("right wrist = %+v", f.RightWrist)
	}
	if f.RightShoulder.Visibility != 0.9 {
		t.Errorf("shoulder visibility = %v", f.RightShoulder.Visibility)
	}
	if f.LeftWrist != nil {
		t.Errorf("left wrist should be missing, got %+v", f.LeftWrist)
	}
}

func TestDecodeMediaPipeArray(t *testing.T) {
	var sb strings.Builder
	sb.WriteString(`{"ts_ms": 33.5, "pose_landmarks": [`)
	for i := 0; i < 33; i++ {
		if i > 0 {
			sb.WriteString(",")
		}
		// x encodes the index so the mapping can be checked.
		sb.WriteString(`{"x": ` + strconv.Itoa(i) + `, "y": 0, "z": 0, "visibility": 1}`)
	}
	sb.WriteString(`]}`)

	f, err := Decode([]byte(sb.String()))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	checks := map[Joint]float64{
		LeftShoulder: 11, RightShoulder: 12, LeftWrist: 15, RightWrist: 16, LeftHip: 23, RightHip: 24,
	}
	for j, want := range checks {
		l := f.Landmark(j)
		if l == nil {
			t.Fatalf("%s missing", j)
		}
		if l.Position.X() != want {
			t.Errorf("%s x = %v, want %v", j, l.Position.X(), want)
		}
	}
	if f.Timestamp != 33500*time.Microsecond {
		t.Errorf("timestamp = %v", f.Timestamp)
	}
}

func TestDecodeErrors(t *testing.T) {
	if _, err := Decode([]byte(`{"ts_ms": 1}`)); !errors.Is(err, ErrEmptyFrame) {
		t.Errorf("empty frame err = %v, want ErrEmptyFrame", err)
	}
	if _, err := Decode([]byte(`not json`)); err == nil {
		t.Error("expected error for malformed input")
	}
}

func TestEncodeDecode(t *testing.T) {
	var f Frame
	f.Timestamp = 1200 * time.Millisecond
	f.Set(LeftWrist, &Landmark{Position: mgl64.Vec3{0.1, 0.2, 0.3}, Visibility: 0.8})

	data, err := Encode(f)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Timestamp != f.Timestamp || *got.LeftWrist != *f.LeftWrist {
		t.Errorf("got %+v, want %+v", got, f)
	}
}

func TestThrottleDropsFastFrames(t *testing.T) {
	th := NewThrottle(30)
	var accepted []time.Duration
	for ms := 0; ms <= 100; ms += 10 {
		ts := time.Duration(ms) * time.Millisecond
		if th.Allow(ts) {
			accepted = append(accepted, ts)
		}
	}
	// 33.3ms interval: 0, 40, 80 pass.
	want := []time.Duration{0, 40 * time.Millisecond, 80 * time.Millisecond}
	if len(accepted) != len(want) {
		t.Fatalf("accepted %v, want %v", accepted, want)
	}
	for i := range want {
		if accepted[i] != want[i] {
			t.Errorf("accepted[%d] = %v, want %v", i, accepted[i], want[i])
		}
	}
	if th.Dropped() != 8 {
		t.Errorf("dropped = %d, want 8", th.Dropped())
	}
}

func TestThrottleAcceptsRewind(t *testing.T) {
	th := NewThrottle(30)
	th.Allow(5 * time.Second)
	if !th.Allow(0) {
		t.Error("frame after a timestamp rewind should be accepted")
	}
}

func TestReplaySource(t *testing.T) {
	input := strings.Join([]string{
		`{"ts_ms": 0, "landmarks": {"right_wrist": {"x": 0.5, "y": 0.5, "z": 0, "visibility": 1}}}`,
		``,
		`garbage`,
		`{"ts_ms": 40, "landmarks": {"right_wrist": {"x": 0.4, "y": 0.5, "z": 0, "visibility": 1}}}`,
	}, "\n")

	src := NewReplay(strings.NewReader(input), nil, nil)
	frames, err := src.Frames(context.Background())
	if err != nil {
		t.Fatalf("Frames: %v", err)
	}
	var got []Frame
	for f := range frames {
		got = append(got, f)
	}
	if len(got) != 2 {
		t.Fatalf("got %d frames, want 2", len(got))
	}
	if got[1].Timestamp != 40*time.Millisecond {
		t.Errorf("second frame at %v", got[1].Timestamp)
	}
	if src.Skipped() != 1 {
		t.Errorf("skipped = %d, want 1", src.Skipped())
	}
	if err := src.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestFilePermission(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "swing.jsonl")
	if err := os.WriteFile(path, []byte("{}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	ok, err := FilePermission(path).Request(context.Background())
	if err != nil || !ok {
		t.Errorf("Request = %v, %v; want true, nil", ok, err)
	}

	if _, err := FilePermission(filepath.Join(dir, "missing.jsonl")).Request(context.Background()); err == nil {
		t.Error("expected error for missing recording")
	}

	ok, _ = StaticPermission(false).Request(context.Background())
	if ok {
		t.Error("StaticPermission(false) granted")
	}
}

func TestWSSourceDeliversFrames(t *testing.T) {
	src := NewWSSource("127.0.0.1:0", nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	frames, err := src.Frames(ctx)
	if err != nil {
		t.Fatalf("Frames: %v", err)
	}
	defer src.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+src.Addr()+"/landmarks", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	msg := `{"ts_ms": 600, "landmarks": {"right_wrist": {"x": 0.25, "y": 0.4, "z": 0, "visibility": 0.9}}}`
	if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case f := <-frames:
		if f.Timestamp != 600*time.Millisecond || f.RightWrist == nil {
			t.Errorf("unexpected frame %+v", f)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frame")
	}
}

func TestWSSourceCountsDropsWhenConsumerBusy(t *testing.T) {
	var logs bytes.Buffer
	src := NewWSSource("127.0.0.1:0", slog.New(slog.NewTextHandler(&logs, nil)))
	if _, err := src.Frames(context.Background()); err != nil {
		t.Fatalf("Frames: %v", err)
	}

	// Nobody reads: the first frame fills the slot, the rest are dropped.
	for i := 0; i < 3; i++ {
		src.deliver(Frame{Timestamp: time.Duration(i) * time.Millisecond})
	}
	if got := src.Dropped(); got != 2 {
		t.Errorf("dropped = %d, want 2", got)
	}

	if err := src.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !strings.Contains(logs.String(), "dropped=2") {
		t.Errorf("close log missing drop count: %s", logs.String())
	}
}

func TestWSSourceCloseIsIdempotent(t *testing.T) {
	src := NewWSSource("127.0.0.1:0", nil)
	frames, err := src.Frames(context.Background())
	if err != nil {
		t.Fatalf("Frames: %v", err)
	}
	if err := src.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if err := src.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if _, ok := <-frames; ok {
		t.Error("channel should be closed")
	}
}
