package pose

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// ErrPermissionDenied is returned when the landmark feed may not be opened.
var ErrPermissionDenied = errors.New("camera permission denied")

// Source delivers frames in arrival order. The channel is closed when the
// source ends or ctx is cancelled.
type Source interface {
	Frames(ctx context.Context) (<-chan Frame, error)
	Close() error
}

// Permission decides whether the camera feed may be used.
type Permission interface {
	Request(ctx context.Context) (bool, error)
}

// StaticPermission grants or denies unconditionally, typically from config.
type StaticPermission bool

func (p StaticPermission) Request(context.Context) (bool, error) {
	return bool(p), nil
}

// FilePermission grants access when the recording at the path is readable.
type FilePermission string

func (p FilePermission) Request(context.Context) (bool, error) {
	f, err := os.Open(string(p))
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return false, nil
		}
		return false, fmt.Errorf("opening recording: %w", err)
	}
	f.Close()
	return true, nil
}
