package pose

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/dylan/swingtempo/clock"
)

// ReplaySource plays back a JSON Lines recording, one frame per line.
type ReplaySource struct {
	r      io.Reader
	closer io.Closer
	clock  clock.Clock // nil replays as fast as possible
	log    *slog.Logger

	mu      sync.Mutex
	started bool
	skipped int
}

// OpenReplay opens the recording at path. When clk is non-nil frames are
// paced by their timestamps.
func OpenReplay(path string, clk clock.Clock, log *slog.Logger) (*ReplaySource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening recording: %w", err)
	}
	src := NewReplay(f, clk, log)
	src.closer = f
	return src, nil
}

// NewReplay replays frames read from r.
func NewReplay(r io.Reader, clk clock.Clock, log *slog.Logger) *ReplaySource {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &ReplaySource{r: r, clock: clk, log: log}
}

func (s *ReplaySource) Frames(ctx context.Context) (<-chan Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil, errors.New("replay already started")
	}
	s.started = true

	out := make(chan Frame)
	go s.run(ctx, out)
	return out, nil
}

func (s *ReplaySource) run(ctx context.Context, out chan<- Frame) {
	defer close(out)

	sc := bufio.NewScanner(s.r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var prev time.Duration
	first := true
	line := 0
	for sc.Scan() {
		line++
		if len(sc.Bytes()) == 0 {
			continue
		}
		f, err := Decode(sc.Bytes())
		if err != nil {
			s.mu.Lock()
			s.skipped++
			s.mu.Unlock()
			s.log.Warn("skipping recording line", "line", line, "err", err)
			continue
		}

		if s.clock != nil && !first && f.Timestamp > prev {
			if !s.wait(ctx, f.Timestamp-prev) {
				return
			}
		}
		first = false
		prev = f.Timestamp

		select {
		case out <- f:
		case <-ctx.Done():
			return
		}
	}
	if err := sc.Err(); err != nil {
		s.log.Error("reading recording", "err", err)
	}
}

func (s *ReplaySource) wait(ctx context.Context, d time.Duration) bool {
	done := make(chan struct{})
	t := s.clock.AfterFunc(d, func() { close(done) })
	select {
	case <-done:
		return true
	case <-ctx.Done():
		t.Stop()
		return false
	}
}

// Skipped returns the number of lines that could not be decoded.
func (s *ReplaySource) Skipped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.skipped
}

func (s *ReplaySource) Close() error {
	if s.closer == nil {
		return nil
	}
	err := s.closer.Close()
	s.closer = nil
	return err
}
