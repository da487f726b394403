package flow

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// NewFixtureOpener returns an OpenFunc that ignores the video reference and
// replays per-frame counts parsed from data (one integer per line, blank lines
// and lines starting with '#' skipped). Frames are spaced at the given
// interval of video time. Used in dev mode to exercise the full pipeline on
// machines without OpenCV or model assets, and in tests.
func NewFixtureOpener(data []byte, frameInterval time.Duration) (OpenFunc, error) {
	if frameInterval <= 0 {
		frameInterval = 100 * time.Millisecond
	}
	var counts []int
	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		n, err := strconv.Atoi(line)
		if err != nil {
			return nil, fmt.Errorf("fixture line %d: %w", i+1, err)
		}
		counts = append(counts, n)
	}
	return func(ref string) (CountSource, error) {
		return &fixtureSource{counts: counts, interval: frameInterval}, nil
	}, nil
}

type fixtureSource struct {
	counts   []int
	interval time.Duration
	pos      int
	closed   bool
}

func (f *fixtureSource) Next() (int, time.Duration, bool, error) {
	if f.closed || f.pos >= len(f.counts) {
		return 0, 0, false, nil
	}
	count := f.counts[f.pos]
	ts := time.Duration(f.pos) * f.interval
	f.pos++
	return count, ts, true, nil
}

func (f *fixtureSource) Close() error {
	f.closed = true
	return nil
}
