package flow

import "time"

// DefaultWindowSpan is the trailing window length used to smooth transient
// per-frame noise during accumulation.
const DefaultWindowSpan = 30 * time.Second

// CountSample is one frame's detection count tagged with the frame's offset
// from the start of the video. Immutable once created.
type CountSample struct {
	Timestamp time.Duration
	Count     int
}

// Window is a bounded trailing buffer of CountSamples ordered by timestamp
// ascending. After every Observe it retains only samples within span of the
// newest sample; eviction happens from the oldest end only.
//
// Timestamps are video-native (derived from frame index and frame rate), not
// wall-clock, so results are reproducible regardless of processing speed.
type Window struct {
	span    time.Duration
	samples []CountSample
}

// NewWindow returns a Window with the given span. A non-positive span falls
// back to DefaultWindowSpan.
func NewWindow(span time.Duration) *Window {
	if span <= 0 {
		span = DefaultWindowSpan
	}
	return &Window{span: span}
}

// Observe appends a sample and evicts samples older than span relative to the
// newest timestamp. Timestamps are expected to be non-decreasing.
func (w *Window) Observe(ts time.Duration, count int) {
	w.samples = append(w.samples, CountSample{Timestamp: ts, Count: count})

	cutoff := ts - w.span
	i := 0
	for i < len(w.samples) && w.samples[i].Timestamp < cutoff {
		i++
	}
	if i > 0 {
		w.samples = w.samples[i:]
	}
}

// Snapshot returns the retained count values in insertion order. The returned
// slice is a copy; the caller may keep it after the Window is discarded.
func (w *Window) Snapshot() []int {
	counts := make([]int, len(w.samples))
	for i, s := range w.samples {
		counts[i] = s.Count
	}
	return counts
}

// Len returns the number of retained samples.
func (w *Window) Len() int {
	return len(w.samples)
}

// Oldest returns the oldest retained sample and whether one exists.
func (w *Window) Oldest() (CountSample, bool) {
	if len(w.samples) == 0 {
		return CountSample{}, false
	}
	return w.samples[0], true
}
