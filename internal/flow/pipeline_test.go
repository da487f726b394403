package flow

import (
	"context"
	"errors"
	"testing"
	"time"
)

// stubSource replays counts, optionally failing or panicking partway through.
type stubSource struct {
	counts   []int
	failAt   int // frame index to fail at; -1 disables
	panicAt  int // frame index to panic at; -1 disables
	pos      int
	closed   bool
	closeErr error
}

func newStubSource(counts ...int) *stubSource {
	return &stubSource{counts: counts, failAt: -1, panicAt: -1}
}

func (s *stubSource) Next() (int, time.Duration, bool, error) {
	if s.pos == s.failAt {
		return 0, 0, false, errors.New("decoder fault")
	}
	if s.pos == s.panicAt {
		panic("corrupt frame")
	}
	if s.pos >= len(s.counts) {
		return 0, 0, false, nil
	}
	count := s.counts[s.pos]
	ts := time.Duration(s.pos) * 100 * time.Millisecond
	s.pos++
	return count, ts, true, nil
}

func (s *stubSource) Close() error {
	s.closed = true
	return s.closeErr
}

func openStub(src *stubSource) OpenFunc {
	return func(ref string) (CountSource, error) { return src, nil }
}

func TestPipelineEstimatesMeanOfPeaks(t *testing.T) {
	src := newStubSource(1, 3, 2, 5, 2)
	p := NewPipeline(openStub(src))

	got := p.Run(context.Background(), "north.mp4")
	if got != 4 {
		t.Errorf("Run() = %v, want 4", got)
	}
	if !src.closed {
		t.Error("source not released after successful run")
	}
	if p.State() != StateReleased {
		t.Errorf("State() = %v, want %v", p.State(), StateReleased)
	}
}

func TestPipelineOpenFailureReturnsSentinel(t *testing.T) {
	p := NewPipeline(func(ref string) (CountSource, error) {
		return nil, errors.New("cannot open video")
	})

	got := p.Run(context.Background(), "missing.mp4")
	if !got.Failed() {
		t.Errorf("Run() = %v, want sentinel", got)
	}
	if p.State() != StateReleased {
		t.Errorf("State() = %v, want %v", p.State(), StateReleased)
	}
}

func TestPipelineMidStreamFailureReturnsSentinelAndReleases(t *testing.T) {
	src := newStubSource(1, 2, 3, 4, 5)
	src.failAt = 2
	p := NewPipeline(openStub(src))

	got := p.Run(context.Background(), "east.mp4")
	if !got.Failed() {
		t.Errorf("Run() = %v, want sentinel", got)
	}
	if !src.closed {
		t.Error("source not released after mid-stream failure")
	}
}

func TestPipelinePanicIsContained(t *testing.T) {
	src := newStubSource(1, 2, 3)
	src.panicAt = 1
	p := NewPipeline(openStub(src))

	// Must not propagate: one bad feed never aborts the others.
	got := p.Run(context.Background(), "west.mp4")
	if !got.Failed() {
		t.Errorf("Run() = %v, want sentinel", got)
	}
}

func TestPipelineZeroDetectionsYieldsZeroNotSentinel(t *testing.T) {
	src := newStubSource(0, 0, 0, 0)
	p := NewPipeline(openStub(src))

	got := p.Run(context.Background(), "south.mp4")
	if got != 0 {
		t.Errorf("Run() = %v, want 0", got)
	}
	if got.Failed() {
		t.Error("zero-flow result must be distinguishable from failure")
	}
}

func TestPipelineCancelledContextReturnsSentinel(t *testing.T) {
	src := newStubSource(1, 2, 3)
	p := NewPipeline(openStub(src))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := p.Run(ctx, "north.mp4")
	if !got.Failed() {
		t.Errorf("Run() = %v, want sentinel", got)
	}
	if !src.closed {
		t.Error("source not released after cancellation")
	}
}
