package flow

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

// openByRef builds an OpenFunc that picks a source per reference, failing any
// reference containing "bad".
func openByRef(counts map[string][]int) OpenFunc {
	return func(ref string) (CountSource, error) {
		if strings.Contains(ref, "bad") {
			return nil, errors.New("cannot open video")
		}
		return newStubSource(counts[ref]...), nil
	}
}

func TestCoordinatorIsolatesSingleFailure(t *testing.T) {
	seq := []int{1, 3, 2, 5, 2}
	open := openByRef(map[string][]int{
		"n.mp4": seq, "s.mp4": seq, "e.mp4": seq,
	})
	c := NewCoordinator(open)

	report := c.Estimate(context.Background(), VideoSet{
		North: "n.mp4", South: "s.mp4", East: "e.mp4", West: "bad.mp4",
	})

	if len(report) != 4 {
		t.Fatalf("report has %d entries, want 4", len(report))
	}
	failed := 0
	for d, est := range report {
		if est.Failed() {
			failed++
			if d != West {
				t.Errorf("direction %s failed, want only west", d)
			}
			continue
		}
		if est < 0 {
			t.Errorf("direction %s = %v, want non-negative metric", d, est)
		}
	}
	if failed != 1 {
		t.Errorf("%d directions failed, want exactly 1", failed)
	}
}

func TestCoordinatorAllZeroDetections(t *testing.T) {
	zeros := []int{0, 0, 0, 0, 0}
	open := openByRef(map[string][]int{
		"n.mp4": zeros, "s.mp4": zeros, "e.mp4": zeros, "w.mp4": zeros,
	})
	c := NewCoordinator(open)

	report := c.Estimate(context.Background(), VideoSet{
		North: "n.mp4", South: "s.mp4", East: "e.mp4", West: "w.mp4",
	})

	for d, est := range report {
		if est != 0 {
			t.Errorf("direction %s = %v, want 0", d, est)
		}
		if est.Failed() {
			t.Errorf("direction %s reported failure for zero-flow input", d)
		}
	}
}

func TestCoordinatorAllFailures(t *testing.T) {
	c := NewCoordinator(openByRef(nil))

	report := c.Estimate(context.Background(), VideoSet{
		North: "bad1", South: "bad2", East: "bad3", West: "bad4",
	})

	for d, est := range report {
		if !est.Failed() {
			t.Errorf("direction %s = %v, want sentinel", d, est)
		}
	}
}

// slowSource yields frames forever, pausing between each one. The pipeline
// checks its context between frames, so a per-direction timeout terminates it.
type slowSource struct {
	perFrame time.Duration
	closed   chan struct{}
}

func (s *slowSource) Next() (int, time.Duration, bool, error) {
	time.Sleep(s.perFrame)
	return 1, 0, true, nil
}

func (s *slowSource) Close() error {
	close(s.closed)
	return nil
}

func TestCoordinatorTimeoutSubstitutesSentinel(t *testing.T) {
	var (
		mu       sync.Mutex
		released []chan struct{}
	)
	open := func(ref string) (CountSource, error) {
		src := &slowSource{perFrame: 10 * time.Millisecond, closed: make(chan struct{})}
		mu.Lock()
		released = append(released, src.closed)
		mu.Unlock()
		return src, nil
	}

	c := NewCoordinator(open)
	c.Timeout = 50 * time.Millisecond

	done := make(chan FlowReport, 1)
	go func() {
		done <- c.Estimate(context.Background(), VideoSet{North: "n", South: "s", East: "e", West: "w"})
	}()

	select {
	case report := <-done:
		for d, est := range report {
			if !est.Failed() {
				t.Errorf("direction %s = %v, want sentinel after timeout", d, est)
			}
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Estimate did not return after per-direction timeout")
	}

	mu.Lock()
	defer mu.Unlock()
	for i, ch := range released {
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Errorf("source %d not released after timeout", i)
		}
	}
}
