package flow

import (
	"context"
	"fmt"
	"time"

	"github.com/azamalidev/Ai-Trafic-System-Backend/internal/monitoring"
)

// CountSource yields one detection count per video frame. Implementations
// wrap a decoder plus detector (see internal/detect) or a fixture for tests.
type CountSource interface {
	// Next returns the next frame's count and its video-native timestamp.
	// ok is false once the stream is exhausted. A non-nil error means the
	// stream failed mid-read and no further frames will be produced.
	Next() (count int, ts time.Duration, ok bool, err error)

	// Close releases the underlying resources. Safe to call exactly once.
	Close() error
}

// OpenFunc opens a video reference as a CountSource. Opening a missing or
// undecodable resource returns an error.
type OpenFunc func(ref string) (CountSource, error)

// State tracks a pipeline run through its lifecycle.
type State int

const (
	StateOpened State = iota
	StateStreaming
	StateExhausted
	StateEstimated
	StateFailed
	StateReleased
)

func (s State) String() string {
	switch s {
	case StateOpened:
		return "opened"
	case StateStreaming:
		return "streaming"
	case StateExhausted:
		return "exhausted"
	case StateEstimated:
		return "estimated"
	case StateFailed:
		return "failed"
	case StateReleased:
		return "released"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Pipeline drives a single directional video end-to-end: open, stream counts
// into a trailing Window, summarise with MeanPeak, release. Any failure is
// resolved inside Run and reported as Sentinel; a bad feed never aborts its
// siblings.
type Pipeline struct {
	Open OpenFunc
	Span time.Duration // trailing window span; 0 means DefaultWindowSpan

	state State
}

// NewPipeline returns a Pipeline using open for video access.
func NewPipeline(open OpenFunc) *Pipeline {
	return &Pipeline{Open: open}
}

// State returns the state the most recent Run finished in. A run that released
// its resources ends in StateReleased regardless of outcome; Failed runs pass
// through StateFailed first.
func (p *Pipeline) State() State {
	return p.state
}

// Run processes one video reference and returns its FlowEstimate. Open
// failures, mid-stream decode faults, panics from the decoder layer, and
// context cancellation all resolve to Sentinel; resource release is guaranteed
// on every exit path.
func (p *Pipeline) Run(ctx context.Context, ref string) (est FlowEstimate) {
	defer func() {
		if r := recover(); r != nil {
			monitoring.Logf("pipeline %q: panic during streaming: %v", ref, r)
			p.state = StateFailed
			est = Sentinel
		}
		p.state = StateReleased
	}()

	p.state = StateOpened
	src, err := p.Open(ref)
	if err != nil {
		monitoring.Logf("pipeline %q: open failed: %v", ref, err)
		p.state = StateFailed
		return Sentinel
	}
	defer func() {
		if err := src.Close(); err != nil {
			monitoring.Logf("pipeline %q: close failed: %v", ref, err)
		}
	}()

	window := NewWindow(p.Span)
	p.state = StateStreaming
	for {
		if err := ctx.Err(); err != nil {
			monitoring.Logf("pipeline %q: cancelled: %v", ref, err)
			p.state = StateFailed
			return Sentinel
		}
		count, ts, ok, err := src.Next()
		if err != nil {
			monitoring.Logf("pipeline %q: stream failed: %v", ref, err)
			p.state = StateFailed
			return Sentinel
		}
		if !ok {
			break
		}
		window.Observe(ts, count)
	}
	p.state = StateExhausted

	metric := MeanPeak(window.Snapshot())
	p.state = StateEstimated
	return FlowEstimate(metric)
}
