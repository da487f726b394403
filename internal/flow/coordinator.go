package flow

import (
	"context"
	"sync"
	"time"

	"github.com/azamalidev/Ai-Trafic-System-Backend/internal/monitoring"
)

// Coordinator fans four directional pipelines out over a VideoSet and fans
// their estimates back into one FlowReport. The four runs share no mutable
// state; the report is assembled only after every pipeline has released its
// resources, so end-to-end latency is bounded by the slowest direction rather
// than the sum of the four.
type Coordinator struct {
	open OpenFunc

	// Span overrides the trailing window span (0 = DefaultWindowSpan).
	Span time.Duration

	// Timeout bounds each direction's wall-clock execution. On expiry the
	// pipeline is cancelled, its resources released, and the direction
	// resolves to Sentinel. 0 disables the bound.
	Timeout time.Duration
}

// NewCoordinator returns a Coordinator using open for video access.
func NewCoordinator(open OpenFunc) *Coordinator {
	return &Coordinator{open: open}
}

// Estimate runs one pipeline per direction and blocks until all four have
// completed, regardless of individual outcome. Each direction's value is used
// verbatim: a Sentinel in one direction never blocks the other three, and
// failed directions are not retried.
func (c *Coordinator) Estimate(ctx context.Context, videos VideoSet) FlowReport {
	var (
		wg        sync.WaitGroup
		estimates [len(Directions)]FlowEstimate
	)
	started := time.Now()

	for i, d := range Directions {
		wg.Add(1)
		go func(i int, d Direction) {
			defer wg.Done()

			runCtx := ctx
			if c.Timeout > 0 {
				var cancel context.CancelFunc
				runCtx, cancel = context.WithTimeout(ctx, c.Timeout)
				defer cancel()
			}

			p := &Pipeline{Open: c.open, Span: c.Span}
			estimates[i] = p.Run(runCtx, videos.Ref(d))
		}(i, d)
	}
	wg.Wait()

	report := make(FlowReport, len(Directions))
	for i, d := range Directions {
		report[d] = estimates[i]
	}
	monitoring.Logf("flow estimation finished in %v: %v", time.Since(started).Round(time.Millisecond), report)
	return report
}
