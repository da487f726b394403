// Package optimize allocates signal green-time from a completed FlowReport.
// The flow core treats the returned plan as opaque payload for persistence.
package optimize

import (
	"fmt"

	"github.com/azamalidev/Ai-Trafic-System-Backend/internal/flow"
)

// TimingPlan is one cycle's green-time allocation in seconds per direction.
type TimingPlan struct {
	CycleSeconds float64                    `json:"cycleSeconds"`
	GreenSeconds map[flow.Direction]float64 `json:"greenSeconds"`
}

// Optimizer turns a FlowReport into a timing plan. A failure here is fatal to
// the approval transaction: the caller must not mark the activity approved.
type Optimizer interface {
	Allocate(report flow.FlowReport) (TimingPlan, error)
}

// GreenSplit allocates each direction a minimum green plus a share of the
// remaining cycle proportional to its flow estimate. Failed directions
// (sentinel) and zero-flow directions receive the minimum only.
type GreenSplit struct {
	CycleSeconds float64
	MinGreen     float64
}

// DefaultGreenSplit returns the stock 120s cycle with a 10s floor per approach.
func DefaultGreenSplit() GreenSplit {
	return GreenSplit{CycleSeconds: 120, MinGreen: 10}
}

// Allocate computes the green split. It fails when every direction carries the
// failure sentinel, since there is nothing to allocate from.
func (g GreenSplit) Allocate(report flow.FlowReport) (TimingPlan, error) {
	if g.CycleSeconds <= 0 || g.MinGreen < 0 || g.CycleSeconds < g.MinGreen*float64(len(flow.Directions)) {
		return TimingPlan{}, fmt.Errorf("invalid green split: cycle=%vs min=%vs", g.CycleSeconds, g.MinGreen)
	}

	total := 0.0
	usable := 0
	for _, d := range flow.Directions {
		est, ok := report[d]
		if !ok {
			return TimingPlan{}, fmt.Errorf("report missing direction %s", d)
		}
		if est.Failed() {
			continue
		}
		usable++
		total += float64(est)
	}
	if usable == 0 {
		return TimingPlan{}, fmt.Errorf("no usable flow estimates in report")
	}

	spare := g.CycleSeconds - g.MinGreen*float64(len(flow.Directions))
	plan := TimingPlan{
		CycleSeconds: g.CycleSeconds,
		GreenSeconds: make(map[flow.Direction]float64, len(flow.Directions)),
	}
	for _, d := range flow.Directions {
		green := g.MinGreen
		if est := report[d]; !est.Failed() && total > 0 {
			green += spare * float64(est) / total
		} else if !est.Failed() && total == 0 {
			// All-zero flow: split the spare evenly across usable approaches.
			green += spare / float64(usable)
		}
		plan.GreenSeconds[d] = green
	}
	return plan, nil
}
