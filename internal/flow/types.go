// Package flow estimates a representative vehicle-flow metric per compass
// direction from finite recorded video. Per-frame detection counts are folded
// into a trailing window, summarised by the mean of their local peaks, and
// assembled into a four-direction report for the signal timing optimizer.
package flow

// Direction is one of the four approaches of an intersection.
type Direction string

const (
	North Direction = "north"
	South Direction = "south"
	East  Direction = "east"
	West  Direction = "west"
)

// Directions lists the four approaches in upload order.
var Directions = [4]Direction{North, South, East, West}

// Sentinel marks a direction with no usable estimate. It is distinct from 0,
// which is a genuine zero-flow result.
const Sentinel FlowEstimate = -1

// FlowEstimate is the scalar flow summary for one direction's video:
// Sentinel when detection failed, 0..n otherwise.
type FlowEstimate float64

// Failed reports whether the estimate is the failure sentinel.
func (e FlowEstimate) Failed() bool {
	return e == Sentinel
}

// FlowReport maps each direction to its FlowEstimate. A report always carries
// all four directions. It is built once per approval event and must be treated
// as read-only by consumers.
type FlowReport map[Direction]FlowEstimate

// VideoSet holds the four video references for one approval event.
type VideoSet struct {
	North string
	South string
	East  string
	West  string
}

// Ref returns the video reference for a direction.
func (v VideoSet) Ref(d Direction) string {
	switch d {
	case North:
		return v.North
	case South:
		return v.South
	case East:
		return v.East
	case West:
		return v.West
	}
	return ""
}
