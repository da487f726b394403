package flow

import "gonum.org/v1/gonum/stat"

// FindPeaks returns the indices of strict local maxima in values: positions
// whose value is strictly greater than both neighbours. The first and last
// element never qualify since they lack two neighbours.
func FindPeaks(values []int) []int {
	var peaks []int
	for i := 1; i < len(values)-1; i++ {
		if values[i] > values[i-1] && values[i] > values[i+1] {
			peaks = append(peaks, i)
		}
	}
	return peaks
}

// MeanPeak reduces a finalized count sequence to its representative flow
// metric: the arithmetic mean of the values at strict local maxima. A sequence
// with no peaks (shorter than 3 samples, monotonic, or constant) yields 0,
// which is a valid zero-flow result rather than an error.
func MeanPeak(values []int) float64 {
	peaks := FindPeaks(values)
	if len(peaks) == 0 {
		return 0
	}
	at := make([]float64, len(peaks))
	for i, p := range peaks {
		at[i] = float64(values[p])
	}
	return stat.Mean(at, nil)
}
