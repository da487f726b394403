package flow

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFindPeaks(t *testing.T) {
	tests := []struct {
		name   string
		values []int
		want   []int
	}{
		{"empty", nil, nil},
		{"single", []int{5}, nil},
		{"pair", []int{5, 3}, nil},
		{"strictly increasing", []int{1, 2, 3, 4, 5}, nil},
		{"strictly decreasing", []int{5, 4, 3, 2, 1}, nil},
		{"constant", []int{3, 3, 3, 3}, nil},
		{"two peaks", []int{1, 3, 2, 5, 2}, []int{1, 3}},
		{"plateau is not a strict peak", []int{1, 4, 4, 1}, nil},
		{"interior peak only", []int{9, 1, 2, 1, 9}, []int{2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FindPeaks(tt.values)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("FindPeaks(%v) mismatch (-want +got):\n%s", tt.values, diff)
			}
		})
	}
}

func TestMeanPeak(t *testing.T) {
	tests := []struct {
		name   string
		values []int
		want   float64
	}{
		{"no peaks yields zero", []int{1, 2, 3, 4, 5}, 0},
		{"fewer than three samples yields zero", []int{8, 2}, 0},
		{"mean of peak values", []int{1, 3, 2, 5, 2}, 4}, // peaks 3 and 5
		{"single peak", []int{0, 7, 0}, 7},
		{"all zeros", []int{0, 0, 0, 0}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MeanPeak(tt.values); got != tt.want {
				t.Errorf("MeanPeak(%v) = %v, want %v", tt.values, got, tt.want)
			}
		})
	}
}
