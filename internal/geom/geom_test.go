package geom

import (
	"math"
	"testing"
)

func TestInsideROI(t *testing.T) {
	roi := Rect{X1: 0, Y1: 0, X2: 50, Y2: 50}

	tests := []struct {
		name string
		box  Box
		want bool
	}{
		{"centre inside", Box{10, 10, 20, 20}, true},
		{"centre on left edge", Box{-10, 10, 10, 20}, true},
		{"centre on far corner", Box{40, 40, 60, 60}, true},
		{"centre just outside", Box{41, 41, 61, 61}, false},
		{"far away", Box{90, 90, 110, 110}, false},
		{"box overlaps but centre outside", Box{30, 30, 80, 80}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InsideROI(tt.box, roi); got != tt.want {
				t.Errorf("InsideROI(%v) = %v, want %v", tt.box, got, tt.want)
			}
		})
	}
}

func TestCentroid(t *testing.T) {
	c := Box{X1: 10, Y1: 20, X2: 30, Y2: 61}.Centroid()
	if c.X != 20 || c.Y != 40.5 {
		t.Fatalf("Centroid = %+v, want {20 40.5}", c)
	}
}

func TestBoxValid(t *testing.T) {
	if !(Box{0, 0, 1, 1}).Valid() {
		t.Error("unit box should be valid")
	}
	if (Box{5, 0, 5, 1}).Valid() {
		t.Error("zero-width box should be invalid")
	}
	if (Box{0, 0, math.NaN(), 1}).Valid() {
		t.Error("NaN box should be invalid")
	}
	if (Box{0, 0, math.Inf(1), 1}).Valid() {
		t.Error("infinite box should be invalid")
	}
}

func TestWindowedSpeed(t *testing.T) {
	pt := func(ts, x, y float64) Sample { return Sample{T: ts, P: Point{X: x, Y: y}} }

	tests := []struct {
		name    string
		history SampleSlice
		now     float64
		window  float64
		want    float64
	}{
		{
			name:    "empty history",
			history: nil,
			now:     1,
			window:  0.8,
			want:    math.Inf(1),
		},
		{
			name:    "single sample",
			history: SampleSlice{pt(1, 0, 0)},
			now:     1,
			window:  0.8,
			want:    math.Inf(1),
		},
		{
			name:    "two samples inside window",
			history: SampleSlice{pt(0.5, 0, 0), pt(1.0, 3, 4)},
			now:     1.0,
			window:  0.8,
			want:    10, // 5px over 0.5s
		},
		{
			name:    "reference is first sample inside window",
			history: SampleSlice{pt(0, 100, 100), pt(0.5, 0, 0), pt(1.0, 0, 2)},
			now:     1.0,
			window:  0.6,
			want:    4,
		},
		{
			name:    "sample exactly at window start is included",
			history: SampleSlice{pt(0.2, 0, 0), pt(1.0, 8, 0)},
			now:     1.0,
			window:  0.8,
			want:    10,
		},
		{
			name:    "all samples older than window falls back to oldest",
			history: SampleSlice{pt(0, 0, 0), pt(1, 10, 0)},
			now:     5,
			window:  0.8,
			want:    10,
		},
		{
			name:    "only newest inside window is degenerate",
			history: SampleSlice{pt(0, 0, 0), pt(2, 10, 0)},
			now:     2,
			window:  0.8,
			want:    math.Inf(1),
		},
		{
			name:    "duplicate timestamps",
			history: SampleSlice{pt(1, 0, 0), pt(1, 10, 0)},
			now:     1,
			window:  0.8,
			want:    math.Inf(1),
		},
		{
			name:    "stationary",
			history: SampleSlice{pt(0.5, 7, 7), pt(1, 7, 7)},
			now:     1,
			window:  0.8,
			want:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WindowedSpeed(tt.history, tt.now, tt.window)
			if math.IsInf(tt.want, 1) {
				if !math.IsInf(got, 1) {
					t.Fatalf("WindowedSpeed = %v, want +Inf", got)
				}
				return
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("WindowedSpeed = %v, want %v", got, tt.want)
			}
		})
	}
}
