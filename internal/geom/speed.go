package geom

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Sample is one timestamped centroid in a track's position history.
type Sample struct {
	T float64 // seconds
	P Point
}

// Samples is a read-only, time-ordered view of a position history.
// At(0) is the oldest sample and At(Len()-1) the newest.
type Samples interface {
	Len() int
	At(i int) Sample
}

// SampleSlice adapts a plain slice to Samples.
type SampleSlice []Sample

func (s SampleSlice) Len() int        { return len(s) }
func (s SampleSlice) At(i int) Sample { return s[i] }

// WindowedSpeed estimates speed in pixels per second from the oldest sample
// inside the trailing window and the newest sample.
//
// It returns +Inf when there is not enough data to call the object resting:
// fewer than two samples, or a non-positive time span between the reference
// and the newest sample.
func WindowedSpeed(history Samples, now, window float64) float64 {
	n := history.Len()
	if n < 2 {
		return math.Inf(1)
	}

	start := now - window
	ref := -1
	for i := 0; i < n; i++ {
		if history.At(i).T >= start {
			ref = i
			break
		}
	}
	if ref < 0 {
		ref = 0
	}

	first := history.At(ref)
	last := history.At(n - 1)
	dt := last.T - first.T
	if dt <= 0 {
		return math.Inf(1)
	}

	dist := floats.Distance([]float64{first.P.X, first.P.Y}, []float64{last.P.X, last.P.Y}, 2)
	return dist / dt
}
