package waittime

import "github.com/sankeertg21/traffic-wait-timer/internal/geom"

// History is a fixed-capacity ring of position samples. Pushing onto a full
// ring overwrites the oldest sample, so the window slides without shifting.
type History struct {
	data  []geom.Sample
	start int
	count int
}

// NewHistory returns an empty ring holding at most capacity samples.
func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}
	return &History{data: make([]geom.Sample, capacity)}
}

// Len returns the number of samples currently held.
func (h *History) Len() int { return h.count }

// Cap returns the ring capacity.
func (h *History) Cap() int { return len(h.data) }

// At returns the i-th sample, 0 being the oldest.
func (h *History) At(i int) geom.Sample {
	if i < 0 || i >= h.count {
		panic("waittime: history index out of range")
	}
	return h.data[(h.start+i)%len(h.data)]
}

// Push appends s, evicting the oldest sample when full.
func (h *History) Push(s geom.Sample) {
	if h.count < len(h.data) {
		h.data[(h.start+h.count)%len(h.data)] = s
		h.count++
		return
	}
	h.data[h.start] = s
	h.start = (h.start + 1) % len(h.data)
}

// Newest returns the most recent sample and false when empty.
func (h *History) Newest() (geom.Sample, bool) {
	if h.count == 0 {
		return geom.Sample{}, false
	}
	return h.At(h.count - 1), true
}

// Samples returns a copy of the held samples, oldest first.
func (h *History) Samples() []geom.Sample {
	out := make([]geom.Sample, h.count)
	for i := range out {
		out[i] = h.At(i)
	}
	return out
}
