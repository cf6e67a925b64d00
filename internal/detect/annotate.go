package detect

import (
	"math"

	"github.com/tidwall/sjson"

	"github.com/sankeertg21/traffic-wait-timer/internal/waittime"
)

// TrackAnnotation is the per-track renderer state appended to a line.
type TrackAnnotation struct {
	ID              int64    `json:"id"`
	Class           string   `json:"class"`
	InsideROI       bool     `json:"inside_roi"`
	Resting         bool     `json:"resting"`
	ActivelyCounted bool     `json:"counting"`
	Speed           *float64 `json:"speed,omitempty"` // omitted while undetermined
	WaitSeconds     float64  `json:"wait_seconds"`
	Elapsed         string   `json:"elapsed,omitempty"`
}

// Annotations converts frame states into their JSON form.
func Annotations(states []waittime.State) []TrackAnnotation {
	out := make([]TrackAnnotation, 0, len(states))
	for _, s := range states {
		a := TrackAnnotation{
			ID:              s.TrackID,
			Class:           s.Class,
			InsideROI:       s.InsideROI,
			Resting:         s.Resting,
			ActivelyCounted: s.ActivelyCounted,
			WaitSeconds:     s.WaitSeconds,
			Elapsed:         s.WaitLabel(),
		}
		if !math.IsInf(s.Speed, 0) && !math.IsNaN(s.Speed) {
			v := s.Speed
			a.Speed = &v
		}
		out = append(out, a)
	}
	return out
}

// Annotate returns raw with a "wait" array holding the state of every track
// observed in the frame.
func Annotate(raw []byte, res waittime.FrameResult) ([]byte, error) {
	return sjson.SetBytes(raw, "wait", Annotations(res.States))
}
