package waittime

import (
	"fmt"
	"strings"

	"github.com/sankeertg21/traffic-wait-timer/internal/geom"
)

// Detection is one tracked object in a frame, as produced by the external
// detector and tracker.
type Detection struct {
	TrackID int64
	Box     geom.Box
	Class   string
}

// Frame is one detection batch stamped with the stream time in seconds.
type Frame struct {
	Index      int
	Timestamp  float64
	Detections []Detection
}

// State is the per-observation view handed to renderers and annotators.
type State struct {
	TrackID         int64
	Class           string
	Box             geom.Box
	Centroid        geom.Point
	InsideROI       bool
	Resting         bool
	ActivelyCounted bool
	Speed           float64 // px/s, +Inf when undetermined
	WaitSeconds     float64
	Qualified       bool // a wait timer exists for this track
}

// WaitLabel returns the formatted wait time, or "" when the track has never
// been credited.
func (s State) WaitLabel() string {
	if !s.Qualified {
		return ""
	}
	return FormatMMSS(s.WaitSeconds)
}

// FrameResult summarises one processed frame.
type FrameResult struct {
	Index     int
	Timestamp float64
	States    []State
	Ignored   int     // detections dropped by the class filter
	Expired   []int64 // tracks removed by the sweep after this frame
}

// Visit is the final wait of a track that has left the store.
type Visit struct {
	TrackID     int64   `json:"track_id"`
	Class       string  `json:"class"`
	FirstSeen   float64 `json:"first_seen"`
	LastSeen    float64 `json:"last_seen"`
	WaitSeconds float64 `json:"wait_seconds"`
	Live        bool    `json:"live"` // still tracked when the ledger was read
}

// Machine drives the wait-time state of every track. It is not safe for
// concurrent use; one frame must be fully processed before the next.
type Machine struct {
	cfg     Config
	roi     geom.Rect
	store   *Store
	classes classFilter
	sink    EventSink

	visits []Visit
	now    float64
	frames int
}

// Option configures a Machine.
type Option func(*Machine)

// WithEventSink routes track events to s.
func WithEventSink(s EventSink) Option {
	return func(m *Machine) { m.sink = s }
}

// NewMachine validates cfg and roi and returns a ready Machine.
func NewMachine(cfg Config, roi geom.Rect, opts ...Option) (*Machine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid wait-time config: %w", err)
	}
	if !roi.Valid() {
		return nil, fmt.Errorf("invalid ROI %v: need x1 < x2 and y1 < y2", roi)
	}
	m := &Machine{
		cfg:     cfg,
		roi:     roi,
		store:   NewStore(cfg.MaxHistoryLen),
		classes: newClassFilter(cfg.Classes),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Config returns the machine parameters.
func (m *Machine) Config() Config { return m.cfg }

// ROI returns the region of interest.
func (m *Machine) ROI() geom.Rect { return m.roi }

// Now returns the timestamp of the latest processed frame.
func (m *Machine) Now() float64 { return m.now }

// Frames returns the number of frames processed.
func (m *Machine) Frames() int { return m.frames }

// Track returns the live track for id. The returned value must be treated
// as read-only.
func (m *Machine) Track(id int64) (*Track, bool) { return m.store.Get(id) }

// TrackIDs returns the live track ids in ascending order.
func (m *Machine) TrackIDs() []int64 { return m.store.IDs() }

// ProcessFrame applies every detection in f and then sweeps tracks that
// have been silent longer than the expiry window.
func (m *Machine) ProcessFrame(f Frame) FrameResult {
	res := FrameResult{Index: f.Index, Timestamp: f.Timestamp}
	for _, d := range f.Detections {
		st, ok := m.Observe(d, f.Timestamp)
		if !ok {
			res.Ignored++
			continue
		}
		res.States = append(res.States, st)
	}
	m.now = f.Timestamp
	m.frames++
	res.Expired = m.Sweep(f.Timestamp)
	return res
}

// Observe applies a single detection at time ts. It returns false, and
// touches nothing, when the class is not of interest.
func (m *Machine) Observe(d Detection, ts float64) (State, bool) {
	if !m.classes.accepts(d.Class) {
		return State{}, false
	}

	t, created := m.store.GetOrCreate(d.TrackID, ts)
	t.Class = strings.ToLower(d.Class)
	if created {
		m.emit(EventTrackCreated, t, ts)
	}

	c := d.Box.Centroid()
	// Out-of-order samples would break the time ordering the speed
	// estimate relies on, so they only refresh the flags.
	if last, ok := t.history.Newest(); !ok || ts >= last.T {
		t.history.Push(geom.Sample{T: ts, P: c})
	}
	if ts > t.LastSeen {
		t.LastSeen = ts
	}

	t.InsideROI = geom.InsideROI(d.Box, m.roi)
	t.Speed = geom.WindowedSpeed(t.history, ts, m.cfg.SpeedWindow)
	t.Resting = t.Speed <= m.cfg.SpeedThreshold

	m.advance(t, ts)

	return State{
		TrackID:         t.ID,
		Class:           t.Class,
		Box:             d.Box,
		Centroid:        c,
		InsideROI:       t.InsideROI,
		Resting:         t.Resting,
		ActivelyCounted: m.activelyCounted(t, ts),
		Speed:           t.Speed,
		WaitSeconds:     t.AccumulatedWait,
		Qualified:       t.Qualified,
	}, true
}

// advance runs the streak transitions for one observation.
func (m *Machine) advance(t *Track, ts float64) {
	if !(t.InsideROI && t.Resting) {
		if t.streaking {
			m.emit(EventStreakBroken, t, ts)
		}
		t.clearStreak()
		return
	}

	if !t.streaking {
		t.restStart, t.streaking = ts, true
		m.emit(EventStreakStarted, t, ts)
	}

	if ts-t.restStart < m.cfg.MinStillTime {
		return
	}

	if !t.incrementing {
		// Credit only the time since the streak qualified, once.
		credit(t, ts-(t.restStart+m.cfg.MinStillTime))
		t.lastIncrement, t.incrementing = ts, true
		t.Qualified = true
		m.emit(EventCountingStarted, t, ts)
		return
	}

	if delta := ts - t.lastIncrement; delta > 0 {
		credit(t, delta)
		t.lastIncrement = ts
	}
}

func credit(t *Track, d float64) {
	if d > 0 {
		t.AccumulatedWait += d
	}
}

func (m *Machine) activelyCounted(t *Track, ts float64) bool {
	return t.streaking && ts-t.restStart >= m.cfg.MinStillTime && t.InsideROI && t.Resting
}

// Sweep removes tracks last seen more than the expiry window before now and
// returns their ids. Credited tracks are moved to the visit ledger.
func (m *Machine) Sweep(now float64) []int64 {
	removed := m.store.Prune(now, m.cfg.ExpirySeconds)
	var ids []int64
	for _, t := range removed {
		if t.Qualified {
			m.visits = append(m.visits, visitOf(t, false))
		}
		m.emit(EventTrackExpired, t, now)
		ids = append(ids, t.ID)
	}
	return ids
}

// Visits returns the ledger of expired, credited tracks in expiry order.
func (m *Machine) Visits() []Visit {
	out := make([]Visit, len(m.visits))
	copy(out, m.visits)
	return out
}

// AllVisits returns the expired ledger followed by every live credited
// track, flagged Live. Intended for end-of-run persistence.
func (m *Machine) AllVisits() []Visit {
	out := m.Visits()
	for _, id := range m.store.IDs() {
		t, _ := m.store.Get(id)
		if t.Qualified {
			out = append(out, visitOf(t, true))
		}
	}
	return out
}

func visitOf(t *Track, live bool) Visit {
	return Visit{
		TrackID:     t.ID,
		Class:       t.Class,
		FirstSeen:   t.FirstSeen,
		LastSeen:    t.LastSeen,
		WaitSeconds: t.AccumulatedWait,
		Live:        live,
	}
}

func (m *Machine) emit(kind EventKind, t *Track, ts float64) {
	if m.sink == nil {
		return
	}
	m.sink.HandleEvent(Event{
		Kind:        kind,
		TrackID:     t.ID,
		Timestamp:   ts,
		Class:       t.Class,
		WaitSeconds: t.AccumulatedWait,
	})
}
