package waittime

import "fmt"

// EventKind names a discrete track notification.
type EventKind string

const (
	EventTrackCreated    EventKind = "track-created"
	EventStreakStarted   EventKind = "streak-started"
	EventCountingStarted EventKind = "counting-started" // streak passed the minimum dwell gate
	EventStreakBroken    EventKind = "streak-broken"
	EventTrackExpired    EventKind = "track-expired"
)

// Event is emitted by the Machine as tracks change state.
type Event struct {
	Kind        EventKind `json:"kind"`
	TrackID     int64     `json:"track_id"`
	Timestamp   float64   `json:"timestamp"`
	Class       string    `json:"class,omitempty"`
	WaitSeconds float64   `json:"wait_seconds"`
}

func (e Event) String() string {
	return fmt.Sprintf("%s id=%d t=%.2fs wait=%s", e.Kind, e.TrackID, e.Timestamp, FormatMMSS(e.WaitSeconds))
}

// EventSink receives events synchronously from the frame loop.
type EventSink interface {
	HandleEvent(Event)
}

// EventSinkFunc adapts a function to EventSink.
type EventSinkFunc func(Event)

func (f EventSinkFunc) HandleEvent(e Event) { f(e) }

// MultiSink fans events out to every non-nil sink in order.
type MultiSink []EventSink

func (m MultiSink) HandleEvent(e Event) {
	for _, s := range m {
		if s != nil {
			s.HandleEvent(e)
		}
	}
}

// EventLog collects events in memory. Useful in tests and for short runs.
type EventLog struct {
	Events []Event
}

func (l *EventLog) HandleEvent(e Event) { l.Events = append(l.Events, e) }

// Kinds returns the kinds of the collected events in order.
func (l *EventLog) Kinds() []EventKind {
	out := make([]EventKind, len(l.Events))
	for i, e := range l.Events {
		out[i] = e.Kind
	}
	return out
}
