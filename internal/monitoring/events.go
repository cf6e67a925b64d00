package monitoring

import (
	"github.com/sankeertg21/traffic-wait-timer/internal/waittime"
)

// EventLogger writes track events through Logf. Streak starts are only
// logged when Verbose is set since every stop produces one.
type EventLogger struct {
	// Prefix is prepended to every line, e.g. a run id.
	Prefix string
}

// HandleEvent implements waittime.EventSink.
func (l EventLogger) HandleEvent(e waittime.Event) {
	switch e.Kind {
	case waittime.EventTrackCreated:
		Logf("%sNew ID %d (%s) detected at %.2fs", l.Prefix, e.TrackID, e.Class, e.Timestamp)
	case waittime.EventStreakStarted:
		Verbosef("%sID %d slowed below threshold inside ROI at %.2fs", l.Prefix, e.TrackID, e.Timestamp)
	case waittime.EventCountingStarted:
		Logf("%sID %d started waiting at %.2fs, credited %s", l.Prefix, e.TrackID, e.Timestamp, waittime.FormatMMSS(e.WaitSeconds))
	case waittime.EventStreakBroken:
		Logf("%sID %d stopped waiting at %.2fs, total %s", l.Prefix, e.TrackID, e.Timestamp, waittime.FormatMMSS(e.WaitSeconds))
	case waittime.EventTrackExpired:
		Logf("%sID %d expired at %.2fs, final wait %s", l.Prefix, e.TrackID, e.Timestamp, waittime.FormatMMSS(e.WaitSeconds))
	default:
		Logf("%s%s", l.Prefix, e)
	}
}
