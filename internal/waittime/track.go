package waittime

import (
	"slices"

	"github.com/sankeertg21/traffic-wait-timer/internal/geom"
)

// Track is the state record for one external track identity.
type Track struct {
	ID    int64
	Class string // class label of the most recent observation

	// Timestamps on the stream clock (seconds)
	FirstSeen float64
	LastSeen  float64

	// Flags recomputed on every observation
	InsideROI bool
	Resting   bool
	Speed     float64 // px/s, +Inf when there is not enough history

	// AccumulatedWait never decreases while the track is live.
	AccumulatedWait float64
	// Qualified is set once the track has been credited at least once,
	// including a zero back-credit at the qualification instant.
	Qualified bool

	history *History

	restStart     float64
	streaking     bool
	lastIncrement float64
	incrementing  bool
}

func newTrack(id int64, historyLen int, now float64) *Track {
	return &Track{
		ID:        id,
		FirstSeen: now,
		LastSeen:  now,
		history:   NewHistory(historyLen),
	}
}

// History returns a read-only view of the position history, oldest first.
func (t *Track) History() geom.Samples { return t.history }

// HistoryLen returns the number of samples currently held.
func (t *Track) HistoryLen() int { return t.history.Len() }

// RestStart returns the start of the current inside-ROI resting streak.
func (t *Track) RestStart() (float64, bool) { return t.restStart, t.streaking }

// LastIncrement returns the last time wait was credited in this streak.
func (t *Track) LastIncrement() (float64, bool) { return t.lastIncrement, t.incrementing }

func (t *Track) clearStreak() {
	t.restStart, t.streaking = 0, false
	t.lastIncrement, t.incrementing = 0, false
}

// Store holds every live track keyed by identity. It is owned by a single
// Machine and is not safe for concurrent use.
type Store struct {
	tracks     map[int64]*Track
	historyLen int
}

// NewStore creates an empty store whose tracks keep historyLen samples.
func NewStore(historyLen int) *Store {
	return &Store{
		tracks:     make(map[int64]*Track),
		historyLen: historyLen,
	}
}

// GetOrCreate returns the track for id, creating it at time now when unseen.
// The boolean reports whether the track was created.
func (s *Store) GetOrCreate(id int64, now float64) (*Track, bool) {
	if t, ok := s.tracks[id]; ok {
		return t, false
	}
	t := newTrack(id, s.historyLen, now)
	s.tracks[id] = t
	return t, true
}

// Get returns the track for id if it is live.
func (s *Store) Get(id int64) (*Track, bool) {
	t, ok := s.tracks[id]
	return t, ok
}

// Remove deletes the track for id. Removing an unknown id is a no-op.
func (s *Store) Remove(id int64) {
	delete(s.tracks, id)
}

// Len returns the number of live tracks.
func (s *Store) Len() int { return len(s.tracks) }

// IDs returns all live track ids in ascending order.
func (s *Store) IDs() []int64 {
	ids := make([]int64, 0, len(s.tracks))
	for id := range s.tracks {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Stale returns, in ascending order, the ids of tracks last seen more than
// expiry seconds before now.
func (s *Store) Stale(now, expiry float64) []int64 {
	var ids []int64
	for id, t := range s.tracks {
		if now-t.LastSeen > expiry {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// Prune removes every stale track and returns the removed tracks in
// ascending id order.
func (s *Store) Prune(now, expiry float64) []*Track {
	ids := s.Stale(now, expiry)
	removed := make([]*Track, 0, len(ids))
	for _, id := range ids {
		removed = append(removed, s.tracks[id])
		delete(s.tracks, id)
	}
	return removed
}
