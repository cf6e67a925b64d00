package waittime

import (
	"fmt"
	"math"
	"slices"
)

// FormatMMSS renders seconds as zero-padded mm:ss. The value is rounded to
// the nearest whole second with halves rounding up (0.5s -> "00:01").
// Negative and non-finite inputs render as "00:00".
func FormatMMSS(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		seconds = 0
	}
	total := int64(math.Floor(seconds + 0.5))
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// ReportEntry is one line of the wait-time report.
type ReportEntry struct {
	TrackID     int64   `json:"track_id"`
	Class       string  `json:"class,omitempty"`
	WaitSeconds float64 `json:"wait_seconds"`
	Elapsed     string  `json:"elapsed"`
}

// Report is the wait time of each credited track, ordered by track id.
type Report struct {
	Timestamp float64       `json:"timestamp"`
	Entries   []ReportEntry `json:"entries"`
}

// Report snapshots the accumulated wait of every live track that has been
// credited. It does not mutate state and may be called at any time.
func (m *Machine) Report() Report {
	r := Report{Timestamp: m.now, Entries: []ReportEntry{}}
	for _, id := range m.store.IDs() {
		t, _ := m.store.Get(id)
		if !t.Qualified {
			continue
		}
		r.Entries = append(r.Entries, ReportEntry{
			TrackID:     t.ID,
			Class:       t.Class,
			WaitSeconds: t.AccumulatedWait,
			Elapsed:     FormatMMSS(t.AccumulatedWait),
		})
	}
	return r
}

// ReportFromVisits builds a report from a visit ledger. When an id has
// several visits the waits are summed, so a vehicle that left and came back
// under the same id is reported once.
func ReportFromVisits(ts float64, visits []Visit) Report {
	byID := make(map[int64]*ReportEntry)
	for _, v := range visits {
		e, ok := byID[v.TrackID]
		if !ok {
			e = &ReportEntry{TrackID: v.TrackID, Class: v.Class}
			byID[v.TrackID] = e
		}
		e.WaitSeconds += v.WaitSeconds
	}
	ids := make([]int64, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	r := Report{Timestamp: ts, Entries: make([]ReportEntry, 0, len(ids))}
	for _, id := range ids {
		e := byID[id]
		e.Elapsed = FormatMMSS(e.WaitSeconds)
		r.Entries = append(r.Entries, *e)
	}
	return r
}

// Map returns the report as id -> mm:ss.
func (r Report) Map() map[int64]string {
	out := make(map[int64]string, len(r.Entries))
	for _, e := range r.Entries {
		out[e.TrackID] = e.Elapsed
	}
	return out
}

// Lines renders the report one track per line, in id order.
func (r Report) Lines() []string {
	out := make([]string, len(r.Entries))
	for i, e := range r.Entries {
		out[i] = fmt.Sprintf("ID %d: %s", e.TrackID, e.Elapsed)
	}
	return out
}

// Seconds returns the raw waits in id order.
func (r Report) Seconds() []float64 {
	out := make([]float64, len(r.Entries))
	for i, e := range r.Entries {
		out[i] = e.WaitSeconds
	}
	return out
}
