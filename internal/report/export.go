package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/sankeertg21/traffic-wait-timer/internal/geom"
	"github.com/sankeertg21/traffic-wait-timer/internal/waittime"
)

// Document is the JSON export of a finished run.
type Document struct {
	RunID   string           `json:"run_id,omitempty"`
	Source  string           `json:"source,omitempty"`
	ROI     geom.Rect        `json:"roi"`
	Report  waittime.Report  `json:"report"`
	Visits  []waittime.Visit `json:"visits"`
	Summary Summary          `json:"summary"`
}

// NewDocument builds the export for a report and its visit ledger. The
// summary covers the report entries.
func NewDocument(roi geom.Rect, r waittime.Report, visits []waittime.Visit) Document {
	if visits == nil {
		visits = []waittime.Visit{}
	}
	return Document{ROI: roi, Report: r, Visits: visits, Summary: Summarize(r.Seconds())}
}

// WriteJSON writes doc as indented JSON.
func WriteJSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

var csvHeader = []string{"track_id", "class", "wait_seconds", "elapsed"}

// WriteCSV writes one row per report entry.
func WriteCSV(w io.Writer, r waittime.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, e := range r.Entries {
		row := []string{
			strconv.FormatInt(e.TrackID, 10),
			e.Class,
			strconv.FormatFloat(e.WaitSeconds, 'f', 3, 64),
			e.Elapsed,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteText writes the human-readable report, one "ID n: mm:ss" line per
// track, in ascending id order.
func WriteText(w io.Writer, r waittime.Report) error {
	if len(r.Entries) == 0 {
		_, err := fmt.Fprintln(w, "No vehicles waited in the ROI.")
		return err
	}
	for _, line := range r.Lines() {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
