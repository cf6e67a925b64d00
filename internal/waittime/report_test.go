package waittime

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFormatMMSS(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "00:00"},
		{0.49, "00:00"},
		{0.5, "00:01"}, // halves round up
		{1.5, "00:02"},
		{2.5, "00:03"},
		{59.4, "00:59"},
		{59.5, "01:00"},
		{61, "01:01"},
		{3599.6, "60:00"},
		{6000, "100:00"},
		{-3, "00:00"},
		{math.NaN(), "00:00"},
		{math.Inf(1), "00:00"},
	}

	for _, tt := range tests {
		if got := FormatMMSS(tt.in); got != tt.want {
			t.Errorf("FormatMMSS(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestReportFromVisits(t *testing.T) {
	visits := []Visit{
		{TrackID: 9, Class: "car", WaitSeconds: 10},
		{TrackID: 2, Class: "car", WaitSeconds: 0.4},
		{TrackID: 9, Class: "car", WaitSeconds: 5.5, Live: true},
	}

	got := ReportFromVisits(42, visits)
	want := Report{
		Timestamp: 42,
		Entries: []ReportEntry{
			{TrackID: 2, Class: "car", WaitSeconds: 0.4, Elapsed: "00:00"},
			{TrackID: 9, Class: "car", WaitSeconds: 15.5, Elapsed: "00:16"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ReportFromVisits mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]float64{0.4, 15.5}, got.Seconds()); diff != "" {
		t.Errorf("Seconds mismatch (-want +got):\n%s", diff)
	}
}

func TestReportFromVisits_Empty(t *testing.T) {
	r := ReportFromVisits(0, nil)
	if r.Entries == nil || len(r.Entries) != 0 {
		t.Fatalf("expected empty non-nil entries, got %#v", r.Entries)
	}
	if len(r.Map()) != 0 || len(r.Lines()) != 0 {
		t.Fatal("empty report should render nothing")
	}
}
