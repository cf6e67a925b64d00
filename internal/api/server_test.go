package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sankeertg21/traffic-wait-timer/internal/db"
	"github.com/sankeertg21/traffic-wait-timer/internal/geom"
	"github.com/sankeertg21/traffic-wait-timer/internal/monitoring"
	"github.com/sankeertg21/traffic-wait-timer/internal/report"
	"github.com/sankeertg21/traffic-wait-timer/internal/waittime"
)

func setupServer(t *testing.T) (*Server, *db.DB, string) {
	t.Helper()
	original := monitoring.Logf
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.Logf = original })

	database, err := db.NewDB(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	ctx := context.Background()
	run, err := database.StartRun(ctx, "cam1.jsonl", `{}`, geom.Rect{X1: 0, Y1: 0, X2: 50, Y2: 50})
	require.NoError(t, err)
	require.NoError(t, database.SaveVisits(ctx, run.ID, []waittime.Visit{
		{TrackID: 7, Class: "car", FirstSeen: 0, LastSeen: 12, WaitSeconds: 10.4},
		{TrackID: 9, Class: "truck", FirstSeen: 2, LastSeen: 20, WaitSeconds: 65},
	}))
	require.NoError(t, database.RecordEvents(ctx, run.ID, []waittime.Event{
		{Kind: waittime.EventTrackCreated, TrackID: 7, Timestamp: 0, Class: "car"},
		{Kind: waittime.EventTrackCreated, TrackID: 9, Timestamp: 2, Class: "truck"},
		{Kind: waittime.EventCountingStarted, TrackID: 9, Timestamp: 3, Class: "truck", WaitSeconds: 0.5},
	}))
	require.NoError(t, database.FinishRun(ctx, run.ID, db.RunCounts{FramesRead: 600, FramesProcessed: 600, Observations: 1200}))

	return NewServer(database), database, run.ID
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	s.ServeMux().ServeHTTP(w, req)
	return w
}

func TestListRuns(t *testing.T) {
	s, _, runID := setupServer(t)

	w := get(t, s, "/api/runs")
	require.Equal(t, http.StatusOK, w.Code)

	var runs []db.Run
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, runID, runs[0].ID)
	assert.Equal(t, 2, runs[0].Visits)
	assert.InDelta(t, 75.4, runs[0].TotalWaitSeconds, 1e-9)
	assert.Equal(t, 65.0, runs[0].MaxWaitSeconds)
}

func TestListRuns_InvalidLimit(t *testing.T) {
	s, _, _ := setupServer(t)

	for _, limit := range []string{"abc", "0", "-3"} {
		w := get(t, s, "/api/runs?limit="+limit)
		assert.Equal(t, http.StatusBadRequest, w.Code, "limit=%s", limit)
	}
}

func TestShowRun(t *testing.T) {
	s, _, runID := setupServer(t)

	w := get(t, s, "/api/runs/"+runID)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var run db.Run
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &run))
	assert.Equal(t, "cam1.jsonl", run.Source)
	assert.Equal(t, 600, run.FramesProcessed)
	assert.NotNil(t, run.FinishedAt)
}

func TestUnknownRunIs404(t *testing.T) {
	s, _, _ := setupServer(t)

	for _, path := range []string{
		"/api/runs/nope",
		"/api/runs/nope/report",
		"/api/runs/nope/visits",
		"/api/runs/nope/events",
		"/charts/runs/nope",
		"/charts/runs/nope/histogram.png",
	} {
		w := get(t, s, path)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
		assert.Contains(t, w.Body.String(), "run not found", path)
	}
}

func TestShowReport(t *testing.T) {
	s, _, runID := setupServer(t)

	w := get(t, s, "/api/runs/"+runID+"/report")
	require.Equal(t, http.StatusOK, w.Code)

	var doc report.Document
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, runID, doc.RunID)
	assert.Equal(t, "cam1.jsonl", doc.Source)
	require.Len(t, doc.Report.Entries, 2)
	assert.Equal(t, "00:10", doc.Report.Entries[0].Elapsed)
	assert.Equal(t, "01:05", doc.Report.Entries[1].Elapsed)
	assert.Equal(t, 20.0, doc.Report.Timestamp)
	assert.Equal(t, 2, doc.Summary.Count)
	assert.Equal(t, 65.0, doc.Summary.Max)
}

func TestShowReport_CSV(t *testing.T) {
	s, _, runID := setupServer(t)

	w := get(t, s, "/api/runs/"+runID+"/report?format=csv")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="waits-`+runID+`.csv"`, w.Header().Get("Content-Disposition"))

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "track_id,class,wait_seconds,elapsed", lines[0])
	assert.Equal(t, "7,car,10.400,00:10", lines[1])
}

func TestListVisits(t *testing.T) {
	s, _, runID := setupServer(t)

	w := get(t, s, "/api/runs/"+runID+"/visits")
	require.Equal(t, http.StatusOK, w.Code)

	var visits []waittime.Visit
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &visits))
	require.Len(t, visits, 2)
	assert.Equal(t, int64(7), visits[0].TrackID)
	assert.Equal(t, "truck", visits[1].Class)
}

func TestListEvents(t *testing.T) {
	s, _, runID := setupServer(t)

	w := get(t, s, "/api/runs/"+runID+"/events")
	require.Equal(t, http.StatusOK, w.Code)
	var events []waittime.Event
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &events))
	assert.Len(t, events, 3)

	w = get(t, s, "/api/runs/"+runID+"/events?track_id=9")
	require.Equal(t, http.StatusOK, w.Code)
	events = nil
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &events))
	require.Len(t, events, 2)
	assert.Equal(t, waittime.EventCountingStarted, events[1].Kind)

	w = get(t, s, "/api/runs/"+runID+"/events?track_id=x")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestShowChart(t *testing.T) {
	s, _, runID := setupServer(t)

	w := get(t, s, "/charts/runs/"+runID)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "Wait times: cam1.jsonl")
}

func TestShowHistogram(t *testing.T) {
	s, _, runID := setupServer(t)

	w := get(t, s, "/charts/runs/"+runID+"/histogram.png")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")))
}

func TestDeleteRun(t *testing.T) {
	s, database, runID := setupServer(t)
	mux := s.ServeMux()

	req := httptest.NewRequest(http.MethodDelete, "/api/runs/"+runID, nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)

	_, err := database.GetRun(context.Background(), runID)
	assert.ErrorIs(t, err, db.ErrRunNotFound)

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/runs/"+runID, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	s, _, _ := setupServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/runs", nil)
	w := httptest.NewRecorder()
	s.ServeMux().ServeHTTP(w, req)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestLoggingMiddleware(t *testing.T) {
	var logged []string
	original := monitoring.Logf
	monitoring.Logf = func(format string, args ...interface{}) {
		logged = append(logged, format)
	}
	t.Cleanup(func() { monitoring.Logf = original })

	h := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/runs?limit=1", nil))

	assert.Equal(t, http.StatusTeapot, w.Code)
	require.Len(t, logged, 1)
	assert.Equal(t, colorBoldRed+"418"+colorReset, statusCodeColor(http.StatusTeapot))
	assert.Equal(t, colorBoldGreen+"200"+colorReset, statusCodeColor(http.StatusOK))
	assert.Equal(t, colorYellow+"304"+colorReset, statusCodeColor(http.StatusNotModified))
	assert.Equal(t, "100", statusCodeColor(100))
}
