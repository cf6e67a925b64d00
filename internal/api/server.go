// Package api serves stored wait-time runs over HTTP.
package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/sankeertg21/traffic-wait-timer/internal/db"
	"github.com/sankeertg21/traffic-wait-timer/internal/httputil"
	"github.com/sankeertg21/traffic-wait-timer/internal/report"
	"github.com/sankeertg21/traffic-wait-timer/internal/version"
	"github.com/sankeertg21/traffic-wait-timer/internal/waittime"
)

// RunStore is the storage the API reads from. *db.DB implements it.
type RunStore interface {
	ListRuns(ctx context.Context, limit int) ([]db.Run, error)
	GetRun(ctx context.Context, runID string) (*db.Run, error)
	DeleteRun(ctx context.Context, runID string) error
	ListVisits(ctx context.Context, runID string) ([]waittime.Visit, error)
	ListEvents(ctx context.Context, runID string, trackID *int64) ([]waittime.Event, error)
}

type Server struct {
	store RunStore
}

func NewServer(store RunStore) *Server {
	return &Server{store: store}
}

// ServeMux returns the API routes. Method mismatches are answered with 405
// by the mux.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/version", s.showVersion)
	mux.HandleFunc("GET /api/runs", s.listRuns)
	mux.HandleFunc("GET /api/runs/{id}", s.showRun)
	mux.HandleFunc("DELETE /api/runs/{id}", s.deleteRun)
	mux.HandleFunc("GET /api/runs/{id}/report", s.showReport)
	mux.HandleFunc("GET /api/runs/{id}/visits", s.listVisits)
	mux.HandleFunc("GET /api/runs/{id}/events", s.listEvents)
	mux.HandleFunc("GET /charts/runs/{id}", s.showChart)
	mux.HandleFunc("GET /charts/runs/{id}/histogram.png", s.showHistogram)
	return mux
}

func (s *Server) showVersion(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, map[string]string{
		"version":    version.Version,
		"git_sha":    version.GitSHA,
		"build_time": version.BuildTime,
	})
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 1 {
			httputil.BadRequest(w, "Invalid 'limit' parameter")
			return
		}
		limit = parsed
	}
	runs, err := s.store.ListRuns(r.Context(), limit)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, runs)
}

// runOr404 loads the run named in the path, writing the error response
// itself when it cannot.
func (s *Server) runOr404(w http.ResponseWriter, r *http.Request) (*db.Run, bool) {
	run, err := s.store.GetRun(r.Context(), r.PathValue("id"))
	if errors.Is(err, db.ErrRunNotFound) {
		httputil.NotFound(w, "run not found")
		return nil, false
	}
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return nil, false
	}
	return run, true
}

func (s *Server) showRun(w http.ResponseWriter, r *http.Request) {
	if run, ok := s.runOr404(w, r); ok {
		httputil.WriteJSONOK(w, run)
	}
}

func (s *Server) deleteRun(w http.ResponseWriter, r *http.Request) {
	err := s.store.DeleteRun(r.Context(), r.PathValue("id"))
	if errors.Is(err, db.ErrRunNotFound) {
		httputil.NotFound(w, "run not found")
		return
	}
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// runReport rebuilds the per-track report of a stored run from its visits.
func (s *Server) runReport(w http.ResponseWriter, r *http.Request) (*db.Run, waittime.Report, []waittime.Visit, bool) {
	run, ok := s.runOr404(w, r)
	if !ok {
		return nil, waittime.Report{}, nil, false
	}
	visits, err := s.store.ListVisits(r.Context(), run.ID)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return nil, waittime.Report{}, nil, false
	}
	var last float64
	for _, v := range visits {
		if v.LastSeen > last {
			last = v.LastSeen
		}
	}
	return run, waittime.ReportFromVisits(last, visits), visits, true
}

func (s *Server) showReport(w http.ResponseWriter, r *http.Request) {
	run, rep, visits, ok := s.runReport(w, r)
	if !ok {
		return
	}
	doc := report.NewDocument(run.ROI, rep, visits)
	doc.RunID = run.ID
	doc.Source = run.Source

	if r.URL.Query().Get("format") == "csv" {
		var buf bytes.Buffer
		if err := report.WriteCSV(&buf, rep); err != nil {
			httputil.InternalServerError(w, err.Error())
			return
		}
		httputil.WriteAttachment(w, "text/csv", "waits-"+run.ID+".csv", buf.Bytes())
		return
	}
	httputil.WriteJSONOK(w, doc)
}

func (s *Server) listVisits(w http.ResponseWriter, r *http.Request) {
	run, ok := s.runOr404(w, r)
	if !ok {
		return
	}
	visits, err := s.store.ListVisits(r.Context(), run.ID)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, visits)
}

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	run, ok := s.runOr404(w, r)
	if !ok {
		return
	}
	var trackID *int64
	if t := r.URL.Query().Get("track_id"); t != "" {
		id, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			httputil.BadRequest(w, "Invalid 'track_id' parameter")
			return
		}
		trackID = &id
	}
	events, err := s.store.ListEvents(r.Context(), run.ID, trackID)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, events)
}

func (s *Server) showChart(w http.ResponseWriter, r *http.Request) {
	run, rep, _, ok := s.runReport(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := report.RenderChart(&buf, "Wait times: "+run.Source, rep); err != nil {
		httputil.InternalServerError(w, "render error: "+err.Error())
		return
	}
	httputil.WriteHTML(w, buf.Bytes())
}

func (s *Server) showHistogram(w http.ResponseWriter, r *http.Request) {
	_, rep, _, ok := s.runReport(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	err := report.WriteHistogramPNG(&buf, rep.Seconds(), 0)
	if errors.Is(err, report.ErrNoWaits) {
		httputil.NotFound(w, err.Error())
		return
	}
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(buf.Bytes())
}
