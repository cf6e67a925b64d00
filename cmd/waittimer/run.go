package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sankeertg21/traffic-wait-timer/internal/config"
	"github.com/sankeertg21/traffic-wait-timer/internal/db"
	"github.com/sankeertg21/traffic-wait-timer/internal/detect"
	"github.com/sankeertg21/traffic-wait-timer/internal/geom"
	"github.com/sankeertg21/traffic-wait-timer/internal/monitoring"
	"github.com/sankeertg21/traffic-wait-timer/internal/pipeline"
	"github.com/sankeertg21/traffic-wait-timer/internal/report"
	"github.com/sankeertg21/traffic-wait-timer/internal/waittime"
)

// options holds everything a processing run needs; main fills it from flags.
type options struct {
	Input      string
	ROI        string
	ConfigPath string
	FPS        float64
	DBPath     string
	OutJSONL   string
	JSONPath   string
	CSVPath    string
	HTMLPath   string
	PNGPath    string
	Realtime   float64
}

func loadConfig(opts options) (*config.TuningConfig, geom.Rect, error) {
	cfg := config.EmptyTuningConfig()
	if opts.ConfigPath != "" {
		var err error
		if cfg, err = config.LoadTuningConfig(opts.ConfigPath); err != nil {
			return nil, geom.Rect{}, err
		}
	}
	if opts.FPS > 0 {
		cfg.FPS = &opts.FPS
	}

	roi := cfg.GetROI()
	if opts.ROI != "" {
		var err error
		if roi, err = config.ParseROI(opts.ROI); err != nil {
			return nil, geom.Rect{}, err
		}
		cfg.ROI = &[4]float64{roi.X1, roi.Y1, roi.X2, roi.Y2}
	}
	if !roi.Valid() {
		return nil, geom.Rect{}, errors.New("an ROI is required: pass -roi x1,y1,x2,y2 or set roi in the config")
	}
	return cfg, roi, nil
}

func openInput(path string, stdin io.Reader) (io.Reader, string, func() error, error) {
	if path == "" || path == "-" {
		return stdin, "stdin", func() error { return nil }, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, "", nil, err
	}
	return f, filepath.Base(path), f.Close, nil
}

// process runs one detection stream through the tracker and writes every
// requested output. Cancelling ctx stops reading early; whatever was
// processed so far is still reported.
func process(ctx context.Context, opts options, stdin io.Reader, stdout io.Writer) error {
	cfg, roi, err := loadConfig(opts)
	if err != nil {
		return err
	}
	configJSON, err := cfg.MarshalIndent()
	if err != nil {
		return err
	}
	monitoring.Verbosef("Effective config:\n%s", configJSON)

	in, source, closeInput, err := openInput(opts.Input, stdin)
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	defer closeInput()

	sinks := waittime.MultiSink{monitoring.EventLogger{}}

	var (
		database *db.DB
		run      *db.Run
		recorder *db.EventRecorder
	)
	if opts.DBPath != "" {
		if database, err = db.NewDB(opts.DBPath); err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer database.Close()
		if run, err = database.StartRun(ctx, source, string(configJSON), roi); err != nil {
			return err
		}
		recorder = db.NewEventRecorder(database, run.ID, 0)
		sinks = append(sinks, recorder)
		monitoring.Logf("Recording run %s in %s", run.ID, opts.DBPath)
	}

	m, err := waittime.NewMachine(cfg.Params(), roi, waittime.WithEventSink(sinks))
	if err != nil {
		return err
	}

	runnerOpts := []pipeline.Option{pipeline.WithPacing(opts.Realtime)}
	var jsonl *pipeline.JSONLWriter
	if opts.OutJSONL != "" {
		f, err := os.Create(opts.OutJSONL)
		if err != nil {
			return err
		}
		defer f.Close()
		jsonl = pipeline.NewJSONLWriter(f)
		runnerOpts = append(runnerOpts, pipeline.WithSinks(jsonl))
	}

	runner := pipeline.NewRunner(m, runnerOpts...)
	stats, err := runner.Run(ctx, detect.NewSource(in, cfg.GetFPS()))
	if errors.Is(err, context.Canceled) {
		monitoring.Logf("Interrupted after %d frames, writing partial results", stats.FramesRead)
	} else if err != nil {
		return err
	}
	monitoring.Logf("Processed %d of %d frames (%d skipped, %d observations) in %v",
		stats.FramesProcessed, stats.FramesRead, stats.FramesSkipped, stats.Observations, stats.Duration)

	if jsonl != nil {
		if err := jsonl.Flush(); err != nil {
			return fmt.Errorf("writing %s: %w", opts.OutJSONL, err)
		}
	}

	// The final report covers every credited track, including those that
	// expired before the end of the stream.
	visits := m.AllVisits()
	rep := waittime.ReportFromVisits(m.Now(), visits)

	// Persist with a fresh context so an interrupted run is still recorded.
	if database != nil {
		bg := context.Background()
		if err := recorder.Flush(bg); err != nil {
			return err
		}
		if err := database.SaveVisits(bg, run.ID, visits); err != nil {
			return err
		}
		if err := database.FinishRun(bg, run.ID, db.RunCounts{
			FramesRead:      stats.FramesRead,
			FramesProcessed: stats.FramesProcessed,
			FramesSkipped:   stats.FramesSkipped,
			Observations:    stats.Observations,
		}); err != nil {
			return err
		}
	}

	doc := report.NewDocument(roi, rep, visits)
	doc.Source = source
	if run != nil {
		doc.RunID = run.ID
	}
	if err := writeOutputs(opts, doc); err != nil {
		return err
	}
	return report.WriteText(stdout, rep)
}

func writeOutputs(opts options, doc report.Document) error {
	if opts.JSONPath != "" {
		if err := writeFile(opts.JSONPath, func(w io.Writer) error { return report.WriteJSON(w, doc) }); err != nil {
			return err
		}
	}
	if opts.CSVPath != "" {
		if err := writeFile(opts.CSVPath, func(w io.Writer) error { return report.WriteCSV(w, doc.Report) }); err != nil {
			return err
		}
	}
	if opts.HTMLPath != "" {
		title := "Wait times: " + doc.Source
		if err := writeFile(opts.HTMLPath, func(w io.Writer) error { return report.RenderChart(w, title, doc.Report) }); err != nil {
			return err
		}
	}
	if opts.PNGPath != "" {
		err := report.SaveHistogramPNG(opts.PNGPath, doc.Report.Seconds(), 0)
		if errors.Is(err, report.ErrNoWaits) {
			monitoring.Logf("No waits recorded, skipping %s", opts.PNGPath)
		} else if err != nil {
			return fmt.Errorf("writing %s: %w", opts.PNGPath, err)
		}
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(f)
	if err := write(bw); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}
