// Command waittimer-render replays a detection stream over its source video
// and writes a copy with wait-time overlays drawn on every frame.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"gocv.io/x/gocv"

	"github.com/sankeertg21/traffic-wait-timer/internal/config"
	"github.com/sankeertg21/traffic-wait-timer/internal/detect"
	"github.com/sankeertg21/traffic-wait-timer/internal/monitoring"
	"github.com/sankeertg21/traffic-wait-timer/internal/overlay"
	"github.com/sankeertg21/traffic-wait-timer/internal/pipeline"
	"github.com/sankeertg21/traffic-wait-timer/internal/report"
	"github.com/sankeertg21/traffic-wait-timer/internal/waittime"
)

var (
	videoPath  = flag.String("video", "", "Source video file")
	detPath    = flag.String("detections", "", "Detections JSONL file for the video")
	outPath    = flag.String("out", "output.mp4", "Output video file")
	codec      = flag.String("codec", "mp4v", "FourCC of the output video")
	roiFlag    = flag.String("roi", "", "Region of interest as x1,y1,x2,y2 (overrides the config file)")
	configPath = flag.String("config", "", "Tuning config JSON file")
	verbose    = flag.Bool("verbose", false, "Log every rest streak")
)

func main() {
	flag.Parse()
	monitoring.Verbose = *verbose

	if *videoPath == "" || *detPath == "" {
		flag.Usage()
		os.Exit(2)
	}
	if err := render(); err != nil {
		log.Fatalf("waittimer-render: %v", err)
	}
}

func render() error {
	cfg := config.EmptyTuningConfig()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadTuningConfig(*configPath); err != nil {
			return err
		}
	}
	roi := cfg.GetROI()
	if *roiFlag != "" {
		var err error
		if roi, err = config.ParseROI(*roiFlag); err != nil {
			return err
		}
	}
	if !roi.Valid() {
		return errors.New("an ROI is required: pass -roi x1,y1,x2,y2 or set roi in the config")
	}

	capture, err := gocv.VideoCaptureFile(*videoPath)
	if err != nil {
		return fmt.Errorf("opening video: %w", err)
	}
	defer capture.Close()

	fps := capture.Get(gocv.VideoCaptureFPS)
	if fps <= 0 {
		fps = cfg.GetFPS()
	}
	width := int(capture.Get(gocv.VideoCaptureFrameWidth))
	height := int(capture.Get(gocv.VideoCaptureFrameHeight))
	monitoring.Logf("Video %s: %dx%d at %.2f fps", *videoPath, width, height, fps)

	writer, err := gocv.VideoWriterFile(*outPath, *codec, fps, width, height, true)
	if err != nil {
		return fmt.Errorf("opening output: %w", err)
	}
	defer writer.Close()

	f, err := os.Open(*detPath)
	if err != nil {
		return err
	}
	defer f.Close()
	// Batches without "t" are timed by the video's own frame rate.
	aligner := pipeline.NewAligner(detect.NewSource(f, fps))

	m, err := waittime.NewMachine(cfg.Params(), roi, waittime.WithEventSink(monitoring.EventLogger{}))
	if err != nil {
		return err
	}
	runner := pipeline.NewRunner(m)
	renderer := overlay.NewRenderer(roi)

	img := gocv.NewMat()
	defer img.Close()

	frames := 0
	for {
		if ok := capture.Read(&img); !ok || img.Empty() {
			break
		}
		frames++

		batches, err := aligner.Until(frames)
		if err != nil {
			return err
		}
		var current waittime.FrameResult
		for _, b := range batches {
			res, err := runner.Step(b)
			if err != nil {
				return err
			}
			if b.Frame.Index == frames {
				current.States = append(current.States, res.States...)
			}
		}
		renderer.Draw(&img, current)

		if err := writer.Write(img); err != nil {
			return fmt.Errorf("frame %d: %w", frames, err)
		}
	}
	if !aligner.Done() {
		monitoring.Logf("Video ended after %d frames; remaining detections were not rendered", frames)
	}

	stats := runner.Stats()
	monitoring.Logf("Rendered %d frames to %s (%d batches processed, %d skipped)",
		frames, *outPath, stats.FramesProcessed, aligner.Skipped())
	return report.WriteText(os.Stdout, waittime.ReportFromVisits(m.Now(), m.AllVisits()))
}
