// Command waittimer measures how long tracked vehicles wait inside a region
// of interest, given a stream of detection batches.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sankeertg21/traffic-wait-timer/internal/db"
	"github.com/sankeertg21/traffic-wait-timer/internal/monitoring"
	"github.com/sankeertg21/traffic-wait-timer/internal/version"
)

const defaultDBFile = "waittimer.db"

var (
	input       = flag.String("input", "-", "Detections JSONL file, or - for stdin")
	roiFlag     = flag.String("roi", "", "Region of interest as x1,y1,x2,y2 (overrides the config file)")
	configPath  = flag.String("config", "", "Tuning config JSON file")
	fps         = flag.Float64("fps", 0, "Frame rate used to timestamp batches without \"t\" (overrides the config file)")
	dbPath      = flag.String("db", "", "SQLite database to record the run in (serve and migrate default to "+defaultDBFile+")")
	outJSONL    = flag.String("out-jsonl", "", "Write the input stream annotated with wait state to this file")
	jsonOut     = flag.String("json", "", "Write the report document as JSON to this file")
	csvOut      = flag.String("csv", "", "Write the report as CSV to this file")
	htmlOut     = flag.String("html", "", "Write an HTML wait-time chart to this file")
	pngOut      = flag.String("png", "", "Write a wait-time histogram image to this file")
	realtime    = flag.Float64("realtime", 0, "Replay the stream at this multiple of real time (0 = as fast as possible)")
	listen      = flag.String("listen", ":8080", "Listen address for serve")
	verbose     = flag.Bool("verbose", false, "Log every rest streak")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func printUsage() {
	fmt.Fprintf(flag.CommandLine.Output(), `waittimer - ROI wait-time tracker

Usage:
  waittimer [flags]                  process a detection stream
  waittimer [flags] serve            serve recorded runs over HTTP
  waittimer [flags] migrate <action> manage the database schema

Flags:
`)
	flag.PrintDefaults()
}

func main() {
	flag.Usage = printUsage
	flag.Parse()

	if *showVersion {
		fmt.Printf("waittimer %s\n", version.String())
		return
	}
	monitoring.Verbose = *verbose

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var err error
	switch command := flag.Arg(0); command {
	case "":
		err = process(ctx, optionsFromFlags(), os.Stdin, os.Stdout)
	case "serve":
		err = serve(ctx, dbPathOrDefault(), *listen)
	case "migrate":
		err = db.RunMigrateCommand(flag.Args()[1:], dbPathOrDefault(), os.Stdout)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(2)
	}
	if err != nil {
		stop()
		log.Fatalf("waittimer: %v", err)
	}
}

func dbPathOrDefault() string {
	if *dbPath == "" {
		return defaultDBFile
	}
	return *dbPath
}

func optionsFromFlags() options {
	return options{
		Input:      *input,
		ROI:        *roiFlag,
		ConfigPath: *configPath,
		FPS:        *fps,
		DBPath:     *dbPath,
		OutJSONL:   *outJSONL,
		JSONPath:   *jsonOut,
		CSVPath:    *csvOut,
		HTMLPath:   *htmlOut,
		PNGPath:    *pngOut,
		Realtime:   *realtime,
	}
}
