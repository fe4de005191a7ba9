package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/nvr-ai/go-fiducial/batch"
	"github.com/nvr-ai/go-fiducial/config"
	"github.com/nvr-ai/go-fiducial/detector"
	"github.com/nvr-ai/go-fiducial/images"
	"github.com/nvr-ai/go-fiducial/journal"
	"github.com/nvr-ai/go-fiducial/logger"
	"github.com/nvr-ai/go-fiducial/pipeline"
	"github.com/nvr-ai/go-fiducial/profiler"
	"github.com/nvr-ai/go-fiducial/rectify"
	"github.com/nvr-ai/go-fiducial/testcard"
	"github.com/nvr-ai/go-fiducial/util"
	"github.com/pkg/errors"
)

const (
	// DefaultTemplateWidth is the width of the printable card written by -template; its
	// height follows the output aspect ratio.
	DefaultTemplateWidth = 1200
	// MinTemplateHeight keeps room for two rows of markers.
	MinTemplateHeight = 480
	// DefaultTemplateMarker is the marker side of the printable card.
	DefaultTemplateMarker = 120
)

// flags holds the command line. Zero values mean "not given" and leave the configuration
// alone.
type flags struct {
	configPath  string
	writeConfig string
	template    string
	outputDir   string
	dryRun      bool
	width       int
	height      int
	zoom        float64
	anchor      string
	workers     int
	backend     string
	dictionary  string
	debug       bool
	profile     bool
	journal     string
	resume      bool
}

func parseFlags() *flags {
	f := &flags{}
	flag.StringVar(&f.configPath, "config", "", "Path to a YAML configuration file")
	flag.StringVar(&f.writeConfig, "write-config", "", "Write the effective configuration to this path and exit")
	flag.StringVar(&f.template, "template", "", "Write a printable marker card to this path and exit")
	flag.StringVar(&f.outputDir, "output-dir", "", "Output directory for rectified images (default: next to each input)")
	flag.BoolVar(&f.dryRun, "dry-run", false, "Process without writing output images")
	flag.IntVar(&f.width, "width", 0, "Output width in pixels (default 600)")
	flag.IntVar(&f.height, "height", 0, "Output height in pixels (default 300)")
	flag.Float64Var(&f.zoom, "zoom", 0, "Margin factor around the markers, >= 1 (default 1.2)")
	flag.StringVar(&f.anchor, "anchor", "", "Placement of the marker rectangle: center or origin")
	flag.IntVar(&f.workers, "workers", 0, "Number of files processed concurrently (default 1)")
	flag.StringVar(&f.backend, "backend", "", "Warp backend: native or opencv")
	flag.StringVar(&f.dictionary, "dictionary", "", "ArUco dictionary (default DICT_4X4_50)")
	flag.BoolVar(&f.debug, "debug", false, "Print debug information")
	flag.BoolVar(&f.profile, "profile", false, "Print per-stage timings when done")
	flag.StringVar(&f.journal, "journal", "", "Record every run and file outcome in this SQLite database")
	flag.BoolVar(&f.resume, "resume", false, "Skip files the journal shows as rectified with the same output settings")
	flag.Parse()
	return f
}

// apply overrides cfg with every flag that was given.
func (f *flags) apply(cfg *config.Config) {
	if f.outputDir != "" {
		cfg.OutputDir = f.outputDir
	}
	if f.width != 0 {
		cfg.Output.Width = f.width
	}
	if f.height != 0 {
		cfg.Output.Height = f.height
	}
	if f.zoom != 0 {
		cfg.Output.Zoom = f.zoom
	}
	if f.anchor != "" {
		cfg.Output.Anchor = rectify.Anchor(f.anchor)
	}
	if f.workers != 0 {
		cfg.Workers = f.workers
	}
	if f.backend != "" {
		cfg.Backend = rectify.Backend(f.backend)
	}
	if f.dictionary != "" {
		cfg.Detector.Dictionary = f.dictionary
	}
	if f.debug {
		cfg.LogLevel = "debug"
		cfg.Detector.Debug = true
	}
}

func main() {
	if err := run(parseFlags()); err != nil {
		log.Fatal(err)
	}
}

func run(f *flags) error {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return err
	}
	f.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	lg := logger.NewStd(level)

	if f.writeConfig != "" {
		if err := cfg.Save(f.writeConfig); err != nil {
			return err
		}
		lg.Info("wrote configuration to %s", f.writeConfig)
		return nil
	}
	if f.template != "" {
		if err := writeTemplate(f.template, cfg); err != nil {
			return err
		}
		lg.Info("wrote marker card to %s", f.template)
		return nil
	}

	inputs := flag.Args()
	if len(inputs) == 0 {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] image_files_or_directories...\n", os.Args[0])
		flag.PrintDefaults()
		return errors.New("no input files")
	}
	files, err := util.ExpandInputs(inputs)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		lg.Warning("no image files found in %v", inputs)
		return nil
	}

	var db *journal.DB
	if f.journal != "" {
		db, err = journal.Open(f.journal)
		if err != nil {
			return err
		}
		defer db.Close()
	} else if f.resume {
		return errors.New("-resume needs -journal")
	}
	if f.resume {
		total := len(files)
		if files, err = db.Pending(files, cfg.Output); err != nil {
			return err
		}
		lg.Info("resuming: %d of %d files already rectified", total-len(files), total)
		if len(files) == 0 {
			return nil
		}
	}

	det, err := detector.NewArucoDetector(cfg.Detector)
	if err != nil {
		return err
	}
	defer det.Close()

	p, err := pipeline.FromConfig(cfg, det, lg)
	if err != nil {
		return err
	}
	tracker := profiler.NewTracker(profiler.DefaultMaxSamples)
	p.Tracker = tracker

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lg.Info("rectifying %d files to %dx%d zoom %.1f with %d workers",
		len(files), cfg.Output.Width, cfg.Output.Height, cfg.Output.Zoom, cfg.Workers)

	runner := &batch.Runner{
		Processor: p,
		Spec:      cfg.Output,
		OutputDir: cfg.OutputDir,
		Suffix:    cfg.Suffix,
		Quality:   cfg.Quality,
		DryRun:    f.dryRun,
		Workers:   cfg.Workers,
		Log:       lg,
	}
	var jr *journal.Run
	if db != nil {
		if jr, err = db.BeginRun(cfg.Output, f.dryRun); err != nil {
			return err
		}
		runner.Journal = jr
	}
	summary := batch.Summarize(runner.Run(ctx, files))
	lg.Info("%s", summary)
	if jr != nil {
		if err := jr.Finish(summary); err != nil {
			lg.Warning("%v", err)
		}
	}

	if f.profile {
		tracker.Report(os.Stdout)
	}
	if summary.Failed > 0 || summary.Skipped > 0 {
		return errors.Errorf("%d of %d files were not rectified", summary.Failed+summary.Skipped, summary.Total)
	}
	return nil
}

// writeTemplate renders a printable card framed by markers 0 to 3 in the configured
// dictionary, with the output aspect ratio.
func writeTemplate(path string, cfg *config.Config) error {
	opts := testcard.Options{
		Width:      DefaultTemplateWidth,
		Height:     DefaultTemplateWidth * cfg.Output.Height / cfg.Output.Width,
		MarkerSide: DefaultTemplateMarker,
		Inset:      DefaultTemplateMarker / 4,
		Dictionary: cfg.Detector.Dictionary,
	}
	opts.Height = max(opts.Height, MinTemplateHeight)
	card, err := testcard.Render(opts)
	if err != nil {
		return err
	}
	return images.Save(path, card.Image, cfg.Quality)
}
