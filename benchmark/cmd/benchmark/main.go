package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/nvr-ai/go-fiducial/benchmark"
	"github.com/nvr-ai/go-fiducial/config"
	"github.com/nvr-ai/go-fiducial/detector"
	"github.com/nvr-ai/go-fiducial/images"
	"github.com/nvr-ai/go-fiducial/logger"
)

func main() {
	var (
		configFile     = flag.String("config", "", "Path to a rectifier YAML configuration file")
		scenarioFile   = flag.String("scenarios", "", "Path to scenario configuration file")
		writeScenarios = flag.String("write-scenarios", "", "Write the selected scenarios to this JSON file and exit")
		outputDir      = flag.String("output", "./benchmark_results", "Output directory for results")
		resolution     = flag.String("resolution", string(images.ResolutionTypeFHD), "Resolution for format, robustness and backend comparisons")
		quick          = flag.Bool("quick", false, "Run quick benchmark scenarios")
		resolutions    = flag.Bool("resolutions", false, "Compare different photograph resolutions")
		formats        = flag.Bool("formats", false, "Compare different image formats")
		robustness     = flag.Bool("robustness", false, "Compare rotation, tilt and blur")
		backends       = flag.Bool("backends", false, "Compare the warp backends")
		timeout        = flag.Duration("timeout", 30*time.Minute, "Benchmark timeout duration")
		debug          = flag.Bool("debug", false, "Log every pipeline stage")
	)
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Invalid log level: %v", err)
	}
	if *debug {
		level = logger.LevelDebug
	}
	lg := logger.NewStd(level)

	res, ok := images.GetResolutionByType(images.ResolutionType(*resolution))
	if !ok {
		log.Fatalf("Unknown resolution %q", *resolution)
	}

	set := &benchmark.ScenarioSet{Name: "Selected", Description: "Scenarios selected on the command line"}
	predefined := &benchmark.PredefinedScenarios{}
	add := func(s *benchmark.ScenarioSet) {
		set.Scenarios = append(set.Scenarios, s.Scenarios...)
		fmt.Printf("Added %d scenarios from %q\n", len(s.Scenarios), s.Name)
	}

	if *scenarioFile != "" {
		loaded, err := benchmark.LoadScenarioSet(*scenarioFile)
		if err != nil {
			log.Fatalf("Failed to load scenario file: %v", err)
		}
		set = loaded
		fmt.Printf("Loaded %d scenarios from %s\n", len(loaded.Scenarios), *scenarioFile)
	} else {
		if *quick {
			add(predefined.GetQuickScenarios())
		}
		if *resolutions {
			add(predefined.GetResolutionComparisonScenarios())
		}
		if *formats {
			add(predefined.GetFormatComparisonScenarios(res))
		}
		if *robustness {
			add(predefined.GetRobustnessScenarios(res))
		}
		if *backends {
			add(predefined.GetBackendComparisonScenarios(res))
		}

		// If no specific scenarios requested, use quick by default
		if len(set.Scenarios) == 0 {
			add(predefined.GetQuickScenarios())
		}
	}

	if *writeScenarios != "" {
		if err := benchmark.SaveScenarioSet(set, *writeScenarios); err != nil {
			log.Fatalf("Failed to write scenarios: %v", err)
		}
		fmt.Printf("Wrote %d scenarios to %s\n", len(set.Scenarios), *writeScenarios)
		return
	}

	det, err := detector.NewArucoDetector(cfg.Detector)
	if err != nil {
		log.Fatalf("Failed to create detector: %v", err)
	}
	defer det.Close()

	suite, err := benchmark.NewSuite(benchmark.NewSuiteArgs{
		Detector:   det,
		Config:     cfg,
		OutputPath: *outputDir,
		Log:        lg,
	})
	if err != nil {
		log.Fatalf("Failed to create benchmark suite: %v", err)
	}
	suite.AddScenarioSet(set)

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	fmt.Println("Starting benchmark execution...")
	start := time.Now()

	if err := suite.RunAllScenarios(ctx); err != nil {
		lg.Error("Benchmark execution failed: %v", err)
		return
	}

	fmt.Printf("Benchmark completed in %v\n", time.Since(start))

	results := suite.GetResults()
	fmt.Printf("\n=== BENCHMARK RESULTS SUMMARY ===\n")
	fmt.Printf("Total scenarios: %d\n", len(results))
	fmt.Printf("Results saved to: %s\n", *outputDir)

	// Find best performing scenario
	var bestFPS float64
	var bestScenario string
	for _, result := range results {
		if result.SuccessRate == 1 && result.FramesPerSecond > bestFPS {
			bestFPS = result.FramesPerSecond
			bestScenario = result.Scenario.Name
		}
		fmt.Printf("  %s: %.2f FPS, %.0f%% rectified, %.2fpx corner error (%.2f MB memory)\n",
			result.Scenario.Name,
			result.FramesPerSecond,
			result.SuccessRate*100,
			result.MeanCornerError,
			float64(result.MemoryStats.AllocBytes)/(1024*1024))
	}

	if bestScenario != "" {
		fmt.Printf("\nBest performing scenario: %s (%.2f FPS)\n", bestScenario, bestFPS)
	}
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", filepath.Base(os.Args[0]))
		fmt.Fprintf(os.Stderr, "Benchmark tool for card rectification on synthetic photographs.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -quick\n", filepath.Base(os.Args[0]))
		fmt.Fprintf(os.Stderr, "  %s -config ./fiducial.yaml -scenarios ./scenarios.json\n", filepath.Base(os.Args[0]))
		fmt.Fprintf(os.Stderr, "  %s -resolution \"4K UHD\" -robustness -backends\n", filepath.Base(os.Args[0]))
	}
}
