package benchmark

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/nvr-ai/go-fiducial/config"
	"github.com/nvr-ai/go-fiducial/detector"
	"github.com/nvr-ai/go-fiducial/geometry"
	"github.com/nvr-ai/go-fiducial/images"
	"github.com/nvr-ai/go-fiducial/logger"
	"github.com/nvr-ai/go-fiducial/pipeline"
	"github.com/nvr-ai/go-fiducial/profiler"
	"github.com/nvr-ai/go-fiducial/testcard"
	"github.com/pkg/errors"
)

// StageDecode is the profiler name of the decode step the suite adds before the
// pipeline.
const StageDecode = "decode"

// Suite manages and executes benchmark scenarios
type Suite struct {
	detector  detector.Detector
	config    *config.Config
	outputDir string
	log       *logger.Logger
	mu        sync.RWMutex
	scenarios []Scenario
	results   []PerformanceMetrics
}

// NewSuiteArgs represents the arguments for creating a new benchmark suite.
type NewSuiteArgs struct {
	// Detector finds markers; the caller keeps ownership.
	Detector detector.Detector
	// Config supplies the output spec and pipeline settings; nil uses config.Default.
	Config     *config.Config
	OutputPath string
	Log        *logger.Logger
}

// NewSuite creates a new benchmark suite.
//
// Arguments:
//   - args: The arguments for creating a new benchmark suite.
//
// Returns:
//   - *Suite: The benchmark suite.
//   - error: If no detector is given.
func NewSuite(args NewSuiteArgs) (*Suite, error) {
	if args.Detector == nil {
		return nil, errors.New("benchmark: detector is required")
	}
	cfg := args.Config
	if cfg == nil {
		cfg = config.Default()
	}
	return &Suite{
		detector:  args.Detector,
		config:    cfg,
		outputDir: args.OutputPath,
		log:       args.Log,
		scenarios: make([]Scenario, 0),
		results:   make([]PerformanceMetrics, 0),
	}, nil
}

// AddScenario adds a test scenario to the benchmark suite
func (bs *Suite) AddScenario(scenario Scenario) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.scenarios = append(bs.scenarios, scenario)
}

// AddScenarioSet adds every scenario of set
func (bs *Suite) AddScenarioSet(set *ScenarioSet) {
	for _, s := range set.Scenarios {
		bs.AddScenario(s)
	}
}

// fixture is the encoded photograph of one scenario and its ground truth.
type fixture struct {
	data    []byte
	size    image.Point
	markers detector.MarkerSet
}

func (bs *Suite) prepare(scenario Scenario) (*fixture, error) {
	card, err := testcard.Render(testcard.Defaults())
	if err != nil {
		return nil, err
	}
	opts := testcard.DefaultPhotoOptions()
	opts.Canvas = scenario.Resolution.Size()
	opts.Fill = scenario.Fill
	opts.Rotation = scenario.Rotation
	opts.Tilt = scenario.Tilt
	opts.Blur = scenario.Blur
	photo, err := testcard.Photograph(card, opts)
	if err != nil {
		return nil, err
	}

	format := scenario.Format
	if format == "" {
		format = images.FormatJPEG
	}
	enc, err := images.Encode(photo.Image, format, bs.config.Quality)
	if err != nil {
		return nil, err
	}
	return &fixture{data: enc.Data, size: opts.Canvas, markers: photo.Markers}, nil
}

func (bs *Suite) newPipeline(scenario Scenario, tracker *profiler.Tracker) (*pipeline.Pipeline, error) {
	cfg := *bs.config
	if scenario.Backend != "" {
		cfg.Backend = scenario.Backend
	}
	p, err := pipeline.FromConfig(&cfg, bs.detector, bs.log)
	if err != nil {
		return nil, err
	}
	p.Tracker = tracker
	return p, nil
}

// RunScenario executes a single benchmark scenario
func (bs *Suite) RunScenario(ctx context.Context, scenario Scenario) (*PerformanceMetrics, error) {
	if err := scenario.Validate(); err != nil {
		return nil, err
	}
	fix, err := bs.prepare(scenario)
	if err != nil {
		return nil, errors.Wrapf(err, "scenario %s", scenario.Name)
	}

	// Warmup runs use their own tracker so they do not skew the stage timings.
	warm, err := bs.newPipeline(scenario, nil)
	if err != nil {
		return nil, err
	}
	for i := 0; i < scenario.WarmupRuns; i++ {
		_, _ = bs.processImage(warm, nil, fix)
	}

	tracker := profiler.NewTracker(scenario.Iterations)
	p, err := bs.newPipeline(scenario, tracker)
	if err != nil {
		return nil, err
	}

	metrics := &PerformanceMetrics{
		Scenario:  scenario,
		Timestamp: time.Now(),
		Failures:  make(map[pipeline.FailureKind]int),
	}

	// Capture initial memory stats
	var startMem runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&startMem)

	startTime := time.Now()
	iterations, successes := 0, 0
	var errSum float64

	for i := 0; i < scenario.Iterations; i++ {
		if ctx.Err() != nil {
			break
		}
		iterations++

		cornerErr, err := bs.processImage(p, tracker, fix)
		if err != nil {
			metrics.Failures[pipeline.Classify(err)]++
			continue
		}
		successes++
		errSum += cornerErr
		metrics.MaxCornerError = math.Max(metrics.MaxCornerError, cornerErr)
	}

	totalDuration := time.Since(startTime)

	// Capture final memory stats
	var endMem runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&endMem)

	metrics.TotalDuration = totalDuration
	if iterations > 0 {
		metrics.FramesPerSecond = float64(iterations) / totalDuration.Seconds()
		metrics.SuccessRate = float64(successes) / float64(iterations)
	}
	if successes > 0 {
		metrics.MeanCornerError = errSum / float64(successes)
	}
	for _, s := range tracker.Stats() {
		switch s.Name {
		case StageDecode:
			metrics.DecodeDuration = s.Mean
		case pipeline.StageResize:
			metrics.ResizeDuration = s.Mean
		case pipeline.StageDetect:
			metrics.DetectDuration = s.Mean
		case pipeline.StageResolve:
			metrics.ResolveDuration = s.Mean
		case pipeline.StageRectify:
			metrics.RectifyDuration = s.Mean
		}
	}

	metrics.MemoryStats = MemoryMetrics{
		AllocBytes:      endMem.Alloc,
		TotalAllocBytes: endMem.TotalAlloc - startMem.TotalAlloc,
		SysBytes:        endMem.Sys,
		NumGC:           endMem.NumGC - startMem.NumGC,
		HeapAllocBytes:  endMem.HeapAlloc,
		HeapSysBytes:    endMem.HeapSys,
	}
	metrics.CPUStats = CPUMetrics{NumCPU: runtime.NumCPU()}

	if ctx.Err() != nil {
		return metrics, ctx.Err()
	}
	return metrics, nil
}

// processImage decodes and rectifies the fixture once and returns the mean distance
// between resolved and true corners in photograph pixels.
func (bs *Suite) processImage(p *pipeline.Pipeline, tracker *profiler.Tracker, fix *fixture) (float64, error) {
	done := tracker.StartOperation(StageDecode)
	img, err := images.LoadBytes(fix.data)
	done()
	if err != nil {
		return 0, err
	}

	res, err := p.Process(img, bs.config.Output)
	if err != nil {
		return 0, err
	}
	return CornerError(res.Quad, res.Working, fix.size, fix.markers), nil
}

// CornerError returns the mean distance, in photograph pixels, between the quad resolved
// on a working image and the centres of the true markers. truth must be in corner order.
func CornerError(quad geometry.Quad, working, photo image.Point, truth detector.MarkerSet) float64 {
	if len(truth) != len(quad) || working.X == 0 || working.Y == 0 {
		return math.Inf(1)
	}
	sx := float64(photo.X) / float64(working.X)
	sy := float64(photo.Y) / float64(working.Y)

	var sum float64
	for i, m := range truth {
		// Pixel centres scale about the half-pixel offset.
		p := geometry.Pt((quad[i].X+0.5)*sx-0.5, (quad[i].Y+0.5)*sy-0.5)
		sum += p.Dist(m.Center())
	}
	return sum / float64(len(truth))
}

// RunAllScenarios executes all configured benchmark scenarios and saves the results
// when an output directory is set.
func (bs *Suite) RunAllScenarios(ctx context.Context) error {
	bs.mu.Lock()
	scenarios := make([]Scenario, len(bs.scenarios))
	copy(scenarios, bs.scenarios)
	bs.mu.Unlock()

	for _, scenario := range scenarios {
		metrics, err := bs.RunScenario(ctx, scenario)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		if err != nil {
			bs.log.Error("scenario %s failed: %v", scenario.Name, err)
			continue
		}

		bs.mu.Lock()
		bs.results = append(bs.results, *metrics)
		bs.mu.Unlock()

		bs.log.Info("scenario %s completed: %.2f FPS, %.0f%% rectified, corner error %.2fpx",
			scenario.Name, metrics.FramesPerSecond, metrics.SuccessRate*100, metrics.MeanCornerError)
	}

	if bs.outputDir == "" {
		return nil
	}
	return bs.SaveResults()
}

// SaveResults persists benchmark results to filesystem
func (bs *Suite) SaveResults() error {
	results := bs.GetResults()

	if err := os.MkdirAll(bs.outputDir, 0o755); err != nil {
		return errors.Wrap(err, "failed to create output directory")
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	resultsFile := filepath.Join(bs.outputDir, fmt.Sprintf("benchmark_results_%s.json", timestamp))

	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal results")
	}
	if err := os.WriteFile(resultsFile, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to write results file")
	}

	summaryFile := filepath.Join(bs.outputDir, fmt.Sprintf("benchmark_summary_%s.csv", timestamp))
	if err := saveSummaryCSV(summaryFile, results); err != nil {
		return errors.Wrap(err, "failed to save summary CSV")
	}

	bs.log.Info("results saved to %s and %s", resultsFile, summaryFile)
	return nil
}

func saveSummaryCSV(filename string, results []PerformanceMetrics) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	header := "Scenario,Resolution,Format,Rotation,Tilt,Blur,Backend,FPS,Detect_ms,Rectify_ms,Success_Rate,Corner_Error_px,Failures\n"
	if _, err := file.WriteString(header); err != nil {
		return err
	}

	for _, r := range results {
		line := fmt.Sprintf("%s,%dx%d,%s,%.1f,%.2f,%d,%s,%.2f,%.2f,%.2f,%.4f,%.3f,%s\n",
			r.Scenario.Name,
			r.Scenario.Resolution.Pixels.Width, r.Scenario.Resolution.Pixels.Height,
			r.Scenario.Format,
			r.Scenario.Rotation,
			r.Scenario.Tilt,
			r.Scenario.Blur,
			r.Scenario.Backend,
			r.FramesPerSecond,
			float64(r.DetectDuration.Nanoseconds())/1e6,
			float64(r.RectifyDuration.Nanoseconds())/1e6,
			r.SuccessRate,
			r.MeanCornerError,
			formatFailures(r.Failures),
		)
		if _, err := file.WriteString(line); err != nil {
			return err
		}
	}
	return nil
}

// formatFailures renders failure counts as "kind=n" pairs separated by spaces.
func formatFailures(failures map[pipeline.FailureKind]int) string {
	kinds := make([]string, 0, len(failures))
	for k := range failures {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	out := ""
	for i, k := range kinds {
		if i > 0 {
			out += " "
		}
		out += fmt.Sprintf("%s=%d", k, failures[pipeline.FailureKind(k)])
	}
	return out
}

// GetResults returns all benchmark results
func (bs *Suite) GetResults() []PerformanceMetrics {
	bs.mu.RLock()
	defer bs.mu.RUnlock()

	results := make([]PerformanceMetrics, len(bs.results))
	copy(results, bs.results)
	return results
}
