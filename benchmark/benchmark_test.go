package benchmark

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nvr-ai/go-fiducial/detector"
	"github.com/nvr-ai/go-fiducial/geometry"
	"github.com/nvr-ai/go-fiducial/images"
	"github.com/nvr-ai/go-fiducial/pipeline"
	"github.com/nvr-ai/go-fiducial/rectify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vga(t *testing.T) images.Resolution {
	t.Helper()
	res, ok := images.GetResolutionByType(images.ResolutionTypeVGA)
	require.True(t, ok)
	return res
}

func newArucoSuite(t *testing.T, outputDir string) *Suite {
	t.Helper()
	det, err := detector.NewArucoDetector(detector.ArucoConfig{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = det.Close() })

	suite, err := NewSuite(NewSuiteArgs{Detector: det, OutputPath: outputDir})
	require.NoError(t, err)
	return suite
}

func TestScenarioBuilder(t *testing.T) {
	res := vga(t)
	s := NewScenarioBuilder("tilted").
		WithResolution(res).
		WithImageFormat(images.FormatPNG).
		WithFill(0.7).
		WithPerspective(10, 0.2).
		WithBlur(2).
		WithBackend(rectify.BackendOpenCV).
		WithIterations(5).
		WithWarmupRuns(1).
		Build()

	assert.Equal(t, "tilted", s.Name)
	assert.Equal(t, res, s.Resolution)
	assert.Equal(t, images.FormatPNG, s.Format)
	assert.Equal(t, 0.7, s.Fill)
	assert.Equal(t, 10.0, s.Rotation)
	assert.Equal(t, 0.2, s.Tilt)
	assert.Equal(t, 2, s.Blur)
	assert.Equal(t, rectify.BackendOpenCV, s.Backend)
	assert.Equal(t, 5, s.Iterations)
	assert.Equal(t, 1, s.WarmupRuns)
	assert.NoError(t, s.Validate())
}

func TestScenarioValidate(t *testing.T) {
	valid := NewScenarioBuilder("ok").Build()
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Scenario)
	}{
		{"no name", func(s *Scenario) { s.Name = "" }},
		{"no resolution", func(s *Scenario) { s.Resolution = images.Resolution{} }},
		{"no iterations", func(s *Scenario) { s.Iterations = 0 }},
		{"negative warmups", func(s *Scenario) { s.WarmupRuns = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid
			tt.mutate(&s)
			assert.Error(t, s.Validate())
		})
	}
}

func TestPredefinedScenarios(t *testing.T) {
	ps := &PredefinedScenarios{}
	res := vga(t)

	sets := []*ScenarioSet{
		ps.GetQuickScenarios(),
		ps.GetResolutionComparisonScenarios(),
		ps.GetFormatComparisonScenarios(res),
		ps.GetRobustnessScenarios(res),
		ps.GetBackendComparisonScenarios(res),
	}
	for _, set := range sets {
		assert.NotEmpty(t, set.Name)
		require.NotEmpty(t, set.Scenarios, set.Name)
		for _, s := range set.Scenarios {
			assert.NoError(t, s.Validate(), s.Name)
		}
	}
	assert.Len(t, ps.GetBackendComparisonScenarios(res).Scenarios, 2)
}

func TestScenarioSetFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenarios.json")
	set := (&PredefinedScenarios{}).GetQuickScenarios()

	require.NoError(t, SaveScenarioSet(set, path))
	loaded, err := LoadScenarioSet(path)
	require.NoError(t, err)
	assert.Equal(t, set, loaded)

	bad := &ScenarioSet{Name: "bad", Scenarios: []Scenario{{Name: "broken"}}}
	require.NoError(t, SaveScenarioSet(bad, path))
	_, err = LoadScenarioSet(path)
	assert.Error(t, err)

	_, err = LoadScenarioSet(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestNewSuiteRequiresDetector(t *testing.T) {
	_, err := NewSuite(NewSuiteArgs{})
	assert.Error(t, err)
}

func TestRunScenario(t *testing.T) {
	suite := newArucoSuite(t, "")
	s := NewScenarioBuilder("vga-png").
		WithResolution(vga(t)).
		WithImageFormat(images.FormatPNG).
		WithIterations(3).
		WithWarmupRuns(1).
		Build()

	metrics, err := suite.RunScenario(context.Background(), s)
	require.NoError(t, err)

	assert.Equal(t, s, metrics.Scenario)
	assert.Equal(t, 1.0, metrics.SuccessRate)
	assert.Empty(t, metrics.Failures)
	assert.Greater(t, metrics.FramesPerSecond, 0.0)
	assert.Greater(t, metrics.DetectDuration, metrics.ResolveDuration)
	assert.Positive(t, int64(metrics.DecodeDuration))
	assert.Positive(t, int64(metrics.RectifyDuration))
	// The card is resized to the working size before detection, so allow a couple of
	// photograph pixels of drift.
	assert.Less(t, metrics.MeanCornerError, 3.0)
	assert.LessOrEqual(t, metrics.MeanCornerError, metrics.MaxCornerError)
	assert.Positive(t, metrics.CPUStats.NumCPU)
}

func TestRunScenarioCancelled(t *testing.T) {
	suite := newArucoSuite(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewScenarioBuilder("cancelled").WithResolution(vga(t)).WithWarmupRuns(0).Build()
	metrics, err := suite.RunScenario(ctx, s)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, metrics)
	assert.Zero(t, metrics.SuccessRate)
}

func TestRunScenarioInvalid(t *testing.T) {
	suite := newArucoSuite(t, "")
	_, err := suite.RunScenario(context.Background(), Scenario{Name: "empty"})
	assert.Error(t, err)
}

func TestRunAllScenariosSavesResults(t *testing.T) {
	dir := t.TempDir()
	suite := newArucoSuite(t, dir)
	suite.AddScenario(NewScenarioBuilder("vga").WithResolution(vga(t)).WithIterations(2).WithWarmupRuns(0).Build())
	suite.AddScenario(Scenario{Name: "broken"})

	require.NoError(t, suite.RunAllScenarios(context.Background()))

	results := suite.GetResults()
	require.Len(t, results, 1)
	assert.Equal(t, "vga", results[0].Scenario.Name)

	jsonFiles, err := filepath.Glob(filepath.Join(dir, "benchmark_results_*.json"))
	require.NoError(t, err)
	assert.Len(t, jsonFiles, 1)

	csvFiles, err := filepath.Glob(filepath.Join(dir, "benchmark_summary_*.csv"))
	require.NoError(t, err)
	require.Len(t, csvFiles, 1)
	data, err := os.ReadFile(csvFiles[0])
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "Scenario,Resolution"))
	assert.True(t, strings.HasPrefix(lines[1], "vga,640x480,jpeg,"))
}

func TestCornerError(t *testing.T) {
	truth := detector.MarkerSet{
		{ID: 0, Corners: [4]geometry.Point2D{{X: 9, Y: 9}, {X: 11, Y: 9}, {X: 11, Y: 11}, {X: 9, Y: 11}}},
		{ID: 1, Corners: [4]geometry.Point2D{{X: 189, Y: 9}, {X: 191, Y: 9}, {X: 191, Y: 11}, {X: 189, Y: 11}}},
		{ID: 2, Corners: [4]geometry.Point2D{{X: 189, Y: 89}, {X: 191, Y: 89}, {X: 191, Y: 91}, {X: 189, Y: 91}}},
		{ID: 3, Corners: [4]geometry.Point2D{{X: 9, Y: 89}, {X: 11, Y: 89}, {X: 11, Y: 91}, {X: 9, Y: 91}}},
	}
	// At half size pixel centre 10 maps to 4.75.
	quad := geometry.RectQuad(4.75, 4.75, 94.75, 44.75)
	assert.InDelta(t, 0, CornerError(quad, image.Pt(100, 50), image.Pt(200, 100), truth), 1e-9)

	shifted := geometry.RectQuad(5.75, 4.75, 95.75, 44.75)
	assert.InDelta(t, 2, CornerError(shifted, image.Pt(100, 50), image.Pt(200, 100), truth), 1e-9)

	assert.True(t, CornerError(quad, image.Point{}, image.Pt(200, 100), truth) > 1e300)
	assert.True(t, CornerError(quad, image.Pt(100, 50), image.Pt(200, 100), truth[:3]) > 1e300)
}

func TestFormatFailures(t *testing.T) {
	assert.Equal(t, "", formatFailures(nil))
	assert.Equal(t, "degenerate=1 marker_count=3", formatFailures(map[pipeline.FailureKind]int{
		pipeline.FailureMarkerCount: 3,
		pipeline.FailureDegenerate:  1,
	}))
}
