package benchmark

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/nvr-ai/go-fiducial/images"
	"github.com/nvr-ai/go-fiducial/rectify"
	"github.com/pkg/errors"
)

// Scenario defines one benchmark configuration: how the card is photographed and how
// it is rectified.
type Scenario struct {
	Name       string             `json:"name"`
	Resolution images.Resolution  `json:"resolution"`
	Format     images.ImageFormat `json:"format"`
	// Fill, Rotation, Tilt and Blur place and degrade the card, see
	// testcard.PhotoOptions.
	Fill       float64         `json:"fill"`
	Rotation   float64         `json:"rotation"`
	Tilt       float64         `json:"tilt"`
	Blur       int             `json:"blur"`
	Backend    rectify.Backend `json:"backend"`
	Iterations int             `json:"iterations"`
	WarmupRuns int             `json:"warmup_runs"`
}

// Validate checks the parts of s the suite relies on.
func (s Scenario) Validate() error {
	switch {
	case s.Name == "":
		return errors.New("scenario: name is required")
	case s.Resolution.Pixels.Width <= 0 || s.Resolution.Pixels.Height <= 0:
		return errors.Errorf("scenario %s: invalid resolution %v", s.Name, s.Resolution)
	case s.Iterations <= 0:
		return errors.Errorf("scenario %s: iterations must be positive", s.Name)
	case s.WarmupRuns < 0:
		return errors.Errorf("scenario %s: warmup runs must not be negative", s.Name)
	}
	return nil
}

// ScenarioBuilder helps build test scenarios with fluent API
type ScenarioBuilder struct {
	scenario Scenario
}

// NewScenarioBuilder creates a builder for a sharp, upright JPEG photograph at VGA with
// the card filling 80% of the frame.
func NewScenarioBuilder(name string) *ScenarioBuilder {
	vga, _ := images.GetResolutionByType(images.ResolutionTypeVGA)
	return &ScenarioBuilder{
		scenario: Scenario{
			Name:       name,
			Resolution: vga,
			Format:     images.FormatJPEG,
			Fill:       0.8,
			Backend:    rectify.BackendNative,
			Iterations: 20,
			WarmupRuns: 2,
		},
	}
}

// WithResolution sets the photograph size
func (sb *ScenarioBuilder) WithResolution(res images.Resolution) *ScenarioBuilder {
	sb.scenario.Resolution = res
	return sb
}

// WithImageFormat sets the format the photograph is encoded in
func (sb *ScenarioBuilder) WithImageFormat(format images.ImageFormat) *ScenarioBuilder {
	sb.scenario.Format = format
	return sb
}

// WithFill sets the fraction of the frame the card spans
func (sb *ScenarioBuilder) WithFill(fill float64) *ScenarioBuilder {
	sb.scenario.Fill = fill
	return sb
}

// WithPerspective sets the in-plane rotation in degrees and the keystone tilt
func (sb *ScenarioBuilder) WithPerspective(rotation, tilt float64) *ScenarioBuilder {
	sb.scenario.Rotation = rotation
	sb.scenario.Tilt = tilt
	return sb
}

// WithBlur sets the box blur radius
func (sb *ScenarioBuilder) WithBlur(radius int) *ScenarioBuilder {
	sb.scenario.Blur = radius
	return sb
}

// WithBackend sets the warp backend
func (sb *ScenarioBuilder) WithBackend(backend rectify.Backend) *ScenarioBuilder {
	sb.scenario.Backend = backend
	return sb
}

// WithIterations sets the number of test iterations
func (sb *ScenarioBuilder) WithIterations(iterations int) *ScenarioBuilder {
	sb.scenario.Iterations = iterations
	return sb
}

// WithWarmupRuns sets the number of warmup runs
func (sb *ScenarioBuilder) WithWarmupRuns(warmups int) *ScenarioBuilder {
	sb.scenario.WarmupRuns = warmups
	return sb
}

// Build returns the configured test scenario
func (sb *ScenarioBuilder) Build() Scenario {
	return sb.scenario
}

// ScenarioSet represents a collection of related test scenarios
type ScenarioSet struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Scenarios   []Scenario `json:"scenarios"`
}

// PredefinedScenarios contains common benchmark scenario sets
type PredefinedScenarios struct{}

// GetQuickScenarios returns a smaller set for quick testing
func (ps *PredefinedScenarios) GetQuickScenarios() *ScenarioSet {
	scenarios := make([]Scenario, 0)
	for _, t := range []images.ResolutionType{images.ResolutionTypeVGA, images.ResolutionTypeHD720p} {
		res, _ := images.GetResolutionByType(t)
		scenarios = append(scenarios, NewScenarioBuilder(fmt.Sprintf("quick_%dx%d", res.Pixels.Width, res.Pixels.Height)).
			WithResolution(res).
			WithPerspective(4, 0.1).
			WithIterations(10).
			WithWarmupRuns(1).
			Build())
	}

	return &ScenarioSet{
		Name:        "Quick Performance Test",
		Description: "Quick test with common configurations",
		Scenarios:   scenarios,
	}
}

// GetResolutionComparisonScenarios photographs the same card at every resolution preset
func (ps *PredefinedScenarios) GetResolutionComparisonScenarios() *ScenarioSet {
	scenarios := make([]Scenario, 0)
	for _, res := range images.GetAllResolutions() {
		scenarios = append(scenarios, NewScenarioBuilder(fmt.Sprintf("resolution_%s", res.Name)).
			WithResolution(res).
			WithPerspective(4, 0.1).
			Build())
	}

	return &ScenarioSet{
		Name:        "Resolution Comparison",
		Description: "Compares photograph sizes from VGA to 24MP",
		Scenarios:   scenarios,
	}
}

// GetFormatComparisonScenarios tests different image formats at one resolution
func (ps *PredefinedScenarios) GetFormatComparisonScenarios(res images.Resolution) *ScenarioSet {
	scenarios := make([]Scenario, 0)
	formats := []images.ImageFormat{images.FormatJPEG, images.FormatWebP, images.FormatPNG, images.FormatBMP}
	for _, format := range formats {
		scenarios = append(scenarios, NewScenarioBuilder(fmt.Sprintf("format_%s_%s", res.Name, format)).
			WithResolution(res).
			WithImageFormat(format).
			WithPerspective(4, 0.1).
			Build())
	}

	return &ScenarioSet{
		Name:        fmt.Sprintf("Format Comparison @ %s", res.Name),
		Description: fmt.Sprintf("Compares decode cost and accuracy of image formats at %s", res.Name),
		Scenarios:   scenarios,
	}
}

// GetRobustnessScenarios sweeps rotation, tilt and blur to find where detection breaks
func (ps *PredefinedScenarios) GetRobustnessScenarios(res images.Resolution) *ScenarioSet {
	scenarios := make([]Scenario, 0)
	for _, rotation := range []float64{0, 10, 20} {
		for _, tilt := range []float64{0, 0.2, 0.4} {
			for _, blur := range []int{0, 2, 4} {
				scenarios = append(scenarios, NewScenarioBuilder(fmt.Sprintf("robust_r%.0f_t%.1f_b%d", rotation, tilt, blur)).
					WithResolution(res).
					WithFill(0.65).
					WithPerspective(rotation, tilt).
					WithBlur(blur).
					WithIterations(5).
					WithWarmupRuns(0).
					Build())
			}
		}
	}

	return &ScenarioSet{
		Name:        fmt.Sprintf("Robustness @ %s", res.Name),
		Description: "Sweeps rotation, keystone tilt and blur",
		Scenarios:   scenarios,
	}
}

// GetBackendComparisonScenarios compares the warp backends at one resolution
func (ps *PredefinedScenarios) GetBackendComparisonScenarios(res images.Resolution) *ScenarioSet {
	scenarios := make([]Scenario, 0)
	for _, backend := range []rectify.Backend{rectify.BackendNative, rectify.BackendOpenCV} {
		scenarios = append(scenarios, NewScenarioBuilder(fmt.Sprintf("backend_%s_%s", res.Name, backend)).
			WithResolution(res).
			WithPerspective(4, 0.1).
			WithBackend(backend).
			Build())
	}

	return &ScenarioSet{
		Name:        fmt.Sprintf("Backend Comparison @ %s", res.Name),
		Description: "Compares the pure Go and OpenCV warps",
		Scenarios:   scenarios,
	}
}

// SaveScenarioSet saves a scenario set to a JSON file
func SaveScenarioSet(scenarioSet *ScenarioSet, filename string) error {
	data, err := json.MarshalIndent(scenarioSet, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal scenario set")
	}

	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to write scenario file")
	}

	return nil
}

// LoadScenarioSet loads a scenario set from a JSON file
func LoadScenarioSet(filename string) (*ScenarioSet, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read scenario file")
	}

	var scenarioSet ScenarioSet
	if err := json.Unmarshal(data, &scenarioSet); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal scenario set")
	}
	for _, s := range scenarioSet.Scenarios {
		if err := s.Validate(); err != nil {
			return nil, err
		}
	}

	return &scenarioSet, nil
}
