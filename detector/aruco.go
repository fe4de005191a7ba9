package detector

import (
	"fmt"
	"image"
	"sort"
	"sync"
	"time"

	"github.com/chewxy/math32"
	"github.com/nvr-ai/go-fiducial/geometry"
	"github.com/nvr-ai/go-fiducial/images"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// DefaultDictionary is the ArUco dictionary used when none is configured.
const DefaultDictionary = "DICT_4X4_50"

var dictionaries = map[string]gocv.ArucoDictionaryCode{
	"DICT_4X4_50":         gocv.ArucoDict4x4_50,
	"DICT_4X4_100":        gocv.ArucoDict4x4_100,
	"DICT_4X4_250":        gocv.ArucoDict4x4_250,
	"DICT_4X4_1000":       gocv.ArucoDict4x4_1000,
	"DICT_5X5_50":         gocv.ArucoDict5x5_50,
	"DICT_5X5_100":        gocv.ArucoDict5x5_100,
	"DICT_5X5_250":        gocv.ArucoDict5x5_250,
	"DICT_5X5_1000":       gocv.ArucoDict5x5_1000,
	"DICT_6X6_50":         gocv.ArucoDict6x6_50,
	"DICT_6X6_100":        gocv.ArucoDict6x6_100,
	"DICT_6X6_250":        gocv.ArucoDict6x6_250,
	"DICT_6X6_1000":       gocv.ArucoDict6x6_1000,
	"DICT_7X7_50":         gocv.ArucoDict7x7_50,
	"DICT_7X7_100":        gocv.ArucoDict7x7_100,
	"DICT_7X7_250":        gocv.ArucoDict7x7_250,
	"DICT_7X7_1000":       gocv.ArucoDict7x7_1000,
	"DICT_ARUCO_ORIGINAL": gocv.ArucoDictArucoOriginal,
}

// Dictionaries returns the supported dictionary names, sorted.
func Dictionaries() []string {
	names := make([]string, 0, len(dictionaries))
	for name := range dictionaries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DictionaryCode resolves a dictionary name such as "DICT_4X4_50".
func DictionaryCode(name string) (gocv.ArucoDictionaryCode, error) {
	code, ok := dictionaries[name]
	if !ok {
		return 0, errors.Errorf("unknown ArUco dictionary %q", name)
	}
	return code, nil
}

// ArucoConfig configures an ArucoDetector.
type ArucoConfig struct {
	// Dictionary is the predefined ArUco dictionary name; empty selects DefaultDictionary.
	Dictionary string `json:"dictionary" yaml:"dictionary"`
	// MinPerimeter drops decoded markers whose perimeter in pixels is smaller. Zero keeps
	// everything the detector decodes.
	MinPerimeter float32 `json:"min_perimeter" yaml:"min_perimeter"`
	// Debug prints every pass to stdout.
	Debug bool `json:"debug" yaml:"debug"`
}

// ArucoDetector detects ArUco markers with OpenCV. It is safe for concurrent use; calls
// are serialised because the underlying OpenCV object is shared.
type ArucoDetector struct {
	config   ArucoConfig
	mu       sync.Mutex
	detector gocv.ArucoDetector
	closed   bool
}

// NewArucoDetector creates a detector for the configured dictionary.
//
// Arguments:
// - config: The detector configuration.
//
// Returns:
// - The detector. Call Close to release its native resources.
// - error if the dictionary is unknown or the perimeter filter is negative.
//
// @example
//
//	det, err := detector.NewArucoDetector(detector.ArucoConfig{Dictionary: "DICT_4X4_50"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer det.Close()
func NewArucoDetector(config ArucoConfig) (*ArucoDetector, error) {
	if config.Dictionary == "" {
		config.Dictionary = DefaultDictionary
	}
	code, err := DictionaryCode(config.Dictionary)
	if err != nil {
		return nil, err
	}
	if config.MinPerimeter < 0 {
		return nil, errors.Errorf("min perimeter must not be negative, got %f", config.MinPerimeter)
	}

	dict := gocv.GetPredefinedDictionary(code)
	params := gocv.NewArucoDetectorParameters()

	return &ArucoDetector{
		config:   config,
		detector: gocv.NewArucoDetectorWithParams(dict, params),
	}, nil
}

// Config returns the detector configuration.
func (d *ArucoDetector) Config() ArucoConfig {
	return d.config
}

// Detect finds every ArUco marker of the configured dictionary in img.
func (d *ArucoDetector) Detect(img image.Image) (MarkerSet, Diagnostics, error) {
	start := time.Now()

	mat, err := images.ToMat(img)
	if err != nil {
		return nil, Diagnostics{}, errors.Wrap(err, "detect")
	}
	defer mat.Close()

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil, Diagnostics{}, errors.New("detect: detector is closed")
	}
	corners, ids, rejected := d.detector.DetectMarkers(mat)
	d.mu.Unlock()

	if len(corners) != len(ids) {
		return nil, Diagnostics{}, errors.Errorf("detect: %d corner sets for %d ids", len(corners), len(ids))
	}

	diag := Diagnostics{Rejected: len(rejected)}
	set := make(MarkerSet, 0, len(ids))
	for i, id := range ids {
		if id < 0 || len(corners[i]) != 4 {
			diag.Filtered++
			continue
		}
		if d.config.MinPerimeter > 0 && perimeter(corners[i]) < d.config.MinPerimeter {
			diag.Filtered++
			continue
		}
		m := Marker{ID: uint(id)}
		for j, p := range corners[i] {
			m.Corners[j] = geometry.Pt(float64(p.X), float64(p.Y))
		}
		set = append(set, m)
	}
	diag.Duration = time.Since(start)

	if d.config.Debug {
		fmt.Printf("[DEBUG] aruco %s: %d markers %v, %d rejected, %d filtered in %s\n",
			d.config.Dictionary, len(set), set.IDs(), diag.Rejected, diag.Filtered, diag.Duration)
	}
	return set, diag, nil
}

// Close releases the native detector. Detect fails after Close.
func (d *ArucoDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	return d.detector.Close()
}

// perimeter returns the length of the closed polygon through pts.
func perimeter(pts []gocv.Point2f) float32 {
	var total float32
	for i := range pts {
		a, b := pts[i], pts[(i+1)%len(pts)]
		dx, dy := b.X-a.X, b.Y-a.Y
		total += math32.Sqrt(dx*dx + dy*dy)
	}
	return total
}

// GenerateMarker renders marker id of the named dictionary as a black and white square of
// side pixels with a one-module black border. Callers printing or compositing the marker
// must leave a white quiet zone around it.
func GenerateMarker(dictionary string, id, side int) (*image.RGBA, error) {
	code, err := DictionaryCode(dictionary)
	if err != nil {
		return nil, err
	}
	if side <= 0 {
		return nil, errors.Errorf("marker side must be positive, got %d", side)
	}

	mat := gocv.NewMat()
	defer mat.Close()
	if err := gocv.ArucoGenerateImageMarker(code, id, side, mat, 1); err != nil {
		return nil, errors.Wrapf(err, "generate marker %d of %s", id, dictionary)
	}
	if mat.Empty() {
		return nil, errors.Errorf("failed to generate marker %d of %s", id, dictionary)
	}
	return images.FromMat(mat)
}
