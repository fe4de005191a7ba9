package rectify

import (
	"fmt"
	"math"

	"github.com/nvr-ai/go-fiducial/geometry"
)

// Anchor positions the marker rectangle inside the output frame when Zoom > 1.
//
// The default is AnchorCenter: with a zoom margin the card content around the markers
// is shown on every side, so the marker rectangle sits centred in the frame. AnchorOrigin
// maps the marker rectangle to (0, 0)-(W/Zoom, H/Zoom), which clips everything above and
// left of the markers; use it when downstream code expects that fixed placement.
type Anchor string

const (
	// AnchorCenter splits the zoom margin evenly on all four sides. It is the default,
	// and the empty Anchor behaves the same.
	AnchorCenter Anchor = "center"
	// AnchorOrigin keeps the marker rectangle at the top-left so the whole margin falls to
	// the right and bottom.
	AnchorOrigin Anchor = "origin"
)

// Valid reports whether a is a known anchor. The empty anchor means AnchorCenter.
func (a Anchor) Valid() bool {
	return a == "" || a == AnchorCenter || a == AnchorOrigin
}

// Zoom limits used by interactive callers; the rectifier itself accepts any zoom >= MinZoom.
const (
	MinZoom  = 1.0
	MaxZoom  = 2.5
	ZoomStep = 0.1
)

// OutputSpec is the requested output of one rectification.
type OutputSpec struct {
	// Width and Height are the exact output dimensions in pixels.
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
	// Zoom is the margin factor: 1 makes the output edges coincide with the marker
	// quadrilateral, larger values keep proportionally more of the surroundings.
	Zoom float64 `json:"zoom" yaml:"zoom"`
	// Anchor places the marker rectangle inside the frame.
	Anchor Anchor `json:"anchor" yaml:"anchor"`
}

// DefaultOutputSpec returns a 600x300 output with a 1.2 zoom.
func DefaultOutputSpec() OutputSpec {
	return OutputSpec{Width: 600, Height: 300, Zoom: 1.2, Anchor: AnchorCenter}
}

// OutputSpecError reports an unusable OutputSpec.
type OutputSpecError struct {
	Spec   OutputSpec
	Reason string
}

func (e *OutputSpecError) Error() string {
	return fmt.Sprintf("invalid output spec %dx%d zoom %.2f: %s", e.Spec.Width, e.Spec.Height, e.Spec.Zoom, e.Reason)
}

// Validate checks dimensions, zoom and anchor.
func (s OutputSpec) Validate() error {
	switch {
	case s.Width <= 0 || s.Height <= 0:
		return &OutputSpecError{Spec: s, Reason: "width and height must be positive"}
	case math.IsNaN(s.Zoom) || math.IsInf(s.Zoom, 0) || s.Zoom < MinZoom:
		return &OutputSpecError{Spec: s, Reason: fmt.Sprintf("zoom must be a finite value >= %.1f", MinZoom)}
	case !s.Anchor.Valid():
		return &OutputSpecError{Spec: s, Reason: fmt.Sprintf("unknown anchor %q", s.Anchor)}
	}
	return nil
}

// Target returns the rectangle, in output pixel coordinates, onto which the marker
// quadrilateral is mapped. It is the output frame shrunk by Zoom and placed by Anchor, so
// the frame is the target expanded by Zoom.
func (s OutputSpec) Target() geometry.Quad {
	w, h := float64(s.Width), float64(s.Height)
	tw, th := w/s.Zoom, h/s.Zoom

	var ox, oy float64
	if s.Anchor != AnchorOrigin {
		ox, oy = (w-tw)/2, (h-th)/2
	}
	return geometry.RectQuad(ox, oy, ox+tw, oy+th)
}

// ClampZoom limits z to [MinZoom, MaxZoom], rounded to one ZoomStep.
func ClampZoom(z float64) float64 {
	z = math.Round(z/ZoomStep) * ZoomStep
	return math.Min(MaxZoom, math.Max(MinZoom, z))
}
