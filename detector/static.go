package detector

import (
	"image"

	"github.com/pkg/errors"
)

// Static is a Detector that reports a fixed marker set for every image. It stands in for
// a real detector in tests and when marker positions are known in advance.
type Static struct {
	Markers MarkerSet
	// Err, when set, is returned instead of the markers.
	Err error
}

// Detect returns a copy of the configured markers.
func (s *Static) Detect(img image.Image) (MarkerSet, Diagnostics, error) {
	if s.Err != nil {
		return nil, Diagnostics{}, s.Err
	}
	if img == nil {
		return nil, Diagnostics{}, errors.New("detect: image is nil")
	}
	out := make(MarkerSet, len(s.Markers))
	copy(out, s.Markers)
	return out, Diagnostics{}, nil
}
