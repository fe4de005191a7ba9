// Package detector defines the fiducial-marker detection capability used by the
// rectification pipeline and provides an OpenCV ArUco implementation of it.
package detector

import (
	"fmt"
	"image"
	"sort"
	"time"

	"github.com/nvr-ai/go-fiducial/geometry"
)

// Marker is one detected fiducial: its decoded ID and the four corners of its own square
// in detector order (for ArUco: the marker's top-left, top-right, bottom-right and
// bottom-left corners, clockwise).
type Marker struct {
	ID      uint               `json:"id" yaml:"id"`
	Corners [4]geometry.Point2D `json:"corners" yaml:"corners"`
}

// Center returns the centroid of the marker's corners.
func (m Marker) Center() geometry.Point2D {
	return geometry.Centroid(m.Corners[:]...)
}

func (m Marker) String() string {
	return fmt.Sprintf("marker %d at %s", m.ID, m.Center())
}

// MarkerSet is the result of one detection pass. IDs are not guaranteed to be unique.
type MarkerSet []Marker

// IDs returns the marker IDs in ascending order.
func (s MarkerSet) IDs() []uint {
	ids := make([]uint, len(s))
	for i, m := range s {
		ids[i] = m.ID
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Without returns a copy of s with every marker carrying id removed.
func (s MarkerSet) Without(id uint) MarkerSet {
	out := make(MarkerSet, 0, len(s))
	for _, m := range s {
		if m.ID != id {
			out = append(out, m)
		}
	}
	return out
}

// Diagnostics describes a detection pass beyond the accepted markers.
type Diagnostics struct {
	// Rejected is the number of candidate squares that did not decode to a valid ID.
	Rejected int
	// Filtered is the number of decoded markers dropped by the detector's own filters.
	Filtered int
	// Duration is the time spent detecting.
	Duration time.Duration
}

// Detector finds fiducial markers in an image.
//
// Implementations must return every marker identified with confidence above their
// internal threshold, and an empty set (not an error) when none are found. Results must
// depend only on the image and the detector's configuration. The error return is
// reserved for failures to process the image itself.
type Detector interface {
	Detect(img image.Image) (MarkerSet, Diagnostics, error)
}
