// Package corners maps a detected marker set onto the four physical corners of a card.
package corners

import (
	"github.com/nvr-ai/go-fiducial/detector"
	"github.com/nvr-ai/go-fiducial/geometry"
	"github.com/pkg/errors"
)

// Layout maps a marker ID to the card corner it is printed on.
type Layout map[uint]geometry.Corner

// DefaultLayout is the printing convention for cards: marker 0 at the top-left, 1 at the
// top-right, 2 at the bottom-right and 3 at the bottom-left.
var DefaultLayout = Layout{
	0: geometry.TopLeft,
	1: geometry.TopRight,
	2: geometry.BottomRight,
	3: geometry.BottomLeft,
}

// Validate checks that l assigns exactly one ID to each of the four corners.
func (l Layout) Validate() error {
	if len(l) != ExpectedMarkers {
		return errors.Errorf("layout must map %d ids, got %d", ExpectedMarkers, len(l))
	}
	var seen [4]bool
	for id, c := range l {
		if c < geometry.TopLeft || c > geometry.BottomLeft {
			return errors.Errorf("layout maps id %d to invalid corner %d", id, int(c))
		}
		if seen[c] {
			return errors.Errorf("layout maps more than one id to %s", c)
		}
		seen[c] = true
	}
	return nil
}

// Representative selects which point of a marker stands for its card corner.
type Representative string

const (
	// Centroid uses the mean of the marker's four corners. It does not depend on how the
	// marker is rotated on the card.
	Centroid Representative = "centroid"
	// OuterCorner uses the marker's own corner at the same position as the card corner it
	// marks, e.g. the top-left corner of the top-left marker. It assumes upright markers.
	OuterCorner Representative = "outer"
)

// Valid reports whether r is a known representative mode.
func (r Representative) Valid() bool {
	return r == Centroid || r == OuterCorner
}

// Resolver orders detected markers into a card quadrilateral.
type Resolver struct {
	Layout         Layout
	Representative Representative
}

// NewResolver returns a resolver using DefaultLayout and the given representative mode;
// an empty mode selects Centroid.
func NewResolver(rep Representative) (*Resolver, error) {
	if rep == "" {
		rep = Centroid
	}
	if !rep.Valid() {
		return nil, errors.Errorf("unknown representative point %q", rep)
	}
	return &Resolver{Layout: DefaultLayout, Representative: rep}, nil
}

// Resolve orders set into a quadrilateral (top-left, top-right, bottom-right,
// bottom-left).
//
// The set must contain exactly four markers, and their IDs must be exactly the four IDs
// of the layout. Nothing is inferred: a missing, extra or duplicated marker fails the
// whole resolution.
//
// Arguments:
//   - set: The markers from one detection pass.
//
// Returns:
//   - geometry.Quad: One representative point per corner, in canonical order.
//   - error: *MarkerCountError when len(set) != 4, *MarkerIdentityError when the IDs do
//     not match the layout.
//
// @example
//
//	quad, err := resolver.Resolve(markers)
//	var countErr *corners.MarkerCountError
//	if errors.As(err, &countErr) {
//	    fmt.Printf("only %d markers visible\n", countErr.Found)
//	}
func (r *Resolver) Resolve(set detector.MarkerSet) (geometry.Quad, error) {
	layout := r.Layout
	if layout == nil {
		layout = DefaultLayout
	}
	if len(set) != ExpectedMarkers {
		return geometry.Quad{}, &MarkerCountError{Found: len(set)}
	}

	var (
		quad   geometry.Quad
		filled [4]bool
	)
	for _, m := range set {
		c, ok := layout[m.ID]
		if !ok || filled[c] {
			return geometry.Quad{}, &MarkerIdentityError{IDs: set.IDs()}
		}
		p, err := r.point(m, c)
		if err != nil {
			return geometry.Quad{}, err
		}
		quad[c] = p
		filled[c] = true
	}
	return quad, nil
}

func (r *Resolver) point(m detector.Marker, c geometry.Corner) (geometry.Point2D, error) {
	switch r.Representative {
	case OuterCorner:
		return m.Corners[c], nil
	case Centroid, "":
		return m.Center(), nil
	default:
		return geometry.Point2D{}, errors.Errorf("unknown representative point %q", r.Representative)
	}
}
