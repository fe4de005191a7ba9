package geometry

import "fmt"

// DegenerateGeometryError reports a quadrilateral or correspondence set from which no
// invertible projective transform can be derived (collinear or coincident points, zero
// area, singular system).
type DegenerateGeometryError struct {
	Reason string
}

func (e *DegenerateGeometryError) Error() string {
	return fmt.Sprintf("degenerate geometry: %s", e.Reason)
}

func degenerate(format string, args ...any) error {
	return &DegenerateGeometryError{Reason: fmt.Sprintf(format, args...)}
}
