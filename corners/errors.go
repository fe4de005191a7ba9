package corners

import (
	"fmt"
	"strings"
)

// ExpectedMarkers is the number of markers framing a card.
const ExpectedMarkers = 4

// MarkerCountError reports a detection pass that did not yield exactly four markers,
// whether too few (blur, glare, occlusion) or too many (spurious detections).
type MarkerCountError struct {
	Found int
}

func (e *MarkerCountError) Error() string {
	return fmt.Sprintf("%d markers found instead of %d. "+
		"The image may be too blurred (not enough contrast at marker positions) or there may be "+
		"stray reflections on the markers. Also check that markers 0 to 3 are all visible.",
		e.Found, ExpectedMarkers)
}

// MarkerIdentityError reports four markers whose IDs are not exactly {0, 1, 2, 3}.
type MarkerIdentityError struct {
	IDs []uint
}

func (e *MarkerIdentityError) Error() string {
	ids := make([]string, len(e.IDs))
	for i, id := range e.IDs {
		ids[i] = fmt.Sprint(id)
	}
	return fmt.Sprintf("4 markers found with ids [%s], expected exactly one each of 0, 1, 2 and 3",
		strings.Join(ids, ", "))
}
