package pipeline

import (
	"github.com/nvr-ai/go-fiducial/corners"
	"github.com/nvr-ai/go-fiducial/geometry"
	"github.com/nvr-ai/go-fiducial/images"
	"github.com/nvr-ai/go-fiducial/rectify"
	"github.com/pkg/errors"
)

// FailureKind names the cause of a failed rectification.
type FailureKind string

const (
	FailureNone           FailureKind = ""
	FailureMarkerCount    FailureKind = "marker_count"
	FailureMarkerIdentity FailureKind = "marker_identity"
	FailureDegenerate     FailureKind = "degenerate"
	FailureDecode         FailureKind = "decode"
	FailureNoImage        FailureKind = "no_image"
	FailureInvalidSpec    FailureKind = "invalid_spec"
	FailureOther          FailureKind = "other"
)

// Classify maps an error returned by Process, or by loading its input, to its kind. Wrapped
// errors are unwrapped. A nil error is FailureNone.
func Classify(err error) FailureKind {
	if err == nil {
		return FailureNone
	}
	var (
		countErr    *corners.MarkerCountError
		identityErr *corners.MarkerIdentityError
		degenerate  *geometry.DegenerateGeometryError
		loadErr     *images.ImageLoadError
		noImageErr  *images.NoImageLoadedError
		specErr     *rectify.OutputSpecError
	)
	switch {
	case errors.As(err, &countErr):
		return FailureMarkerCount
	case errors.As(err, &identityErr):
		return FailureMarkerIdentity
	case errors.As(err, &degenerate):
		return FailureDegenerate
	case errors.As(err, &noImageErr):
		return FailureNoImage
	case errors.As(err, &loadErr):
		return FailureDecode
	case errors.As(err, &specErr):
		return FailureInvalidSpec
	default:
		return FailureOther
	}
}
