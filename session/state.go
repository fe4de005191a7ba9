package session

import (
	"image"

	"github.com/nvr-ai/go-fiducial/pipeline"
)

// SourceState is the state of the current source image: NotLoaded, Loaded or
// LoadFailed.
type SourceState interface {
	isSourceState()
}

// NotLoaded means no source image was ever requested.
type NotLoaded struct{}

// Loaded holds a decoded source image.
type Loaded struct {
	Path  string
	Image *image.RGBA
}

// LoadFailed holds the error of the last load attempt.
type LoadFailed struct {
	Path string
	Err  error
}

func (NotLoaded) isSourceState()  {}
func (Loaded) isSourceState()     {}
func (LoadFailed) isSourceState() {}

// ResultState is the state of the current rectification: NotProcessed, Rectified or
// Failed.
type ResultState interface {
	isResultState()
}

// NotProcessed means the current source has not been rectified with the current spec.
type NotProcessed struct{}

// Rectified holds a successful rectification.
type Rectified struct {
	Result *pipeline.Result
}

// Failed holds the error of the last rectification attempt, for display.
type Failed struct {
	Err error
}

func (NotProcessed) isResultState() {}
func (Rectified) isResultState()    {}
func (Failed) isResultState()       {}
