package pipeline_test

import (
	"testing"

	"github.com/nvr-ai/go-fiducial/corners"
	"github.com/nvr-ai/go-fiducial/detector"
	"github.com/nvr-ai/go-fiducial/geometry"
	"github.com/nvr-ai/go-fiducial/images"
	"github.com/nvr-ai/go-fiducial/pipeline"
	"github.com/nvr-ai/go-fiducial/rectify"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want pipeline.FailureKind
	}{
		{"nil", nil, pipeline.FailureNone},
		{"count", errors.Wrap(&corners.MarkerCountError{Found: 3}, pipeline.StageResolve), pipeline.FailureMarkerCount},
		{"identity", errors.Wrap(&corners.MarkerIdentityError{IDs: []uint{0, 1, 2, 7}}, pipeline.StageResolve), pipeline.FailureMarkerIdentity},
		{"degenerate", errors.Wrap(&geometry.DegenerateGeometryError{Reason: "collinear"}, pipeline.StageRectify), pipeline.FailureDegenerate},
		{"decode", &images.ImageLoadError{Path: "a.jpg", Err: errors.New("truncated")}, pipeline.FailureDecode},
		{"no image", &images.NoImageLoadedError{}, pipeline.FailureNoImage},
		{"no image after failed load", &images.NoImageLoadedError{Cause: &images.ImageLoadError{Err: errors.New("truncated")}}, pipeline.FailureNoImage},
		{"spec", &rectify.OutputSpecError{Reason: "zoom"}, pipeline.FailureInvalidSpec},
		{"other", errors.New("boom"), pipeline.FailureOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pipeline.Classify(tt.err))
		})
	}
}

func TestClassifyProcessError(t *testing.T) {
	card := renderCard(t, 2)
	p := newPipeline(t, &detector.Static{Markers: card.Markers})
	_, err := p.Process(card.Image, cardSpec)
	assert.Equal(t, pipeline.FailureMarkerCount, pipeline.Classify(err))
}
