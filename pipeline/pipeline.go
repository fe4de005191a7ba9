// Package pipeline runs the full rectification of one photograph: bound the image to the
// working size, detect markers, resolve the card corners and warp onto the output frame.
//
// The pipeline is a pure function of its input image and OutputSpec. It holds no state
// between calls beyond its injected collaborators, so one Pipeline may serve concurrent
// callers as long as its Detector does.
package pipeline

import (
	"image"
	"time"

	"github.com/nvr-ai/go-fiducial/config"
	"github.com/nvr-ai/go-fiducial/corners"
	"github.com/nvr-ai/go-fiducial/detector"
	"github.com/nvr-ai/go-fiducial/geometry"
	"github.com/nvr-ai/go-fiducial/images"
	"github.com/nvr-ai/go-fiducial/logger"
	"github.com/nvr-ai/go-fiducial/profiler"
	"github.com/nvr-ai/go-fiducial/rectify"
	"github.com/pkg/errors"
)

// Stage names, also used as profiler operation names.
const (
	StageResize  = "resize"
	StageDetect  = "detect"
	StageResolve = "resolve"
	StageRectify = "rectify"
)

// Pipeline wires the stages together.
type Pipeline struct {
	Detector  detector.Detector
	Resolver  *corners.Resolver
	Rectifier *rectify.Rectifier
	// WorkingSize bounds the image handed to the detector. Zero uses the requested output
	// size.
	WorkingSize image.Point
	Filter      images.ResampleFilter
	// Tracker, when set, records the duration of every stage.
	Tracker *profiler.Tracker
	Log     *logger.Logger
}

// Result is a successful rectification and what was learned on the way.
type Result struct {
	// Image is exactly Spec.Width x Spec.Height.
	Image *image.RGBA
	Spec  rectify.OutputSpec
	// Working is the size of the image the markers were detected in.
	Working     image.Point
	Markers     detector.MarkerSet
	Quad        geometry.Quad
	Diagnostics detector.Diagnostics
	Elapsed     time.Duration
}

// New returns a pipeline with the default resolver and a native rectifier around det.
func New(det detector.Detector) (*Pipeline, error) {
	if det == nil {
		return nil, errors.New("pipeline: detector is nil")
	}
	resolver, err := corners.NewResolver(corners.Centroid)
	if err != nil {
		return nil, err
	}
	rectifier, err := rectify.New(rectify.BackendNative)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		Detector:  det,
		Resolver:  resolver,
		Rectifier: rectifier,
		Filter:    images.LanczosFilter,
		Log:       logger.Discard(),
	}, nil
}

// FromConfig builds a pipeline from cfg around det.
//
// Arguments:
//   - cfg: A validated configuration.
//   - det: The marker detector; the caller keeps ownership.
//   - log: Destination of stage logs; nil discards them.
//
// Returns:
//   - *Pipeline: The configured pipeline.
//   - error: If cfg names an unknown representative or backend.
//
// @example
//
//	det, _ := detector.NewArucoDetector(cfg.Detector)
//	defer det.Close()
//	p, err := pipeline.FromConfig(cfg, det, logger.NewStd(logger.LevelInfo))
func FromConfig(cfg *config.Config, det detector.Detector, log *logger.Logger) (*Pipeline, error) {
	if cfg == nil {
		return nil, errors.New("pipeline: config is nil")
	}
	if det == nil {
		return nil, errors.New("pipeline: detector is nil")
	}
	resolver, err := corners.NewResolver(cfg.Representative)
	if err != nil {
		return nil, err
	}
	rectifier, err := rectify.New(cfg.Backend)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Discard()
	}
	rectifier.Background = cfg.BackgroundColor()
	rectifier.Debug = log.DebugEnabled()
	return &Pipeline{
		Detector:    det,
		Resolver:    resolver,
		Rectifier:   rectifier,
		WorkingSize: image.Pt(cfg.WorkingWidth, cfg.WorkingHeight),
		Filter:      cfg.Filter,
		Log:         log,
	}, nil
}

// Process rectifies img onto spec.
//
// Arguments:
//   - img: The photograph; it is not modified.
//   - spec: The requested output.
//
// Returns:
//   - *Result: The rectified image, exactly spec.Width x spec.Height, and the detection.
//   - error: The failing stage's error wrapped with the stage name. The cause keeps its
//     type: *rectify.OutputSpecError, *corners.MarkerCountError,
//     *corners.MarkerIdentityError or *geometry.DegenerateGeometryError.
//
// @example
//
//	res, err := p.Process(photo, rectify.OutputSpec{Width: 600, Height: 300, Zoom: 1.2})
//	var countErr *corners.MarkerCountError
//	if errors.As(err, &countErr) {
//	    log.Printf("retake the photo: %v", countErr)
//	}
func (p *Pipeline) Process(img image.Image, spec rectify.OutputSpec) (*Result, error) {
	start := time.Now()
	if img == nil || img.Bounds().Empty() {
		return nil, &images.NoImageLoadedError{}
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if p.Detector == nil {
		return nil, errors.New("pipeline: detector is nil")
	}

	bound := p.WorkingSize
	if bound.X <= 0 || bound.Y <= 0 {
		bound = image.Pt(spec.Width, spec.Height)
	}

	done := p.Tracker.StartOperation(StageResize)
	working, err := images.ResizeIfLarger(img, bound, p.Filter)
	elapsed := done()
	if err != nil {
		return nil, errors.Wrap(err, StageResize)
	}
	p.Log.Debug("resized %v to %v within %v in %s", img.Bounds().Size(), working.Bounds().Size(), bound, elapsed)

	done = p.Tracker.StartOperation(StageDetect)
	markers, diag, err := p.Detector.Detect(working)
	elapsed = done()
	if err != nil {
		return nil, errors.Wrap(err, StageDetect)
	}
	p.Log.Debug("detected %d markers %v (rejected %d, filtered %d) in %s",
		len(markers), markers.IDs(), diag.Rejected, diag.Filtered, elapsed)

	resolver := p.Resolver
	if resolver == nil {
		resolver = &corners.Resolver{Layout: corners.DefaultLayout, Representative: corners.Centroid}
	}
	done = p.Tracker.StartOperation(StageResolve)
	quad, err := resolver.Resolve(markers)
	done()
	if err != nil {
		return nil, errors.Wrap(err, StageResolve)
	}
	p.Log.Debug("resolved quad %s", quad)

	rectifier := p.Rectifier
	if rectifier == nil {
		rectifier = &rectify.Rectifier{Warper: rectify.NativeWarper{}}
	}
	done = p.Tracker.StartOperation(StageRectify)
	out, err := rectifier.Rectify(working, quad, spec)
	elapsed = done()
	if err != nil {
		return nil, errors.Wrap(err, StageRectify)
	}
	p.Log.Debug("rectified to %dx%d zoom %.2f in %s", spec.Width, spec.Height, spec.Zoom, elapsed)

	return &Result{
		Image:       out,
		Spec:        spec,
		Working:     working.Bounds().Size(),
		Markers:     markers,
		Quad:        quad,
		Diagnostics: diag,
		Elapsed:     time.Since(start),
	}, nil
}
