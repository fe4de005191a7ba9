// Package session keeps the interactive state around the pipeline: the current file, its
// decoded image, the output spec being tuned and the last result or error.
package session

import (
	"image"
	"sync"

	"github.com/nvr-ai/go-fiducial/images"
	"github.com/nvr-ai/go-fiducial/pipeline"
	"github.com/nvr-ai/go-fiducial/rectify"
	"github.com/pkg/errors"
)

// Processor rectifies one image. *pipeline.Pipeline implements it.
type Processor interface {
	Process(img image.Image, spec rectify.OutputSpec) (*pipeline.Result, error)
}

// Session is safe for concurrent use.
type Session struct {
	mu        sync.Mutex
	processor Processor
	spec      rectify.OutputSpec
	files     []string
	current   int
	source    SourceState
	result    ResultState
	// generation changes whenever the source or spec does; a Process that started under
	// an older generation does not store its outcome.
	generation uint64
	loader     func(path string) (*image.RGBA, error)
}

// New returns an empty session rectifying with p onto spec.
func New(p Processor, spec rectify.OutputSpec) (*Session, error) {
	if p == nil {
		return nil, errors.New("session: processor is nil")
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &Session{
		processor: p,
		spec:      spec,
		current:   -1,
		source:    NotLoaded{},
		result:    NotProcessed{},
		loader:    images.Load,
	}, nil
}

// Source returns the current source state.
func (s *Session) Source() SourceState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source
}

// Result returns the current result state.
func (s *Session) Result() ResultState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Spec returns the current output spec.
func (s *Session) Spec() rectify.OutputSpec {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.spec
}

// SetSpec replaces the output spec. The previous result no longer matches and is cleared.
func (s *Session) SetSpec(spec rectify.OutputSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spec = spec
	s.invalidate()
	return nil
}

// SetZoom sets the zoom, clamped to [rectify.MinZoom, rectify.MaxZoom] in
// rectify.ZoomStep increments, and returns the value applied.
func (s *Session) SetZoom(zoom float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	z := rectify.ClampZoom(zoom)
	if z != s.spec.Zoom {
		s.spec.Zoom = z
		s.invalidate()
	}
	return z
}

// ZoomIn widens the margin by one step.
func (s *Session) ZoomIn() float64 {
	return s.SetZoom(s.Spec().Zoom + rectify.ZoomStep)
}

// ZoomOut narrows the margin by one step.
func (s *Session) ZoomOut() float64 {
	return s.SetZoom(s.Spec().Zoom - rectify.ZoomStep)
}

// SetFiles replaces the file list. The current image is kept until another file is
// selected.
func (s *Session) SetFiles(paths []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files = append([]string(nil), paths...)
	s.current = -1
}

// Files returns the file list.
func (s *Session) Files() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.files...)
}

// Current returns the index of the selected file, -1 if none.
func (s *Session) Current() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Select loads the i-th file of the list.
func (s *Session) Select(i int) error {
	s.mu.Lock()
	if i < 0 || i >= len(s.files) {
		n := len(s.files)
		s.mu.Unlock()
		return errors.Errorf("session: file index %d out of range [0, %d)", i, n)
	}
	s.current = i
	path := s.files[i]
	s.mu.Unlock()
	return s.Load(path)
}

// Next selects the file after the current one, wrapping around.
func (s *Session) Next() error {
	return s.step(1)
}

// Previous selects the file before the current one, wrapping around.
func (s *Session) Previous() error {
	return s.step(-1)
}

func (s *Session) step(delta int) error {
	s.mu.Lock()
	n := len(s.files)
	if n == 0 {
		s.mu.Unlock()
		return errors.New("session: file list is empty")
	}
	i := s.current + delta
	if s.current < 0 {
		i = 0
	}
	i = ((i % n) + n) % n
	s.mu.Unlock()
	return s.Select(i)
}

// Load decodes path and makes it the current source. On failure the source becomes
// LoadFailed and the returned error is an *images.ImageLoadError. Either way the
// previous result is cleared.
func (s *Session) Load(path string) error {
	img, err := s.loader(path)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidate()
	if err != nil {
		s.source = LoadFailed{Path: path, Err: err}
		return err
	}
	s.source = Loaded{Path: path, Image: img}
	return nil
}

// SetImage makes an in-memory image the current source.
func (s *Session) SetImage(name string, img image.Image) error {
	if img == nil || img.Bounds().Empty() {
		return &images.ImageLoadError{Path: name, Err: errors.New("image is empty")}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.source = Loaded{Path: name, Image: images.ToRGBA(img)}
	s.invalidate()
	return nil
}

// invalidate clears the result after a source or spec change. s.mu must be held.
func (s *Session) invalidate() {
	s.result = NotProcessed{}
	s.generation++
}

// Reload reads the current file again, e.g. after it changed on disk.
func (s *Session) Reload() error {
	s.mu.Lock()
	var path string
	switch src := s.source.(type) {
	case Loaded:
		path = src.Path
	case LoadFailed:
		path = src.Path
	case NotLoaded:
	}
	s.mu.Unlock()

	if path == "" {
		return &images.NoImageLoadedError{}
	}
	return s.Load(path)
}

// Process rectifies the current source with the current spec and stores the outcome.
//
// Returns:
//   - *pipeline.Result: The rectification.
//   - error: *images.NoImageLoadedError without a loaded source, otherwise the pipeline error.
//     A pipeline error is also kept as the Failed result state.
//
// The outcome is returned to the caller either way, but it is only stored when no
// SetSpec, SetZoom, Load or SetImage ran while the pipeline was busy; otherwise the
// result stays NotProcessed for the newer inputs.
func (s *Session) Process() (*pipeline.Result, error) {
	s.mu.Lock()
	spec := s.spec
	generation := s.generation
	var img *image.RGBA
	switch src := s.source.(type) {
	case Loaded:
		img = src.Image
	case LoadFailed:
		s.mu.Unlock()
		return nil, &images.NoImageLoadedError{Cause: src.Err}
	case NotLoaded:
		s.mu.Unlock()
		return nil, &images.NoImageLoadedError{}
	}
	s.mu.Unlock()

	res, err := s.processor.Process(img, spec)

	s.mu.Lock()
	defer s.mu.Unlock()
	current := s.generation == generation
	if err != nil {
		if current {
			s.result = Failed{Err: err}
		}
		return nil, err
	}
	if current {
		s.result = Rectified{Result: res}
	}
	return res, nil
}
