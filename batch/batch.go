// Package batch rectifies many files concurrently and writes the results to disk.
package batch

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/nvr-ai/go-fiducial/images"
	"github.com/nvr-ai/go-fiducial/logger"
	"github.com/nvr-ai/go-fiducial/pipeline"
	"github.com/nvr-ai/go-fiducial/rectify"
	"github.com/nvr-ai/go-fiducial/util"
	"github.com/pkg/errors"
)

// Processor rectifies one image. *pipeline.Pipeline implements it.
type Processor interface {
	Process(img image.Image, spec rectify.OutputSpec) (*pipeline.Result, error)
}

// Recorder persists outcomes as they complete. It is called from worker goroutines.
type Recorder interface {
	Record(o Outcome) error
}

// Runner processes files with a bounded number of workers.
type Runner struct {
	Processor Processor
	Spec      rectify.OutputSpec
	// OutputDir receives the results; empty writes next to each input.
	OutputDir string
	Suffix    string
	Quality   int
	// DryRun processes without writing anything.
	DryRun  bool
	Workers int
	// Journal, when set, receives every outcome including skipped files.
	Journal Recorder
	Log     *logger.Logger
}

// Outcome is the result of one file.
type Outcome struct {
	Input  string
	Output string
	// Result is nil when Err is set.
	Result   *pipeline.Result
	Err      error
	Duration time.Duration
}

// OutputCollisionError reports an input whose output path was already claimed by an
// earlier input of the same run, e.g. a/card.jpg and b/card.jpg with one output directory.
type OutputCollisionError struct {
	Input  string
	Output string
	// Claimed is the earlier input that writes Output.
	Claimed string
}

func (e *OutputCollisionError) Error() string {
	return fmt.Sprintf("output %s for %s is already written by %s", e.Output, e.Input, e.Claimed)
}

// Summary counts outcomes.
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
	Skipped   int
}

// Summarize counts outcomes. Files never started because the context was cancelled count
// as skipped.
func Summarize(outcomes []Outcome) Summary {
	s := Summary{Total: len(outcomes)}
	for _, o := range outcomes {
		switch {
		case o.Err == nil:
			s.Succeeded++
		case Cancelled(o.Err):
			s.Skipped++
		default:
			s.Failed++
		}
	}
	return s
}

// Cancelled reports whether err stems from a cancelled or expired context.
func Cancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (s Summary) String() string {
	return fmt.Sprintf("%d files: %d rectified, %d failed, %d skipped", s.Total, s.Succeeded, s.Failed, s.Skipped)
}

// Run processes files and returns one outcome per file, in input order. A failing file
// does not stop the others. Once ctx is done no new file is started; the remaining
// outcomes carry ctx's error. A file whose output path was claimed by an earlier file is
// not processed and fails with *OutputCollisionError.
//
// Arguments:
//   - ctx: Cancels scheduling of further files.
//   - files: Image paths, see util.ExpandInputs.
//
// Returns:
//   - []Outcome: One per file.
//
// @example
//
//	r := &batch.Runner{Processor: p, Spec: cfg.Output, Suffix: "_rectified", Workers: 4}
//	outcomes := r.Run(ctx, files)
//	fmt.Println(batch.Summarize(outcomes))
func (r *Runner) Run(ctx context.Context, files []string) []Outcome {
	outcomes := make([]Outcome, len(files))
	workers := max(r.Workers, 1)
	total := len(files)

	if r.OutputDir != "" && !r.DryRun {
		if err := os.MkdirAll(r.OutputDir, 0o755); err != nil {
			err = errors.Wrapf(err, "create output directory %s", r.OutputDir)
			for i, f := range files {
				outcomes[i] = Outcome{Input: f, Err: err}
			}
			return outcomes
		}
	}

	collisions := r.collisions(files)

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i, file := range files {
		if err, ok := collisions[i]; ok {
			outcomes[i] = Outcome{Input: file, Err: err}
			r.report(i, total, outcomes[i])
			r.record(outcomes[i])
			continue
		}
		if err := ctx.Err(); err != nil {
			outcomes[i] = Outcome{Input: file, Err: err}
			continue
		}
		select {
		case <-ctx.Done():
			outcomes[i] = Outcome{Input: file, Err: ctx.Err()}
			continue
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(idx int, path string) {
			defer wg.Done()
			defer func() { <-sem }()

			o := r.processFile(path)
			outcomes[idx] = o
			r.report(idx, total, o)
			r.record(o)
		}(i, file)
	}

	wg.Wait()

	for _, o := range outcomes {
		if Cancelled(o.Err) {
			r.record(o)
		}
	}
	return outcomes
}

// collisions maps the index of every file whose output path an earlier file already
// claims to its error. Dry runs write nothing and never collide.
func (r *Runner) collisions(files []string) map[int]error {
	if r.DryRun {
		return nil
	}
	claimed := make(map[string]string, len(files))
	var errs map[int]error
	for i, f := range files {
		out := filepath.Clean(util.OutputPath(f, r.OutputDir, r.Suffix))
		first, ok := claimed[out]
		if !ok {
			claimed[out] = f
			continue
		}
		if errs == nil {
			errs = make(map[int]error)
		}
		errs[i] = &OutputCollisionError{Input: f, Output: out, Claimed: first}
	}
	return errs
}

func (r *Runner) record(o Outcome) {
	if r.Journal == nil {
		return
	}
	if err := r.Journal.Record(o); err != nil {
		r.Log.Warning("journal: %v", err)
	}
}

func (r *Runner) processFile(path string) (o Outcome) {
	start := time.Now()
	o.Input = path
	defer func() {
		if rec := recover(); rec != nil {
			o.Result = nil
			o.Err = errors.Errorf("panic while processing: %v", rec)
		}
		o.Duration = time.Since(start)
	}()

	img, err := images.Load(path)
	if err != nil {
		o.Err = err
		return o
	}
	res, err := r.Processor.Process(img, r.Spec)
	if err != nil {
		o.Err = err
		return o
	}
	o.Result = res
	if r.DryRun {
		return o
	}

	out := util.OutputPath(path, r.OutputDir, r.Suffix)
	if filepath.Clean(out) == filepath.Clean(path) {
		o.Err = errors.Errorf("refusing to overwrite input %s, set a suffix or an output directory", path)
		return o
	}
	if err := images.Save(out, res.Image, r.Quality); err != nil {
		o.Err = errors.Wrapf(err, "write %s", out)
		return o
	}
	o.Output = out
	return o
}

func (r *Runner) report(idx, total int, o Outcome) {
	status := fmt.Sprintf("[%d/%d]", idx+1, total)
	switch {
	case o.Err != nil:
		r.Log.Error("%s %s: %v", status, o.Input, o.Err)
	case r.DryRun:
		r.Log.Info("%s would rectify %s to %dx%d (%s)", status, o.Input, r.Spec.Width, r.Spec.Height, o.Duration)
	default:
		r.Log.Info("%s rectified %s -> %s (%s)", status, o.Input, o.Output, o.Duration)
	}
}
