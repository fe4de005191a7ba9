package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/nvr-ai/go-fiducial/batch"
	"github.com/nvr-ai/go-fiducial/corners"
	"github.com/nvr-ai/go-fiducial/detector"
	"github.com/nvr-ai/go-fiducial/pipeline"
	"github.com/nvr-ai/go-fiducial/rectify"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestRecordAndReadOutcomes(t *testing.T) {
	db := openTemp(t)
	spec := rectify.DefaultOutputSpec()

	run, err := db.BeginRun(spec, false)
	require.NoError(t, err)
	assert.Positive(t, run.ID)

	ok := batch.Outcome{
		Input:    "a.jpg",
		Output:   "a_rectified.jpg",
		Result:   &pipeline.Result{Markers: make(detector.MarkerSet, 4)},
		Duration: 12 * time.Millisecond,
	}
	failed := batch.Outcome{
		Input: "b.jpg",
		Err:   errors.Wrap(&corners.MarkerCountError{Found: 3}, pipeline.StageResolve),
	}
	skipped := batch.Outcome{Input: "c.jpg", Err: context.Canceled}

	for _, o := range []batch.Outcome{ok, failed, skipped} {
		require.NoError(t, run.Record(o))
	}
	require.NoError(t, run.Finish(batch.Summarize([]batch.Outcome{ok, failed, skipped})))

	entries, err := db.Outcomes(run.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, StatusRectified, entries[0].Status)
	assert.Equal(t, "a_rectified.jpg", entries[0].Output)
	assert.Equal(t, 4, entries[0].Markers)
	assert.Equal(t, 12*time.Millisecond, entries[0].Duration)
	assert.Equal(t, pipeline.FailureNone, entries[0].Failure)

	assert.Equal(t, StatusFailed, entries[1].Status)
	assert.Equal(t, pipeline.FailureMarkerCount, entries[1].Failure)
	assert.Contains(t, entries[1].Message, "3 markers found")

	assert.Equal(t, StatusSkipped, entries[2].Status)
	assert.Equal(t, run.ID, entries[2].RunID)
}

func TestDryRunIsNotRectified(t *testing.T) {
	db := openTemp(t)
	spec := rectify.DefaultOutputSpec()

	run, err := db.BeginRun(spec, true)
	require.NoError(t, err)
	require.NoError(t, run.Record(batch.Outcome{Input: "a.jpg", Result: &pipeline.Result{}}))

	entries, err := db.Outcomes(run.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, StatusDryRun, entries[0].Status)

	done, err := db.Rectified("a.jpg", spec)
	require.NoError(t, err)
	assert.False(t, done)
}

func TestPendingDependsOnSpec(t *testing.T) {
	db := openTemp(t)
	spec := rectify.OutputSpec{Width: 600, Height: 300, Zoom: 1.2}

	run, err := db.BeginRun(spec, false)
	require.NoError(t, err)
	require.NoError(t, run.Record(batch.Outcome{Input: "a.jpg", Output: "a_r.jpg"}))
	require.NoError(t, run.Record(batch.Outcome{Input: "b.jpg", Err: errors.New("boom")}))

	pending, err := db.Pending([]string{"a.jpg", "b.jpg", "c.jpg"}, spec)
	require.NoError(t, err)
	assert.Equal(t, []string{"b.jpg", "c.jpg"}, pending)

	// The empty anchor and AnchorCenter are the same layout.
	centered := spec
	centered.Anchor = rectify.AnchorCenter
	pending, err = db.Pending([]string{"a.jpg"}, centered)
	require.NoError(t, err)
	assert.Empty(t, pending)

	zoomed := spec
	zoomed.Zoom = 1.5
	pending, err = db.Pending([]string{"a.jpg"}, zoomed)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.jpg"}, pending)
}

func TestRunnerWritesJournal(t *testing.T) {
	db := openTemp(t)
	spec := rectify.DefaultOutputSpec()
	run, err := db.BeginRun(spec, true)
	require.NoError(t, err)

	r := &batch.Runner{
		Processor: &pipeline.Pipeline{},
		Spec:      spec,
		DryRun:    true,
		Journal:   run,
	}
	outcomes := r.Run(context.Background(), []string{filepath.Join(t.TempDir(), "missing.jpg")})
	require.Len(t, outcomes, 1)

	entries, err := db.Outcomes(run.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, StatusFailed, entries[0].Status)
	assert.Equal(t, pipeline.FailureDecode, entries[0].Failure)
}
