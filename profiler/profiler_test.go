package profiler

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerStats(t *testing.T) {
	tr := NewTracker(0)
	tr.Record("detect", 10*time.Millisecond)
	tr.Record("detect", 30*time.Millisecond)
	tr.Record("warp", 5*time.Millisecond)

	stats := tr.Stats()
	require.Len(t, stats, 2)

	assert.Equal(t, "detect", stats[0].Name)
	assert.Equal(t, int64(2), stats[0].Count)
	assert.Equal(t, 10*time.Millisecond, stats[0].Min)
	assert.Equal(t, 30*time.Millisecond, stats[0].Max)
	assert.Equal(t, 20*time.Millisecond, stats[0].Mean)

	assert.Equal(t, "warp", stats[1].Name)
}

func TestTrackerRollingWindow(t *testing.T) {
	tr := NewTracker(2)
	tr.Record("op", 100*time.Millisecond)
	tr.Record("op", 10*time.Millisecond)
	tr.Record("op", 20*time.Millisecond)

	s := tr.Stats()[0]
	assert.Equal(t, int64(3), s.Count, "count covers every sample")
	assert.Equal(t, 15*time.Millisecond, s.Mean, "mean covers the window only")
	assert.Equal(t, 100*time.Millisecond, s.Max)
}

func TestTrackerConcurrent(t *testing.T) {
	tr := NewTracker(0)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				done := tr.StartOperation("resize")
				done()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(800), tr.Stats()[0].Count)
}

func TestTrackerReport(t *testing.T) {
	tr := NewTracker(0)

	var buf bytes.Buffer
	tr.Report(&buf)
	assert.Contains(t, buf.String(), "none recorded")

	tr.Record("rectify", time.Millisecond)
	buf.Reset()
	tr.Report(&buf)
	assert.Contains(t, buf.String(), "rectify: avg=1ms")
}

func TestNilTrackerRecordIsNoop(t *testing.T) {
	var tr *Tracker
	assert.NotPanics(t, func() { tr.Record("x", time.Second) })
}
