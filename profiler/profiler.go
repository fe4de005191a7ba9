// Package profiler collects per-operation timing statistics for the rectification
// pipeline and renders them as a status report.
package profiler

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"
)

// DefaultMaxSamples bounds the rolling window kept per operation.
const DefaultMaxSamples = 600

// TimeTracker tracks timing statistics for one named operation.
type TimeTracker struct {
	name      string
	durations []time.Duration
	totalTime time.Duration
	minTime   time.Duration
	maxTime   time.Duration
	count     int64
}

// Stats is a snapshot of a TimeTracker.
type Stats struct {
	Name  string
	Count int64
	Min   time.Duration
	Max   time.Duration
	Mean  time.Duration
}

// Tracker records operation timings. It is safe for concurrent use, so one tracker can
// be shared by pipelines running on several goroutines.
type Tracker struct {
	mu             sync.RWMutex
	maxSamples     int
	startTime      time.Time
	operationTimes map[string]*TimeTracker
}

// NewTracker creates a tracker keeping at most maxSamples durations per operation for
// the rolling mean; zero selects DefaultMaxSamples.
func NewTracker(maxSamples int) *Tracker {
	if maxSamples <= 0 {
		maxSamples = DefaultMaxSamples
	}
	return &Tracker{
		maxSamples:     maxSamples,
		startTime:      time.Now(),
		operationTimes: make(map[string]*TimeTracker),
	}
}

// StartOperation begins timing an operation.
//
// Arguments:
// - name: The name of the operation to track
//
// Returns:
// - A function to call when the operation completes; it returns the elapsed time.
//
// @example
// done := tracker.StartOperation("detect")
// markers, _, err := det.Detect(img)
// elapsed := done()
func (t *Tracker) StartOperation(name string) func() time.Duration {
	start := time.Now()
	return func() time.Duration {
		d := time.Since(start)
		t.Record(name, d)
		return d
	}
}

// Record adds one duration for name.
func (t *Tracker) Record(name string, duration time.Duration) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	tracker, exists := t.operationTimes[name]
	if !exists {
		tracker = &TimeTracker{
			name:    name,
			minTime: duration,
			maxTime: duration,
		}
		t.operationTimes[name] = tracker
	}

	tracker.durations = append(tracker.durations, duration)
	if len(tracker.durations) > t.maxSamples {
		tracker.totalTime -= tracker.durations[0]
		tracker.durations = tracker.durations[1:]
	}
	tracker.totalTime += duration
	tracker.count++

	if duration < tracker.minTime {
		tracker.minTime = duration
	}
	if duration > tracker.maxTime {
		tracker.maxTime = duration
	}
}

// Stats returns a snapshot for every operation, sorted by name.
func (t *Tracker) Stats() []Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Stats, 0, len(t.operationTimes))
	for _, tr := range t.operationTimes {
		s := Stats{Name: tr.name, Count: tr.count, Min: tr.minTime, Max: tr.maxTime}
		if n := len(tr.durations); n > 0 {
			s.Mean = tr.totalTime / time.Duration(n)
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Report writes the operation timings to w.
func (t *Tracker) Report(w io.Writer) {
	stats := t.Stats()
	fmt.Fprintf(w, "OPERATION TIMINGS (uptime %v):\n", time.Since(t.startTime).Truncate(time.Millisecond))
	if len(stats) == 0 {
		fmt.Fprintf(w, "  none recorded\n")
		return
	}
	for _, s := range stats {
		fmt.Fprintf(w, "  %s: avg=%v, min=%v, max=%v, count=%d\n",
			s.Name,
			s.Mean.Truncate(time.Microsecond),
			s.Min.Truncate(time.Microsecond),
			s.Max.Truncate(time.Microsecond),
			s.Count)
	}
}
