// Package benchmark measures the rectification pipeline on synthetic photographs: speed
// per stage, success rate and corner accuracy under resolution, format, perspective and
// blur variations.
package benchmark

import (
	"time"

	"github.com/nvr-ai/go-fiducial/pipeline"
)

// PerformanceMetrics captures the outcome of one scenario.
type PerformanceMetrics struct {
	Scenario        Scenario      `json:"scenario"`
	Timestamp       time.Time     `json:"timestamp"`
	TotalDuration   time.Duration `json:"total_duration"`
	DecodeDuration  time.Duration `json:"decode_duration"`
	ResizeDuration  time.Duration `json:"resize_duration"`
	DetectDuration  time.Duration `json:"detect_duration"`
	ResolveDuration time.Duration `json:"resolve_duration"`
	RectifyDuration time.Duration `json:"rectify_duration"`
	FramesPerSecond float64       `json:"frames_per_second"`
	// SuccessRate is the fraction of iterations that produced an output.
	SuccessRate float64 `json:"success_rate"`
	// MeanCornerError and MaxCornerError compare resolved corners with the ground truth,
	// in photograph pixels, over successful iterations.
	MeanCornerError float64 `json:"mean_corner_error"`
	MaxCornerError  float64 `json:"max_corner_error"`
	// Failures counts failed iterations by cause.
	Failures    map[pipeline.FailureKind]int `json:"failures,omitempty"`
	MemoryStats MemoryMetrics                `json:"memory_stats"`
	CPUStats    CPUMetrics                   `json:"cpu_stats"`
}

// MemoryMetrics captures memory usage statistics
type MemoryMetrics struct {
	AllocBytes      uint64 `json:"alloc_bytes"`
	TotalAllocBytes uint64 `json:"total_alloc_bytes"`
	SysBytes        uint64 `json:"sys_bytes"`
	NumGC           uint32 `json:"num_gc"`
	HeapAllocBytes  uint64 `json:"heap_alloc_bytes"`
	HeapSysBytes    uint64 `json:"heap_sys_bytes"`
}

// CPUMetrics captures CPU usage statistics
type CPUMetrics struct {
	NumCPU int `json:"num_cpu"`
}
