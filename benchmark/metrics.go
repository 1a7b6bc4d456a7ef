// Package benchmark runs blur and counter-contention scenarios repeatedly and
// persists their timing distributions.
package benchmark

import (
	"time"

	"github.com/nvr-ai/go-convolve/profiler"
)

// PerformanceMetrics captures the measured outcome of one scenario.
type PerformanceMetrics struct {
	RunID         string             `json:"run_id"         yaml:"run_id"`
	Scenario      Scenario           `json:"scenario"       yaml:"scenario"`
	Image         ImageInfo          `json:"image"          yaml:"image"`
	Timestamp     time.Time          `json:"timestamp"      yaml:"timestamp"`
	TotalDuration time.Duration      `json:"total_duration" yaml:"total_duration"`
	Timing        profiler.TimeStats `json:"timing"         yaml:"timing"`
	MeanSeconds   float64            `json:"mean_seconds"   yaml:"mean_seconds"`
	MinSeconds    float64            `json:"min_seconds"    yaml:"min_seconds"`
	MaxSeconds    float64            `json:"max_seconds"    yaml:"max_seconds"`
	P50Seconds    float64            `json:"p50_seconds"    yaml:"p50_seconds"`
	P99Seconds    float64            `json:"p99_seconds"    yaml:"p99_seconds"`
	// Speedup is the sequential blur mean divided by this scenario's mean.
	// Only set for blur-parallel once a sequential scenario has run.
	Speedup float64 `json:"speedup,omitempty" yaml:"speedup,omitempty"`
	// Checksum of the last blur output.
	Checksum string `json:"checksum,omitempty" yaml:"checksum,omitempty"`
	// CounterValue and ExpectedValue come from the last counter trial.
	CounterValue  int64 `json:"counter_value,omitempty"  yaml:"counter_value,omitempty"`
	ExpectedValue int64 `json:"expected_value,omitempty" yaml:"expected_value,omitempty"`
	// Mismatches counts repetitions whose blur output differed from the
	// sequential reference or whose counter lost updates.
	Mismatches  int           `json:"mismatches"   yaml:"mismatches"`
	MemoryStats MemoryMetrics `json:"memory_stats" yaml:"memory_stats"`
	CPUStats    CPUMetrics    `json:"cpu_stats"    yaml:"cpu_stats"`
}

// ImageInfo identifies the grid a blur scenario ran on.
type ImageInfo struct {
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	Rows int    `json:"rows,omitempty" yaml:"rows,omitempty"`
	Cols int    `json:"cols,omitempty" yaml:"cols,omitempty"`
}

// MemoryMetrics captures memory usage statistics
type MemoryMetrics struct {
	AllocBytes      uint64 `json:"alloc_bytes"       yaml:"alloc_bytes"`
	TotalAllocBytes uint64 `json:"total_alloc_bytes" yaml:"total_alloc_bytes"`
	SysBytes        uint64 `json:"sys_bytes"         yaml:"sys_bytes"`
	NumGC           uint32 `json:"num_gc"            yaml:"num_gc"`
	HeapAllocBytes  uint64 `json:"heap_alloc_bytes"  yaml:"heap_alloc_bytes"`
	HeapSysBytes    uint64 `json:"heap_sys_bytes"    yaml:"heap_sys_bytes"`
}

// CPUMetrics captures CPU usage statistics
type CPUMetrics struct {
	NumCPU     int `json:"num_cpu"    yaml:"num_cpu"`
	GOMAXPROCS int `json:"gomaxprocs" yaml:"gomaxprocs"`
}

func (m *PerformanceMetrics) applyTiming(stats profiler.TimeStats) {
	m.Timing = stats
	m.MeanSeconds = stats.Mean.Seconds()
	m.MinSeconds = stats.Min.Seconds()
	m.MaxSeconds = stats.Max.Seconds()
	m.P50Seconds = stats.P50.Seconds()
	m.P99Seconds = stats.P99.Seconds()
}
