// Package profiler provides the wall-clock instrumentation shared by the blur
// and contention benchmarks: single timing samples and per-operation trackers
// that aggregate repeated samples into a latency distribution.
package profiler

import (
	"log"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Sample brackets one execution with a start and end instant.
type Sample struct {
	Start time.Time `json:"start" yaml:"start"`
	End   time.Time `json:"end"   yaml:"end"`
}

// Start opens a sample at the current instant.
func Start() Sample {
	return Sample{Start: time.Now()}
}

// Stop closes the sample at the current instant.
func (s Sample) Stop() Sample {
	s.End = time.Now()
	return s
}

// Duration returns End - Start, or zero for an open sample.
func (s Sample) Duration() time.Duration {
	if s.End.IsZero() {
		return 0
	}
	return s.End.Sub(s.Start)
}

// Seconds returns the duration as floating-point seconds.
func (s Sample) Seconds() float64 {
	return s.Duration().Seconds()
}

// Measure runs fn and returns the sample around it.
//
// Arguments:
// - fn: The operation to time.
//
// Returns:
// - The closed timing sample.
func Measure(fn func()) Sample {
	s := Start()
	fn()
	return s.Stop()
}

// TimeTracker aggregates repeated timings of one named operation.
//
// Latencies are kept in an HDR histogram (1ns to 10min, 3 significant digits)
// so percentiles stay cheap no matter how many samples are recorded.
type TimeTracker struct {
	mu        sync.Mutex
	name      string
	hist      *hdrhistogram.Histogram
	totalTime time.Duration
	minTime   time.Duration
	maxTime   time.Duration
	count     int64
}

// TimeStats is a snapshot of a TimeTracker.
type TimeStats struct {
	Name  string        `json:"name"  yaml:"name"`
	Count int64         `json:"count" yaml:"count"`
	Total time.Duration `json:"total" yaml:"total"`
	Min   time.Duration `json:"min"   yaml:"min"`
	Max   time.Duration `json:"max"   yaml:"max"`
	Mean  time.Duration `json:"mean"  yaml:"mean"`
	P50   time.Duration `json:"p50"   yaml:"p50"`
	P90   time.Duration `json:"p90"   yaml:"p90"`
	P99   time.Duration `json:"p99"   yaml:"p99"`
}

// NewTimeTracker creates an empty tracker for the named operation.
func NewTimeTracker(name string) *TimeTracker {
	return &TimeTracker{
		name: name,
		hist: hdrhistogram.New(1, int64(10*time.Minute), 3),
	}
}

// Name returns the tracked operation name.
func (t *TimeTracker) Name() string {
	return t.name
}

// Record adds one duration.
func (t *TimeTracker) Record(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ns := min(max(d.Nanoseconds(), t.hist.LowestTrackableValue()), t.hist.HighestTrackableValue())
	if err := t.hist.RecordValue(ns); err != nil {
		log.Printf("profiler: %s: failed to record %v: %v", t.name, d, err)
	}

	if t.count == 0 || d < t.minTime {
		t.minTime = d
	}
	if d > t.maxTime {
		t.maxTime = d
	}
	t.totalTime += d
	t.count++
}

// RecordSample adds the duration of a closed sample.
func (t *TimeTracker) RecordSample(s Sample) {
	t.Record(s.Duration())
}

// StartOperation begins timing an operation and returns the function that records it.
func (t *TimeTracker) StartOperation() func() {
	s := Start()
	return func() {
		t.RecordSample(s.Stop())
	}
}

// Stats returns the current aggregate. Percentiles carry three significant digits.
func (t *TimeTracker) Stats() TimeStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	stats := TimeStats{
		Name:  t.name,
		Count: t.count,
		Total: t.totalTime,
		Min:   t.minTime,
		Max:   t.maxTime,
	}
	if t.count > 0 {
		stats.Mean = time.Duration(int64(t.totalTime) / t.count)
		stats.P50 = time.Duration(t.hist.ValueAtQuantile(50))
		stats.P90 = time.Duration(t.hist.ValueAtQuantile(90))
		stats.P99 = time.Duration(t.hist.ValueAtQuantile(99))
	}
	return stats
}

// Reset discards every recorded duration.
func (t *TimeTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.hist.Reset()
	t.totalTime, t.minTime, t.maxTime, t.count = 0, 0, 0, 0
}
