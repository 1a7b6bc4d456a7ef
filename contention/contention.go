// Package contention measures how two synchronization primitives behave when
// many goroutines increment one shared counter.
//
// A benchmark run is two independent trials over fresh counters: one using a
// lock-free atomic add, one taking a mutex around every single increment. Both
// must end at exactly Workers*Iterations; anything less is a lost update.
package contention

import (
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-convolve/profiler"
)

const (
	// DefaultWorkers is the goroutine count used when Options.Workers is not positive.
	DefaultWorkers = 4
	// DefaultIterations is the per-worker increment count used when Options.Iterations is not positive.
	DefaultIterations = 1_000_000
)

// ErrLostUpdates is returned when a trial's final count is below Workers*Iterations.
var ErrLostUpdates = errors.New("counter lost updates")

// Primitive names the synchronization strategy of a trial.
type Primitive string

const (
	PrimitiveAtomic Primitive = "atomic"
	PrimitiveMutex  Primitive = "mutex"
)

// Options configures a benchmark run.
type Options struct {
	Workers    int `json:"workers"    yaml:"workers"`
	Iterations int `json:"iterations" yaml:"iterations"`
}

func (o *Options) normalize() {
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}
	if o.Iterations <= 0 {
		o.Iterations = DefaultIterations
	}
}

// Trial is the outcome of one primitive under contention.
type Trial struct {
	Primitive  Primitive       `json:"primitive"  yaml:"primitive"`
	Workers    int             `json:"workers"    yaml:"workers"`
	Iterations int             `json:"iterations" yaml:"iterations"`
	Value      int64           `json:"value"      yaml:"value"`
	Sample     profiler.Sample `json:"-"          yaml:"-"`
	Elapsed    time.Duration   `json:"elapsed"    yaml:"elapsed"`
}

// Expected returns the count a correct primitive must reach.
func (t Trial) Expected() int64 {
	return int64(t.Workers) * int64(t.Iterations)
}

// Lost returns how many increments went missing.
func (t Trial) Lost() int64 {
	return t.Expected() - t.Value
}

// Seconds returns the trial's wall time in seconds.
func (t Trial) Seconds() float64 {
	return t.Elapsed.Seconds()
}

// Check returns ErrLostUpdates if the final value is off.
func (t Trial) Check() error {
	if t.Value != t.Expected() {
		return errors.Wrapf(ErrLostUpdates, "%s counter: got %d, want %d", t.Primitive, t.Value, t.Expected())
	}
	return nil
}

// Report holds both trials of one benchmark run.
type Report struct {
	Atomic Trial `json:"atomic" yaml:"atomic"`
	Mutex  Trial `json:"mutex"  yaml:"mutex"`
}

// MutexOverhead returns mutex wall time divided by atomic wall time.
// It returns 0 when the atomic trial took no measurable time.
func (r Report) MutexOverhead() float64 {
	if r.Atomic.Elapsed <= 0 {
		return 0
	}
	return float64(r.Mutex.Elapsed) / float64(r.Atomic.Elapsed)
}

// Run executes the atomic trial followed by the mutex trial, each on its own
// fresh counter.
//
// Returns:
//   - Report: Both trials, populated even when an error is returned.
//   - error: ErrLostUpdates if either trial ended below Workers*Iterations.
func Run(opts Options) (Report, error) {
	report := Report{
		Atomic: RunTrial(PrimitiveAtomic, opts),
		Mutex:  RunTrial(PrimitiveMutex, opts),
	}

	if err := report.Atomic.Check(); err != nil {
		return report, err
	}
	if err := report.Mutex.Check(); err != nil {
		return report, err
	}
	return report, nil
}

// RunTrial runs one primitive. Unknown primitives fall back to the atomic counter.
func RunTrial(p Primitive, opts Options) Trial {
	opts.normalize()

	var c Counter
	switch p {
	case PrimitiveMutex:
		c = &MutexCounter{}
	default:
		p = PrimitiveAtomic
		c = &AtomicCounter{}
	}

	sample := hammer(c, opts.Workers, opts.Iterations)
	return Trial{
		Primitive:  p,
		Workers:    opts.Workers,
		Iterations: opts.Iterations,
		Value:      c.Load(),
		Sample:     sample,
		Elapsed:    sample.Duration(),
	}
}

// hammer starts workers goroutines that each call c.Inc iterations times and
// waits for all of them. The returned sample brackets spawn through join.
func hammer(c Counter, workers, iterations int) profiler.Sample {
	var wg sync.WaitGroup
	wg.Add(workers)

	sample := profiler.Start()
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				c.Inc()
			}
		}()
	}
	wg.Wait()
	return sample.Stop()
}
