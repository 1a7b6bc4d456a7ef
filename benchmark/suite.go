package benchmark

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/nvr-ai/go-convolve/contention"
	"github.com/nvr-ai/go-convolve/images"
	"github.com/nvr-ai/go-convolve/images/kernels"
	"github.com/nvr-ai/go-convolve/profiler"
)

// ReportFormat selects the encoding of the detailed results file.
type ReportFormat string

const (
	ReportJSON ReportFormat = "json"
	ReportYAML ReportFormat = "yaml"
)

// ErrNoGrid is returned when a blur scenario runs before SetGrid.
var ErrNoGrid = errors.New("no input grid configured")

// Suite manages and executes benchmark scenarios.
type Suite struct {
	runID     string
	scenarios []Scenario
	outputDir string
	format    ReportFormat
	mu        sync.RWMutex
	results   []PerformanceMetrics

	grid      *images.Grid
	image     ImageInfo
	reference string        // checksum of the sequential blur of grid
	seqMean   time.Duration // mean of the last blur-sequential scenario on grid
}

// NewSuiteArgs represents the arguments for creating a new benchmark suite.
type NewSuiteArgs struct {
	OutputPath string       `json:"outputPath" yaml:"outputPath"`
	Format     ReportFormat `json:"format"     yaml:"format"`
}

// NewSuite creates a new benchmark suite with a fresh run identifier.
//
// Arguments:
//   - args: The arguments for creating a new benchmark suite.
//
// Returns:
//   - *Suite: The benchmark suite.
func NewSuite(args NewSuiteArgs) *Suite {
	format := ReportFormat(strings.ToLower(strings.TrimSpace(string(args.Format))))
	if format == "" {
		format = ReportJSON
	}

	return &Suite{
		runID:     ulid.Make().String(),
		outputDir: args.OutputPath,
		format:    format,
		scenarios: make([]Scenario, 0),
		results:   make([]PerformanceMetrics, 0),
	}
}

// RunID returns the identifier stamped on every result of this suite.
func (bs *Suite) RunID() string {
	return bs.runID
}

// AddScenario adds a scenario to the benchmark suite
func (bs *Suite) AddScenario(scenario Scenario) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.scenarios = append(bs.scenarios, scenario)
}

// AddScenarioSet adds every scenario of the set.
func (bs *Suite) AddScenarioSet(set *ScenarioSet) {
	for _, s := range set.Scenarios {
		bs.AddScenario(s)
	}
}

// Scenarios returns a copy of the configured scenarios.
func (bs *Suite) Scenarios() []Scenario {
	bs.mu.RLock()
	defer bs.mu.RUnlock()

	out := make([]Scenario, len(bs.scenarios))
	copy(out, bs.scenarios)
	return out
}

// SetGrid selects the grid blur scenarios run on and computes its sequential
// reference checksum.
//
// Returns:
//   - error: kernels.ErrSizeViolation for grids smaller than 3x3, or any grid validation error.
func (bs *Suite) SetGrid(name string, grid *images.Grid) error {
	ref, err := kernels.BoxBlur(grid)
	if err != nil {
		return errors.Wrapf(err, "reference blur of %s", name)
	}

	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.grid = grid
	bs.image = ImageInfo{Name: name, Rows: grid.Rows, Cols: grid.Cols}
	bs.reference = images.ComputeGridChecksum(ref)
	bs.seqMean = 0
	return nil
}

// RunScenario executes a single scenario: warmups, then Repetitions measured runs.
// The context is checked between runs; a run in progress is never interrupted.
func (bs *Suite) RunScenario(ctx context.Context, scenario Scenario) (*PerformanceMetrics, error) {
	if err := scenario.Validate(); err != nil {
		return nil, err
	}

	bs.mu.RLock()
	grid, info, reference, seqMean := bs.grid, bs.image, bs.reference, bs.seqMean
	bs.mu.RUnlock()

	if scenario.Kind.IsBlur() && grid == nil {
		return nil, errors.Wrapf(ErrNoGrid, "scenario %s", scenario.Name)
	}

	var run runFunc
	if scenario.Kind.IsBlur() {
		run = bs.blurRun(scenario, grid, reference)
	} else {
		run = bs.counterRun(scenario)
	}

	metrics := &PerformanceMetrics{
		RunID:     bs.runID,
		Scenario:  scenario,
		Timestamp: time.Now(),
	}
	if scenario.Kind.IsBlur() {
		metrics.Image = info
	}

	for i := 0; i < scenario.WarmupRuns; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, err := run(metrics); err != nil {
			return nil, errors.Wrapf(err, "scenario %s warmup", scenario.Name)
		}
	}
	metrics.Mismatches = 0

	var startMem runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&startMem)

	tracker := profiler.NewTimeTracker(scenario.Name)
	total := profiler.Start()
	for i := 0; i < scenario.Repetitions; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sample, err := run(metrics)
		if err != nil {
			return nil, errors.Wrapf(err, "scenario %s repetition %d", scenario.Name, i)
		}
		tracker.RecordSample(sample)
	}
	metrics.TotalDuration = total.Stop().Duration()

	var endMem runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&endMem)

	metrics.applyTiming(tracker.Stats())
	metrics.MemoryStats = MemoryMetrics{
		AllocBytes:      endMem.Alloc,
		TotalAllocBytes: endMem.TotalAlloc - startMem.TotalAlloc,
		SysBytes:        endMem.Sys,
		NumGC:           endMem.NumGC - startMem.NumGC,
		HeapAllocBytes:  endMem.HeapAlloc,
		HeapSysBytes:    endMem.HeapSys,
	}
	metrics.CPUStats = CPUMetrics{
		NumCPU:     runtime.NumCPU(),
		GOMAXPROCS: runtime.GOMAXPROCS(0),
	}

	switch scenario.Kind {
	case KindBlurSequential:
		bs.mu.Lock()
		if bs.grid == grid {
			bs.seqMean = metrics.Timing.Mean
		}
		bs.mu.Unlock()
	case KindBlurParallel:
		if seqMean > 0 && metrics.Timing.Mean > 0 {
			metrics.Speedup = float64(seqMean) / float64(metrics.Timing.Mean)
		}
	}

	return metrics, nil
}

// runFunc performs one run, updates the scenario-specific fields of m and
// returns the timing sample of the measured region.
type runFunc func(m *PerformanceMetrics) (profiler.Sample, error)

func (bs *Suite) blurRun(scenario Scenario, grid *images.Grid, reference string) runFunc {
	return func(m *PerformanceMetrics) (profiler.Sample, error) {
		var out *images.Grid
		var err error

		sample := profiler.Measure(func() {
			if scenario.Kind == KindBlurParallel {
				out, err = kernels.BoxBlurParallel(grid, kernels.Options{Threads: scenario.Threads})
				return
			}
			out, err = kernels.BoxBlur(grid)
		})
		if err != nil {
			return sample, err
		}

		m.Checksum = images.ComputeGridChecksum(out)
		if m.Checksum != reference {
			m.Mismatches++
		}
		return sample, nil
	}
}

func (bs *Suite) counterRun(scenario Scenario) runFunc {
	primitive := contention.PrimitiveAtomic
	if scenario.Kind == KindCounterMutex {
		primitive = contention.PrimitiveMutex
	}
	opts := contention.Options{Workers: scenario.Threads, Iterations: scenario.Iterations}

	return func(m *PerformanceMetrics) (profiler.Sample, error) {
		trial := contention.RunTrial(primitive, opts)
		m.CounterValue = trial.Value
		m.ExpectedValue = trial.Expected()
		if trial.Check() != nil {
			m.Mismatches++
		}
		return trial.Sample, nil
	}
}

// RunAllScenarios executes all configured scenarios in order and appends
// their metrics to the results. A failing scenario is logged and skipped;
// cancellation stops the run.
func (bs *Suite) RunAllScenarios(ctx context.Context) error {
	return bs.RunScenarios(ctx, bs.Scenarios())
}

// RunScenarios is RunAllScenarios for an explicit list, which need not have
// been added to the suite.
func (bs *Suite) RunScenarios(ctx context.Context, scenarios []Scenario) error {
	for _, scenario := range scenarios {
		metrics, err := bs.RunScenario(ctx, scenario)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("Scenario %s failed: %v", scenario.Name, err)
			continue
		}

		bs.mu.Lock()
		bs.results = append(bs.results, *metrics)
		bs.mu.Unlock()

		log.Printf("Scenario %s completed: mean %.6fs p99 %.6fs mismatches %d",
			scenario.Name, metrics.MeanSeconds, metrics.P99Seconds, metrics.Mismatches)
	}

	return nil
}

// SaveResults persists results to the output directory: a detailed JSON or
// YAML file and a CSV summary.
//
// Returns:
//   - []string: The written file paths.
//   - error: An error if a file cannot be written.
func (bs *Suite) SaveResults() ([]string, error) {
	results := bs.GetResults()

	if err := os.MkdirAll(bs.outputDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create output directory")
	}

	var (
		data []byte
		err  error
	)
	switch bs.format {
	case ReportYAML:
		data, err = yaml.Marshal(results)
	case ReportJSON:
		data, err = json.MarshalIndent(results, "", "  ")
	default:
		return nil, errors.Errorf("unsupported report format %q", bs.format)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal results")
	}

	base := fmt.Sprintf("benchmark_%s", strings.ToLower(bs.runID))
	resultsFile := filepath.Join(bs.outputDir, base+"_results."+string(bs.format))
	if err := os.WriteFile(resultsFile, data, 0o644); err != nil {
		return nil, errors.Wrap(err, "failed to write results file")
	}

	summaryFile := filepath.Join(bs.outputDir, base+"_summary.csv")
	if err := saveSummaryCSV(summaryFile, results); err != nil {
		return nil, errors.Wrap(err, "failed to save summary CSV")
	}

	log.Printf("Results saved to: %s", resultsFile)
	log.Printf("Summary saved to: %s", summaryFile)

	return []string{resultsFile, summaryFile}, nil
}

func saveSummaryCSV(filename string, results []PerformanceMetrics) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	header := "Scenario,Kind,Threads,Image,Repetitions,Mean_s,P50_s,P99_s,Min_s,Max_s,Speedup,Counter,Expected,Mismatches\n"
	if _, err := file.WriteString(header); err != nil {
		return err
	}

	for _, r := range results {
		line := fmt.Sprintf("%s,%s,%d,%s,%d,%.6f,%.6f,%.6f,%.6f,%.6f,%.3f,%d,%d,%d\n",
			r.Scenario.Name,
			r.Scenario.Kind,
			r.Scenario.Threads,
			r.Image.Name,
			r.Scenario.Repetitions,
			r.MeanSeconds,
			r.P50Seconds,
			r.P99Seconds,
			r.MinSeconds,
			r.MaxSeconds,
			r.Speedup,
			r.CounterValue,
			r.ExpectedValue,
			r.Mismatches,
		)
		if _, err := file.WriteString(line); err != nil {
			return err
		}
	}

	return nil
}

// GetResults returns all benchmark results
func (bs *Suite) GetResults() []PerformanceMetrics {
	bs.mu.RLock()
	defer bs.mu.RUnlock()

	results := make([]PerformanceMetrics, len(bs.results))
	copy(results, bs.results)
	return results
}
