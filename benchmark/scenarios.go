package benchmark

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/nvr-ai/go-convolve/contention"
	"github.com/nvr-ai/go-convolve/images/kernels"
)

// ScenarioKind selects the operation a scenario measures.
type ScenarioKind string

const (
	KindBlurSequential ScenarioKind = "blur-sequential"
	KindBlurParallel   ScenarioKind = "blur-parallel"
	KindCounterAtomic  ScenarioKind = "counter-atomic"
	KindCounterMutex   ScenarioKind = "counter-mutex"
)

// IsBlur reports whether the kind runs the box blur.
func (k ScenarioKind) IsBlur() bool {
	return k == KindBlurSequential || k == KindBlurParallel
}

// IsCounter reports whether the kind runs a contention trial.
func (k ScenarioKind) IsCounter() bool {
	return k == KindCounterAtomic || k == KindCounterMutex
}

// Scenario defines one measured configuration.
type Scenario struct {
	Name string       `json:"name" yaml:"name"`
	Kind ScenarioKind `json:"kind" yaml:"kind"`
	// Threads is the strip worker count for blur-parallel and the goroutine
	// count for counter kinds. Ignored by blur-sequential.
	Threads int `json:"threads" yaml:"threads"`
	// Iterations is the per-worker increment count for counter kinds.
	Iterations int `json:"iterations,omitempty" yaml:"iterations,omitempty"`
	// Repetitions is how many measured runs make up the scenario.
	Repetitions int `json:"repetitions" yaml:"repetitions"`
	// WarmupRuns are executed before measuring and are not recorded.
	WarmupRuns int `json:"warmup_runs" yaml:"warmup_runs"`
}

// Validate rejects scenarios the suite cannot run.
func (s Scenario) Validate() error {
	if !s.Kind.IsBlur() && !s.Kind.IsCounter() {
		return errors.Errorf("scenario %q: unknown kind %q", s.Name, s.Kind)
	}
	if s.Repetitions <= 0 {
		return errors.Errorf("scenario %q: repetitions must be positive", s.Name)
	}
	if s.WarmupRuns < 0 {
		return errors.Errorf("scenario %q: warmup runs cannot be negative", s.Name)
	}
	return nil
}

// ScenarioBuilder helps build scenarios with a fluent API.
type ScenarioBuilder struct {
	scenario Scenario
}

// NewScenarioBuilder creates a builder with the package defaults.
func NewScenarioBuilder(name string) *ScenarioBuilder {
	return &ScenarioBuilder{
		scenario: Scenario{
			Name:        name,
			Kind:        KindBlurSequential,
			Threads:     kernels.DefaultThreads,
			Repetitions: 5,
			WarmupRuns:  1,
		},
	}
}

// WithKind sets the measured operation.
func (sb *ScenarioBuilder) WithKind(kind ScenarioKind) *ScenarioBuilder {
	sb.scenario.Kind = kind
	return sb
}

// WithThreads sets the worker count.
func (sb *ScenarioBuilder) WithThreads(threads int) *ScenarioBuilder {
	sb.scenario.Threads = threads
	return sb
}

// WithIterations sets the per-worker increment count of counter scenarios.
func (sb *ScenarioBuilder) WithIterations(iterations int) *ScenarioBuilder {
	sb.scenario.Iterations = iterations
	return sb
}

// WithRepetitions sets the number of measured runs.
func (sb *ScenarioBuilder) WithRepetitions(repetitions int) *ScenarioBuilder {
	sb.scenario.Repetitions = repetitions
	return sb
}

// WithWarmupRuns sets the number of warmup runs.
func (sb *ScenarioBuilder) WithWarmupRuns(warmups int) *ScenarioBuilder {
	sb.scenario.WarmupRuns = warmups
	return sb
}

// Build returns the configured scenario.
func (sb *ScenarioBuilder) Build() Scenario {
	s := sb.scenario
	if s.Kind.IsCounter() && s.Iterations <= 0 {
		s.Iterations = contention.DefaultIterations
	}
	return s
}

// ScenarioSet represents a collection of related scenarios.
type ScenarioSet struct {
	Name        string     `json:"name"        yaml:"name"`
	Description string     `json:"description" yaml:"description"`
	Scenarios   []Scenario `json:"scenarios"   yaml:"scenarios"`
}

// Split separates the scenarios that blur the suite's grid from those that
// do not depend on it, keeping their order.
func (ss *ScenarioSet) Split() (blur, counter []Scenario) {
	for _, s := range ss.Scenarios {
		if s.Kind.IsBlur() {
			blur = append(blur, s)
		} else {
			counter = append(counter, s)
		}
	}
	return blur, counter
}

// PredefinedScenarios contains common scenario sets.
type PredefinedScenarios struct {
	Repetitions int
	WarmupRuns  int
}

func (ps *PredefinedScenarios) builder(name string) *ScenarioBuilder {
	b := NewScenarioBuilder(name)
	if ps.Repetitions > 0 {
		b.WithRepetitions(ps.Repetitions)
	}
	if ps.WarmupRuns > 0 {
		b.WithWarmupRuns(ps.WarmupRuns)
	}
	return b
}

// GetQuickScenarios returns the sequential blur, the parallel blur at the given
// thread count, and both counter trials.
func (ps *PredefinedScenarios) GetQuickScenarios(threads, workers, iterations int) *ScenarioSet {
	return &ScenarioSet{
		Name:        "Quick Comparison",
		Description: "Sequential vs parallel blur and atomic vs mutex counter",
		Scenarios: []Scenario{
			ps.builder("blur_sequential").
				WithKind(KindBlurSequential).
				Build(),
			ps.builder(fmt.Sprintf("blur_parallel_t%d", threads)).
				WithKind(KindBlurParallel).
				WithThreads(threads).
				Build(),
			ps.builder(fmt.Sprintf("counter_atomic_w%d", workers)).
				WithKind(KindCounterAtomic).
				WithThreads(workers).
				WithIterations(iterations).
				Build(),
			ps.builder(fmt.Sprintf("counter_mutex_w%d", workers)).
				WithKind(KindCounterMutex).
				WithThreads(workers).
				WithIterations(iterations).
				Build(),
		},
	}
}

// GetThreadSweepScenarios measures every worker count from 1 to maxThreads,
// preceded by the sequential baseline.
func (ps *PredefinedScenarios) GetThreadSweepScenarios(maxThreads, iterations int) *ScenarioSet {
	maxThreads = max(maxThreads, 1)
	scenarios := []Scenario{
		ps.builder("blur_sequential").WithKind(KindBlurSequential).Build(),
	}

	for t := 1; t <= maxThreads; t++ {
		scenarios = append(scenarios,
			ps.builder(fmt.Sprintf("blur_parallel_t%d", t)).
				WithKind(KindBlurParallel).
				WithThreads(t).
				Build(),
			ps.builder(fmt.Sprintf("counter_atomic_w%d", t)).
				WithKind(KindCounterAtomic).
				WithThreads(t).
				WithIterations(iterations).
				Build(),
			ps.builder(fmt.Sprintf("counter_mutex_w%d", t)).
				WithKind(KindCounterMutex).
				WithThreads(t).
				WithIterations(iterations).
				Build(),
		)
	}

	return &ScenarioSet{
		Name:        "Thread Sweep",
		Description: fmt.Sprintf("Blur and counter scaling from 1 to %d workers", maxThreads),
		Scenarios:   scenarios,
	}
}

// SaveScenarioSet writes a scenario set as YAML.
func SaveScenarioSet(scenarioSet *ScenarioSet, filename string) error {
	data, err := yaml.Marshal(scenarioSet)
	if err != nil {
		return errors.Wrap(err, "failed to marshal scenario set")
	}

	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to write scenario file")
	}

	return nil
}

// LoadScenarioSet reads a scenario set from a YAML or JSON file and validates
// every scenario in it.
func LoadScenarioSet(filename string) (*ScenarioSet, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read scenario file")
	}

	var scenarioSet ScenarioSet
	if err := yaml.Unmarshal(data, &scenarioSet); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal scenario set")
	}

	for _, s := range scenarioSet.Scenarios {
		if err := s.Validate(); err != nil {
			return nil, err
		}
	}

	return &scenarioSet, nil
}
