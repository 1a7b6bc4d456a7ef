// Package config holds the runtime settings of the convolve tool and loads
// them from defaults, an optional YAML or JSON file and command-line flags.
package config

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-convolve/contention"
	"github.com/nvr-ai/go-convolve/images"
	"github.com/nvr-ai/go-convolve/images/kernels"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the full set of tool settings.
type Config struct {
	Input            string `mapstructure:"input"             json:"input"             yaml:"input"`
	OutputSequential string `mapstructure:"output_sequential" json:"output_sequential" yaml:"output_sequential"`
	OutputParallel   string `mapstructure:"output_parallel"   json:"output_parallel"   yaml:"output_parallel"`
	MaxDimension     int    `mapstructure:"max_dimension"     json:"max_dimension"     yaml:"max_dimension"`

	Blur    BlurConfig    `mapstructure:"blur"    json:"blur"    yaml:"blur"`
	Counter CounterConfig `mapstructure:"counter" json:"counter" yaml:"counter"`
	Bench   BenchConfig   `mapstructure:"bench"   json:"bench"   yaml:"bench"`
}

type BlurConfig struct {
	Threads int `mapstructure:"threads" json:"threads" yaml:"threads"`
}

type CounterConfig struct {
	Workers    int `mapstructure:"workers"    json:"workers"    yaml:"workers"`
	Iterations int `mapstructure:"iterations" json:"iterations" yaml:"iterations"`
}

// BenchConfig drives the benchmark suite.
type BenchConfig struct {
	Repetitions int    `mapstructure:"repetitions" json:"repetitions" yaml:"repetitions"`
	Warmup      int    `mapstructure:"warmup"      json:"warmup"      yaml:"warmup"`
	OutputDir   string `mapstructure:"output_dir"  json:"output_dir"  yaml:"output_dir"`
	Format      string `mapstructure:"format"      json:"format"      yaml:"format"`
	Resolution  string `mapstructure:"resolution"  json:"resolution"  yaml:"resolution"`
	Images      string `mapstructure:"images"      json:"images"      yaml:"images"`
	Scenarios   string `mapstructure:"scenarios"   json:"scenarios"   yaml:"scenarios"`
	Sweep       bool   `mapstructure:"sweep"       json:"sweep"       yaml:"sweep"`
	// Baseline is a results file of an earlier run to compare against.
	Baseline string `mapstructure:"baseline" json:"baseline" yaml:"baseline"`
	// Tolerance is the mean-time increase in percent tolerated against Baseline.
	Tolerance float64 `mapstructure:"tolerance" json:"tolerance" yaml:"tolerance"`
}

// Default returns the settings used when neither a file nor a flag says otherwise.
func Default() Config {
	return Config{
		OutputSequential: "output_sequential.png",
		OutputParallel:   "output_parallel.png",
		Blur: BlurConfig{
			Threads: kernels.DefaultThreads,
		},
		Counter: CounterConfig{
			Workers:    contention.DefaultWorkers,
			Iterations: contention.DefaultIterations,
		},
		Bench: BenchConfig{
			Repetitions: 5,
			Warmup:      1,
			OutputDir:   "./benchmark_results",
			Format:      "json",
			Resolution:  string(images.ResolutionTypeHD720p),
			Tolerance:   10,
		},
	}
}

// ValidationError lists every problem found in a Config.
type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return ErrInvalidConfig.Error()
	}
	return fmt.Sprintf("%s: %s", ErrInvalidConfig, strings.Join(e.issues, "; "))
}

// Issues returns a copy of the individual problems.
func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

// Is reports ValidationError as ErrInvalidConfig.
func (e ValidationError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// Validate checks the settings shared by every command.
func (c Config) Validate() error {
	var issues []string

	if c.Blur.Threads <= 0 {
		issues = append(issues, "blur.threads must be positive")
	}
	if c.Counter.Workers <= 0 {
		issues = append(issues, "counter.workers must be positive")
	}
	if c.Counter.Iterations <= 0 {
		issues = append(issues, "counter.iterations must be positive")
	}
	if c.MaxDimension < 0 {
		issues = append(issues, "max_dimension must not be negative")
	}
	issues = append(issues, validateBench(c.Bench)...)

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}

// ValidateBlur additionally requires an input image and both output paths.
func (c Config) ValidateBlur() error {
	err := c.Validate()

	var issues []string
	if ve, ok := err.(ValidationError); ok {
		issues = ve.Issues()
	}
	if strings.TrimSpace(c.Input) == "" {
		issues = append(issues, "input is required")
	}
	if strings.TrimSpace(c.OutputSequential) == "" {
		issues = append(issues, "output_sequential is required")
	}
	if strings.TrimSpace(c.OutputParallel) == "" {
		issues = append(issues, "output_parallel is required")
	}

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}

func validateBench(b BenchConfig) []string {
	var issues []string
	if b.Repetitions <= 0 {
		issues = append(issues, "bench.repetitions must be positive")
	}
	if b.Warmup < 0 {
		issues = append(issues, "bench.warmup must not be negative")
	}
	switch strings.ToLower(b.Format) {
	case "json", "yaml":
	default:
		issues = append(issues, fmt.Sprintf("bench.format %q is not one of json, yaml", b.Format))
	}
	if b.Tolerance < 0 {
		issues = append(issues, "bench.tolerance must not be negative")
	}
	if b.Resolution != "" {
		if _, ok := images.GetResolutionByType(images.ResolutionType(b.Resolution)); !ok {
			issues = append(issues, fmt.Sprintf("bench.resolution %q is unknown", b.Resolution))
		}
	}
	return issues
}
