package benchmark

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ErrRegression is returned by CompareWithBaseline when a scenario regressed.
var ErrRegression = errors.New("performance regression")

// ToleranceConfig defines how much a scenario may change before it is flagged.
type ToleranceConfig struct {
	// DurationPercent is the mean-time increase tolerated before a regression.
	DurationPercent float64 `json:"duration_percent" yaml:"duration_percent"`
	// AllocPercent is the total-allocation increase tolerated before a regression.
	AllocPercent float64 `json:"alloc_percent" yaml:"alloc_percent"`
}

// NewDefaultToleranceConfig returns thresholds suited to noisy CI machines.
func NewDefaultToleranceConfig() ToleranceConfig {
	return ToleranceConfig{
		DurationPercent: 10.0,
		AllocPercent:    15.0,
	}
}

// ComparisonStatus classifies one scenario against its baseline.
type ComparisonStatus string

const (
	StatusStable      ComparisonStatus = "stable"
	StatusRegression  ComparisonStatus = "regression"
	StatusImprovement ComparisonStatus = "improvement"
	StatusNew         ComparisonStatus = "new"
)

// Comparison is the change of one scenario between two runs.
type Comparison struct {
	Scenario       string           `json:"scenario"        yaml:"scenario"`
	Image          string           `json:"image,omitempty" yaml:"image,omitempty"`
	BaselineMean   float64          `json:"baseline_mean"   yaml:"baseline_mean"`
	CurrentMean    float64          `json:"current_mean"    yaml:"current_mean"`
	DurationChange float64          `json:"duration_change" yaml:"duration_change"`
	AllocChange    float64          `json:"alloc_change"    yaml:"alloc_change"`
	Status         ComparisonStatus `json:"status"          yaml:"status"`
	Notes          []string         `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// RegressionReport summarizes a comparison of two result sets.
type RegressionReport struct {
	Comparisons    []Comparison `json:"comparisons"     yaml:"comparisons"`
	HasRegression  bool         `json:"has_regression"  yaml:"has_regression"`
	HasImprovement bool         `json:"has_improvement" yaml:"has_improvement"`
	Summary        string       `json:"summary"         yaml:"summary"`
}

// Regressions returns only the regressed comparisons.
func (r *RegressionReport) Regressions() []Comparison {
	var out []Comparison
	for _, c := range r.Comparisons {
		if c.Status == StatusRegression {
			out = append(out, c)
		}
	}
	return out
}

// LoadResults reads a results file written by SaveResults. Files ending in
// .json are decoded as JSON, everything else as YAML.
func LoadResults(path string) ([]PerformanceMetrics, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read results file")
	}

	var results []PerformanceMetrics
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &results)
	} else {
		err = yaml.Unmarshal(data, &results)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode results file %s", path)
	}
	return results, nil
}

// CompareResults matches current against baseline by scenario and image name.
// Scenarios missing from the baseline are reported as new. A scenario with
// mismatches is always a regression, whatever its timing.
//
// Arguments:
//   - baseline: Results of the reference run.
//   - current: Results of the run under test.
//   - tol: Thresholds in percent.
//
// Returns:
//   - *RegressionReport: One comparison per current result, in current order.
func CompareResults(baseline, current []PerformanceMetrics, tol ToleranceConfig) *RegressionReport {
	index := make(map[string]PerformanceMetrics, len(baseline))
	for _, b := range baseline {
		index[resultKey(b)] = b
	}

	report := &RegressionReport{Comparisons: make([]Comparison, 0, len(current))}
	for _, cur := range current {
		c := Comparison{
			Scenario:    cur.Scenario.Name,
			Image:       cur.Image.Name,
			CurrentMean: cur.MeanSeconds,
			Status:      StatusStable,
		}

		base, ok := index[resultKey(cur)]
		if !ok {
			c.Status = StatusNew
		} else {
			c.BaselineMean = base.MeanSeconds
			c.DurationChange = percentChange(base.MeanSeconds, cur.MeanSeconds)
			c.AllocChange = percentChange(float64(base.MemoryStats.TotalAllocBytes), float64(cur.MemoryStats.TotalAllocBytes))

			if c.DurationChange > tol.DurationPercent {
				c.Status = StatusRegression
				c.Notes = append(c.Notes, fmt.Sprintf("mean time increased by %.1f%% (threshold: %.1f%%)", c.DurationChange, tol.DurationPercent))
			} else if c.DurationChange < -tol.DurationPercent {
				c.Status = StatusImprovement
				c.Notes = append(c.Notes, fmt.Sprintf("mean time improved by %.1f%%", -c.DurationChange))
			}
			if c.AllocChange > tol.AllocPercent {
				c.Status = StatusRegression
				c.Notes = append(c.Notes, fmt.Sprintf("allocations increased by %.1f%% (threshold: %.1f%%)", c.AllocChange, tol.AllocPercent))
			}
		}
		if cur.Mismatches > 0 {
			c.Status = StatusRegression
			c.Notes = append(c.Notes, fmt.Sprintf("%d mismatched repetitions", cur.Mismatches))
		}

		switch c.Status {
		case StatusRegression:
			report.HasRegression = true
		case StatusImprovement:
			report.HasImprovement = true
		}
		report.Comparisons = append(report.Comparisons, c)
	}

	report.Summary = summarize(report, tol)
	return report
}

// CompareWithBaseline compares the suite's results against a results file
// from an earlier run.
//
// Returns:
//   - *RegressionReport: The comparison, also returned alongside ErrRegression.
//   - error: ErrRegression if any scenario regressed, or a load error.
func (bs *Suite) CompareWithBaseline(path string, tol ToleranceConfig) (*RegressionReport, error) {
	baseline, err := LoadResults(path)
	if err != nil {
		return nil, err
	}

	report := CompareResults(baseline, bs.GetResults(), tol)
	for _, c := range report.Comparisons {
		if len(c.Notes) > 0 {
			log.Printf("Scenario %s %s: %s", c.Scenario, c.Status, strings.Join(c.Notes, "; "))
		}
	}
	log.Print(report.Summary)

	if report.HasRegression {
		return report, errors.Wrap(ErrRegression, report.Summary)
	}
	return report, nil
}

func resultKey(m PerformanceMetrics) string {
	return m.Scenario.Name + "\x00" + m.Image.Name
}

// percentChange returns the change from base to cur in percent, or 0 when
// base is not positive.
func percentChange(base, cur float64) float64 {
	if base <= 0 {
		return 0
	}
	return (cur - base) / base * 100
}

func summarize(report *RegressionReport, tol ToleranceConfig) string {
	var regressed, improved []string
	for _, c := range report.Comparisons {
		switch c.Status {
		case StatusRegression:
			regressed = append(regressed, c.Scenario)
		case StatusImprovement:
			improved = append(improved, c.Scenario)
		}
	}
	sort.Strings(regressed)
	sort.Strings(improved)

	switch {
	case len(regressed) > 0:
		return "REGRESSION: " + strings.Join(regressed, ", ")
	case len(improved) > 0:
		return "IMPROVEMENT: " + strings.Join(improved, ", ")
	default:
		return fmt.Sprintf("STABLE: performance within %.1f%% tolerance", tol.DurationPercent)
	}
}

// Statistics summarizes a sample of values.
type Statistics struct {
	Count  int     `json:"count"   yaml:"count"`
	Mean   float64 `json:"mean"    yaml:"mean"`
	Median float64 `json:"median"  yaml:"median"`
	StdDev float64 `json:"std_dev" yaml:"std_dev"`
	Min    float64 `json:"min"     yaml:"min"`
	Max    float64 `json:"max"     yaml:"max"`
}

// MeanSecondsStatistics summarizes the mean times of every result of one
// scenario, for instance one blur scenario across a directory of images.
func MeanSecondsStatistics(results []PerformanceMetrics, scenario string) Statistics {
	var values []float64
	for _, r := range results {
		if r.Scenario.Name == scenario {
			values = append(values, r.MeanSeconds)
		}
	}
	return calculateStatistics(values)
}

func calculateStatistics(values []float64) Statistics {
	if len(values) == 0 {
		return Statistics{}
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	stats := Statistics{
		Count: len(sorted),
		Min:   sorted[0],
		Max:   sorted[len(sorted)-1],
	}

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	stats.Mean = sum / float64(len(sorted))

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		stats.Median = (sorted[mid-1] + sorted[mid]) / 2
	} else {
		stats.Median = sorted[mid]
	}

	variance := 0.0
	for _, v := range sorted {
		variance += math.Pow(v-stats.Mean, 2)
	}
	stats.StdDev = math.Sqrt(variance / float64(len(sorted)))

	return stats
}
