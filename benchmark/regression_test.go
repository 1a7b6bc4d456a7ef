package benchmark

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-convolve/images"
)

func result(name, image string, mean float64, alloc uint64) PerformanceMetrics {
	return PerformanceMetrics{
		Scenario:    Scenario{Name: name, Kind: KindBlurSequential, Repetitions: 1},
		Image:       ImageInfo{Name: image},
		MeanSeconds: mean,
		MemoryStats: MemoryMetrics{TotalAllocBytes: alloc},
	}
}

func TestCompareResults(t *testing.T) {
	baseline := []PerformanceMetrics{
		result("seq", "a.png", 1.0, 1000),
		result("par", "a.png", 1.0, 1000),
		result("fast", "a.png", 1.0, 1000),
		result("alloc", "a.png", 1.0, 1000),
		result("seq", "b.png", 2.0, 1000),
	}
	broken := result("par", "b.png", 0.5, 1000)
	broken.Mismatches = 2
	current := []PerformanceMetrics{
		result("seq", "a.png", 1.05, 1000),
		result("par", "a.png", 1.5, 1000),
		result("fast", "a.png", 0.5, 1000),
		result("alloc", "a.png", 1.0, 2000),
		result("seq", "b.png", 2.0, 1000),
		broken,
		result("new", "a.png", 3.0, 1000),
	}

	report := CompareResults(baseline, current, NewDefaultToleranceConfig())
	require.Len(t, report.Comparisons, len(current))

	want := []ComparisonStatus{
		StatusStable,
		StatusRegression,
		StatusImprovement,
		StatusRegression,
		StatusStable,
		StatusRegression,
		StatusNew,
	}
	for i, c := range report.Comparisons {
		assert.Equal(t, want[i], c.Status, "%s on %s", c.Scenario, c.Image)
	}

	assert.InDelta(t, 50.0, report.Comparisons[1].DurationChange, 1e-9)
	assert.InDelta(t, -50.0, report.Comparisons[2].DurationChange, 1e-9)
	assert.InDelta(t, 100.0, report.Comparisons[3].AllocChange, 1e-9)
	assert.Contains(t, report.Comparisons[5].Notes[0], "2 mismatched")

	assert.True(t, report.HasRegression)
	assert.True(t, report.HasImprovement)
	assert.Len(t, report.Regressions(), 3)
	assert.Equal(t, "REGRESSION: alloc, par, par", report.Summary)
}

func TestCompareResultsStable(t *testing.T) {
	results := []PerformanceMetrics{result("seq", "", 1.0, 10)}

	report := CompareResults(results, results, NewDefaultToleranceConfig())
	assert.False(t, report.HasRegression)
	assert.False(t, report.HasImprovement)
	assert.Equal(t, "STABLE: performance within 10.0% tolerance", report.Summary)
}

func TestCalculateStatistics(t *testing.T) {
	assert.Equal(t, Statistics{}, calculateStatistics(nil))

	values := []float64{4, 1, 3, 2}
	stats := calculateStatistics(values)
	assert.Equal(t, 4, stats.Count)
	assert.InDelta(t, 2.5, stats.Mean, 1e-9)
	assert.InDelta(t, 2.5, stats.Median, 1e-9)
	assert.InDelta(t, 1.118033988, stats.StdDev, 1e-6)
	assert.Equal(t, 1.0, stats.Min)
	assert.Equal(t, 4.0, stats.Max)
	assert.Equal(t, []float64{4, 1, 3, 2}, values, "input order is preserved")

	odd := calculateStatistics([]float64{5, 1, 3})
	assert.Equal(t, 3.0, odd.Median)
}

func TestMeanSecondsStatistics(t *testing.T) {
	results := []PerformanceMetrics{
		result("seq", "a.png", 1.0, 0),
		result("seq", "b.png", 3.0, 0),
		result("par", "a.png", 9.0, 0),
	}

	stats := MeanSecondsStatistics(results, "seq")
	assert.Equal(t, 2, stats.Count)
	assert.InDelta(t, 2.0, stats.Mean, 1e-9)
	assert.Zero(t, MeanSecondsStatistics(results, "missing").Count)
}

func TestCompareWithBaseline(t *testing.T) {
	for _, format := range []ReportFormat{ReportJSON, ReportYAML} {
		t.Run(string(format), func(t *testing.T) {
			dir := t.TempDir()
			suite := NewSuite(NewSuiteArgs{OutputPath: dir, Format: format})
			require.NoError(t, suite.SetGrid("noise", images.Generate(16, 16, images.PatternNoise, 4)))
			suite.AddScenario(NewScenarioBuilder("seq").WithRepetitions(2).Build())
			require.NoError(t, suite.RunAllScenarios(context.Background()))

			paths, err := suite.SaveResults()
			require.NoError(t, err)

			loaded, err := LoadResults(paths[0])
			require.NoError(t, err)
			require.Len(t, loaded, 1)
			assert.Equal(t, "seq", loaded[0].Scenario.Name)
			assert.Equal(t, suite.GetResults()[0].Timing.Count, loaded[0].Timing.Count)

			// Against itself nothing regresses.
			report, err := suite.CompareWithBaseline(paths[0], NewDefaultToleranceConfig())
			require.NoError(t, err)
			assert.False(t, report.HasRegression)
		})
	}
}

func TestCompareWithBaselineFlagsRegression(t *testing.T) {
	dir := t.TempDir()
	baseline := NewSuite(NewSuiteArgs{OutputPath: dir})
	baseline.results = []PerformanceMetrics{result("seq", "noise", 1e-9, 1)}
	paths, err := baseline.SaveResults()
	require.NoError(t, err)

	current := NewSuite(NewSuiteArgs{OutputPath: dir})
	current.results = []PerformanceMetrics{result("seq", "noise", 1.0, 1)}

	report, err := current.CompareWithBaseline(paths[0], NewDefaultToleranceConfig())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRegression))
	require.NotNil(t, report)
	assert.True(t, report.HasRegression)

	_, err = current.CompareWithBaseline(filepath.Join(dir, "missing.json"), NewDefaultToleranceConfig())
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrRegression))
}
