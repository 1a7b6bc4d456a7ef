package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-convolve/benchmark"
	"github.com/nvr-ai/go-convolve/config"
	"github.com/nvr-ai/go-convolve/images"
)

func execute(t *testing.T, args ...string) error {
	t.Helper()
	cmd := newRootCommand()
	cmd.SetArgs(args)
	return cmd.ExecuteContext(context.Background())
}

func TestContentionCommand(t *testing.T) {
	assert.NoError(t, execute(t, "contention", "--workers", "3", "--iterations", "500"))
}

func TestContentionCommandRejectsBadWorkers(t *testing.T) {
	err := execute(t, "contention", "--workers", "0")
	assert.True(t, errors.Is(err, config.ErrInvalidConfig))
}

func TestBlurCommand(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.png")
	require.NoError(t, images.Save(input, images.Generate(30, 40, images.PatternGradient, 0)))

	seqOut := filepath.Join(dir, "seq.png")
	parOut := filepath.Join(dir, "par.png")
	require.NoError(t, execute(t, "blur",
		"--input", input,
		"--output-sequential", seqOut,
		"--output-parallel", parOut,
		"--threads", "3"))

	seq, err := images.Load(seqOut, images.LoadOptions{})
	require.NoError(t, err)
	par, err := images.Load(parOut, images.LoadOptions{})
	require.NoError(t, err)
	assert.True(t, seq.Equal(par))
}

func TestBlurCommandRequiresInput(t *testing.T) {
	err := execute(t, "blur")
	assert.True(t, errors.Is(err, config.ErrInvalidConfig))
}

func TestBenchCommandSynthetic(t *testing.T) {
	out := t.TempDir()
	require.NoError(t, execute(t, "bench",
		"--resolution", "vga",
		"--output-dir", out,
		"--format", "yaml",
		"--iterations", "100",
		"--repetitions", "1",
		"--threads", "2",
		"--workers", "2"))

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestBenchCommandRunsCountersOncePerRun(t *testing.T) {
	dir := t.TempDir()
	for i, name := range []string{"a.png", "b.png", "c.png"} {
		require.NoError(t, images.Save(filepath.Join(dir, name), images.Generate(12, 14, images.PatternNoise, int64(i))))
	}

	cfg := config.Default()
	cfg.Bench.Images = dir
	cfg.Bench.OutputDir = t.TempDir()
	cfg.Bench.Repetitions = 1
	cfg.Counter.Iterations = 50
	require.NoError(t, runBench(context.Background(), cfg))

	matches, err := filepath.Glob(filepath.Join(cfg.Bench.OutputDir, "*_results.json"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	results, err := benchmark.LoadResults(matches[0])
	require.NoError(t, err)

	blur, counter := 0, 0
	keys := map[string]bool{}
	for _, r := range results {
		if r.Scenario.Kind.IsBlur() {
			blur++
		} else {
			counter++
		}
		key := r.Scenario.Name + "/" + r.Image.Name
		assert.False(t, keys[key], "duplicate result %s", key)
		keys[key] = true
	}
	assert.Equal(t, 2*3, blur, "blur scenarios run on every image")
	assert.Equal(t, 2, counter, "counter scenarios run once")
}

func TestScenarioSetSelection(t *testing.T) {
	cfg := config.Default()
	cfg.Blur.Threads = 3

	set, err := scenarioSet(cfg)
	require.NoError(t, err)
	assert.Len(t, set.Scenarios, 4)

	cfg.Bench.Sweep = true
	set, err = scenarioSet(cfg)
	require.NoError(t, err)
	assert.Len(t, set.Scenarios, 1+3*3)

	path := filepath.Join(t.TempDir(), "set.yaml")
	custom := &benchmark.ScenarioSet{
		Name:      "custom",
		Scenarios: []benchmark.Scenario{benchmark.NewScenarioBuilder("one").WithKind(benchmark.KindCounterAtomic).Build()},
	}
	require.NoError(t, benchmark.SaveScenarioSet(custom, path))
	cfg.Bench.Scenarios = path
	set, err = scenarioSet(cfg)
	require.NoError(t, err)
	assert.Equal(t, "custom", set.Name)
}

func TestBenchInputsFromDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, images.Save(filepath.Join(dir, "b.png"), images.Generate(8, 8, images.PatternNoise, 2)))
	require.NoError(t, images.Save(filepath.Join(dir, "a.png"), images.Generate(6, 9, images.PatternNoise, 1)))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.jpg"), []byte("not a jpeg"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0o644))

	cfg := config.Default()
	cfg.Bench.Images = dir
	inputs, err := benchInputs(cfg)
	require.NoError(t, err)
	require.Len(t, inputs, 2)
	assert.Equal(t, "a.png", inputs[0].name)
	assert.Equal(t, 6, inputs[0].grid.Rows)
	assert.Equal(t, 9, inputs[0].grid.Cols)
}

func TestBenchInputsSynthetic(t *testing.T) {
	cfg := config.Default()
	cfg.Bench.Resolution = "nhd"

	inputs, err := benchInputs(cfg)
	require.NoError(t, err)
	require.Len(t, inputs, 1)
	assert.Equal(t, 360, inputs[0].grid.Rows)
	assert.Equal(t, 640, inputs[0].grid.Cols)
}
