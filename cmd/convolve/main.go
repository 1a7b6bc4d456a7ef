package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/nvr-ai/go-convolve/benchmark"
	"github.com/nvr-ai/go-convolve/config"
	"github.com/nvr-ai/go-convolve/contention"
	"github.com/nvr-ai/go-convolve/images"
	"github.com/nvr-ai/go-convolve/images/kernels"
	"github.com/nvr-ai/go-convolve/profiler"
	"github.com/nvr-ai/go-convolve/util"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "convolve",
		Short:         "Box blur and counter contention benchmarks",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	config.RegisterFlags(root)

	root.AddCommand(
		&cobra.Command{
			Use:   "blur",
			Short: "Blur an image sequentially and in parallel and compare timings",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := config.Load(cmd.Flags())
				if err != nil {
					return err
				}
				if err := cfg.ValidateBlur(); err != nil {
					return err
				}
				return runBlur(cfg)
			},
		},
		&cobra.Command{
			Use:   "contention",
			Short: "Race an atomic counter against a mutex counter",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := config.Load(cmd.Flags())
				if err != nil {
					return err
				}
				if err := cfg.Validate(); err != nil {
					return err
				}
				return runContention(cfg)
			},
		},
		&cobra.Command{
			Use:   "bench",
			Short: "Run the benchmark suite and write reports",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := config.Load(cmd.Flags())
				if err != nil {
					return err
				}
				if err := cfg.Validate(); err != nil {
					return err
				}
				return runBench(cmd.Context(), cfg)
			},
		},
	)

	return root
}

func runBlur(cfg config.Config) error {
	src, err := images.Load(cfg.Input, images.LoadOptions{MaxDimension: cfg.MaxDimension})
	if err != nil {
		return errors.Wrap(err, "failed to load input image")
	}
	log.Printf("Loaded %s (%dx%d)", cfg.Input, src.Cols, src.Rows)

	var seq, par *images.Grid
	var seqErr, parErr error

	seqTime := profiler.Measure(func() { seq, seqErr = kernels.BoxBlur(src) })
	if seqErr != nil && !errors.Is(seqErr, kernels.ErrSizeViolation) {
		return seqErr
	}
	if seqErr != nil {
		log.Printf("Warning: %v", seqErr)
	}
	log.Printf("sequential blur time: %fs", seqTime.Seconds())

	parTime := profiler.Measure(func() {
		par, parErr = kernels.BoxBlurParallel(src, kernels.Options{Threads: cfg.Blur.Threads})
	})
	if parErr != nil && !errors.Is(parErr, kernels.ErrSizeViolation) {
		return parErr
	}
	log.Printf("parallel blur time: %fs", parTime.Seconds())

	if err := images.Save(cfg.OutputSequential, seq); err != nil {
		return err
	}
	if err := images.Save(cfg.OutputParallel, par); err != nil {
		return err
	}

	if !seq.Equal(par) {
		return errors.Errorf("parallel output differs from sequential output (%s vs %s)",
			images.ComputeGridChecksum(par), images.ComputeGridChecksum(seq))
	}
	if parTime.Duration() > 0 {
		log.Printf("speedup with %d threads: %.2fx", cfg.Blur.Threads, seqTime.Seconds()/parTime.Seconds())
	}
	log.Printf("Outputs saved to %s and %s", cfg.OutputSequential, cfg.OutputParallel)
	return nil
}

func runContention(cfg config.Config) error {
	report, err := contention.Run(contention.Options{
		Workers:    cfg.Counter.Workers,
		Iterations: cfg.Counter.Iterations,
	})

	log.Printf("atomic counter: value=%d time=%fs", report.Atomic.Value, report.Atomic.Seconds())
	log.Printf("mutex counter: value=%d time=%fs", report.Mutex.Value, report.Mutex.Seconds())
	if err != nil {
		return err
	}
	log.Printf("mutex overhead: %.2fx", report.MutexOverhead())
	return nil
}

// benchInput is one grid the suite runs its blur scenarios on.
type benchInput struct {
	name string
	grid *images.Grid
}

func runBench(ctx context.Context, cfg config.Config) error {
	inputs, err := benchInputs(cfg)
	if err != nil {
		return err
	}

	suite := benchmark.NewSuite(benchmark.NewSuiteArgs{
		OutputPath: cfg.Bench.OutputDir,
		Format:     benchmark.ReportFormat(cfg.Bench.Format),
	})

	set, err := scenarioSet(cfg)
	if err != nil {
		return err
	}
	suite.AddScenarioSet(set)
	log.Printf("Run %s: %d scenarios over %d inputs", suite.RunID(), len(set.Scenarios), len(inputs))

	// Counter scenarios ignore the grid, so they run once per benchmark run.
	blur, counter := set.Split()
	if len(blur) > 0 {
		for _, in := range inputs {
			if err := suite.SetGrid(in.name, in.grid); err != nil {
				log.Printf("Skipping %s: %v", in.name, err)
				continue
			}
			if err := suite.RunScenarios(ctx, blur); err != nil {
				return err
			}
		}
	}
	if err := suite.RunScenarios(ctx, counter); err != nil {
		return err
	}

	if len(inputs) > 1 {
		results := suite.GetResults()
		for _, sc := range blur {
			stats := benchmark.MeanSecondsStatistics(results, sc.Name)
			log.Printf("Scenario %s over %d images: mean %.6fs median %.6fs stddev %.6fs",
				sc.Name, stats.Count, stats.Mean, stats.Median, stats.StdDev)
		}
	}

	if _, err := suite.SaveResults(); err != nil {
		return err
	}

	if cfg.Bench.Baseline != "" {
		tol := benchmark.NewDefaultToleranceConfig()
		tol.DurationPercent = cfg.Bench.Tolerance
		if _, err := suite.CompareWithBaseline(cfg.Bench.Baseline, tol); err != nil {
			return err
		}
	}
	return nil
}

func scenarioSet(cfg config.Config) (*benchmark.ScenarioSet, error) {
	if cfg.Bench.Scenarios != "" {
		return benchmark.LoadScenarioSet(cfg.Bench.Scenarios)
	}

	ps := &benchmark.PredefinedScenarios{
		Repetitions: cfg.Bench.Repetitions,
		WarmupRuns:  cfg.Bench.Warmup,
	}
	if cfg.Bench.Sweep {
		return ps.GetThreadSweepScenarios(cfg.Blur.Threads, cfg.Counter.Iterations), nil
	}
	return ps.GetQuickScenarios(cfg.Blur.Threads, cfg.Counter.Workers, cfg.Counter.Iterations), nil
}

func benchInputs(cfg config.Config) ([]benchInput, error) {
	opts := images.LoadOptions{MaxDimension: cfg.MaxDimension}

	switch {
	case cfg.Input != "":
		grid, err := images.Load(cfg.Input, opts)
		if err != nil {
			return nil, err
		}
		return []benchInput{{name: cfg.Input, grid: grid}}, nil

	case cfg.Bench.Images != "":
		files, err := util.LoadDirectoryImageFiles(cfg.Bench.Images)
		if err != nil {
			return nil, err
		}
		inputs := make([]benchInput, 0, len(files))
		for _, f := range files {
			grid, err := images.Decode(f.Data, opts)
			if err != nil {
				log.Printf("Skipping %s: %v", f.Path, err)
				continue
			}
			inputs = append(inputs, benchInput{name: f.Name, grid: grid})
		}
		if len(inputs) == 0 {
			return nil, errors.Errorf("no decodable images in %s", cfg.Bench.Images)
		}
		return inputs, nil

	default:
		res, ok := images.GetResolutionByType(images.ResolutionType(cfg.Bench.Resolution))
		if !ok {
			return nil, errors.Errorf("unknown resolution %q", cfg.Bench.Resolution)
		}
		return []benchInput{{
			name: "synthetic-" + string(res.Name),
			grid: images.GenerateResolution(res, images.PatternNoise, 1),
		}}, nil
	}
}
