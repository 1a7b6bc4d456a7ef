package config

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ConfigFlag names the flag carrying the optional settings file.
const ConfigFlag = "config"

// flagKeys maps each command-line flag to its settings key.
var flagKeys = map[string]string{
	"input":             "input",
	"output-sequential": "output_sequential",
	"output-parallel":   "output_parallel",
	"max-dimension":     "max_dimension",
	"threads":           "blur.threads",
	"workers":           "counter.workers",
	"iterations":        "counter.iterations",
	"repetitions":       "bench.repetitions",
	"warmup":            "bench.warmup",
	"output-dir":        "bench.output_dir",
	"format":            "bench.format",
	"resolution":        "bench.resolution",
	"images":            "bench.images",
	"scenarios":         "bench.scenarios",
	"sweep":             "bench.sweep",
	"baseline":          "bench.baseline",
	"tolerance":         "bench.tolerance",
}

// RegisterFlags adds every settings flag to the persistent flags of cmd.
func RegisterFlags(cmd *cobra.Command) {
	configureFlags(cmd.PersistentFlags())
}

func configureFlags(flags *pflag.FlagSet) {
	d := Default()

	flags.String(ConfigFlag, "", "Path to a YAML or JSON settings file")
	flags.String("input", d.Input, "Input image path")
	flags.String("output-sequential", d.OutputSequential, "Output path of the sequential blur")
	flags.String("output-parallel", d.OutputParallel, "Output path of the parallel blur")
	flags.Int("max-dimension", d.MaxDimension, "Downscale inputs whose longest side exceeds this (0 keeps the original size)")
	flags.Int("threads", d.Blur.Threads, "Worker count of the parallel blur")
	flags.Int("workers", d.Counter.Workers, "Goroutines incrementing the shared counter")
	flags.Int("iterations", d.Counter.Iterations, "Increments per counter worker")
	flags.Int("repetitions", d.Bench.Repetitions, "Measured runs per benchmark scenario")
	flags.Int("warmup", d.Bench.Warmup, "Unmeasured runs before each benchmark scenario")
	flags.String("output-dir", d.Bench.OutputDir, "Directory for benchmark reports")
	flags.String("format", d.Bench.Format, "Benchmark report format: json or yaml")
	flags.String("resolution", d.Bench.Resolution, "Synthetic grid resolution when no image is given")
	flags.String("images", d.Bench.Images, "Directory of images to benchmark")
	flags.String("scenarios", d.Bench.Scenarios, "Scenario set file (YAML or JSON)")
	flags.Bool("sweep", d.Bench.Sweep, "Benchmark every thread count from 1 to --threads")
	flags.String("baseline", d.Bench.Baseline, "Results file of an earlier run to compare against")
	flags.Float64("tolerance", d.Bench.Tolerance, "Mean-time increase in percent tolerated against --baseline")
}

// Load resolves settings from defaults, the file named by the config flag and
// any flag the user set, in increasing order of precedence.
//
// Arguments:
//   - flags: A flag set populated by RegisterFlags and already parsed.
//
// Returns:
//   - Config: The merged settings. Validate is not called.
//   - error: An error if the settings file cannot be read or decoded.
func Load(flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	if flags != nil {
		if f := flags.Lookup(ConfigFlag); f != nil && f.Value.String() != "" {
			v.SetConfigFile(f.Value.String())
			if err := v.ReadInConfig(); err != nil {
				return Config{}, errors.Wrapf(err, "failed to read config file %s", f.Value.String())
			}
		}

		for name, key := range flagKeys {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return Config{}, errors.Wrapf(err, "failed to bind flag %s", name)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "failed to decode settings")
	}
	cfg.Bench.Format = strings.ToLower(strings.TrimSpace(cfg.Bench.Format))
	return cfg, nil
}

// LoadFile reads settings from path on top of the defaults.
func LoadFile(path string) (Config, error) {
	flags := pflag.NewFlagSet("config", pflag.ContinueOnError)
	flags.String(ConfigFlag, path, "")
	return Load(flags)
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("input", d.Input)
	v.SetDefault("output_sequential", d.OutputSequential)
	v.SetDefault("output_parallel", d.OutputParallel)
	v.SetDefault("max_dimension", d.MaxDimension)
	v.SetDefault("blur.threads", d.Blur.Threads)
	v.SetDefault("counter.workers", d.Counter.Workers)
	v.SetDefault("counter.iterations", d.Counter.Iterations)
	v.SetDefault("bench.repetitions", d.Bench.Repetitions)
	v.SetDefault("bench.warmup", d.Bench.Warmup)
	v.SetDefault("bench.output_dir", d.Bench.OutputDir)
	v.SetDefault("bench.format", d.Bench.Format)
	v.SetDefault("bench.resolution", d.Bench.Resolution)
	v.SetDefault("bench.images", d.Bench.Images)
	v.SetDefault("bench.scenarios", d.Bench.Scenarios)
	v.SetDefault("bench.sweep", d.Bench.Sweep)
	v.SetDefault("bench.baseline", d.Bench.Baseline)
	v.SetDefault("bench.tolerance", d.Bench.Tolerance)
}
