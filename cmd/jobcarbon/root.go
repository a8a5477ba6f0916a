package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/greenhpc/jobcarbon/internal/config"
	"github.com/greenhpc/jobcarbon/internal/intensity"
	"github.com/greenhpc/jobcarbon/internal/pipeline"
	"github.com/greenhpc/jobcarbon/internal/report"
	"github.com/greenhpc/jobcarbon/internal/slurm"
)

type rootOptions struct {
	configPath  string
	jsonOutput  bool
	comparisons string
	source      string
	cacheDir    string
	postcode    string
	verbose     bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "jobcarbon JOBID",
		Short: "Estimate the greenhouse-gas emissions of one batch job",
		Long: `jobcarbon estimates the Scope 2 (grid electricity) and Scope 3 (embodied,
per node-hour) greenhouse-gas emissions attributable to a single batch job.

The job's accounting record is read from sacct. Energy is taken from the
scheduler's energy counter when plausible, otherwise estimated from a mean
per-node power draw. The grid carbon intensity at job start is resolved from
a local daily CSV cache (default) or from the regional carbon-intensity web
service (--source api).`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.configPath, "config", "", "path to a YAML config file overriding the defaults")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "emit the report as JSON instead of text")
	cmd.Flags().StringVar(&opts.comparisons, "comparisons", report.CompareNone,
		"comparison tables to print: food, other, none (comma-combinable)")
	cmd.Flags().StringVar(&opts.source, "source", "",
		"carbon intensity source: cache or api (default from config)")
	cmd.Flags().StringVar(&opts.cacheDir, "cache-dir", "", "root directory of the intensity CSV cache")
	cmd.Flags().StringVar(&opts.postcode, "postcode", "", "outward postcode of the grid region")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	return cmd
}

func run(cmd *cobra.Command, jobID string, opts *rootOptions) error {
	logger := newLogger(opts.verbose)

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	cmp, err := report.ParseComparisons(opts.comparisons)
	if err != nil {
		return err
	}

	var resolver intensity.Resolver
	switch cfg.Source {
	case config.SourceAPI:
		resolver = intensity.NewAPIResolver(cfg.APIBaseURL, cfg.Postcode, logger)
	default:
		resolver = intensity.NewCacheResolver(cfg.CacheDir, logger)
	}

	source := slurm.NewClient(cfg.SacctPath, logger)
	rep, err := pipeline.New(cfg, source, resolver, logger).Run(cmd.Context(), jobID)
	if err != nil {
		return err
	}

	if opts.jsonOutput {
		color.NoColor = true
		data, err := report.RenderJSON(rep)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	fmt.Fprint(cmd.OutOrStdout(), report.RenderText(rep, cfg.References, cmp))
	return nil
}

// loadConfig builds the run configuration: defaults, optional YAML overlay,
// then flag overrides.
func loadConfig(opts *rootOptions) (config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}
	if opts.source != "" {
		cfg.Source = config.IntensitySource(opts.source)
	}
	if opts.cacheDir != "" {
		cfg.CacheDir = opts.cacheDir
	}
	if opts.postcode != "" {
		cfg.Postcode = opts.postcode
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
}
