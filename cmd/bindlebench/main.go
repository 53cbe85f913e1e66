// Package main provides the CLI entry point for bindlebench, a benchmark
// and cross-implementation compatibility harness for the bindle archive
// format.
package main

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/weiihann/bindlebench/archive"
	"github.com/weiihann/bindlebench/bench"
	"github.com/weiihann/bindlebench/compat"
	"github.com/weiihann/bindlebench/corpus"
	"github.com/weiihann/bindlebench/report"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	root := newRootCmd(logger)
	if err := root.Execute(); err != nil {
		logger.Error("bindlebench failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func newRootCmd(logger *slog.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:   "bindlebench",
		Short: "Benchmark and compatibility harness for the bindle archive format",
		Long: `Bindlebench measures the bindle archive format against general-purpose
archivers over a deterministic corpus, and checks that independently built
implementations of the format produce and consume byte-identical archives.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newBenchCmd(logger))
	root.AddCommand(newCompatCmd(logger))
	root.AddCommand(newGenCmd(logger))

	return root
}

func newBenchCmd(logger *slog.Logger) *cobra.Command {
	cfg := bench.Config{
		Repetitions: bench.DefaultPolicy.Repetitions,
		Discard:     bench.DefaultPolicy.Discard,
		Timeout:     5 * time.Minute,
	}

	var configPath string

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark archive formats over the deterministic corpus",
		Long: `Bench generates the corpus, runs repeated timed create/extract cycles for
each format with full verification after every extract, and prints the
comparison table. One format failing does not abort the others.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			merged, err := mergeConfig(cmd, cfg, configPath)
			if err != nil {
				return err
			}

			return runBench(cmd.Context(), logger, *merged)
		},
	}

	flags := cmd.Flags()
	flags.StringSliceVar(&cfg.Formats, "formats",
		archive.DefaultRegistry().Names(), "Formats to benchmark")
	flags.IntVar(&cfg.Repetitions, "reps", cfg.Repetitions,
		"Repetitions per format")
	flags.IntVar(&cfg.Discard, "discard", cfg.Discard,
		"Leading repetitions discarded as warm-up")
	flags.Int64Var(&cfg.Seed, "seed", 0,
		"Corpus seed (0 = default)")
	flags.StringVar(&cfg.BindleBin, "bindle-bin", "",
		"Path to a prebuilt bindle CLI binary")
	flags.StringVar(&cfg.BindleSrc, "bindle-src", "",
		"Path to the bindle source checkout")
	flags.BoolVar(&cfg.SkipBuild, "skip-build", false,
		"Skip building the bindle CLI from --bindle-src")
	flags.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout,
		"Timeout per external operation")
	flags.BoolVar(&cfg.KeepScratch, "keep-scratch", false,
		"Keep the scratch directory on exit")
	flags.BoolVar(&cfg.JSON, "json", false,
		"Output results as JSON instead of a table")
	flags.StringVar(&configPath, "config", "",
		"Path to a YAML config file (flags override it)")

	return cmd
}

// mergeConfig overlays a config file under the flag values: a file field
// applies only where the corresponding flag was left at its default.
func mergeConfig(cmd *cobra.Command, cfg bench.Config, path string) (*bench.Config, error) {
	if path == "" {
		return &cfg, nil
	}

	fileCfg, err := bench.LoadConfig(path)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()

	if !flags.Changed("formats") && len(fileCfg.Formats) > 0 {
		cfg.Formats = fileCfg.Formats
	}
	if !flags.Changed("reps") && fileCfg.Repetitions != 0 {
		cfg.Repetitions = fileCfg.Repetitions
	}
	if !flags.Changed("discard") && fileCfg.Discard != 0 {
		cfg.Discard = fileCfg.Discard
	}
	if !flags.Changed("seed") && fileCfg.Seed != 0 {
		cfg.Seed = fileCfg.Seed
	}
	if !flags.Changed("bindle-bin") && fileCfg.BindleBin != "" {
		cfg.BindleBin = fileCfg.BindleBin
	}
	if !flags.Changed("bindle-src") && fileCfg.BindleSrc != "" {
		cfg.BindleSrc = fileCfg.BindleSrc
	}
	if !flags.Changed("skip-build") && fileCfg.SkipBuild {
		cfg.SkipBuild = true
	}
	if !flags.Changed("timeout") && fileCfg.Timeout != 0 {
		cfg.Timeout = fileCfg.Timeout
	}
	if !flags.Changed("keep-scratch") && fileCfg.KeepScratch {
		cfg.KeepScratch = true
	}
	if !flags.Changed("json") && fileCfg.JSON {
		cfg.JSON = true
	}

	return &cfg, nil
}

func runBench(ctx context.Context, logger *slog.Logger, cfg bench.Config) error {
	policy := bench.Policy{Repetitions: cfg.Repetitions, Discard: cfg.Discard}
	if err := policy.Validate(); err != nil {
		return errors.Wrap(err, "invalid aggregation policy")
	}

	registry := archive.DefaultRegistry()

	// Resolve the bindle CLI only when a bindle format is requested.
	opts := archive.Options{BindleBin: cfg.BindleBin}

	if needsBindle(cfg.Formats) && opts.BindleBin == "" {
		if cfg.BindleSrc == "" {
			return errors.New("bindle formats require --bindle-bin or --bindle-src")
		}

		if cfg.SkipBuild {
			opts.BindleBin = archive.ResolveBinary(cfg.BindleSrc)
		} else {
			bin, err := archive.Build(ctx, logger, cfg.BindleSrc)
			if err != nil {
				return errors.Wrap(err, "build bindle CLI")
			}

			opts.BindleBin = bin
		}
	}

	adapters := make([]archive.Adapter, 0, len(cfg.Formats))

	for _, name := range cfg.Formats {
		a, err := registry.New(name, opts)
		if err != nil {
			return err
		}

		adapters = append(adapters, a)
	}

	scratch, err := bench.NewScratch("", cfg.KeepScratch, logger)
	if err != nil {
		return err
	}

	defer func() {
		if cerr := scratch.Close(); cerr != nil {
			logger.Warn("scratch cleanup failed",
				slog.String("error", cerr.Error()),
			)
		}
	}()

	corpusDir, err := scratch.Dir("corpus")
	if err != nil {
		return err
	}

	summary, err := corpus.NewGenerator(corpus.Config{Seed: cfg.Seed}).Generate(corpusDir)
	if err != nil {
		return errors.Wrap(err, "generate corpus")
	}

	logger.InfoContext(ctx, "corpus generated",
		slog.Int("files", summary.FileCount),
		slog.Int64("total_bytes", summary.TotalBytes),
	)

	runner := &bench.Runner{
		Adapters: adapters,
		Policy:   policy,
		Timeout:  cfg.Timeout,
		Logger:   logger,
	}

	results := runner.Run(ctx, corpusDir, scratch)

	if cfg.JSON {
		return report.WriteJSON(os.Stdout, results)
	}

	return report.Render(os.Stdout, results, summary.FileCount, summary.TotalBytes)
}

func needsBindle(formats []string) bool {
	for _, f := range formats {
		if strings.HasPrefix(f, "bindle") {
			return true
		}
	}

	return false
}

func newCompatCmd(logger *slog.Logger) *cobra.Command {
	var (
		implA, implB string
		timeout      time.Duration
		keepScratch  bool
	)

	cmd := &cobra.Command{
		Use:   "compat",
		Short: "Run the cross-implementation compatibility protocol",
		Long: `Compat drives two independently built bindle implementations through three
phases: each implementation reads back an entry the other wrote with
compression enabled, then a packed directory round-trips between them. A
failing phase stops the protocol and exits nonzero.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCompat(cmd.Context(), logger, implA, implB, timeout, keepScratch)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&implA, "impl-a", "", "Path to the first implementation's CLI binary")
	flags.StringVar(&implB, "impl-b", "", "Path to the second implementation's CLI binary")
	flags.DurationVar(&timeout, "timeout", 5*time.Minute, "Timeout for the whole protocol")
	flags.BoolVar(&keepScratch, "keep-scratch", false, "Keep the scratch directory on exit")

	_ = cmd.MarkFlagRequired("impl-a")
	_ = cmd.MarkFlagRequired("impl-b")

	return cmd
}

func runCompat(
	ctx context.Context,
	logger *slog.Logger,
	implA, implB string,
	timeout time.Duration,
	keepScratch bool,
) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	scratch, err := bench.NewScratch("", keepScratch, logger)
	if err != nil {
		return err
	}

	defer func() {
		if cerr := scratch.Close(); cerr != nil {
			logger.Warn("scratch cleanup failed",
				slog.String("error", cerr.Error()),
			)
		}
	}()

	tester := &compat.Tester{
		A:      archive.NewTool("impl-a", implA, logger),
		B:      archive.NewTool("impl-b", implB, logger),
		Logger: logger,
	}

	outcomes, err := tester.Run(ctx, scratch.Root)
	if err != nil {
		return errors.Wrap(err, "compatibility run")
	}

	report.RenderCompat(os.Stdout, outcomes)

	for _, o := range outcomes {
		if !o.Passed {
			return errors.Newf("compatibility phase %q failed", o.Phase)
		}
	}

	return nil
}

func newGenCmd(logger *slog.Logger) *cobra.Command {
	var (
		out  string
		seed int64
	)

	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate the benchmark corpus into a directory",
		Long: `Gen writes the deterministic corpus to a directory for inspection or for
reuse outside the harness. The same seed always produces byte-identical
content.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			summary, err := corpus.NewGenerator(corpus.Config{Seed: seed}).Generate(out)
			if err != nil {
				return errors.Wrap(err, "generate corpus")
			}

			logger.InfoContext(cmd.Context(), "corpus generated",
				slog.String("dir", out),
				slog.Int("files", summary.FileCount),
				slog.Int64("total_bytes", summary.TotalBytes),
			)

			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&out, "out", "", "Destination directory")
	flags.Int64Var(&seed, "seed", 0, "Corpus seed (0 = default)")

	_ = cmd.MarkFlagRequired("out")

	return cmd
}
