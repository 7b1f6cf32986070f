// Copyright 2018 Rob Marissen.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/524D/slicmatch/internal/config"
	"github.com/524D/slicmatch/internal/feature"
	"github.com/524D/slicmatch/internal/featureio"
	"github.com/524D/slicmatch/internal/match"
	"github.com/524D/slicmatch/internal/metrics"
	"github.com/524D/slicmatch/internal/mzidentml"
	"github.com/524D/slicmatch/internal/notify"
	"github.com/524D/slicmatch/internal/report"
	"github.com/524D/slicmatch/internal/tolerance"
)

// Program name and version, written to reports
const progName = "slicmatch"

var progVersion = `Unknown`

var (
	ErrRangeSpec = errors.New("invalid range specified")
	ErrCancelled = errors.New("matching cancelled")
)

type params struct {
	featuresFilename string
	compareFilename  string
	configFilename   string
	outFilename      string
	format           string
	maxResults       int
	workers          int
	massTol          float64
	massUnit         string
	netTol           float64
	massRange        string
	lowMemory        bool
	metricsFilename  string
	debugFeatures    string
	verbosity        verbosity
}

// Parse string like "-12.01e1:+6" into 2 values, -120.1 and 6.0
// Parameters min and max are the "default" min/max values,
// when a value is not specified (e.g. "-12.01e1:"), the default is assigned
func parseFloat64Range(r string, min float64, max float64) (
	float64, float64, error) {
	re := regexp.MustCompile(`\s*([-+]?[0-9]*\.?[0-9]*([eE][-+]?[0-9]+)?):([-+]?[0-9]*\.?[0-9]*([eE][-+]?[0-9]+)?)`)
	m := re.FindStringSubmatch(r)
	minOut := min
	maxOut := max
	if len(m) >= 2 && m[1] != "" {
		minOut, _ = strconv.ParseFloat(m[1], 64)
		if minOut < min {
			minOut = min
		}
	}
	if len(m) >= 4 && m[3] != "" {
		maxOut, _ = strconv.ParseFloat(m[3], 64)
		if maxOut > max {
			maxOut = max
		}
	}
	var err error
	if minOut > maxOut {
		err = ErrRangeSpec
		minOut = maxOut
	}
	return minOut, maxOut, err
}

func newRootCmd() *cobra.Command {
	var verbose, quiet bool
	root := &cobra.Command{
		Use:   progName,
		Short: "Match measured features against comparison features",
		Long: progName + ` matches features (mass + normalized elution time) against
a set of comparison features. Every candidate within tolerance gets a
SLiC score: the probability that it is the true match, among all
candidates of the feature.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"print more verbose progress information")
	root.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false,
		"don't print any output except for errors")
	level := func() verbosity {
		switch {
		case quiet:
			return infoSilent
		case verbose:
			return infoVerbose
		}
		return infoBasic
	}

	root.AddCommand(newMatchCmd(level), newConfigCmd(), newVersionCmd())
	return root
}

func newMatchCmd(level func() verbosity) *cobra.Command {
	var par params
	cmd := &cobra.Command{
		Use:   "match --features <file> --compare <file>",
		Short: "Identify features by matching them against comparison features",
		Long: `Identify features by matching them against comparison features.

Features to identify are read from a tab-delimited file (columns id, name,
mass, net) or from an mzIdentML file (extension .mzid), in which case the
peptide masses are computed and retention times are normalized to NET.
Comparison features are read from a tab-delimited file with optional
columns net_stdev and discriminant_score.

Settings are read from the YAML file given with --config. Flags that are
set override the file.`,
		Example: `  ` + progName + ` match --features sample.mzid --compare library.tsv -o sample.json
  ` + progName + ` match --features f.tsv --compare c.tsv --mass-tol 0.01 --mass-unit Da --format tsv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			par.verbosity = level()
			cfg, err := loadConfig(cmd, par)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return runMatch(ctx, par, cfg, newLogger(par.verbosity, cmd.ErrOrStderr()), cmd.OutOrStdout())
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&par.featuresFilename, "features", "", "`file` with features to identify (.tsv or .mzid)")
	fl.StringVar(&par.compareFilename, "compare", "", "`file` with comparison features (.tsv)")
	fl.StringVar(&par.configFilename, "config", "", "YAML configuration `file`")
	fl.StringVarP(&par.outFilename, "output", "o", "", "output `file`, default standard output")
	fl.StringVar(&par.format, "format", "json", "output format: json, tsv or msgpack")
	fl.IntVar(&par.maxResults, "max-results", match.DefaultMaxResults, "maximum number of results per feature")
	fl.IntVar(&par.workers, "workers", 1, "number of matching goroutines, 0 for one per CPU")
	fl.Float64Var(&par.massTol, "mass-tol", tolerance.DefaultMassTolerance, "mass tolerance, see --mass-unit")
	fl.StringVar(&par.massUnit, "mass-unit", "ppm", "unit of the mass tolerance: ppm or Da")
	fl.Float64Var(&par.netTol, "net-tol", tolerance.DefaultNETTolerance, "NET tolerance")
	fl.StringVar(&par.massRange, "mass-range", "", "mass `range` of features to identify (e.g. 800:3500)")
	fl.BoolVar(&par.lowMemory, "low-memory", false, "look up feature ids by binary search instead of a map")
	fl.StringVar(&par.metricsFilename, "metrics-file", "", "write Prometheus metrics to `file`")
	fl.StringVar(&par.debugFeatures, "debug", "", "print the results for a feature id `range` e.g. 3:6")
	_ = cmd.MarkFlagRequired("features")
	_ = cmd.MarkFlagRequired("compare")
	return cmd
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config [file]",
		Short: "Print the effective configuration as YAML",
		Long: `Print the effective configuration as YAML. Without a file, the defaults
are printed; the output is a starting point for a configuration file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if len(args) == 1 {
				var err error
				if cfg, err = config.Load(args[0]); err != nil {
					return err
				}
			}
			return cfg.Write(cmd.OutOrStdout())
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show software version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			v := progVersion
			if v == `Unknown` {
				v = `Unknown
Please build this program with -ldflags "-X main.progVersion=<version>" so that the version is shown here.`
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", progName, v)
		},
	}
}

// loadConfig reads the configuration file, then applies the flags that
// were set on the command line
func loadConfig(cmd *cobra.Command, par params) (config.Config, error) {
	cfg := config.Default()
	if par.configFilename != "" {
		var err error
		if cfg, err = config.Load(par.configFilename); err != nil {
			return cfg, err
		}
	}
	fl := cmd.Flags()
	if fl.Changed("max-results") {
		cfg.Matching.MaxResultsPerFeature = par.maxResults
	}
	if fl.Changed("workers") {
		cfg.Matching.Workers = par.workers
	}
	if fl.Changed("mass-tol") {
		cfg.Search.MassTolerance = par.massTol
	}
	if fl.Changed("mass-unit") {
		if _, err := tolerance.ParseMassUnit(par.massUnit); err != nil {
			return cfg, err
		}
		cfg.Search.MassUnit = par.massUnit
	}
	if fl.Changed("net-tol") {
		cfg.Search.NETTolerance = par.netTol
	}
	return cfg, nil
}

func runMatch(ctx context.Context, par params, cfg config.Config, log *logger, stdout io.Writer) error {
	format, err := report.ParseFormat(par.format)
	if err != nil {
		return err
	}
	var filter featureio.Filter
	if par.massRange != "" {
		lo, hi, err := parseFloat64Range(par.massRange, 0, math.MaxFloat64)
		if err != nil {
			return fmt.Errorf("--mass-range %q: %w", par.massRange, err)
		}
		filter = featureio.MassRange(lo, hi)
	}
	lookup := feature.LookupMap
	if par.lowMemory {
		lookup = feature.LookupSearch
	}

	toIdentify := feature.NewStore(lookup, 0)
	if err := readFeatures(par.featuresFilename, toIdentify, filter, log); err != nil {
		return err
	}
	comparison := feature.NewCompareStore(lookup, 0)
	if err := readCompareFeatures(par.compareFilename, comparison, log); err != nil {
		return err
	}

	th := cfg.Thresholds()
	engine := match.New(cfg.EngineOptions())
	m := metrics.New()
	obs := notify.Multi{log.observer(), m}
	results, completed := engine.Identify(ctx, th, toIdentify, comparison, nil, obs)
	m.RecordRun(results.Stats())

	debugLogFeatures(par.debugFeatures, results, toIdentify, log)

	rep := report.New(progName, results, toIdentify, th, engine.Options(), report.DefaultBinWidth)
	if err := writeReport(rep, par.outFilename, format, stdout); err != nil {
		return err
	}
	log.Info("report written", "run", rep.RunID, "output", outputName(par.outFilename),
		"matched", rep.Summary.Matched, "unique", rep.Summary.Unique)

	if par.metricsFilename != "" {
		if err := m.WriteTextfile(par.metricsFilename); err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
	}
	if !completed {
		return ErrCancelled
	}
	return nil
}

func readFeatures(fn string, s *feature.Store, filter featureio.Filter, log *logger) error {
	f, err := os.Open(fn)
	if err != nil {
		return err
	}
	defer f.Close()

	var st featureio.Stats
	if strings.EqualFold(filepath.Ext(fn), ".mzid") {
		mzid, err := mzidentml.Read(f)
		if err != nil {
			return fmt.Errorf("%s: %w", fn, err)
		}
		fs, skipped, err := mzidentml.Features(mzid)
		if err != nil {
			return fmt.Errorf("%s: %w", fn, err)
		}
		if skipped > 0 {
			log.Warn("identifications skipped, peptide mass or retention time unknown", "file", fn, "count", skipped)
		}
		st = featureio.AddFeatures(fs, s, filter)
	} else {
		if st, err = featureio.ReadFeatures(f, s, filter); err != nil {
			return fmt.Errorf("%s: %w", fn, err)
		}
	}
	log.logStats("features to identify", fn, st)
	return nil
}

func readCompareFeatures(fn string, c *feature.CompareStore, log *logger) error {
	f, err := os.Open(fn)
	if err != nil {
		return err
	}
	defer f.Close()
	st, err := featureio.ReadCompareFeatures(f, c, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", fn, err)
	}
	log.logStats("comparison features", fn, st)
	return nil
}

func outputName(fn string) string {
	if fn == "" || fn == "-" {
		return "stdout"
	}
	return fn
}

func writeReport(rep *report.Report, fn string, format report.Format, stdout io.Writer) error {
	if fn == "" || fn == "-" {
		return rep.Write(stdout, format)
	}
	f, err := os.Create(fn)
	if err != nil {
		return err
	}
	if err := rep.Write(f, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", progName, err)
		os.Exit(1)
	}
}
