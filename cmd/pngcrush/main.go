// Command pngcrush is the external CLI driver: it parses the recognized
// options, wires them into a recompress.Options, runs the search, and
// writes the smallest PNG it found.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/hawkynt/pngcrush/internal/filter"
	"github.com/hawkynt/pngcrush/internal/recompress"
	"github.com/hawkynt/pngcrush/internal/report"
	"github.com/hawkynt/pngcrush/internal/zlibcodec"
	"github.com/pkg/errors"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, errorLine(err, verboseFlag))
		os.Exit(1)
	}
}

var verboseFlag bool

// run drives recompress.Recompress, so it exposes no auto-color-mode flag:
// that axis only applies to encoding a bitmap from scratch, and a
// recompress run always keeps the input's own color mode and bit depth.
func run(args []string) error {
	fs := flag.NewFlagSet("pngcrush", flag.ContinueOnError)
	input := fs.String("input", "", "path to source PNG; required")
	output := fs.String("output", "", "path for written PNG; required")
	interlace := fs.Bool("interlace", false, "adds Adam7 to the interlace axis")
	partition := fs.Bool("partition", true, "allows the PartitionOptimized strategy")
	filtersCSV := fs.String("filters", "", "subset of SingleFilter,ScanlineAdaptive,WeightedContinuity,PartitionOptimized")
	deflateCSV := fs.String("deflate", "", "subset of Fastest,Fast,Default,Maximum,Ultra")
	jobs := fs.Int("jobs", 0, "concurrency cap, 0 means cores")
	verbose := fs.Bool("verbose", false, "enables per-candidate reporting")

	if err := fs.Parse(args); err != nil {
		return errors.WithStack(err)
	}
	verboseFlag = *verbose

	if *input == "" || *output == "" {
		return errors.New("pngcrush: -input and -output are required")
	}

	data, err := os.ReadFile(*input)
	if err != nil {
		return errors.Wrap(err, "pngcrush: read input")
	}

	opts := recompress.DefaultOptions()
	opts.Interlace = *interlace
	opts.MaxParallelTasks = *jobs

	strategies, err := parseFilters(*filtersCSV, *partition)
	if err != nil {
		return err
	}
	if strategies != nil {
		opts.FilterStrategies = strategies
	}

	levels, err := parseLevels(*deflateCSV)
	if err != nil {
		return err
	}
	if levels != nil {
		opts.DeflateLevels = levels
	}

	outcome, err := recompress.Recompress(data, opts)
	if err != nil {
		return errors.Wrap(err, "pngcrush: recompress")
	}

	if err := os.WriteFile(*output, outcome.Bytes, 0o644); err != nil {
		return errors.Wrap(err, "pngcrush: write output")
	}

	if *verbose {
		summary := report.NewSummary(outcome.InputSize, report.DescribeCombo(
			int(outcome.Winner.ColorMode), int(outcome.Winner.BitDepth),
			int(outcome.Winner.Interlace), int(outcome.Winner.Strategy), int(outcome.Winner.Level),
		), len(outcome.Bytes), len(outcome.Candidates))
		fmt.Print(summary.String())
		for _, a := range outcome.Ancillary {
			fmt.Printf("preserved ancillary chunk: %s\n", a.Describe())
		}
	}

	return nil
}

func parseFilters(csv string, partitionAllowed bool) ([]filter.Strategy, error) {
	if csv == "" {
		strategies := []filter.Strategy{filter.StrategySingleFilter, filter.StrategyScanlineAdaptive, filter.StrategyWeightedContinuity}
		if partitionAllowed {
			strategies = append(strategies, filter.StrategyPartitionOptimized)
		}
		return strategies, nil
	}
	var out []filter.Strategy
	for _, name := range strings.Split(csv, ",") {
		switch strings.TrimSpace(name) {
		case "SingleFilter":
			out = append(out, filter.StrategySingleFilter)
		case "ScanlineAdaptive":
			out = append(out, filter.StrategyScanlineAdaptive)
		case "WeightedContinuity":
			out = append(out, filter.StrategyWeightedContinuity)
		case "PartitionOptimized":
			if !partitionAllowed {
				return nil, errors.New("pngcrush: PartitionOptimized requested but -partition=false")
			}
			out = append(out, filter.StrategyPartitionOptimized)
		default:
			return nil, errors.Errorf("pngcrush: unknown filter strategy %q", name)
		}
	}
	return out, nil
}

func parseLevels(csv string) ([]zlibcodec.Level, error) {
	if csv == "" {
		return nil, nil
	}
	var out []zlibcodec.Level
	for _, name := range strings.Split(csv, ",") {
		switch strings.TrimSpace(name) {
		case "Fastest":
			out = append(out, zlibcodec.Fastest)
		case "Fast":
			out = append(out, zlibcodec.Fast)
		case "Default":
			out = append(out, zlibcodec.Default)
		case "Maximum":
			out = append(out, zlibcodec.Maximum)
		case "Ultra":
			out = append(out, zlibcodec.Ultra)
		default:
			return nil, errors.Errorf("pngcrush: unknown deflate level %q", name)
		}
	}
	return out, nil
}

// errorLine renders a one-line diagnostic, or the full cause chain when
// verbose.
func errorLine(err error, verbose bool) string {
	if verbose {
		return fmt.Sprintf("%+v", err)
	}
	return err.Error()
}
