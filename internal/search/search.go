// Package search runs combination enumeration, bounded-parallel candidate
// execution, and minimum-size selection with deterministic tie-breaking.
// The concurrency gate is a plain sync.WaitGroup plus a buffered-channel
// semaphore, no worker-pool library.
package search

import (
	"runtime"
	"sync"

	"github.com/hawkynt/pngcrush/internal/encode"
	"github.com/hawkynt/pngcrush/internal/filter"
	"github.com/hawkynt/pngcrush/internal/ihdr"
	"github.com/hawkynt/pngcrush/internal/raster"
	"github.com/hawkynt/pngcrush/internal/report"
	"github.com/hawkynt/pngcrush/internal/zlibcodec"
	"github.com/pkg/errors"
)

// DefaultFilterStrategies and DefaultDeflateLevels are the canonical
// defaults Enumerate uses when Options leaves FilterStrategies or
// DeflateLevels empty.
var (
	DefaultFilterStrategies = []filter.Strategy{
		filter.StrategySingleFilter,
		filter.StrategyScanlineAdaptive,
		filter.StrategyWeightedContinuity,
		filter.StrategyPartitionOptimized,
	}
	DefaultDeflateLevels = []zlibcodec.Level{
		zlibcodec.Fastest,
		zlibcodec.Fast,
		zlibcodec.Default,
		zlibcodec.Maximum,
		zlibcodec.Ultra,
	}
)

// MaxPaletteColors is the default palette-mode cutoff: above this many
// unique colors, Palette mode is dropped from the auto color-mode ladder.
const MaxPaletteColors = 256

// Options is the search configuration: a plain struct populated from
// fixed defaults rather than reflection-based discovery.
type Options struct {
	AutoColorMode    bool
	Interlace        bool
	FilterStrategies []filter.Strategy
	DeflateLevels    []zlibcodec.Level
	MaxParallelTasks int
	EncodeParams     encode.Params
}

// DefaultOptions returns the documented default search configuration.
func DefaultOptions() Options {
	return Options{
		AutoColorMode:    true,
		Interlace:        false,
		FilterStrategies: DefaultFilterStrategies,
		DeflateLevels:    DefaultDeflateLevels,
		MaxParallelTasks: runtime.NumCPU(),
		EncodeParams:     encode.DefaultParams(),
	}
}

// ErrAllCandidatesFailed is returned when every enumerated combination
// failed or was infeasible.
var ErrAllCandidatesFailed = errors.New("search: all candidates failed")

// Outcome is what SearchDriver returns: the winning result plus every
// candidate's stats, in enumeration order, for Reporting/Trace.
type Outcome struct {
	Winner     *encode.Result
	Candidates []report.CandidateStat
}

// Run enumerates the combination set for buf, executes every candidate
// under a bounded worker pool, and returns the smallest result. Ties break
// by first-enumerated order.
func Run(buf *raster.Buffer, opts Options) (*Outcome, error) {
	combos := Enumerate(buf, opts)
	if len(combos) == 0 {
		return nil, errors.WithStack(ErrAllCandidatesFailed)
	}

	results := make([]*encode.Result, len(combos))
	errs := make([]error, len(combos))

	maxParallel := opts.MaxParallelTasks
	if maxParallel <= 0 {
		maxParallel = runtime.NumCPU()
	}
	gate := make(chan struct{}, maxParallel)
	var wg sync.WaitGroup

	for i, combo := range combos {
		wg.Add(1)
		gate <- struct{}{}
		go func(i int, combo encode.Combo) {
			defer wg.Done()
			defer func() { <-gate }()
			r, err := encode.Encode(buf, combo, opts.EncodeParams)
			if err != nil {
				errs[i] = err
				return
			}
			results[i] = r
		}(i, combo)
	}
	wg.Wait()

	best := -1
	stats := make([]report.CandidateStat, 0, len(combos))
	for i, r := range results {
		if r == nil {
			continue // infeasible or internally failed
		}
		stats = append(stats, report.CandidateStat{
			Combo:             describeCombo(r.Combo),
			CompressedSize:    r.CompressedSize,
			FilterTransitions: r.FilterTransitions,
			Elapsed:           r.Elapsed,
		})
		if best == -1 || r.CompressedSize < results[best].CompressedSize {
			best = i
		}
	}
	if best == -1 {
		return nil, errors.WithStack(ErrAllCandidatesFailed)
	}

	return &Outcome{Winner: results[best], Candidates: stats}, nil
}

func describeCombo(c encode.Combo) string {
	return report.DescribeCombo(int(c.ColorMode), int(c.BitDepth), int(c.Interlace), int(c.Strategy), int(c.Level))
}

// Enumerate builds the candidate combination set: the auto-color-mode
// ladder (or a single fixed mode) crossed with the interlace axis, filter
// strategies, and deflate levels, dropping infeasible combinations.
func Enumerate(buf *raster.Buffer, opts Options) []encode.Combo {
	stats := buf.Analyze()

	var colorModes []struct {
		Mode  ihdr.ColorType
		Depth uint8
	}

	if opts.AutoColorMode {
		colorModes = autoColorLadder(stats)
	} else {
		mode := ihdr.RGB
		if stats.HasAlpha {
			mode = ihdr.RGBA
		}
		colorModes = []struct {
			Mode  ihdr.ColorType
			Depth uint8
		}{{mode, 8}}
	}

	interlaces := []ihdr.InterlaceMethod{ihdr.InterlaceNone}
	if opts.Interlace {
		interlaces = append(interlaces, ihdr.InterlaceAdam7)
	}

	strategies := opts.FilterStrategies
	if len(strategies) == 0 {
		strategies = DefaultFilterStrategies
	}
	levels := opts.DeflateLevels
	if len(levels) == 0 {
		levels = DefaultDeflateLevels
	}

	var combos []encode.Combo
	for _, cm := range colorModes {
		for _, il := range interlaces {
			for _, st := range strategies {
				for _, lvl := range levels {
					if cm.Mode == ihdr.Palette && cm.Depth < 8 && st != filter.StrategySingleFilter {
						continue // CombinationInfeasible, dropped before dispatch
					}
					combos = append(combos, encode.Combo{
						ColorMode: cm.Mode,
						BitDepth:  cm.Depth,
						Interlace: il,
						Strategy:  st,
						Level:     lvl,
					})
				}
			}
		}
	}
	return combos
}

func autoColorLadder(stats raster.Stats) []struct {
	Mode  ihdr.ColorType
	Depth uint8
} {
	type entry = struct {
		Mode  ihdr.ColorType
		Depth uint8
	}

	if stats.IsGrayscale && stats.HasAlpha {
		return []entry{{ihdr.GrayscaleAlpha, 8}}
	}

	if stats.IsGrayscale {
		ladder := []entry{{ihdr.Grayscale, 8}}
		if stats.UniqueColors <= 16 {
			ladder = append(ladder, entry{ihdr.Grayscale, 4})
		}
		if stats.UniqueColors <= 4 {
			ladder = append(ladder, entry{ihdr.Grayscale, 2})
		}
		if stats.UniqueColors <= 2 {
			ladder = append(ladder, entry{ihdr.Grayscale, 1})
		}
		return ladder
	}

	base := ihdr.RGB
	if stats.HasAlpha {
		base = ihdr.RGBA
	}
	ladder := []entry{{base, 8}}

	if stats.UniqueColors <= MaxPaletteColors {
		ladder = append(ladder, entry{ihdr.Palette, 8})
		if stats.UniqueColors <= 16 {
			ladder = append(ladder, entry{ihdr.Palette, 4})
		}
		if stats.UniqueColors <= 4 {
			ladder = append(ladder, entry{ihdr.Palette, 2})
		}
		if stats.UniqueColors <= 2 {
			ladder = append(ladder, entry{ihdr.Palette, 1})
		}
	}
	return ladder
}
