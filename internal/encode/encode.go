// Package encode turns an immutable raster.Buffer and one candidate
// combination into a fully framed PNG byte string, plus the bookkeeping
// the search driver and reporting layer need to pick a winner.
package encode

import (
	"bytes"
	"time"

	"github.com/hawkynt/pngcrush/internal/adam7"
	"github.com/hawkynt/pngcrush/internal/bitpack"
	"github.com/hawkynt/pngcrush/internal/chunkcodec"
	"github.com/hawkynt/pngcrush/internal/filter"
	"github.com/hawkynt/pngcrush/internal/ihdr"
	"github.com/hawkynt/pngcrush/internal/raster"
	"github.com/hawkynt/pngcrush/internal/zlibcodec"
	"github.com/pkg/errors"
)

// Combo is one candidate encoding configuration: color mode, bit depth,
// interlacing, filter strategy, and deflate level.
type Combo struct {
	ColorMode ihdr.ColorType
	BitDepth  uint8
	Interlace ihdr.InterlaceMethod
	Strategy  filter.Strategy
	Level     zlibcodec.Level
}

// Result is one Combo's encoded output and the stats collected while
// producing it.
type Result struct {
	Combo             Combo
	Bytes             []byte
	CompressedSize    int
	Filters           []filter.Type
	FilterTransitions int
	Elapsed           time.Duration
}

// ErrCombinationInfeasible is returned when a combo is structurally
// invalid: Palette with bit_depth<8 forbids per-row filter selection,
// since the filter policy forces None for sub-byte palette rows and
// Strategy != SingleFilter would have nothing to optimize.
var ErrCombinationInfeasible = errors.New("encode: combination infeasible")

// Params bundles the tunables Encode needs beyond the combo itself.
type Params struct {
	Partitioning filter.PartitioningParams
}

// DefaultParams returns the documented default PartitioningParams.
func DefaultParams() Params {
	return Params{Partitioning: filter.DefaultPartitioningParams()}
}

// Encode runs one candidate end to end: convert, select filters, deflate,
// and assemble the framed PNG bytes.
func Encode(buf *raster.Buffer, combo Combo, params Params) (*Result, error) {
	if combo.ColorMode == ihdr.Palette && combo.BitDepth < 8 && combo.Strategy != filter.StrategySingleFilter {
		return nil, errors.WithStack(ErrCombinationInfeasible)
	}

	grid, palette, err := convert(buf, combo)
	if err != nil {
		return nil, err
	}

	return EncodeGrid(buf.Width, buf.Height, grid, palette, combo, params)
}

// EncodeGrid runs the filter-selection/compress/assemble tail of Encode
// directly over an already-converted sample grid, skipping raster
// conversion entirely. recompress uses this to hold the input's color mode
// and bit depth fixed while only searching filter strategy and deflate
// level.
func EncodeGrid(width, height int, grid *bitpack.Grid, palette []raster.PaletteEntry, combo Combo, params Params) (*Result, error) {
	start := time.Now()

	if combo.ColorMode == ihdr.Palette && combo.BitDepth < 8 && combo.Strategy != filter.StrategySingleFilter {
		return nil, errors.WithStack(ErrCombinationInfeasible)
	}

	var scanlineData []byte
	var filters []filter.Type

	if combo.Interlace == ihdr.InterlaceAdam7 {
		filters = nil
		scanlineData = adam7.FilterPasses(grid, int(combo.BitDepth), func(rows [][]byte) []filter.Type {
			f := chooseFilters(rows, int(combo.BitDepth), combo, params)
			filters = append(filters, f...)
			return f
		})
	} else {
		bpp := bitpack.BytesPerPixel(int(combo.BitDepth), grid.SamplesPerPixel)
		rows := make([][]byte, grid.Height)
		for y := 0; y < grid.Height; y++ {
			rows[y] = bitpack.PackRow(grid.Row(y), int(combo.BitDepth))
		}
		filters = chooseFilters(rows, int(combo.BitDepth), combo, params)

		var prev []byte
		for y, row := range rows {
			filtered := make([]byte, len(row))
			filter.Apply(filters[y], filtered, row, prev, bpp)
			scanlineData = append(scanlineData, byte(filters[y]))
			scanlineData = append(scanlineData, filtered...)
			prev = row
		}
	}

	compressed, err := zlibcodec.Deflate(scanlineData, combo.Level)
	if err != nil {
		return nil, errors.Wrap(err, "encode: deflate")
	}

	pngBytes, err := assemble(width, height, combo, palette, compressed)
	if err != nil {
		return nil, err
	}

	return &Result{
		Combo:             combo,
		Bytes:             pngBytes,
		CompressedSize:    len(pngBytes),
		Filters:           filters,
		FilterTransitions: filter.CountTransitions(filters),
		Elapsed:           time.Since(start),
	}, nil
}

func chooseFilters(rows [][]byte, bitDepth int, combo Combo, params Params) []filter.Type {
	switch combo.Strategy {
	case filter.StrategySingleFilter:
		return filter.SingleFilter(rows, bitpack.BytesPerPixel(bitDepth, samplesPerPixelOf(combo)), combo.ColorMode, combo.BitDepth, filter.CostSuccessiveDelta)
	case filter.StrategyWeightedContinuity:
		return filter.WeightedContinuity(rows, bitpack.BytesPerPixel(bitDepth, samplesPerPixelOf(combo)), combo.ColorMode, combo.BitDepth, filter.CostSuccessiveDelta)
	case filter.StrategyPartitionOptimized:
		return filter.PartitionOptimized(rows, bitpack.BytesPerPixel(bitDepth, samplesPerPixelOf(combo)), combo.ColorMode, combo.BitDepth, filter.CostSuccessiveDelta, params.Partitioning)
	default: // StrategyScanlineAdaptive
		return filter.ScanlineAdaptive(rows, bitpack.BytesPerPixel(bitDepth, samplesPerPixelOf(combo)), combo.ColorMode, combo.BitDepth, filter.CostSuccessiveDelta)
	}
}

func samplesPerPixelOf(combo Combo) int {
	return combo.ColorMode.SamplesPerPixel()
}

func convert(buf *raster.Buffer, combo Combo) (*bitpack.Grid, []raster.PaletteEntry, error) {
	spp := combo.ColorMode.SamplesPerPixel()

	if combo.ColorMode == ihdr.Palette {
		maxColors := 1 << combo.BitDepth
		if maxColors > 256 {
			maxColors = 256
		}
		indices, palette := buf.Quantize(maxColors)
		grid := bitpack.NewGrid(buf.Width, buf.Height, 1)
		for y := 0; y < buf.Height; y++ {
			copy(grid.Row(y), widen(indices.Row(y)))
		}
		return grid, palette, nil
	}

	var sampleGrid interface{ Row(int) []byte }
	if combo.ColorMode == ihdr.Grayscale && combo.BitDepth < 8 {
		scaled, lossless := buf.ConvertGrayscaleScaled(combo.BitDepth)
		if !lossless {
			return nil, nil, errors.WithStack(ErrCombinationInfeasible)
		}
		sampleGrid = scaled
	} else {
		sampleGrid = buf.ConvertPlain(combo.ColorMode)
	}

	grid := bitpack.NewGrid(buf.Width, buf.Height, spp)
	for y := 0; y < buf.Height; y++ {
		src := sampleGrid.Row(y)
		dst := grid.Row(y)
		if combo.BitDepth == 16 {
			for i, v := range src {
				dst[i] = uint16(v)<<8 | uint16(v)
			}
		} else {
			copy(dst, widen(src))
		}
	}
	return grid, nil, nil
}

func widen(b []byte) []uint16 {
	out := make([]uint16, len(b))
	for i, v := range b {
		out[i] = uint16(v)
	}
	return out
}

func assemble(width, height int, combo Combo, palette []raster.PaletteEntry, idatPayload []byte) ([]byte, error) {
	h := &ihdr.IHDR{
		Width:           uint32(width),
		Height:          uint32(height),
		BitDepth:        combo.BitDepth,
		ColorType:       combo.ColorMode,
		InterlaceMethod: combo.Interlace,
	}
	if err := h.Validate(); err != nil {
		return nil, errors.Wrap(err, "encode: invalid IHDR for combo")
	}

	var chunks []chunkcodec.Chunk
	chunks = append(chunks, chunkcodec.Chunk{Type: chunkcodec.NewChunkType(chunkcodec.TypeIHDR), Data: h.Serialize()})

	if combo.ColorMode == ihdr.Palette {
		plte := make([]byte, 0, len(palette)*3)
		for _, p := range palette {
			plte = append(plte, p.R, p.G, p.B)
		}
		chunks = append(chunks, chunkcodec.Chunk{Type: chunkcodec.NewChunkType(chunkcodec.TypePLTE), Data: plte})
	}

	chunks = append(chunks, chunkcodec.Chunk{Type: chunkcodec.NewChunkType(chunkcodec.TypeIDAT), Data: idatPayload})
	chunks = append(chunks, chunkcodec.Chunk{Type: chunkcodec.NewChunkType(chunkcodec.TypeIEND), Data: nil})

	var buf bytes.Buffer
	if err := chunkcodec.Write(&buf, chunks); err != nil {
		return nil, errors.Wrap(err, "encode: write chunks")
	}
	return buf.Bytes(), nil
}
