// Package recompress decodes an existing PNG down to its raw, unfiltered
// samples, then re-runs the filter-strategy/deflate-level search while
// holding color mode and bit depth fixed (output is non-interlaced unless
// Options.Interlace adds an Adam7 candidate), and re-frames the winner with every ancillary chunk from the original file
// preserved verbatim and in order.
package recompress

import (
	"bytes"
	"fmt"
	"io"
	"runtime"
	"sync"
	"time"

	"github.com/hawkynt/pngcrush/internal/adam7"
	"github.com/hawkynt/pngcrush/internal/ancillary"
	"github.com/hawkynt/pngcrush/internal/bitpack"
	"github.com/hawkynt/pngcrush/internal/chunkcodec"
	"github.com/hawkynt/pngcrush/internal/encode"
	"github.com/hawkynt/pngcrush/internal/filter"
	"github.com/hawkynt/pngcrush/internal/ihdr"
	"github.com/hawkynt/pngcrush/internal/raster"
	"github.com/hawkynt/pngcrush/internal/report"
	"github.com/hawkynt/pngcrush/internal/zlibcodec"
	"github.com/pkg/errors"
)

// Options configures a recompress run. Unlike search.Options, there is no
// AutoColorMode axis: the input's own color mode and bit depth are fixed,
// and only filter strategy and deflate level are searched.
type Options struct {
	FilterStrategies []filter.Strategy
	DeflateLevels    []zlibcodec.Level
	// Interlace additionally tries an Adam7-interlaced candidate alongside
	// the non-interlaced one, letting the search choose whichever
	// compresses smaller. The supplemented feature from SPEC_FULL.md §5;
	// disabled by default, in which case the output is always non-interlaced,
	// whatever the input's interlace method.
	Interlace        bool
	MaxParallelTasks int
	EncodeParams     encode.Params
}

// DefaultOptions mirrors search.DefaultOptions's filter/level defaults.
func DefaultOptions() Options {
	return Options{
		FilterStrategies: []filter.Strategy{
			filter.StrategySingleFilter,
			filter.StrategyScanlineAdaptive,
			filter.StrategyWeightedContinuity,
			filter.StrategyPartitionOptimized,
		},
		DeflateLevels: []zlibcodec.Level{
			zlibcodec.Fastest,
			zlibcodec.Fast,
			zlibcodec.Default,
			zlibcodec.Maximum,
			zlibcodec.Ultra,
		},
		EncodeParams: encode.DefaultParams(),
	}
}

var (
	// ErrNoIDAT is returned when a parsed stream has an IHDR but its
	// concatenated IDAT payload inflates to nothing.
	ErrNoIDAT = errors.New("recompress: empty decoded image data")
)

// AncillaryEntry is one non-IHDR/IDAT/IEND chunk carried through from the
// input verbatim, recorded for the passthrough ledger (SPEC_FULL.md §5).
type AncillaryEntry struct {
	Type chunkcodec.ChunkType
	Size int
	data []byte
}

// Describe renders a one-line human-readable summary of the chunk for the
// handful of ancillary types this module knows how to interpret
// (internal/ancillary); unrecognized types fall back to their size alone.
func (e AncillaryEntry) Describe() string {
	c := chunkcodec.Chunk{Type: e.Type, Data: e.data}
	switch e.Type.String() {
	case "tIME":
		if t, err := ancillary.ParseTime(c); err == nil {
			return "tIME " + t.ToTime().Format(time.RFC3339)
		}
	case "pHYs":
		if p, err := ancillary.ParsePhysical(c); err == nil {
			return fmt.Sprintf("pHYs %dx%d unit=%d", p.PixelsPerUnitX, p.PixelsPerUnitY, p.UnitSpecifier)
		}
	case "tEXt":
		if t, err := ancillary.ParseText(c); err == nil {
			return fmt.Sprintf("tEXt %s=%q", t.Keyword, t.Value)
		}
	case "zTXt":
		if kw, _, err := ancillary.ParseCompressedTextKeyword(c); err == nil {
			return fmt.Sprintf("zTXt %s (%d bytes compressed)", kw, e.Size)
		}
	}
	return fmt.Sprintf("%s (%d bytes)", e.Type.String(), e.Size)
}

// Outcome is what Recompress returns: the rewritten file plus bookkeeping.
type Outcome struct {
	Bytes      []byte
	InputSize  int
	Ancillary  []AncillaryEntry
	Winner     encode.Combo
	Candidates []report.CandidateStat
}

// Recompress runs the decode/re-search/re-frame pipeline end to end.
func Recompress(input []byte, opts Options) (*Outcome, error) {
	stream, _, err := chunkcodec.ReadAll(bytes.NewReader(input))
	if err != nil {
		return nil, errors.Wrap(err, "recompress: read input")
	}

	var ihdrChunk *chunkcodec.Chunk
	var ancillaryChunks []chunkcodec.Chunk
	var ancillaryLedger []AncillaryEntry
	for i := range stream.Chunks {
		c := stream.Chunks[i]
		switch c.Type.String() {
		case chunkcodec.TypeIHDR:
			ihdrChunk = &stream.Chunks[i]
		case chunkcodec.TypeIDAT, chunkcodec.TypeIEND, chunkcodec.TypePLTE:
			// PLTE is regenerated by the encoder when the winner is palette
			// mode; IDAT/IEND are always regenerated.
		default:
			ancillaryChunks = append(ancillaryChunks, c)
			ancillaryLedger = append(ancillaryLedger, AncillaryEntry{Type: c.Type, Size: len(c.Data), data: c.Data})
		}
	}
	if ihdrChunk == nil {
		return nil, errors.WithStack(chunkcodec.ErrMissingIHDR)
	}

	h, err := ihdr.Parse(ihdrChunk.Data)
	if err != nil {
		return nil, errors.Wrap(err, "recompress: parse IHDR")
	}

	raw := chunkcodec.GetConcatenatedIDAT(stream.Chunks)
	scanlines, err := zlibcodec.Inflate(raw)
	if err != nil {
		return nil, errors.Wrap(err, "recompress: inflate IDAT")
	}
	if len(scanlines) == 0 {
		return nil, errors.WithStack(ErrNoIDAT)
	}

	spp := h.ColorType.SamplesPerPixel()
	grid, err := deinterlace(scanlines, h, spp)
	if err != nil {
		return nil, errors.Wrap(err, "recompress: deinterlace")
	}

	var palette []raster.PaletteEntry
	if h.ColorType == ihdr.Palette {
		palette, err = readPalette(stream.Chunks)
		if err != nil {
			return nil, err
		}
	}

	interlaces := []ihdr.InterlaceMethod{ihdr.InterlaceNone}
	if opts.Interlace {
		interlaces = append(interlaces, ihdr.InterlaceAdam7)
	}

	strategies := opts.FilterStrategies
	if len(strategies) == 0 {
		strategies = DefaultOptions().FilterStrategies
	}
	levels := opts.DeflateLevels
	if len(levels) == 0 {
		levels = DefaultOptions().DeflateLevels
	}

	var combos []encode.Combo
	for _, il := range interlaces {
		for _, st := range strategies {
			if h.ColorType == ihdr.Palette && h.BitDepth < 8 && st != filter.StrategySingleFilter {
				continue
			}
			for _, lvl := range levels {
				combos = append(combos, encode.Combo{
					ColorMode: h.ColorType,
					BitDepth:  h.BitDepth,
					Interlace: il,
					Strategy:  st,
					Level:     lvl,
				})
			}
		}
	}

	results := make([]*encode.Result, len(combos))

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
			r, err := encode.EncodeGrid(int(h.Width), int(h.Height), grid, palette, combo, opts.EncodeParams)
			if err != nil {
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
			continue
		}
		stats = append(stats, report.CandidateStat{
			Combo:             report.DescribeCombo(int(r.Combo.ColorMode), int(r.Combo.BitDepth), int(r.Combo.Interlace), int(r.Combo.Strategy), int(r.Combo.Level)),
			CompressedSize:    r.CompressedSize,
			FilterTransitions: r.FilterTransitions,
			Elapsed:           r.Elapsed,
		})
		if best == -1 || r.CompressedSize < results[best].CompressedSize {
			best = i
		}
	}
	if best == -1 {
		return nil, errors.WithStack(encode.ErrCombinationInfeasible)
	}
	bestResult := results[best]

	finalBytes, err := spliceAncillary(bestResult.Bytes, ancillaryChunks)
	if err != nil {
		return nil, err
	}

	return &Outcome{
		Bytes:      finalBytes,
		InputSize:  len(input),
		Ancillary:  ancillaryLedger,
		Winner:     bestResult.Combo,
		Candidates: stats,
	}, nil
}

// deinterlace reconstructs the full sample grid from inflated scanline
// bytes, dispatching to the Adam7 reader or a flat sequential reader
// depending on the input's interlace method.
func deinterlace(scanlines []byte, h *ihdr.IHDR, spp int) (*bitpack.Grid, error) {
	width, height := int(h.Width), int(h.Height)
	bpp := bitpack.BytesPerPixel(int(h.BitDepth), spp)

	if h.InterlaceMethod == ihdr.InterlaceAdam7 {
		r := bytes.NewReader(scanlines)
		return deinterlaceAdam7(r, width, height, int(h.BitDepth), spp, bpp)
	}

	grid := bitpack.NewGrid(width, height, spp)
	stride := bitpack.Stride(width, int(h.BitDepth), spp)
	pos := 0
	var prev []byte
	for y := 0; y < height; y++ {
		if pos >= len(scanlines) {
			return nil, errors.WithStack(io.ErrUnexpectedEOF)
		}
		tag := scanlines[pos]
		pos++
		if pos+stride > len(scanlines) {
			return nil, errors.WithStack(io.ErrUnexpectedEOF)
		}
		filtered := scanlines[pos : pos+stride]
		pos += stride
		recon := make([]byte, stride)
		filter.Reverse(filter.Type(tag), recon, filtered, prev, bpp)
		samples := bitpack.UnpackRow(recon, width*spp, int(h.BitDepth))
		copy(grid.Row(y), samples)
		prev = recon
	}
	return grid, nil
}

// deinterlaceAdam7 replays the seven Adam7 passes from a flat byte reader,
// each pass sized by its own (tag-byte + stride) framing. It recomputes the
// same pass boundaries FilterPasses used to produce the stream, tracking
// both the current pass and the row within it, since passes vary in width
// and row count and several can be empty for small images.
func deinterlaceAdam7(r *bytes.Reader, width, height, bitDepth, spp, bpp int) (*bitpack.Grid, error) {
	passIdx := 0
	rowIdx := 0
	nextRow := func() (byte, []byte, error) {
		for passIdx < len(adam7.Passes) {
			p := adam7.Passes[passIdx]
			passW, passH := p.Dimensions(width, height)
			if passW == 0 || passH == 0 || rowIdx >= passH {
				passIdx++
				rowIdx = 0
				continue
			}
			tag, err := r.ReadByte()
			if err != nil {
				return 0, nil, errors.Wrap(err, "recompress: read pass filter tag")
			}
			stride := bitpack.Stride(passW, bitDepth, spp)
			row := make([]byte, stride)
			if _, err := io.ReadFull(r, row); err != nil {
				return 0, nil, errors.Wrap(err, "recompress: read pass scanline")
			}
			rowIdx++
			return tag, row, nil
		}
		return 0, nil, errors.New("recompress: ran out of Adam7 passes")
	}
	return adam7.DeinterlacePasses(width, height, bitDepth, spp, nextRow)
}

// readPalette extracts the PLTE payload as PaletteEntry triples.
func readPalette(chunks []chunkcodec.Chunk) ([]raster.PaletteEntry, error) {
	for _, c := range chunks {
		if c.Type.String() != chunkcodec.TypePLTE {
			continue
		}
		if len(c.Data)%3 != 0 {
			return nil, errors.New("recompress: PLTE length not a multiple of 3")
		}
		out := make([]raster.PaletteEntry, len(c.Data)/3)
		for i := range out {
			out[i] = raster.PaletteEntry{R: c.Data[i*3], G: c.Data[i*3+1], B: c.Data[i*3+2]}
		}
		return out, nil
	}
	return nil, errors.New("recompress: Palette color type without PLTE chunk")
}

// spliceAncillary re-parses the freshly assembled PNG and reinserts the
// original file's ancillary chunks between IHDR and IDAT, preserving their
// relative order among themselves. IEND stays last. This always lands them
// before a regenerated PLTE, so palette-relative ancillaries (bKGD, hIST,
// tRNS) that the input placed after PLTE end up before it here; only their
// order relative to each other is preserved, not their position relative
// to PLTE.
func spliceAncillary(assembled []byte, ancillaryChunks []chunkcodec.Chunk) ([]byte, error) {
	if len(ancillaryChunks) == 0 {
		return assembled, nil
	}
	stream, _, err := chunkcodec.ReadAll(bytes.NewReader(assembled))
	if err != nil {
		return nil, errors.Wrap(err, "recompress: re-read assembled output")
	}

	var out []chunkcodec.Chunk
	inserted := false
	for _, c := range stream.Chunks {
		out = append(out, c)
		if !inserted && c.Type.String() == chunkcodec.TypeIHDR {
			out = append(out, ancillaryChunks...)
			inserted = true
		}
	}

	var buf bytes.Buffer
	if err := chunkcodec.Write(&buf, out); err != nil {
		return nil, errors.Wrap(err, "recompress: write spliced output")
	}
	return buf.Bytes(), nil
}
