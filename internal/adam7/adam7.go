// Package adam7 implements the seven-pass Adam7 interlace geometry:
// per-pass sub-image dimensions and the scatter/gather between a full
// sample grid and the seven independently-filtered, independently-
// predicted passes.
package adam7

import (
	"github.com/hawkynt/pngcrush/internal/bitpack"
	"github.com/hawkynt/pngcrush/internal/filter"
)

// Pass describes one of Adam7's seven interlace passes as
// (startRow, startCol, rowInc, colInc).
type Pass struct {
	StartRow, StartCol int
	RowInc, ColInc     int
}

// Passes is the fixed Adam7 geometry table in pass order.
var Passes = [7]Pass{
	{0, 0, 8, 8},
	{0, 4, 8, 8},
	{4, 0, 8, 4},
	{0, 2, 4, 4},
	{2, 0, 4, 2},
	{0, 1, 2, 2},
	{1, 0, 2, 1},
}

// Dimensions returns the pixel width and height of the sub-image a pass
// covers for a full raster of size (width, height). Passes whose width or
// height comes out to zero contribute no bytes.
func (p Pass) Dimensions(width, height int) (passW, passH int) {
	passW = ceilDiv(width-p.StartCol, p.ColInc)
	passH = ceilDiv(height-p.StartRow, p.RowInc)
	return
}

func ceilDiv(numerator, denom int) int {
	if numerator <= 0 {
		return 0
	}
	return (numerator + denom - 1) / denom
}

// PassRows extracts pass p's pixels from the full grid as a standalone
// sub-grid, in row order, ready for its own independent filter/pack chain.
func PassRows(g *bitpack.Grid, p Pass) *bitpack.Grid {
	passW, passH := p.Dimensions(g.Width, g.Height)
	sub := bitpack.NewGrid(passW, passH, g.SamplesPerPixel)
	spp := g.SamplesPerPixel
	for py := 0; py < passH; py++ {
		srcY := p.StartRow + py*p.RowInc
		srcRow := g.Row(srcY)
		dstRow := sub.Row(py)
		for px := 0; px < passW; px++ {
			srcX := p.StartCol + px*p.ColInc
			copy(dstRow[px*spp:(px+1)*spp], srcRow[srcX*spp:(srcX+1)*spp])
		}
	}
	return sub
}

// ScatterPassRows writes a reconstructed pass sub-grid's pixels back into
// the full grid at their interlaced positions.
func ScatterPassRows(g *bitpack.Grid, p Pass, sub *bitpack.Grid) {
	spp := g.SamplesPerPixel
	for py := 0; py < sub.Height; py++ {
		dstY := p.StartRow + py*p.RowInc
		srcRow := sub.Row(py)
		dstRow := g.Row(dstY)
		for px := 0; px < sub.Width; px++ {
			dstX := p.StartCol + px*p.ColInc
			copy(dstRow[dstX*spp:(dstX+1)*spp], srcRow[px*spp:(px+1)*spp])
		}
	}
}

// FilterPasses filters every non-empty pass of the full grid independently
// (its own previous-row chain reset at the start of each pass) and returns
// the concatenated filter-tag-prefixed scanlines in pass order, ready to
// feed into the zlib codec as one IDAT payload.
func FilterPasses(g *bitpack.Grid, bitDepth int, chooseFilters func(rows [][]byte) []filter.Type) []byte {
	var out []byte
	for _, p := range Passes {
		passW, passH := p.Dimensions(g.Width, g.Height)
		if passW == 0 || passH == 0 {
			continue
		}
		sub := PassRows(g, p)
		rows := packRows(sub, bitDepth)
		bpp := bitpack.BytesPerPixel(bitDepth, g.SamplesPerPixel)
		filters := chooseFilters(rows)

		var prev []byte
		for y, row := range rows {
			filtered := make([]byte, len(row))
			filter.Apply(filters[y], filtered, row, prev, bpp)
			out = append(out, byte(filters[y]))
			out = append(out, filtered...)
			prev = row
		}
	}
	return out
}

// DeinterlacePasses is the inverse of FilterPasses: given a function that
// yields the next (filterTag, filteredRow) pair, called once per row of each
// non-empty pass in pass order, reconstructs the
// full sample grid.
func DeinterlacePasses(width, height, bitDepth, samplesPerPixel int, nextRow func() (tag byte, filtered []byte, err error)) (*bitpack.Grid, error) {
	full := bitpack.NewGrid(width, height, samplesPerPixel)
	bpp := bitpack.BytesPerPixel(bitDepth, samplesPerPixel)

	for _, p := range Passes {
		passW, passH := p.Dimensions(width, height)
		if passW == 0 || passH == 0 {
			continue
		}
		sub := bitpack.NewGrid(passW, passH, samplesPerPixel)
		var prev []byte
		for py := 0; py < passH; py++ {
			tag, filtered, err := nextRow()
			if err != nil {
				return nil, err
			}
			recon := make([]byte, len(filtered))
			filter.Reverse(filter.Type(tag), recon, filtered, prev, bpp)
			samples := bitpack.UnpackRow(recon, passW*samplesPerPixel, bitDepth)
			copy(sub.Row(py), samples)
			prev = recon
		}
		ScatterPassRows(full, p, sub)
	}
	return full, nil
}

func packRows(g *bitpack.Grid, bitDepth int) [][]byte {
	rows := make([][]byte, g.Height)
	for y := 0; y < g.Height; y++ {
		rows[y] = bitpack.PackRow(g.Row(y), bitDepth)
	}
	return rows
}
