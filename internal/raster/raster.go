// Package raster holds the decoded pixel buffer: a BGRA raster shared
// read-only across every search candidate, its one-pass content analysis,
// and the conversions into each target PNG color mode.
package raster

import "github.com/hawkynt/pngcrush/internal/ihdr"

// Buffer is the immutable-after-construction pixel container. Pixels are
// row-major BGRA, matching the host's bitmap intake contract.
type Buffer struct {
	Width, Height int
	Stride        int // bytes per row; may exceed Width*4 if the host pads rows
	Pixels        []byte
}

// New builds a Buffer from host-supplied BGRA bytes. The input is copied
// so the Buffer can be shared read-only across candidates without aliasing
// host-owned memory.
func New(width, height, stride int, bgra []byte) *Buffer {
	cp := make([]byte, len(bgra))
	copy(cp, bgra)
	return &Buffer{Width: width, Height: height, Stride: stride, Pixels: cp}
}

// at returns the R,G,B,A components of pixel (x,y), read from BGRA storage.
func (b *Buffer) at(x, y int) (r, g, bl, a byte) {
	off := y*b.Stride + x*4
	bl = b.Pixels[off]
	g = b.Pixels[off+1]
	r = b.Pixels[off+2]
	a = b.Pixels[off+3]
	return
}

// Stats is the one-pass content analysis used to drive color-mode selection.
type Stats struct {
	UniqueColors int
	HasAlpha     bool
	IsGrayscale  bool
}

// Analyze computes Stats in a single pass over the pixels.
func (b *Buffer) Analyze() Stats {
	seen := make(map[uint32]struct{})
	hasAlpha := false
	isGray := true
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			r, g, bl, a := b.at(x, y)
			if a != 255 {
				hasAlpha = true
			}
			if r != g || g != bl {
				isGray = false
			}
			key := uint32(r)<<16 | uint32(g)<<8 | uint32(bl)
			seen[key] = struct{}{}
		}
	}
	return Stats{UniqueColors: len(seen), HasAlpha: hasAlpha, IsGrayscale: isGray}
}

// grayValue applies the standard luma formula, rounding to nearest.
func grayValue(r, g, bl byte) byte {
	y := 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(bl)
	return byte(y + 0.5)
}

func (b *Buffer) ConvertPlain(colorType ihdr.ColorType) *SampleGrid {
	spp := colorType.SamplesPerPixel()
	grid := newSampleGrid(b.Width, b.Height, spp)
	for y := 0; y < b.Height; y++ {
		row := grid.row(y)
		for x := 0; x < b.Width; x++ {
			r, g, bl, a := b.at(x, y)
			base := x * spp
			switch colorType {
			case ihdr.Grayscale:
				row[base] = grayValue(r, g, bl)
			case ihdr.GrayscaleAlpha:
				row[base] = grayValue(r, g, bl)
				row[base+1] = a
			case ihdr.RGB:
				row[base] = r
				row[base+1] = g
				row[base+2] = bl
			case ihdr.RGBA:
				row[base] = r
				row[base+1] = g
				row[base+2] = bl
				row[base+3] = a
			}
		}
	}
	return grid
}

// ConvertGrayscaleScaled builds a Grayscale sample grid at a sub-byte bit
// depth by linearly rescaling the image's distinct 8-bit gray levels onto
// [0, 2^bitDepth-1] in ascending order. The second return value reports
// whether that rescale is lossless: a standard PNG viewer reconstructs an
// n-bit gray sample v as round(v*255/maxIndex), so the mapping only
// round-trips when every source level already sits on one of those
// reconstructed values (e.g. pure black/white at depth 1). Callers must
// reject the candidate when this is false; assembling it anyway would
// silently change the decoded pixels.
func (b *Buffer) ConvertGrayscaleScaled(bitDepth uint8) (*SampleGrid, bool) {
	levels := make(map[byte]struct{})
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			r, g, bl, _ := b.at(x, y)
			levels[grayValue(r, g, bl)] = struct{}{}
		}
	}
	sorted := make([]byte, 0, len(levels))
	for v := range levels {
		sorted = append(sorted, v)
	}
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j-1] > sorted[j]; j-- {
			sorted[j-1], sorted[j] = sorted[j], sorted[j-1]
		}
	}
	rank := make(map[byte]byte, len(sorted))
	maxIndex := (1 << bitDepth) - 1
	lossless := true
	for i, v := range sorted {
		idx := i
		if len(sorted) > 1 {
			idx = i * maxIndex / (len(sorted) - 1)
		}
		rank[v] = byte(idx)
		if reconstructed := byte((idx*255 + maxIndex/2) / maxIndex); reconstructed != v {
			lossless = false
		}
	}

	grid := newSampleGrid(b.Width, b.Height, 1)
	for y := 0; y < b.Height; y++ {
		row := grid.row(y)
		for x := 0; x < b.Width; x++ {
			r, g, bl, _ := b.at(x, y)
			row[x] = rank[grayValue(r, g, bl)]
		}
	}
	return grid, lossless
}

// SampleGrid is a row-major byte-sample buffer (one byte per sample; 16-bit
// output widens these at pack time). It mirrors bitpack.Grid's shape but
// stays byte-valued here since raster conversion never needs more than 8
// bits of source precision (the host's BGRA intake is 8-bit sRGB).
type SampleGrid struct {
	Width, Height, SamplesPerPixel int
	samples                        []byte
}

func newSampleGrid(width, height, spp int) *SampleGrid {
	return &SampleGrid{Width: width, Height: height, SamplesPerPixel: spp, samples: make([]byte, width*height*spp)}
}

func (g *SampleGrid) row(y int) []byte {
	spp := g.SamplesPerPixel
	start := y * g.Width * spp
	return g.samples[start : start+g.Width*spp]
}

// Row exposes one row of samples for downstream bit-packing.
func (g *SampleGrid) Row(y int) []byte { return g.row(y) }

// Uint16Row widens a row to uint16 samples, the shape bitpack.PackRow
// expects.
func (g *SampleGrid) Uint16Row(y int) []uint16 {
	row := g.row(y)
	out := make([]uint16, len(row))
	for i, v := range row {
		out[i] = uint16(v)
	}
	return out
}
