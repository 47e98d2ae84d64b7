package raster

// PaletteEntry is one PLTE RGB triplet.
type PaletteEntry struct {
	R, G, B byte
}

// BitDepthForColors returns the smallest bit depth that can index n
// distinct palette colors: 1 if n<=2, 2 if n<=4, 4 if n<=16, else 8.
func BitDepthForColors(n int) uint8 {
	switch {
	case n <= 2:
		return 1
	case n <= 4:
		return 2
	case n <= 16:
		return 4
	default:
		return 8
	}
}

func colorKey(r, g, b byte) uint32 {
	return uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}

// Quantize is a two-phase palette quantizer: collect up to maxColors
// distinct colors in encounter order, then write per-pixel indices,
// falling back to nearest-by-squared-distance (ties favor the lowest
// index) for any color that didn't make the first maxColors cut. Alpha is
// ignored; palette mode carries no per-pixel transparency here.
func (b *Buffer) Quantize(maxColors int) (*SampleGrid, []PaletteEntry) {
	indexByColor := make(map[uint32]int)
	var palette []PaletteEntry

	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			r, g, bl, _ := b.at(x, y)
			key := colorKey(r, g, bl)
			if _, ok := indexByColor[key]; ok {
				continue
			}
			if len(palette) >= maxColors {
				continue
			}
			indexByColor[key] = len(palette)
			palette = append(palette, PaletteEntry{R: r, G: g, B: bl})
		}
	}

	grid := newSampleGrid(b.Width, b.Height, 1)
	for y := 0; y < b.Height; y++ {
		row := grid.row(y)
		for x := 0; x < b.Width; x++ {
			r, g, bl, _ := b.at(x, y)
			key := colorKey(r, g, bl)
			if idx, ok := indexByColor[key]; ok {
				row[x] = byte(idx)
				continue
			}
			row[x] = byte(nearestPaletteIndex(palette, r, g, bl))
		}
	}
	return grid, palette
}

func nearestPaletteIndex(palette []PaletteEntry, r, g, b byte) int {
	best := 0
	bestDist := -1
	for i, p := range palette {
		dr := int(r) - int(p.R)
		dg := int(g) - int(p.G)
		db := int(b) - int(p.B)
		dist := dr*dr + dg*dg + db*db
		if bestDist == -1 || dist < bestDist {
			bestDist = dist
			best = i
		}
	}
	return best
}
