package adam7

import (
	"math/rand"
	"testing"

	"github.com/hawkynt/pngcrush/internal/bitpack"
	"github.com/hawkynt/pngcrush/internal/filter"
)

func TestDimensionsZeroForTinyImages(t *testing.T) {
	p := Passes[6] // (1,0,2,1): needs height>=2
	_, h := p.Dimensions(1, 1)
	if h != 0 {
		t.Errorf("expected 0 rows for 1x1 image on last pass, got %d", h)
	}
}

func allNoneFilters(rows [][]byte) []filter.Type {
	out := make([]filter.Type, len(rows))
	for i := range out {
		out[i] = filter.None
	}
	return out
}

func TestRoundtripVariousSizes(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	const bitDepth = 8
	const samplesPerPixel = 3

	for w := 1; w <= 8; w++ {
		for h := 1; h <= 8; h++ {
			grid := bitpack.NewGrid(w, h, samplesPerPixel)
			for i := range grid.Samples {
				grid.Samples[i] = uint16(rng.Intn(256))
			}

			encoded := FilterPasses(grid, bitDepth, allNoneFilters)

			reader := newPassReader(encoded, w, h, bitDepth, samplesPerPixel)
			decoded, err := DeinterlacePasses(w, h, bitDepth, samplesPerPixel, reader)
			if err != nil {
				t.Fatalf("%dx%d: DeinterlacePasses: %v", w, h, err)
			}
			for i := range grid.Samples {
				if decoded.Samples[i] != grid.Samples[i] {
					t.Fatalf("%dx%d: sample %d mismatch: got %d want %d", w, h, i, decoded.Samples[i], grid.Samples[i])
				}
			}
		}
	}
}

// newPassReader replays FilterPasses' flat byte stream one row at a time,
// recomputing the same pass boundaries FilterPasses used to produce it.
func newPassReader(encoded []byte, w, h, bitDepth, spp int) func() (byte, []byte, error) {
	passIdx := 0
	rowIdx := 0
	pos := 0
	return func() (byte, []byte, error) {
		for passIdx < len(Passes) {
			p := Passes[passIdx]
			passW, passH := p.Dimensions(w, h)
			if passW == 0 || passH == 0 || rowIdx >= passH {
				passIdx++
				rowIdx = 0
				continue
			}
			tag := encoded[pos]
			pos++
			stride := bitpack.Stride(passW, bitDepth, spp)
			data := encoded[pos : pos+stride]
			pos += stride
			rowIdx++
			return tag, data, nil
		}
		return 0, nil, nil
	}
}
