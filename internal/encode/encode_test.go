package encode

import (
	"bytes"
	"testing"

	"github.com/hawkynt/pngcrush/internal/chunkcodec"
	"github.com/hawkynt/pngcrush/internal/filter"
	"github.com/hawkynt/pngcrush/internal/ihdr"
	"github.com/hawkynt/pngcrush/internal/raster"
	"github.com/hawkynt/pngcrush/internal/zlibcodec"
)

func bgra(r, g, b, a byte) []byte { return []byte{b, g, r, a} }

// S1: 1x1 opaque red encodes to a decodable RGB,8,None PNG.
func TestEncodeS1OpaqueRed(t *testing.T) {
	buf := raster.New(1, 1, 4, bgra(255, 0, 0, 255))
	combo := Combo{ColorMode: ihdr.RGB, BitDepth: 8, Interlace: ihdr.InterlaceNone, Strategy: filter.StrategySingleFilter, Level: zlibcodec.Default}
	result, err := Encode(buf, combo, DefaultParams())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	stream, _, err := chunkcodec.ReadAll(bytes.NewReader(result.Bytes))
	if err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if len(stream.Chunks) == 0 {
		t.Fatal("no chunks decoded")
	}
	if result.Filters[0] != filter.None {
		t.Errorf("expected filter None for 1x1 image, got %v", result.Filters[0])
	}
}

func TestEncodeInfeasiblePaletteSubByteNonSingle(t *testing.T) {
	pixels := append(append(append(
		bgra(0, 0, 0, 255),
		bgra(255, 255, 255, 255)...),
		bgra(255, 255, 255, 255)...),
		bgra(0, 0, 0, 255)...)
	buf := raster.New(2, 2, 8, pixels)
	combo := Combo{ColorMode: ihdr.Palette, BitDepth: 1, Strategy: filter.StrategyScanlineAdaptive, Level: zlibcodec.Default}
	_, err := Encode(buf, combo, DefaultParams())
	if err == nil {
		t.Fatal("expected ErrCombinationInfeasible")
	}
}

func TestEncodeAdam7Roundtrip(t *testing.T) {
	var pixels []byte
	for y := 0; y < 9; y++ {
		for x := 0; x < 9; x++ {
			v := byte((x + y) * 10)
			pixels = append(pixels, bgra(v, v, v, 255)...)
		}
	}
	buf := raster.New(9, 9, 9*4, pixels)
	combo := Combo{ColorMode: ihdr.Grayscale, BitDepth: 8, Interlace: ihdr.InterlaceAdam7, Strategy: filter.StrategyScanlineAdaptive, Level: zlibcodec.Fast}
	result, err := Encode(buf, combo, DefaultParams())
	if err != nil {
		t.Fatalf("Encode interlaced: %v", err)
	}
	if len(result.Bytes) == 0 {
		t.Fatal("expected non-empty output")
	}
}
