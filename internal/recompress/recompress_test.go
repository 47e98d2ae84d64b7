package recompress

import (
	"bytes"
	"testing"

	"github.com/hawkynt/pngcrush/internal/chunkcodec"
	"github.com/hawkynt/pngcrush/internal/encode"
	"github.com/hawkynt/pngcrush/internal/filter"
	"github.com/hawkynt/pngcrush/internal/ihdr"
	"github.com/hawkynt/pngcrush/internal/raster"
	"github.com/hawkynt/pngcrush/internal/zlibcodec"
)

func bgra(r, g, b, a byte) []byte { return []byte{b, g, r, a} }

func makeCheckerboard(w, h int) *raster.Buffer {
	var pixels []byte
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := byte(0)
			if (x+y)%2 == 0 {
				v = 255
			}
			pixels = append(pixels, bgra(v, v, v, 255)...)
		}
	}
	return raster.New(w, h, w*4, pixels)
}

func encodeFixture(t *testing.T, combo encode.Combo, buf *raster.Buffer) []byte {
	t.Helper()
	result, err := encode.Encode(buf, combo, encode.DefaultParams())
	if err != nil {
		t.Fatalf("fixture Encode: %v", err)
	}
	return result.Bytes
}

func TestRecompressNonInterlacedRGB(t *testing.T) {
	buf := makeCheckerboard(6, 6)
	combo := encode.Combo{ColorMode: ihdr.RGB, BitDepth: 8, Interlace: ihdr.InterlaceNone, Strategy: filter.StrategySingleFilter, Level: zlibcodec.Fastest}
	input := encodeFixture(t, combo, buf)

	outcome, err := Recompress(input, DefaultOptions())
	if err != nil {
		t.Fatalf("Recompress: %v", err)
	}
	if len(outcome.Bytes) == 0 {
		t.Fatal("expected non-empty output")
	}

	stream, _, err := chunkcodec.ReadAll(bytes.NewReader(outcome.Bytes))
	if err != nil {
		t.Fatalf("decode recompressed output: %v", err)
	}
	h, err := ihdr.Parse(mustFindIHDR(t, stream.Chunks))
	if err != nil {
		t.Fatalf("parse output IHDR: %v", err)
	}
	if h.ColorType != ihdr.RGB || h.BitDepth != 8 {
		t.Errorf("expected RGB8 preserved, got colorType=%d bitDepth=%d", h.ColorType, h.BitDepth)
	}
}

func TestRecompressAdam7Roundtrip(t *testing.T) {
	buf := makeCheckerboard(9, 7)
	combo := encode.Combo{ColorMode: ihdr.Grayscale, BitDepth: 8, Interlace: ihdr.InterlaceAdam7, Strategy: filter.StrategyScanlineAdaptive, Level: zlibcodec.Fast}
	input := encodeFixture(t, combo, buf)

	outcome, err := Recompress(input, DefaultOptions())
	if err != nil {
		t.Fatalf("Recompress: %v", err)
	}
	if outcome.Winner.Interlace != ihdr.InterlaceNone {
		t.Errorf("expected non-interlaced output by default, got %v", outcome.Winner.Interlace)
	}
}

func TestRecompressPreservesAncillaryChunks(t *testing.T) {
	buf := makeCheckerboard(4, 4)
	combo := encode.Combo{ColorMode: ihdr.RGB, BitDepth: 8, Interlace: ihdr.InterlaceNone, Strategy: filter.StrategySingleFilter, Level: zlibcodec.Default}
	base := encodeFixture(t, combo, buf)

	stream, _, err := chunkcodec.ReadAll(bytes.NewReader(base))
	if err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	var withExtra []chunkcodec.Chunk
	for _, c := range stream.Chunks {
		withExtra = append(withExtra, c)
		if c.Type.String() == chunkcodec.TypeIHDR {
			withExtra = append(withExtra, chunkcodec.Chunk{Type: chunkcodec.NewChunkType("tEXt"), Data: []byte("Comment\x00hello")})
		}
	}
	var buf2 bytes.Buffer
	if err := chunkcodec.Write(&buf2, withExtra); err != nil {
		t.Fatalf("write fixture with tEXt: %v", err)
	}

	outcome, err := Recompress(buf2.Bytes(), DefaultOptions())
	if err != nil {
		t.Fatalf("Recompress: %v", err)
	}
	if len(outcome.Ancillary) != 1 || outcome.Ancillary[0].Type.String() != "tEXt" {
		t.Fatalf("expected tEXt in ancillary ledger, got %+v", outcome.Ancillary)
	}

	outStream, _, err := chunkcodec.ReadAll(bytes.NewReader(outcome.Bytes))
	if err != nil {
		t.Fatalf("decode recompressed output: %v", err)
	}
	found := false
	for _, c := range outStream.Chunks {
		if c.Type.String() == "tEXt" {
			found = true
		}
	}
	if !found {
		t.Error("tEXt chunk not carried through to output")
	}
}

func mustFindIHDR(t *testing.T, chunks []chunkcodec.Chunk) []byte {
	t.Helper()
	for _, c := range chunks {
		if c.Type.String() == chunkcodec.TypeIHDR {
			return c.Data
		}
	}
	t.Fatal("no IHDR chunk found")
	return nil
}
