package bitpack

import (
	"reflect"
	"testing"
)

func TestStride(t *testing.T) {
	cases := []struct {
		width, bitDepth, spp int
		want                 int
	}{
		{8, 1, 1, 1},
		{9, 1, 1, 2},
		{4, 4, 1, 2},
		{4, 8, 3, 12},
		{2, 16, 4, 16},
	}
	for _, c := range cases {
		if got := Stride(c.width, c.bitDepth, c.spp); got != c.want {
			t.Errorf("Stride(%d,%d,%d) = %d, want %d", c.width, c.bitDepth, c.spp, got, c.want)
		}
	}
}

func TestBytesPerPixel(t *testing.T) {
	cases := []struct {
		bitDepth, spp int
		want          int
	}{
		{1, 1, 1},
		{4, 1, 1},
		{8, 1, 1},
		{8, 3, 3},
		{16, 4, 8},
	}
	for _, c := range cases {
		if got := BytesPerPixel(c.bitDepth, c.spp); got != c.want {
			t.Errorf("BytesPerPixel(%d,%d) = %d, want %d", c.bitDepth, c.spp, got, c.want)
		}
	}
}

func TestPackUnpackRowRoundTrip(t *testing.T) {
	for _, bitDepth := range []int{1, 2, 4, 8, 16} {
		max := uint32(1)<<uint(bitDepth) - 1
		samples := make([]uint16, 7)
		for i := range samples {
			samples[i] = uint16(uint32(i) % (max + 1))
		}
		packed := PackRow(samples, bitDepth)
		got := UnpackRow(packed, len(samples), bitDepth)
		if !reflect.DeepEqual(got, samples) {
			t.Errorf("bitDepth=%d: round trip mismatch: got %v, want %v", bitDepth, got, samples)
		}
	}
}

func TestGridRow(t *testing.T) {
	g := NewGrid(3, 2, 2)
	row0 := g.Row(0)
	row1 := g.Row(1)
	if len(row0) != 6 || len(row1) != 6 {
		t.Fatalf("unexpected row lengths: %d, %d", len(row0), len(row1))
	}
	row0[0] = 42
	if g.Samples[0] != 42 {
		t.Errorf("Row does not alias the backing Samples slice")
	}
}
