package ihdr

import "testing"

func TestParseSerializeRoundtrip(t *testing.T) {
	h := &IHDR{Width: 4, Height: 1, BitDepth: 8, ColorType: RGB, InterlaceMethod: InterlaceNone}
	data := h.Serialize()
	got, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if *got != *h {
		t.Errorf("roundtrip mismatch: got %+v, want %+v", got, h)
	}
}

func TestValidateRejectsBadCombos(t *testing.T) {
	cases := []IHDR{
		{Width: 1, Height: 1, BitDepth: 3, ColorType: Grayscale},
		{Width: 1, Height: 1, BitDepth: 1, ColorType: RGB},
		{Width: 1, Height: 1, BitDepth: 8, ColorType: Palette + 10},
		{Width: 0, Height: 1, BitDepth: 8, ColorType: RGB},
	}
	for i, c := range cases {
		if err := c.Validate(); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}

func TestValidateRejectsNonZeroMethods(t *testing.T) {
	h := IHDR{Width: 1, Height: 1, BitDepth: 8, ColorType: RGB, CompressionMethod: 1}
	if err := h.Validate(); err == nil {
		t.Fatal("expected error for nonzero compression method")
	}
	h2 := IHDR{Width: 1, Height: 1, BitDepth: 8, ColorType: RGB, FilterMethod: 1}
	if err := h2.Validate(); err == nil {
		t.Fatal("expected error for nonzero filter method")
	}
}

func TestWithoutInterlace(t *testing.T) {
	h := &IHDR{Width: 1, Height: 1, BitDepth: 8, ColorType: Grayscale, InterlaceMethod: InterlaceAdam7}
	clone := h.WithoutInterlace()
	if clone.InterlaceMethod != InterlaceNone {
		t.Errorf("expected InterlaceNone, got %v", clone.InterlaceMethod)
	}
	if h.InterlaceMethod != InterlaceAdam7 {
		t.Errorf("original mutated")
	}
}

func TestSamplesPerPixel(t *testing.T) {
	cases := map[ColorType]int{
		Grayscale:      1,
		Palette:        1,
		GrayscaleAlpha: 2,
		RGB:            3,
		RGBA:           4,
	}
	for ct, want := range cases {
		if got := ct.SamplesPerPixel(); got != want {
			t.Errorf("%v.SamplesPerPixel() = %d, want %d", ct, got, want)
		}
	}
}
