// Package ihdr parses and serializes the 13-byte IHDR payload and validates
// the (color type, bit depth) combinations PNG permits.
package ihdr

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

var b binary.ByteOrder = binary.BigEndian

// ColorType is the PNG color_type byte.
type ColorType uint8

const (
	Grayscale      ColorType = 0
	RGB            ColorType = 2
	Palette        ColorType = 3
	GrayscaleAlpha ColorType = 4
	RGBA           ColorType = 6
)

// InterlaceMethod is the PNG interlace_method byte.
type InterlaceMethod uint8

const (
	InterlaceNone  InterlaceMethod = 0
	InterlaceAdam7 InterlaceMethod = 1
)

// IHDR is the parsed 13-byte IHDR payload.
type IHDR struct {
	Width             uint32
	Height            uint32
	BitDepth          uint8
	ColorType         ColorType
	CompressionMethod uint8
	FilterMethod      uint8
	InterlaceMethod   InterlaceMethod
}

var (
	ErrInvalidLength       = errors.New("ihdr: payload must be exactly 13 bytes")
	ErrZeroDimension        = errors.New("ihdr: width and height must be > 0")
	ErrUnsupportedCompress  = errors.New("ihdr: compression_method must be 0")
	ErrUnsupportedFilter    = errors.New("ihdr: filter_method must be 0")
	ErrInvalidColorBitPair  = errors.New("ihdr: invalid (color_type, bit_depth) combination")
)

// validBitDepths maps each color type to the bit depths PNG permits for it.
var validBitDepths = map[ColorType]map[uint8]bool{
	Grayscale:      {1: true, 2: true, 4: true, 8: true, 16: true},
	RGB:            {8: true, 16: true},
	Palette:        {1: true, 2: true, 4: true, 8: true},
	GrayscaleAlpha: {8: true, 16: true},
	RGBA:           {8: true, 16: true},
}

// SamplesPerPixel returns the sample count per pixel for a color type;
// Palette is 1 (one index byte per pixel).
func (c ColorType) SamplesPerPixel() int {
	switch c {
	case Grayscale, Palette:
		return 1
	case GrayscaleAlpha:
		return 2
	case RGB:
		return 3
	case RGBA:
		return 4
	default:
		return 0
	}
}

// Parse decodes and validates a 13-byte IHDR payload.
func Parse(data []byte) (*IHDR, error) {
	if len(data) != 13 {
		return nil, errors.WithStack(ErrInvalidLength)
	}
	h := &IHDR{
		Width:             b.Uint32(data[0:4]),
		Height:            b.Uint32(data[4:8]),
		BitDepth:          data[8],
		ColorType:         ColorType(data[9]),
		CompressionMethod: data[10],
		FilterMethod:      data[11],
		InterlaceMethod:   InterlaceMethod(data[12]),
	}
	if err := h.Validate(); err != nil {
		return nil, err
	}
	return h, nil
}

// Validate checks dimensions, fixed method bytes, and the (color_type,
// bit_depth) pairing.
func (h *IHDR) Validate() error {
	if h.Width == 0 || h.Height == 0 {
		return errors.WithStack(ErrZeroDimension)
	}
	if h.CompressionMethod != 0 {
		return errors.WithStack(ErrUnsupportedCompress)
	}
	if h.FilterMethod != 0 {
		return errors.WithStack(ErrUnsupportedFilter)
	}
	allowed, ok := validBitDepths[h.ColorType]
	if !ok || !allowed[h.BitDepth] {
		return errors.Wrapf(ErrInvalidColorBitPair, "color_type=%d bit_depth=%d", h.ColorType, h.BitDepth)
	}
	return nil
}

// Serialize writes the 13-byte IHDR payload.
func (h *IHDR) Serialize() []byte {
	data := make([]byte, 13)
	b.PutUint32(data[0:4], h.Width)
	b.PutUint32(data[4:8], h.Height)
	data[8] = h.BitDepth
	data[9] = byte(h.ColorType)
	data[10] = h.CompressionMethod
	data[11] = h.FilterMethod
	data[12] = byte(h.InterlaceMethod)
	return data
}

// WithoutInterlace clones h with InterlaceMethod forced to InterlaceNone,
// leaving h itself unchanged.
func (h *IHDR) WithoutInterlace() *IHDR {
	clone := *h
	clone.InterlaceMethod = InterlaceNone
	return &clone
}
