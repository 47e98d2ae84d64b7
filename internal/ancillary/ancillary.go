// Package ancillary decodes the handful of ancillary PNG chunks that carry
// plain structured data (tIME, pHYs, tEXt, zTXt), for the reporting ledger
// recompress builds over whatever a source file happened to carry. Each
// Parse function takes a chunkcodec.Chunk and returns its typed payload.
package ancillary

import (
	"encoding/binary"
	"strings"
	"time"

	"github.com/hawkynt/pngcrush/internal/chunkcodec"
	"github.com/pkg/errors"
)

var b binary.ByteOrder = binary.BigEndian

var ErrNotThisType = errors.New("ancillary: chunk is not the expected type")

// Time is tIME's parsed payload: the last image modification instant.
type Time struct {
	Year                 uint16
	Month, Day           uint8
	Hour, Minute, Second uint8
}

// ParseTime decodes a tIME chunk.
func ParseTime(c chunkcodec.Chunk) (*Time, error) {
	if c.Type.String() != "tIME" {
		return nil, errors.WithStack(ErrNotThisType)
	}
	if len(c.Data) < 7 {
		return nil, errors.New("ancillary: tIME payload too short")
	}
	return &Time{
		Year:   b.Uint16(c.Data[0:2]),
		Month:  c.Data[2],
		Day:    c.Data[3],
		Hour:   c.Data[4],
		Minute: c.Data[5],
		Second: c.Data[6],
	}, nil
}

// ToTime converts to a UTC time.Time.
func (t *Time) ToTime() time.Time {
	return time.Date(int(t.Year), time.Month(t.Month), int(t.Day), int(t.Hour), int(t.Minute), int(t.Second), 0, time.UTC)
}

// Physical is pHYs's parsed payload: the intended pixel density.
type Physical struct {
	PixelsPerUnitX, PixelsPerUnitY uint32
	UnitSpecifier                  uint8
}

// ParsePhysical decodes a pHYs chunk.
func ParsePhysical(c chunkcodec.Chunk) (*Physical, error) {
	if c.Type.String() != "pHYs" {
		return nil, errors.WithStack(ErrNotThisType)
	}
	if len(c.Data) < 9 {
		return nil, errors.New("ancillary: pHYs payload too short")
	}
	return &Physical{
		PixelsPerUnitX: b.Uint32(c.Data[0:4]),
		PixelsPerUnitY: b.Uint32(c.Data[4:8]),
		UnitSpecifier:  c.Data[8],
	}, nil
}

// Text is tEXt's parsed payload: a keyword/value pair. Value holds the raw
// Latin-1 text. zTXt is not decoded into a Text; see
// ParseCompressedTextKeyword.
type Text struct {
	Keyword, Value string
}

const nullSep = "\x00"

// ParseText decodes a tEXt chunk (uncompressed).
func ParseText(c chunkcodec.Chunk) (*Text, error) {
	if c.Type.String() != "tEXt" {
		return nil, errors.WithStack(ErrNotThisType)
	}
	parts := strings.SplitN(string(c.Data), nullSep, 2)
	if len(parts) != 2 {
		return nil, errors.New("ancillary: tEXt missing null separator")
	}
	return &Text{Keyword: parts[0], Value: parts[1]}, nil
}

// ParseCompressedTextKeyword decodes just zTXt's keyword and compression
// method without inflating the payload; recompress's ledger only needs the
// keyword, and inflating an ancillary chunk's payload has no bearing on the
// image samples the search actually optimizes.
func ParseCompressedTextKeyword(c chunkcodec.Chunk) (keyword string, compressionMethod uint8, err error) {
	if c.Type.String() != "zTXt" {
		return "", 0, errors.WithStack(ErrNotThisType)
	}
	parts := strings.SplitN(string(c.Data), nullSep, 2)
	if len(parts) != 2 || len(parts[1]) == 0 {
		return "", 0, errors.New("ancillary: zTXt missing null separator or compression byte")
	}
	return parts[0], parts[1][0], nil
}
