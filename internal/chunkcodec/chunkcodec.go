// Package chunkcodec implements the PNG chunk container: signature check,
// the {length, type, data, crc} framing, and the read/write state machine.
// Chunks are held as an ordered, round-trippable stream that the rest of
// the core can slice by type, rather than a fixed set of typed structs.
package chunkcodec

import (
	"encoding/binary"
	"io"

	"github.com/hawkynt/pngcrush/internal/crc"
	"github.com/pkg/errors"
)

var b binary.ByteOrder = binary.BigEndian

// Signature is the fixed 8-byte PNG magic.
var Signature = [8]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

// ChunkType is the 4-ASCII-letter chunk tag, e.g. "IHDR".
type ChunkType [4]byte

func (t ChunkType) String() string { return string(t[:]) }

// IsCritical reports whether the chunk's first letter is uppercase.
func (t ChunkType) IsCritical() bool {
	return t[0] >= 'A' && t[0] <= 'Z'
}

const (
	TypeIHDR = "IHDR"
	TypePLTE = "PLTE"
	TypeIDAT = "IDAT"
	TypeIEND = "IEND"
)

// ancillary chunk types whose CRC mismatch is tolerated rather than fatal.
var tolerableAncillary = map[string]bool{
	"gAMA": true,
	"cHRM": true,
	"tEXt": true,
	"zTXt": true,
	"tIME": true,
	"pHYs": true,
	"iTXt": true,
	"bKGD": true,
	"sBIT": true,
	"hIST": true,
	"tRNS": true,
}

// Chunk is one framed PNG chunk: length is implicit in len(Data).
type Chunk struct {
	Type ChunkType
	Data []byte
}

func (c Chunk) typeName() string { return c.Type.String() }

// Stream is an ordered, parsed chunk stream, so callers (recompress in
// particular) can replay ancillary chunks verbatim while swapping
// IHDR/IDAT/IEND.
type Stream struct {
	Chunks []Chunk // full original order, IHDR first, IEND last
}

var (
	ErrBadSignature   = errors.New("chunkcodec: bad PNG signature")
	ErrPrematureEOF   = errors.New("chunkcodec: premature end of file")
	ErrLengthOverflow = errors.New("chunkcodec: chunk length overflow")
	ErrMissingIHDR    = errors.New("chunkcodec: missing IHDR")
	ErrMissingIDAT    = errors.New("chunkcodec: missing IDAT")
	ErrIendNotLast    = errors.New("chunkcodec: IEND is not the final chunk")
	ErrCrcMismatch    = errors.New("chunkcodec: CRC mismatch on critical chunk")

	// maxChunkLength guards against a corrupt length field demanding an
	// unreasonable allocation; PNG itself caps chunk data at 2^31-1 bytes.
	maxChunkLength uint32 = 1<<31 - 1
)

// AncillaryWarning is returned alongside a successfully parsed Stream when
// an ancillary chunk's CRC did not match but was tolerated.
type AncillaryWarning struct {
	Type ChunkType
}

func (w AncillaryWarning) Error() string {
	return "chunkcodec: tolerated CRC mismatch on ancillary chunk " + w.Type.String()
}

// ReadAll reads the signature, then repeated {header, data, crc} chunks
// until IEND.
func ReadAll(r io.Reader) (*Stream, []AncillaryWarning, error) {
	var sig [8]byte
	if _, err := io.ReadFull(r, sig[:]); err != nil {
		return nil, nil, errors.Wrap(ErrBadSignature, err.Error())
	}
	if sig != Signature {
		return nil, nil, errors.WithStack(ErrBadSignature)
	}

	var chunks []Chunk
	var warnings []AncillaryWarning
	sawIHDR := false
	sawIDAT := false

	for {
		var lenBuf, typeBuf, crcBuf [4]byte
		if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
			return nil, nil, errors.Wrap(ErrPrematureEOF, err.Error())
		}
		length := b.Uint32(lenBuf[:])
		if length > maxChunkLength {
			return nil, nil, errors.WithStack(ErrLengthOverflow)
		}
		if _, err := io.ReadFull(r, typeBuf[:]); err != nil {
			return nil, nil, errors.Wrap(ErrPrematureEOF, err.Error())
		}
		data := make([]byte, length)
		if _, err := io.ReadFull(r, data); err != nil {
			return nil, nil, errors.Wrap(ErrPrematureEOF, err.Error())
		}
		if _, err := io.ReadFull(r, crcBuf[:]); err != nil {
			return nil, nil, errors.Wrap(ErrPrematureEOF, err.Error())
		}

		ct := ChunkType(typeBuf)
		wantCrc := b.Uint32(crcBuf[:])
		gotCrc := crc.Checksum([4]byte(ct), data)
		if wantCrc != gotCrc {
			if ct.IsCritical() || !tolerableAncillary[ct.String()] {
				return nil, nil, errors.Wrapf(ErrCrcMismatch, "chunk %s", ct.String())
			}
			warnings = append(warnings, AncillaryWarning{Type: ct})
		}

		chunks = append(chunks, Chunk{Type: ct, Data: data})

		switch ct.String() {
		case TypeIHDR:
			sawIHDR = true
		case TypeIDAT:
			sawIDAT = true
		case TypeIEND:
			if !sawIHDR {
				return nil, nil, errors.WithStack(ErrMissingIHDR)
			}
			if !sawIDAT {
				return nil, nil, errors.WithStack(ErrMissingIDAT)
			}
			var trailing [1]byte
			if n, err := io.ReadFull(r, trailing[:]); n > 0 {
				return nil, nil, errors.WithStack(ErrIendNotLast)
			} else if err != io.EOF {
				return nil, nil, errors.Wrap(err, "chunkcodec: read after IEND")
			}
			return &Stream{Chunks: chunks}, warnings, nil
		}
	}
}

// Write implements ChunkCodec.write: signature then each chunk framed and
// CRC'd.
func Write(w io.Writer, chunks []Chunk) error {
	if _, err := w.Write(Signature[:]); err != nil {
		return errors.Wrap(err, "chunkcodec: write signature")
	}
	for _, c := range chunks {
		if len(c.Data) > int(maxChunkLength) {
			return errors.WithStack(ErrLengthOverflow)
		}
		var lenBuf [4]byte
		b.PutUint32(lenBuf[:], uint32(len(c.Data)))
		if _, err := w.Write(lenBuf[:]); err != nil {
			return errors.Wrap(err, "chunkcodec: write length")
		}
		if _, err := w.Write(c.Type[:]); err != nil {
			return errors.Wrap(err, "chunkcodec: write type")
		}
		if _, err := w.Write(c.Data); err != nil {
			return errors.Wrap(err, "chunkcodec: write data")
		}
		var crcBuf [4]byte
		b.PutUint32(crcBuf[:], crc.Checksum([4]byte(c.Type), c.Data))
		if _, err := w.Write(crcBuf[:]); err != nil {
			return errors.Wrap(err, "chunkcodec: write crc")
		}
	}
	return nil
}

// GetConcatenatedIDAT concatenates all IDAT chunk payloads in original
// order.
func GetConcatenatedIDAT(chunks []Chunk) []byte {
	var out []byte
	for _, c := range chunks {
		if c.typeName() == TypeIDAT {
			out = append(out, c.Data...)
		}
	}
	return out
}

// NewChunkType builds a ChunkType from a 4-character string.
func NewChunkType(s string) ChunkType {
	var t ChunkType
	copy(t[:], s)
	return t
}
