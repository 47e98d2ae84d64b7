// Package zlibcodec wraps the standard library's deflate/inflate behind the
// zlib frame PNG's IDAT stream requires. compress/zlib and compress/flate
// do the actual compression work, consumed through the numeric level knob
// below rather than reimplemented.
package zlibcodec

import (
	"bytes"
	"compress/flate"
	"compress/zlib"
	"io"

	"github.com/pkg/errors"
)

// Level is the implementation-independent compression dial exposed to
// callers. The mapping to a concrete compress/flate level is part of the
// contract: tests may pin expected byte lengths against it, with
// tolerance rather than exact equality.
type Level int

const (
	Fastest Level = iota // no compression at all
	Fast                 // fastest non-zero compression
	Default              // library default/optimal balance
	Maximum              // optimal compression
	Ultra                // smallest size, slowest
)

// flateLevel is the stable Level -> compress/flate level mapping.
func (l Level) flateLevel() int {
	switch l {
	case Fastest:
		return flate.NoCompression
	case Fast:
		return flate.BestSpeed
	case Default:
		return flate.DefaultCompression
	case Maximum:
		return flate.BestCompression
	case Ultra:
		return flate.BestCompression
	default:
		return flate.DefaultCompression
	}
}

// ErrCorruptZlib signals a malformed zlib frame, or one that decoded to zero
// bytes from non-empty input.
var ErrCorruptZlib = errors.New("zlibcodec: corrupt zlib stream")

// Inflate reads a complete zlib frame and returns its decoded bytes.
func Inflate(compressed []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, errors.Wrap(ErrCorruptZlib, err.Error())
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(ErrCorruptZlib, err.Error())
	}
	if len(out) == 0 && len(compressed) > 0 {
		return nil, errors.WithStack(ErrCorruptZlib)
	}
	return out, nil
}

// Deflate writes a complete zlib frame (header + deflate + Adler-32) at the
// given Level.
func Deflate(data []byte, level Level) ([]byte, error) {
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, level.flateLevel())
	if err != nil {
		return nil, errors.Wrap(err, "zlibcodec: create writer")
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return nil, errors.Wrap(err, "zlibcodec: write")
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrap(err, "zlibcodec: close")
	}
	return buf.Bytes(), nil
}
