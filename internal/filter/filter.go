// Package filter implements the five PNG scanline prediction filters, the
// per-row selection heuristics, and the two image-wide filter strategies
// that are not purely per-row: the single whole-image choice and the
// content-aware partitioning walk.
package filter

import (
	"github.com/hawkynt/pngcrush/internal/byteops"
)

// Type is the one-byte PNG filter tag.
type Type uint8

const (
	None Type = iota
	Sub
	Up
	Average
	Paeth
)

// All five filter types in tag order, used when summing scores.
var All = [5]Type{None, Sub, Up, Average, Paeth}

// Strategy selects which image-wide filter-selection policy is in play.
type Strategy uint8

const (
	StrategySingleFilter Strategy = iota
	StrategyScanlineAdaptive
	StrategyWeightedContinuity
	StrategyPartitionOptimized
)

// Apply runs the forward filter. prev is the previous reconstructed
// scanline, or nil/empty for the first row. out must be len(current) and
// may alias a caller-owned scratch buffer.
func Apply(t Type, out, current, prev []byte, bpp int) {
	n := len(current)
	for i := 0; i < n; i++ {
		c := current[i]
		var a, u, upLeft byte
		if i >= bpp {
			a = current[i-bpp]
		}
		if len(prev) > 0 {
			u = prev[i]
			if i >= bpp {
				upLeft = prev[i-bpp]
			}
		}
		switch t {
		case None:
			out[i] = c
		case Sub:
			out[i] = byteops.Sub8(c, a)
		case Up:
			out[i] = byteops.Sub8(c, u)
		case Average:
			out[i] = byteops.Sub8(c, byteops.Avg8(a, u))
		case Paeth:
			out[i] = byteops.Sub8(c, byteops.Paeth(a, u, upLeft))
		}
	}
}

// Reverse runs the inverse filter. out must be len(filtered);
// reconstruction is sequential left-to-right because R[i-bpp] depends on
// already-reconstructed bytes.
func Reverse(t Type, out, filtered, prev []byte, bpp int) {
	n := len(filtered)
	for i := 0; i < n; i++ {
		f := filtered[i]
		var a, u, upLeft byte
		if i >= bpp {
			a = out[i-bpp]
		}
		if len(prev) > 0 {
			u = prev[i]
			if i >= bpp {
				upLeft = prev[i-bpp]
			}
		}
		switch t {
		case None:
			out[i] = f
		case Sub:
			out[i] = byteops.Add8(f, a)
		case Up:
			out[i] = byteops.Add8(f, u)
		case Average:
			out[i] = byteops.Add8(f, byteops.Avg8(a, u))
		case Paeth:
			out[i] = byteops.Add8(f, byteops.Paeth(a, u, upLeft))
		}
	}
}

// CostFunc computes the selection cost of an already-filtered scanline.
type CostFunc func(filtered []byte) int

// CostSuccessiveDelta is the primary selection cost: the sum of absolute
// differences between adjacent bytes of the filtered signal. This tracks
// local volatility of the filtered signal, not the magnitude of the signal
// itself.
func CostSuccessiveDelta(filtered []byte) int {
	sum := 0
	for i := 1; i < len(filtered); i++ {
		sum += int(byteops.AbsDiff8(filtered[i], filtered[i-1]))
	}
	return sum
}

// CostClassicSigned is the classic PNG heuristic (libpng's "minimum sum of
// absolute differences"): sum of |int8(F[i])|. Kept for test/comparison
// use; never the default.
func CostClassicSigned(filtered []byte) int {
	sum := 0
	for _, v := range filtered {
		if v < 128 {
			sum += int(v)
		} else {
			sum += 256 - int(v)
		}
	}
	return sum
}
