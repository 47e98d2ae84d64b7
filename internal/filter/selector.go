package filter

import "github.com/hawkynt/pngcrush/internal/ihdr"

// Policy forces a filter regardless of cost for color modes where per-row
// filtering has no benefit (Palette, sub-8-bit Grayscale), or reports
// zero-value (None, false) when no forcing applies.
func Policy(colorType ihdr.ColorType, bitDepth uint8) (Type, bool) {
	if colorType == ihdr.Palette {
		return None, true
	}
	if colorType == ihdr.Grayscale && bitDepth < 8 {
		return None, true
	}
	return None, false
}

// Selector picks one filter per scanline by minimum cost, honoring the
// forcing policy and an optional weighted-continuity bias.
type Selector struct {
	ColorType ihdr.ColorType
	BitDepth  uint8
	Cost      CostFunc
	Weighted  bool
	weight    float64
	lastUsed  Type
	haveLast  bool
}

// NewSelector returns a Selector using the default cost function.
func NewSelector(colorType ihdr.ColorType, bitDepth uint8, weighted bool) *Selector {
	return &Selector{
		ColorType: colorType,
		BitDepth:  bitDepth,
		Cost:      CostSuccessiveDelta,
		Weighted:  weighted,
		weight:    0.9,
	}
}

// Select picks the filter for one scanline, given the five pre-filtered
// candidates (index = Type) computed by the caller. scratch[t] holds the
// filtered bytes for filter t; Select does not mutate them.
func (s *Selector) Select(scratch [5][]byte) Type {
	if forced, ok := Policy(s.ColorType, s.BitDepth); ok {
		s.lastUsed = forced
		s.haveLast = true
		return forced
	}

	var costs [5]float64
	for _, t := range All {
		costs[t] = float64(s.Cost(scratch[t]))
	}
	if s.Weighted && s.haveLast {
		costs[s.lastUsed] *= s.weight
	}

	best := None
	bestCost := costs[None]
	for _, t := range All[1:] {
		if costs[t] < bestCost {
			best = t
			bestCost = costs[t]
		}
	}
	s.lastUsed = best
	s.haveLast = true
	return best
}

// RowScores computes the cost of every filter for one scanline, applying
// each of the five filters into scratch and scoring the result. It is the
// shared building block SingleFilterOptimizer and PartitionOptimizer both
// use to avoid duplicating the filter application loop (Design Note §9:
// "both must call a single FilterKernel to avoid drift").
func RowScores(current, prev []byte, bpp int, scratch *[5][]byte, cost CostFunc) [5]int {
	var scores [5]int
	for _, t := range All {
		if len(scratch[t]) != len(current) {
			scratch[t] = make([]byte, len(current))
		}
		Apply(t, scratch[t], current, prev, bpp)
		scores[t] = cost(scratch[t])
	}
	return scores
}
