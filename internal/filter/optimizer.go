package filter

import "github.com/hawkynt/pngcrush/internal/ihdr"

// PartitioningParams are the hysteresis constants governing how readily
// PartitionOptimized switches filters mid-image.
type PartitioningParams struct {
	MinRowsMinor    int
	MinRowsStrong   int
	MinorThreshold  float64
	StrongThreshold float64
}

// DefaultPartitioningParams returns the documented defaults.
func DefaultPartitioningParams() PartitioningParams {
	return PartitioningParams{
		MinRowsMinor:    5,
		MinRowsStrong:   2,
		MinorThreshold:  1.10,
		StrongThreshold: 1.30,
	}
}

// rowScoreMatrix computes, for every row, the cost of each of the five
// filters, reusing one set of five scratch buffers across rows.
func rowScoreMatrix(rows [][]byte, bpp int, cost CostFunc) [][5]int {
	scores := make([][5]int, len(rows))
	var scratch [5][]byte
	var prev []byte
	for y, row := range rows {
		scores[y] = RowScores(row, prev, bpp, &scratch, cost)
		prev = row
	}
	return scores
}

// SingleFilter chooses one filter for the entire image: the filter whose
// per-row costs sum to the minimum across all rows.
func SingleFilter(rows [][]byte, bpp int, colorType ihdr.ColorType, bitDepth uint8, cost CostFunc) []Type {
	height := len(rows)
	out := make([]Type, height)

	if forced, ok := Policy(colorType, bitDepth); ok {
		for y := range out {
			out[y] = forced
		}
		return out
	}

	scores := rowScoreMatrix(rows, bpp, cost)
	var totals [5]int
	for _, row := range scores {
		for _, t := range All {
			totals[t] += row[t]
		}
	}
	best := None
	bestTotal := totals[None]
	for _, t := range All[1:] {
		if totals[t] < bestTotal {
			best = t
			bestTotal = totals[t]
		}
	}
	for y := range out {
		out[y] = best
	}
	return out
}

// ScanlineAdaptive picks, independently for each row, the minimum-cost
// filter, with no weighting toward the previous row's choice.
func ScanlineAdaptive(rows [][]byte, bpp int, colorType ihdr.ColorType, bitDepth uint8, cost CostFunc) []Type {
	return selectPerRow(rows, bpp, colorType, bitDepth, cost, false)
}

// WeightedContinuity is ScanlineAdaptive with the weighted-continuity bias
// toward the previously used filter.
func WeightedContinuity(rows [][]byte, bpp int, colorType ihdr.ColorType, bitDepth uint8, cost CostFunc) []Type {
	return selectPerRow(rows, bpp, colorType, bitDepth, cost, true)
}

func selectPerRow(rows [][]byte, bpp int, colorType ihdr.ColorType, bitDepth uint8, cost CostFunc, weighted bool) []Type {
	sel := NewSelector(colorType, bitDepth, weighted)
	sel.Cost = cost
	out := make([]Type, len(rows))
	var scratch [5][]byte
	var prev []byte
	for y, row := range rows {
		for _, t := range All {
			if len(scratch[t]) != len(row) {
				scratch[t] = make([]byte, len(row))
			}
			Apply(t, scratch[t], row, prev, bpp)
		}
		out[y] = sel.Select(scratch)
		prev = row
	}
	return out
}

// PartitionOptimized runs a content-aware look-ahead walk: start at None,
// only switch filters when a look-ahead window shows sustained improvement,
// avoiding cheap-but-frequent filter transitions that would otherwise cost
// more in the deflate stream than they save.
func PartitionOptimized(rows [][]byte, bpp int, colorType ihdr.ColorType, bitDepth uint8, cost CostFunc, params PartitioningParams) []Type {
	height := len(rows)
	out := make([]Type, height)

	if forced, ok := Policy(colorType, bitDepth); ok {
		for y := range out {
			out[y] = forced
		}
		return out
	}

	scores := rowScoreMatrix(rows, bpp, cost)
	current := None

	for y := 0; y < height; y++ {
		if y > height-params.MinRowsMinor {
			out[y] = current
			continue
		}

		best := argmin(scores[y])
		if best == current {
			out[y] = current
			continue
		}

		strongHits, minorHits := 0, 0
		for k := 0; k < params.MinRowsMinor; k++ {
			yk := y + k
			if yk >= height {
				break
			}
			denom := scores[yk][best]
			if denom == 0 {
				// Zero-cost target row: treat as an overwhelming improvement.
				strongHits++
				minorHits++
				continue
			}
			ratio := float64(scores[yk][current]) / float64(denom)
			if ratio >= params.StrongThreshold {
				strongHits++
			}
			if ratio >= params.MinorThreshold {
				minorHits++
			}
		}

		if strongHits >= params.MinRowsStrong || minorHits >= params.MinRowsMinor {
			current = best
		}
		out[y] = current
	}
	return out
}

func argmin(scores [5]int) Type {
	best := None
	bestScore := scores[None]
	for _, t := range All[1:] {
		if scores[t] < bestScore {
			best = t
			bestScore = scores[t]
		}
	}
	return best
}

// CountTransitions returns the number of indices i where filters[i] !=
// filters[i-1].
func CountTransitions(filters []Type) int {
	count := 0
	for i := 1; i < len(filters); i++ {
		if filters[i] != filters[i-1] {
			count++
		}
	}
	return count
}
