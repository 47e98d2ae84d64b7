// Package report holds the per-candidate statistics gathered during a
// search and a minimal, human-readable summary for the winner. Rendering
// stays thin: this package only shapes the data, callers decide whether
// and how to print it.
package report

import (
	"fmt"
	"strings"
	"time"
)

// CandidateStat is what SearchDriver records for every evaluated
// combination, independent of whether it won.
type CandidateStat struct {
	Combo             string
	CompressedSize    int
	FilterTransitions int
	Elapsed           time.Duration
}

// DescribeCombo renders an OptimizationCombo as a short human-readable tag,
// e.g. "RGB8/None/PartitionOptimized/Maximum". Numeric fields are passed as
// plain ints so this package has no dependency on the combo's owning
// packages (encode, ihdr, filter, zlibcodec), keeping report a leaf.
func DescribeCombo(colorType, bitDepth, interlace, strategy, level int) string {
	return fmt.Sprintf("%s%d/%s/%s/%s",
		colorTypeName(colorType), bitDepth,
		interlaceName(interlace),
		strategyName(strategy),
		levelName(level))
}

func colorTypeName(ct int) string {
	switch ct {
	case 0:
		return "Gray"
	case 2:
		return "RGB"
	case 3:
		return "Palette"
	case 4:
		return "GrayAlpha"
	case 6:
		return "RGBA"
	default:
		return "Unknown"
	}
}

func interlaceName(il int) string {
	if il == 1 {
		return "Adam7"
	}
	return "None"
}

func strategyName(s int) string {
	switch s {
	case 0:
		return "SingleFilter"
	case 1:
		return "ScanlineAdaptive"
	case 2:
		return "WeightedContinuity"
	case 3:
		return "PartitionOptimized"
	default:
		return "Unknown"
	}
}

func levelName(l int) string {
	switch l {
	case 0:
		return "Fastest"
	case 1:
		return "Fast"
	case 2:
		return "Default"
	case 3:
		return "Maximum"
	case 4:
		return "Ultra"
	default:
		return "Unknown"
	}
}

// Summary is the winner-centric report handed to a verbose CLI run.
type Summary struct {
	TotalCandidates int
	InputSize       int
	WinnerCombo     string
	WinnerSize      int
}

// NewSummary builds a Summary from a completed search.
func NewSummary(inputSize int, winnerCombo string, winnerSize, totalCandidates int) Summary {
	return Summary{
		TotalCandidates: totalCandidates,
		InputSize:       inputSize,
		WinnerCombo:     winnerCombo,
		WinnerSize:      winnerSize,
	}
}

// String renders the summary the way a -verbose CLI run prints it.
func (s Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "evaluated %d candidates\n", s.TotalCandidates)
	fmt.Fprintf(&b, "winner: %s (%d bytes)\n", s.WinnerCombo, s.WinnerSize)
	if s.InputSize > 0 {
		saved := s.InputSize - s.WinnerSize
		pct := float64(saved) * 100 / float64(s.InputSize)
		fmt.Fprintf(&b, "input was %d bytes: %d bytes saved (%.1f%%)\n", s.InputSize, saved, pct)
	}
	return b.String()
}
