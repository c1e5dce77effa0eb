package rollup

import (
	"math"

	"github.com/cmlabs-hris/hris-rollup-go/internal/domain/rollup"
)

const scaleEpsilon = 1e-9

// Scale maps completed, missing and remaining hours onto one bar whose full width is the larger
// of the month target and their sum. Negative or non-finite inputs count as 0.
func Scale(completed, missing, remaining, target float64) rollup.ScaledProgress {
	completed = magnitude(completed)
	missing = magnitude(missing)
	remaining = magnitude(remaining)
	target = magnitude(target)

	total := completed + missing + remaining
	base := math.Max(math.Max(total, target), scaleEpsilon)

	p := rollup.ScaledProgress{
		CompletedPercent: completed / base * 100,
		MissingPercent:   missing / base * 100,
		RemainingPercent: remaining / base * 100,
	}
	p.UnfilledPercent = math.Max(0, 100-(p.CompletedPercent+p.MissingPercent+p.RemainingPercent))
	return p
}

// ProgressOf scales a record's own metrics.
func ProgressOf(m rollup.Metrics) rollup.ScaledProgress {
	return Scale(m.CompletedHours.Float(), m.MissingHours.Float(), m.RemainingHours.Float(), m.MonthTargetHours.Float())
}

func magnitude(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
