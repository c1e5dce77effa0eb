package rollup

import (
	"math"
	"time"

	"github.com/cmlabs-hris/hris-rollup-go/internal/domain/rollup"
)

// GroupAverage averages the metrics of a node's direct reports. Grandchildren are not folded in.
func GroupAverage(children []*rollup.TreeNode, now time.Time) rollup.GroupAverage {
	avg := rollup.GroupAverage{ElapsedWorkDays: ElapsedWorkDays(now)}
	if len(children) == 0 {
		return avg
	}

	items := make([]rollup.Metrics, len(children))
	for i, child := range children {
		items[i] = child.Metrics
	}
	avg.Metrics = MeanMetrics(items)
	avg.ChildCount = len(children)
	avg.DailyAverageMissing = avg.MissingHours.Float() / float64(avg.ElapsedWorkDays)
	return avg
}

// ElapsedWorkDays approximates the working days elapsed this month as day-of-month * 5/7, never below 1.
func ElapsedWorkDays(now time.Time) int {
	days := int(math.Round(float64(now.Day()) * 5 / 7))
	if days < 1 {
		return 1
	}
	return days
}

// ComputeRollups returns the group average of every expanded node that has reports.
func ComputeRollups(roots []*rollup.TreeNode, state ExpansionState, now time.Time) map[string]rollup.GroupAverage {
	rollups := make(map[string]rollup.GroupAverage)
	Walk(roots, func(n *rollup.TreeNode, _ int) bool {
		if n.HasChildren() && state.Contains(n.ID) {
			rollups[n.ID] = GroupAverage(n.Children, now)
		}
		return true
	})
	return rollups
}

// ComputeAllRollups ignores the expansion state and averages every manager.
func ComputeAllRollups(roots []*rollup.TreeNode, now time.Time) map[string]rollup.GroupAverage {
	return ComputeRollups(roots, ExpandAll(roots), now)
}
