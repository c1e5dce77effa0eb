package rollup

import (
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-rollup-go/internal/domain/rollup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2025, time.March, d, 10, 0, 0, 0, time.UTC)
}

func TestElapsedWorkDays(t *testing.T) {
	tests := []struct {
		day  int
		want int
	}{
		{1, 1},
		{2, 1},
		{7, 5},
		{14, 10},
		{15, 11},
		{31, 22},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ElapsedWorkDays(day(tt.day)), "day %d", tt.day)
	}
}

func TestGroupAverage_DirectChildrenOnly(t *testing.T) {
	boss := employee("1", "", "Boss")
	a := employee("2", "1", "A")
	a.MissingHours = 10
	a.CompletedHours = 20
	a.LateCount = 1
	b := employee("3", "1", "B")
	b.MissingHours = 20
	b.CompletedHours = 40
	b.LateCount = 2
	grandchild := employee("4", "2", "C")
	grandchild.MissingHours = 1000

	forest := BuildForest([]rollup.EmployeeRecord{boss, a, b, grandchild}, mustCollator(t))
	require.Len(t, forest, 1)

	avg := GroupAverage(forest[0].Children, day(14))

	assert.Equal(t, 2, avg.ChildCount)
	assert.Equal(t, 10, avg.ElapsedWorkDays)
	assert.InDelta(t, 15, avg.MissingHours.Float(), 1e-9)
	assert.InDelta(t, 30, avg.CompletedHours.Float(), 1e-9)
	assert.InDelta(t, 1.5, avg.LateCount.Float(), 1e-9)
	assert.InDelta(t, 1.5, avg.DailyAverageMissing, 1e-9)
}

func TestGroupAverage_NoChildren(t *testing.T) {
	avg := GroupAverage(nil, day(7))

	assert.Equal(t, 0, avg.ChildCount)
	assert.Equal(t, 5, avg.ElapsedWorkDays)
	assert.Zero(t, avg.MissingHours)
	assert.Zero(t, avg.DailyAverageMissing)
}

func TestGroupAverage_ExactDecimalMean(t *testing.T) {
	children := make([]*rollup.TreeNode, 3)
	for i := range children {
		rec := employee("c", "", "C")
		rec.TotalWorkHours = 0.1
		children[i] = &rollup.TreeNode{EmployeeRecord: rec}
	}

	avg := GroupAverage(children, day(1))

	assert.Equal(t, 0.1, avg.TotalWorkHours.Float())
}

func TestComputeRollups_OnlyExpandedManagers(t *testing.T) {
	records := []rollup.EmployeeRecord{
		employee("1", "", "Root"),
		employee("2", "1", "Mid"),
		employee("3", "2", "Leaf"),
		employee("4", "1", "Leaf2"),
	}
	forest := BuildForest(records, mustCollator(t))

	rollups := ComputeRollups(forest, NewExpansionState("1", "3"), day(10))
	assert.Len(t, rollups, 1)
	assert.Equal(t, 2, rollups["1"].ChildCount)

	all := ComputeAllRollups(forest, day(10))
	assert.Len(t, all, 2)
	assert.Equal(t, 1, all["2"].ChildCount)
}

func TestMeanMetrics_Empty(t *testing.T) {
	assert.Equal(t, rollup.Metrics{}, MeanMetrics(nil))
}

func TestGroupAverage_SignedValues(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"positive and negative", []float64{2, -1}, 0.5},
		{"all negative", []float64{-3, -5}, -4},
		{"cancel out", []float64{7.5, -7.5}, 0},
		{"single child", []float64{-2.25}, -2.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			children := make([]*rollup.TreeNode, len(tt.values))
			for i, v := range tt.values {
				rec := employee("c", "", "C")
				rec.NetBalanceHours = rollup.Number(v)
				children[i] = &rollup.TreeNode{EmployeeRecord: rec}
			}

			avg := GroupAverage(children, day(14))

			assert.InDelta(t, tt.want, avg.NetBalanceHours.Float(), 1e-9)
			assert.Equal(t, len(tt.values), avg.ChildCount)
		})
	}
}

func TestGroupAverage_EveryMetric(t *testing.T) {
	a := employee("a", "", "A")
	b := employee("b", "", "B")
	for i, field := range metricFields {
		*field.get(&a.Metrics) = rollup.Number(float64(i) + 2)
		*field.get(&b.Metrics) = -1
	}
	children := []*rollup.TreeNode{{EmployeeRecord: a}, {EmployeeRecord: b}}

	avg := GroupAverage(children, day(14))

	require.Len(t, metricFields, 12)
	for i, field := range metricFields {
		want := (float64(i) + 2 - 1) / 2
		assert.InDelta(t, want, field.get(&avg.Metrics).Float(), 1e-9, "metric %s", field.key)
	}
}
