package rollup

import (
	"math"

	"github.com/cmlabs-hris/hris-rollup-go/internal/domain/rollup"
	"github.com/shopspring/decimal"
)

type metricField struct {
	key   rollup.SortKey
	title string
	get   func(*rollup.Metrics) *rollup.Number
}

// metricFields lists the numeric columns in display order.
var metricFields = []metricField{
	{rollup.SortByTodayMinutes, "Today (min)", func(m *rollup.Metrics) *rollup.Number { return &m.TodayMinutes }},
	{rollup.SortByMonthTargetHours, "Month Target (h)", func(m *rollup.Metrics) *rollup.Number { return &m.MonthTargetHours }},
	{rollup.SortByCompletedHours, "Completed (h)", func(m *rollup.Metrics) *rollup.Number { return &m.CompletedHours }},
	{rollup.SortByMissingHours, "Missing (h)", func(m *rollup.Metrics) *rollup.Number { return &m.MissingHours }},
	{rollup.SortByRemainingHours, "Remaining (h)", func(m *rollup.Metrics) *rollup.Number { return &m.RemainingHours }},
	{rollup.SortByNetBalanceHours, "Net Balance (h)", func(m *rollup.Metrics) *rollup.Number { return &m.NetBalanceHours }},
	{rollup.SortByTotalWorkHours, "Total Work (h)", func(m *rollup.Metrics) *rollup.Number { return &m.TotalWorkHours }},
	{rollup.SortByApprovedOvertimeMinutes, "Approved OT (min)", func(m *rollup.Metrics) *rollup.Number { return &m.ApprovedOvertimeMinutes }},
	{rollup.SortByPendingOvertimeMinutes, "Pending OT (min)", func(m *rollup.Metrics) *rollup.Number { return &m.PendingOvertimeMinutes }},
	{rollup.SortByTotalBreakMinutes, "Break (min)", func(m *rollup.Metrics) *rollup.Number { return &m.TotalBreakMinutes }},
	{rollup.SortByLateCount, "Late Count", func(m *rollup.Metrics) *rollup.Number { return &m.LateCount }},
	{rollup.SortByLateMinutes, "Late (min)", func(m *rollup.Metrics) *rollup.Number { return &m.LateMinutes }},
}

func lookupMetric(key rollup.SortKey) (metricField, bool) {
	for _, f := range metricFields {
		if f.key == key {
			return f, true
		}
	}
	return metricField{}, false
}

// MeanMetrics averages every metric field. Sums are accumulated as decimals so long
// columns of fractional hours do not drift.
func MeanMetrics(items []rollup.Metrics) rollup.Metrics {
	var out rollup.Metrics
	if len(items) == 0 {
		return out
	}

	for _, f := range metricFields {
		values := make([]float64, len(items))
		for i := range items {
			values[i] = f.get(&items[i]).Float()
		}
		*f.get(&out) = rollup.Number(mean(values))
	}
	return out
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sum := decimal.Zero
	for _, v := range values {
		sum = sum.Add(toDecimal(v))
	}
	return sum.Div(decimal.NewFromInt(int64(len(values)))).InexactFloat64()
}

func toDecimal(v float64) decimal.Decimal {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v)
}
