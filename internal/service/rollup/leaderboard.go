package rollup

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"github.com/cmlabs-hris/hris-rollup-go/internal/domain/rollup"
	"github.com/spf13/cast"
)

// BreakRatio is break time over break plus work time, in [0, 1]. It is 0 when both are 0.
func BreakRatio(breakMinutes, workHours float64) float64 {
	breakMinutes = magnitude(breakMinutes)
	workMinutes := magnitude(workHours) * 60

	denominator := breakMinutes + workMinutes
	if denominator <= 0 {
		return 0
	}
	return math.Min(1, math.Max(0, breakMinutes/denominator))
}

// LeaderboardQuery narrows and orders the flat view.
type LeaderboardQuery struct {
	Sort       rollup.SortState
	Department string
	Search     string
	Limit      int
}

type LeaderboardView struct {
	Rows        []rollup.LeaderboardRow
	TeamAverage rollup.TeamAverage
	Total       int
	Filtered    int
}

// BuildLeaderboard filters, averages, sorts and finally truncates the records.
// The team average covers every filtered row, including rows cut by the limit.
func BuildLeaderboard(records []rollup.EmployeeRecord, q LeaderboardQuery, names NameCollator) LeaderboardView {
	department := names.fold(q.Department)
	search := names.fold(q.Search)

	rows := make([]rollup.LeaderboardRow, 0, len(records))
	for _, rec := range records {
		if department != "" && names.fold(rec.Department) != department {
			continue
		}
		if search != "" && !strings.Contains(names.fold(rec.Name), search) {
			continue
		}
		rows = append(rows, newLeaderboardRow(rec))
	}

	view := LeaderboardView{
		TeamAverage: TeamAverageOf(rows),
		Total:       len(records),
		Filtered:    len(rows),
	}
	if q.Sort.Key != "" {
		SortRows(rows, q.Sort, names)
	}
	if q.Limit > 0 && len(rows) > q.Limit {
		rows = rows[:q.Limit]
	}
	view.Rows = rows
	return view
}

func newLeaderboardRow(rec rollup.EmployeeRecord) rollup.LeaderboardRow {
	return rollup.LeaderboardRow{
		EmployeeRecord: rec,
		BreakRatio:     BreakRatio(rec.TotalBreakMinutes.Float(), rec.TotalWorkHours.Float()),
		Presence:       rec.Presence(),
		Label:          rec.PresenceLabel(),
		Progress:       ProgressOf(rec.Metrics),
	}
}

// TeamAverageOf averages every metric and the break ratio of the rows.
func TeamAverageOf(rows []rollup.LeaderboardRow) rollup.TeamAverage {
	if len(rows) == 0 {
		return rollup.TeamAverage{}
	}

	items := make([]rollup.Metrics, len(rows))
	ratios := make([]float64, len(rows))
	for i, row := range rows {
		items[i] = row.Metrics
		ratios[i] = row.BreakRatio
	}
	return rollup.TeamAverage{
		Metrics:    MeanMetrics(items),
		BreakRatio: mean(ratios),
		Count:      len(rows),
	}
}

// SortRows orders rows in place by the state's column. Equal values keep their input order
// in both directions.
func SortRows(rows []rollup.LeaderboardRow, state rollup.SortState, names NameCollator) {
	value := columnValue(state.Key)
	compare := names.Comparer()
	desc := state.Direction == rollup.SortDesc

	slices.SortStableFunc(rows, func(a, b rollup.LeaderboardRow) int {
		c := compareSortValues(coerce(value(a)), coerce(value(b)), compare)
		if desc {
			return -c
		}
		return c
	})
}

func columnValue(key rollup.SortKey) func(rollup.LeaderboardRow) any {
	switch key {
	case rollup.SortByName:
		return func(r rollup.LeaderboardRow) any { return r.Name }
	case rollup.SortByDepartment:
		return func(r rollup.LeaderboardRow) any { return r.Department }
	case rollup.SortByStatus:
		return func(r rollup.LeaderboardRow) any { return string(r.Status) }
	case rollup.SortByBreakRatio:
		return func(r rollup.LeaderboardRow) any { return r.BreakRatio }
	}

	if field, ok := lookupMetric(key); ok {
		return func(r rollup.LeaderboardRow) any { return field.get(&r.Metrics).Float() }
	}
	return func(rollup.LeaderboardRow) any { return nil }
}

type sortValue struct {
	numeric bool
	number  float64
	text    string
}

// coerce reads a cell as a number when it parses as one and keeps the raw text otherwise.
func coerce(v any) sortValue {
	if s, ok := v.(string); ok {
		trimmed := strings.TrimSpace(s)
		if trimmed == "" {
			return sortValue{text: s}
		}
		v = trimmed
	}

	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return sortValue{text: cast.ToString(v)}
	}
	return sortValue{numeric: true, number: f}
}

// compareSortValues puts numbers before text. Text is compared with the locale collator.
func compareSortValues(a, b sortValue, compare func(a, b string) int) int {
	switch {
	case a.numeric && b.numeric:
		return cmp.Compare(a.number, b.number)
	case a.numeric:
		return -1
	case b.numeric:
		return 1
	default:
		return compare(a.text, b.text)
	}
}
