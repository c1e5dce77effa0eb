package rollup

import (
	"context"
	"fmt"
	"io"

	"github.com/cmlabs-hris/hris-rollup-go/internal/domain/rollup"
	"github.com/xuri/excelize/v2"
)

const leaderboardSheet = "Leaderboard"

// ExportLeaderboard writes the same rows GetLeaderboard returns, plus the team average footer.
func (s *RollupServiceImpl) ExportLeaderboard(ctx context.Context, req rollup.LeaderboardRequest, w io.Writer) (rollup.SnapshotInfo, error) {
	snap, view, _, err := s.leaderboard(ctx, &req)
	if err != nil {
		return rollup.SnapshotInfo{}, err
	}

	f, err := writeLeaderboard(view, snap.Period)
	if err != nil {
		return rollup.SnapshotInfo{}, err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return rollup.SnapshotInfo{}, fmt.Errorf("failed to write workbook: %w", err)
	}
	return snap.Info(), nil
}

func leaderboardHeader() []any {
	header := []any{"Name", "Department", "Status", "Presence"}
	for _, field := range metricFields {
		header = append(header, field.title)
	}
	return append(header, "Break Ratio")
}

func leaderboardCells(name, department, status, presence string, m rollup.Metrics, breakRatio float64) []any {
	cells := []any{name, department, status, presence}
	for _, field := range metricFields {
		cells = append(cells, field.get(&m).Float())
	}
	return append(cells, breakRatio)
}

func writeLeaderboard(view LeaderboardView, period rollup.Period) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", leaderboardSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create style: %w", err)
	}

	header := leaderboardHeader()
	rows := make([][]any, 0, len(view.Rows)+2)
	rows = append(rows, header)
	for _, row := range view.Rows {
		rows = append(rows, leaderboardCells(row.Name, row.Department, string(row.Status), row.Label, row.Metrics, row.BreakRatio))
	}
	rows = append(rows, leaderboardCells(
		fmt.Sprintf("Team average (%d)", view.TeamAverage.Count), "", "", period.String(),
		view.TeamAverage.Metrics, view.TeamAverage.BreakRatio,
	))

	for i, values := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			f.Close()
			return nil, err
		}
		if err := f.SetSheetRow(leaderboardSheet, cell, &values); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		f.Close()
		return nil, err
	}
	footer := len(rows)
	if err := f.SetCellStyle(leaderboardSheet, "A1", fmt.Sprintf("%s1", lastCol), bold); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.SetCellStyle(leaderboardSheet, fmt.Sprintf("A%d", footer), fmt.Sprintf("%s%d", lastCol, footer), bold); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.SetColWidth(leaderboardSheet, "A", "B", 28); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.SetPanes(leaderboardSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		f.Close()
		return nil, err
	}

	return f, nil
}
