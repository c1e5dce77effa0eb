package postgresql

import (
	"context"
	"fmt"
	"strings"

	"github.com/cmlabs-hris/hris-rollup-go/internal/domain/rollup"
	"github.com/cmlabs-hris/hris-rollup-go/internal/pkg/database"
)

type employeeSummaryRepositoryImpl struct {
	db database.Querier
}

func NewEmployeeSummaryRepository(db database.Querier) rollup.SnapshotRepository {
	return &employeeSummaryRepositoryImpl{db: db}
}

const employeeSummariesQuery = `
		SELECT
			e.id::text,
			COALESCE(e.manager_id::text, '') AS manager_id,
			e.full_name,
			COALESCE(s.department, '') AS department,
			COALESCE(s.today_status, 'OUT') AS status,
			COALESCE(s.is_on_leave, false) AS is_on_leave,
			COALESCE(s.leave_status, '') AS leave_status,
			COALESCE(e.avatar_url, '') AS avatar_url,
			COALESCE(s.today_minutes, 0)::float8,
			COALESCE(s.month_target_hours, 0)::float8,
			COALESCE(s.completed_hours, 0)::float8,
			COALESCE(s.missing_hours, 0)::float8,
			COALESCE(s.remaining_hours, 0)::float8,
			COALESCE(s.net_balance_hours, 0)::float8,
			COALESCE(s.total_work_hours, 0)::float8,
			COALESCE(s.approved_overtime_minutes, 0)::float8,
			COALESCE(s.pending_overtime_minutes, 0)::float8,
			COALESCE(s.total_break_minutes, 0)::float8,
			COALESCE(s.late_count, 0)::float8,
			COALESCE(s.late_minutes, 0)::float8
		FROM employees e
		LEFT JOIN employee_monthly_summaries s
			ON s.employee_id = e.id AND s.period_year = $2 AND s.period_month = $3
		WHERE e.company_id = $1
			AND e.deleted_at IS NULL
			AND e.employment_status = 'active'
		ORDER BY e.full_name, e.id
	`

// GetEmployeeSummaries returns every active employee of the company with the month's figures.
// Employees without a summary row yet come back with zero metrics.
func (r *employeeSummaryRepositoryImpl) GetEmployeeSummaries(ctx context.Context, companyID string, year, month int) ([]rollup.EmployeeRecord, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, employeeSummariesQuery, companyID, year, month)
	if err != nil {
		return nil, fmt.Errorf("failed to query employee summaries: %w", err)
	}
	defer rows.Close()

	records := make([]rollup.EmployeeRecord, 0)
	for rows.Next() {
		var (
			rec                               rollup.EmployeeRecord
			managerID, status, leave, avatar  string
			today, target, completed, missing float64
			remaining, balance, work          float64
			approvedOT, pendingOT, breaks     float64
			lateCount, lateMinutes            float64
		)
		if err := rows.Scan(
			&rec.ID, &managerID, &rec.Name, &rec.Department, &status, &rec.IsOnLeave, &leave, &avatar,
			&today, &target, &completed, &missing, &remaining, &balance, &work,
			&approvedOT, &pendingOT, &breaks, &lateCount, &lateMinutes,
		); err != nil {
			return nil, fmt.Errorf("failed to scan employee summary: %w", err)
		}

		rec.ManagerID = optional(managerID)
		rec.LeaveStatus = optional(leave)
		rec.Avatar = optional(avatar)
		rec.Status = rollup.Status(strings.ToUpper(strings.TrimSpace(status)))
		rec.Metrics = rollup.Metrics{
			TodayMinutes:            rollup.ParseNumber(today),
			MonthTargetHours:        rollup.ParseNumber(target),
			CompletedHours:          rollup.ParseNumber(completed),
			MissingHours:            rollup.ParseNumber(missing),
			RemainingHours:          rollup.ParseNumber(remaining),
			NetBalanceHours:         rollup.ParseNumber(balance),
			TotalWorkHours:          rollup.ParseNumber(work),
			ApprovedOvertimeMinutes: rollup.ParseNumber(approvedOT),
			PendingOvertimeMinutes:  rollup.ParseNumber(pendingOT),
			TotalBreakMinutes:       rollup.ParseNumber(breaks),
			LateCount:               rollup.ParseNumber(lateCount),
			LateMinutes:             rollup.ParseNumber(lateMinutes),
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate employee summaries: %w", err)
	}

	return records, nil
}

func optional(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}
