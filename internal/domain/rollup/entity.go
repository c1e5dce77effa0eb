package rollup

import (
	"strings"
	"unicode"
)

type Status string

const (
	StatusIn  Status = "IN"
	StatusOut Status = "OUT"
)

// Presence is the state shown for an employee. Leave wins over check-in status.
type Presence string

const (
	PresenceIn    Presence = "IN"
	PresenceOut   Presence = "OUT"
	PresenceLeave Presence = "LEAVE"
)

// Metrics holds the attendance figures computed upstream for the current month.
type Metrics struct {
	TodayMinutes            Number `json:"today_minutes"`
	MonthTargetHours        Number `json:"month_target_hours"`
	CompletedHours          Number `json:"completed_hours"`
	MissingHours            Number `json:"missing_hours"`
	RemainingHours          Number `json:"remaining_hours"`
	NetBalanceHours         Number `json:"net_balance_hours"`
	TotalWorkHours          Number `json:"total_work_hours"`
	ApprovedOvertimeMinutes Number `json:"approved_overtime_minutes"`
	PendingOvertimeMinutes  Number `json:"pending_overtime_minutes"`
	TotalBreakMinutes       Number `json:"total_break_minutes"`
	LateCount               Number `json:"late_count"`
	LateMinutes             Number `json:"late_minutes"`
}

// EmployeeRecord is one row of a snapshot. Records are never modified by the engine.
type EmployeeRecord struct {
	ID          string  `json:"id"`
	ManagerID   *string `json:"manager_id"`
	Name        string  `json:"name"`
	Department  string  `json:"department"`
	Status      Status  `json:"status"`
	IsOnLeave   bool    `json:"is_on_leave"`
	LeaveStatus *string `json:"leave_status,omitempty"`
	Avatar      *string `json:"avatar,omitempty"`
	Metrics
}

// ManagerRef returns the trimmed manager id, or "" when the record has none.
func (r EmployeeRecord) ManagerRef() string {
	if r.ManagerID == nil {
		return ""
	}
	return strings.TrimSpace(*r.ManagerID)
}

func (r EmployeeRecord) Presence() Presence {
	if r.IsOnLeave {
		return PresenceLeave
	}
	if r.Status == StatusIn {
		return PresenceIn
	}
	return PresenceOut
}

// PresenceLabel is the human readable presence, using the leave label when one is set.
func (r EmployeeRecord) PresenceLabel() string {
	if r.IsOnLeave {
		if r.LeaveStatus != nil && strings.TrimSpace(*r.LeaveStatus) != "" {
			return strings.TrimSpace(*r.LeaveStatus)
		}
		return "On Leave"
	}
	return string(r.Presence())
}

// Initials is the avatar fallback: first letter of the first and last name parts.
func (r EmployeeRecord) Initials() string {
	parts := strings.FieldsFunc(r.Name, func(c rune) bool {
		return unicode.IsSpace(c) || c == '-' || c == '.'
	})
	if len(parts) == 0 {
		return "?"
	}

	first := []rune(parts[0])[0]
	if len(parts) == 1 {
		return strings.ToUpper(string(first))
	}
	last := []rune(parts[len(parts)-1])[0]
	return strings.ToUpper(string([]rune{first, last}))
}

// ScaledProgress is the stacked bar breakdown of a month target, in percent.
type ScaledProgress struct {
	CompletedPercent float64 `json:"completed_percent"`
	MissingPercent   float64 `json:"missing_percent"`
	RemainingPercent float64 `json:"remaining_percent"`
	UnfilledPercent  float64 `json:"unfilled_percent"`
}

// TreeNode is a record placed in the management tree. Children are owned by exactly one parent.
type TreeNode struct {
	EmployeeRecord
	Initials string         `json:"initials"`
	Presence Presence       `json:"presence"`
	Label    string         `json:"presence_label"`
	Progress ScaledProgress `json:"progress"`
	Children []*TreeNode    `json:"children"`
}

func (n *TreeNode) HasChildren() bool {
	return n != nil && len(n.Children) > 0
}

// GroupAverage is the rollup of a node's direct reports.
type GroupAverage struct {
	Metrics
	ChildCount          int     `json:"child_count"`
	ElapsedWorkDays     int     `json:"elapsed_work_days"`
	DailyAverageMissing float64 `json:"daily_average_missing"`
}

// LeaderboardRow is a record in the flat view, with its derived columns.
type LeaderboardRow struct {
	EmployeeRecord
	BreakRatio float64        `json:"break_ratio"`
	Presence   Presence       `json:"presence"`
	Label      string         `json:"presence_label"`
	Progress   ScaledProgress `json:"progress"`
}

// TeamAverage is the synthetic footer row of the leaderboard.
type TeamAverage struct {
	Metrics
	BreakRatio float64 `json:"break_ratio"`
	Count      int     `json:"count"`
}
