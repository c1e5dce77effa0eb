package rollup

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-rollup-go/internal/pkg/validator"
	"github.com/spf13/cast"
)

// ========================================
// PERIOD
// ========================================

// Period is a reporting month.
type Period struct {
	Year  int
	Month int
}

func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: int(t.Month())}
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// parsePeriod reads "YYYY-MM", falling back to the month of now when raw is empty.
func parsePeriod(raw string, now time.Time) (Period, bool) {
	if validator.IsEmpty(raw) {
		return PeriodOf(now), true
	}
	month, ok := validator.IsValidPeriod(strings.TrimSpace(raw))
	if !ok {
		return Period{}, false
	}
	return PeriodOf(month), true
}

// ========================================
// TREE VIEW
// ========================================

type ExpandMode string

const (
	ExpandModeAll  ExpandMode = "all"
	ExpandModeNone ExpandMode = "none"
)

type TreeRequest struct {
	Period   string     `json:"period"`
	Expand   ExpandMode `json:"expand,omitempty"`
	Expanded []string   `json:"expanded,omitempty"`
	Toggle   []string   `json:"toggle,omitempty"`

	ResolvedPeriod Period `json:"-"`
}

func (r *TreeRequest) Validate(now time.Time) error {
	var errs validator.ValidationErrors

	period, ok := parsePeriod(r.Period, now)
	if !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "period",
			Message: "period must be in YYYY-MM format",
		})
	}
	r.ResolvedPeriod = period

	if r.Expand != "" && r.Expand != ExpandModeAll && r.Expand != ExpandModeNone {
		errs = append(errs, validator.ValidationError{
			Field:   "expand",
			Message: "expand must be either all or none",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type TreeResponse struct {
	SnapshotID      string                  `json:"snapshot_id"`
	Period          string                  `json:"period"`
	GeneratedAt     string                  `json:"generated_at"`
	ElapsedWorkDays int                     `json:"elapsed_work_days"`
	TotalNodes      int                     `json:"total_nodes"`
	Roots           []*TreeNode             `json:"roots"`
	Expanded        []string                `json:"expanded"`
	Rollups         map[string]GroupAverage `json:"rollups"`
}

// RecordList is a caller supplied snapshot. Ids and manager references may be JSON strings or numbers.
type RecordList []EmployeeRecord

type wireRecord struct {
	EmployeeRecord
	ID             json.RawMessage `json:"id"`
	ManagerID      json.RawMessage `json:"manager_id"`
	ManagerIDCamel json.RawMessage `json:"managerId"`
}

func (l *RecordList) UnmarshalJSON(data []byte) error {
	var wire []wireRecord
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	records := make(RecordList, 0, len(wire))
	for _, w := range wire {
		rec := w.EmployeeRecord
		rec.ID = lenientID(w.ID)

		managerRaw := w.ManagerID
		if len(managerRaw) == 0 {
			managerRaw = w.ManagerIDCamel
		}
		if ref := lenientID(managerRaw); ref != "" {
			rec.ManagerID = &ref
		}
		records = append(records, rec)
	}
	*l = records
	return nil
}

// lenientID reads a string or number id. Null, booleans and objects read as "".
func lenientID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return ""
	}
	switch v.(type) {
	case string, json.Number:
	default:
		return ""
	}

	id, err := cast.ToStringE(v)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(id)
}

// PreviewRequest builds a tree from a caller supplied snapshot instead of the database.
type PreviewRequest struct {
	Records  RecordList `json:"records"`
	Expand   ExpandMode `json:"expand,omitempty"`
	Expanded []string   `json:"expanded,omitempty"`
}

func (r *PreviewRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Expand != "" && r.Expand != ExpandModeAll && r.Expand != ExpandModeNone {
		errs = append(errs, validator.ValidationError{
			Field:   "expand",
			Message: "expand must be either all or none",
		})
	}
	for i, rec := range r.Records {
		if validator.IsEmpty(rec.ID) {
			errs = append(errs, validator.ValidationError{
				Field:   fmt.Sprintf("records[%d].id", i),
				Message: "id is required",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ========================================
// NODE DETAIL
// ========================================

type NodeRequest struct {
	Period string `json:"period"`
	NodeID string `json:"node_id"`

	ResolvedPeriod Period `json:"-"`
}

func (r *NodeRequest) Validate(now time.Time) error {
	var errs validator.ValidationErrors

	period, ok := parsePeriod(r.Period, now)
	if !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "period",
			Message: "period must be in YYYY-MM format",
		})
	}
	r.ResolvedPeriod = period

	if validator.IsEmpty(r.NodeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "node_id",
			Message: "node_id is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type NodeResponse struct {
	SnapshotID string        `json:"snapshot_id"`
	Period     string        `json:"period"`
	Node       *TreeNode     `json:"node"`
	Path       []string      `json:"path"`
	Rollup     *GroupAverage `json:"rollup,omitempty"`
}

// ========================================
// LEADERBOARD
// ========================================

type SortKey string

const (
	SortByName                    SortKey = "name"
	SortByDepartment              SortKey = "department"
	SortByStatus                  SortKey = "status"
	SortByTodayMinutes            SortKey = "today_minutes"
	SortByMonthTargetHours        SortKey = "month_target_hours"
	SortByCompletedHours          SortKey = "completed_hours"
	SortByMissingHours            SortKey = "missing_hours"
	SortByRemainingHours          SortKey = "remaining_hours"
	SortByNetBalanceHours         SortKey = "net_balance_hours"
	SortByTotalWorkHours          SortKey = "total_work_hours"
	SortByApprovedOvertimeMinutes SortKey = "approved_overtime_minutes"
	SortByPendingOvertimeMinutes  SortKey = "pending_overtime_minutes"
	SortByTotalBreakMinutes       SortKey = "total_break_minutes"
	SortByLateCount               SortKey = "late_count"
	SortByLateMinutes             SortKey = "late_minutes"
	SortByBreakRatio              SortKey = "break_ratio"
)

var SortKeys = []SortKey{
	SortByName, SortByDepartment, SortByStatus,
	SortByTodayMinutes, SortByMonthTargetHours, SortByCompletedHours, SortByMissingHours,
	SortByRemainingHours, SortByNetBalanceHours, SortByTotalWorkHours,
	SortByApprovedOvertimeMinutes, SortByPendingOvertimeMinutes, SortByTotalBreakMinutes,
	SortByLateCount, SortByLateMinutes, SortByBreakRatio,
}

func (k SortKey) Valid() bool {
	for _, key := range SortKeys {
		if key == k {
			return true
		}
	}
	return false
}

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

func (d SortDirection) Flip() SortDirection {
	if d == SortDesc {
		return SortAsc
	}
	return SortDesc
}

// SortState is the leaderboard column selection. The zero value means unsorted.
type SortState struct {
	Key       SortKey       `json:"key,omitempty"`
	Direction SortDirection `json:"direction,omitempty"`
}

// Click returns the state after selecting key: the same key flips, any other key starts descending.
func (s SortState) Click(key SortKey) SortState {
	if s.Key == key {
		return SortState{Key: key, Direction: s.Direction.Flip()}
	}
	return SortState{Key: key, Direction: SortDesc}
}

type LeaderboardRequest struct {
	Period     string        `json:"period"`
	SortBy     SortKey       `json:"sort_by"`
	Order      SortDirection `json:"order"`
	Toggle     SortKey       `json:"toggle"`
	Department string        `json:"department"`
	Search     string        `json:"search"`
	Limit      int           `json:"limit"`

	ResolvedPeriod Period `json:"-"`
}

func (r *LeaderboardRequest) Validate(now time.Time, maxLimit int) error {
	var errs validator.ValidationErrors

	period, ok := parsePeriod(r.Period, now)
	if !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "period",
			Message: "period must be in YYYY-MM format",
		})
	}
	r.ResolvedPeriod = period

	if r.SortBy != "" && !r.SortBy.Valid() {
		errs = append(errs, validator.ValidationError{
			Field:   "sort_by",
			Message: fmt.Sprintf("unknown sort column %q", r.SortBy),
		})
	}
	if r.Toggle != "" && !r.Toggle.Valid() {
		errs = append(errs, validator.ValidationError{
			Field:   "toggle",
			Message: fmt.Sprintf("unknown sort column %q", r.Toggle),
		})
	}
	if r.Order != "" && r.Order != SortAsc && r.Order != SortDesc {
		errs = append(errs, validator.ValidationError{
			Field:   "order",
			Message: "order must be either asc or desc",
		})
	}
	if r.Limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not be negative",
		})
	}
	if maxLimit > 0 && r.Limit > maxLimit {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: fmt.Sprintf("limit must not exceed %d", maxLimit),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SortState resolves the requested sort: explicit sort_by/order first, then an optional toggle click.
func (r LeaderboardRequest) SortState() SortState {
	state := SortState{}
	if r.SortBy != "" {
		state.Key = r.SortBy
		state.Direction = r.Order
		if state.Direction == "" {
			state.Direction = SortDesc
		}
	}
	if r.Toggle != "" {
		state = state.Click(r.Toggle)
	}
	return state
}

type LeaderboardResponse struct {
	SnapshotID    string           `json:"snapshot_id"`
	Period        string           `json:"period"`
	Sort          SortState        `json:"sort"`
	TotalRows     int              `json:"total_rows"`
	FilteredRows  int              `json:"filtered_rows"`
	Rows          []LeaderboardRow `json:"rows"`
	TeamAverage   TeamAverage      `json:"team_average"`
	GeneratedAt   string           `json:"generated_at"`
	AvailableKeys []SortKey        `json:"available_keys"`
}

// ========================================
// SNAPSHOT / STREAM
// ========================================

type RefreshRequest struct {
	Period string `json:"period"`
}

// SnapshotInfo describes a loaded snapshot. It is also the payload of rollup.snapshot events.
type SnapshotInfo struct {
	SnapshotID    string `json:"snapshot_id"`
	CompanyID     string `json:"company_id"`
	Period        string `json:"period"`
	EmployeeCount int    `json:"employee_count"`
	LoadedAt      string `json:"loaded_at"`
}

// SSEEvent represents a Server-Sent Event
type SSEEvent struct {
	Event string       `json:"event"`
	Data  SnapshotInfo `json:"data"`
}

const EventSnapshotReplaced = "rollup.snapshot"

type StreamTokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}
