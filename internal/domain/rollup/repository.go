package rollup

import "context"

// SnapshotRepository loads the flat employee summaries a rollup is built from
type SnapshotRepository interface {
	// GetEmployeeSummaries returns one record per active employee of the company for the month
	GetEmployeeSummaries(ctx context.Context, companyID string, year, month int) ([]EmployeeRecord, error)
}
