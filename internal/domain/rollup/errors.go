package rollup

import "errors"

var (
	ErrNodeNotFound        = errors.New("node not found in snapshot")
	ErrCompanyIDRequired   = errors.New("company_id claim is missing or invalid")
	ErrSnapshotUnavailable = errors.New("snapshot could not be loaded")
	ErrNothingToRender     = errors.New("nothing to render")
)
