package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-rollup-go/internal/domain/rollup"
	"github.com/cmlabs-hris/hris-rollup-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	// Rollup domain errors
	switch {
	case errors.Is(err, rollup.ErrCompanyIDRequired):
		Forbidden(w, "Company access required")
	case errors.Is(err, rollup.ErrNodeNotFound):
		NotFound(w, "Employee not found in organization tree")
	case errors.Is(err, rollup.ErrNothingToRender):
		NotFound(w, "Nothing to render")
	case errors.Is(err, rollup.ErrSnapshotUnavailable):
		slog.Error("rollup snapshot unavailable", "error", err)
		ServiceUnavailable(w, "Organization data is temporarily unavailable")

	// Default
	default:
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
