package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/hris-rollup-go/internal/domain/rollup"
	"github.com/cmlabs-hris/hris-rollup-go/internal/handler/http/response"
	"github.com/go-chi/jwtauth/v5"
)

// RequireCompany requires a non-empty company_id claim
func RequireCompany(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			response.HandleError(w, rollup.ErrCompanyIDRequired)
			return
		}

		companyID, ok := claims["company_id"].(string)
		if !ok || companyID == "" {
			response.HandleError(w, rollup.ErrCompanyIDRequired)
			return
		}

		next.ServeHTTP(w, r)
	})
}
