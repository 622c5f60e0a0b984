package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/febry-setyawan/loyalty/internal/application/errs"
	"github.com/febry-setyawan/loyalty/internal/jwt"
)

type contextKey int

const serviceKey contextKey = 0

// ServiceFromContext returns the name of the calling service stored by
// the authorization middleware.
func ServiceFromContext(ctx context.Context) (string, bool) {
	service, ok := ctx.Value(serviceKey).(string)
	return service, ok
}

// Middleware verifies the bearer token of the calling service.
func Middleware(signingKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		f := func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get("Authorization")
			if token == "" {
				errorHandlerFunc(w, r, fmt.Errorf("%w: authorization token", errs.ErrInvalidCredentials))
				return
			}

			service, err := jwt.GetService(token, signingKey)
			if err != nil {
				errorHandlerFunc(w, r, fmt.Errorf("%w: %s", errs.ErrInvalidCredentials, err))
				return
			}

			r = r.WithContext(context.WithValue(r.Context(), serviceKey, service))

			next.ServeHTTP(w, r)
		}

		return http.HandlerFunc(f)
	}
}

// errorHandlerFunc handles sending of an error in the JSON format,
// writing appropriate status code and handling the failure to marshal that.
func errorHandlerFunc(w http.ResponseWriter, _ *http.Request, err error) {
	errJSON := errs.JSON{Error: err.Error()}

	w.WriteHeader(http.StatusUnauthorized)

	if err = json.NewEncoder(w).Encode(errJSON); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
