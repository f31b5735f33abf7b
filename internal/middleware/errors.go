package middleware

import (
	"net/http"

	apierrors "bikedash/internal/errors"
)

// problemTypes covers the failures middleware raises before a handler runs.
var problemTypes = map[int]string{
	http.StatusTooManyRequests:     apierrors.TypeRateLimit,
	http.StatusInternalServerError: apierrors.TypeInternal,
}

// ProblemFromStatus builds a problem for a middleware failure. The request
// path becomes the instance and the request ID is attached as trace_id.
func ProblemFromStatus(r *http.Request, status int, detail string) *apierrors.ProblemDetails {
	problemType, ok := problemTypes[status]
	if !ok {
		problemType = "/errors/unknown"
	}
	return apierrors.NewProblemDetails(status, problemType, http.StatusText(status), detail, r.URL.Path).
		WithExtension("trace_id", GetRequestID(r.Context()))
}
