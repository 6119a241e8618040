package response

import (
	"errors"
	"net/http"
)

type statusCode interface {
	StatusCode() int
}

func convertToHTTPError(err error) HTTPError {
	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	status := http.StatusInternalServerError
	var sc statusCode
	if errors.As(err, &sc) {
		status = sc.StatusCode()
	}

	base, ok := httpErrorsByStatus[status]
	if !ok {
		base = newHTTPError(status, "error")
		if http.StatusText(status) == "" {
			base = ErrInternalServerError
		}
	}
	return base.WithError(err)
}

// ErrorHandler writes errors as plain text.
func ErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	httpErr := convertToHTTPError(err)
	_ = StringWithStatus(httpErr.Error(), httpErr.Status)(w, r)
}

// JSONErrorHandler writes errors as a JSON HTTPError body.
func JSONErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	httpErr := convertToHTTPError(err)
	_ = JSONWithStatus(httpErr, httpErr.Status)(w, r)
}
