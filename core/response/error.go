package response

import (
	"net/http"

	"github.com/dmitrymomot/rtss/core/handler"
)

// Error returns a Response that hands err to the error handler.
func Error(err error) handler.Response {
	return func(w http.ResponseWriter, r *http.Request) error {
		return err
	}
}
