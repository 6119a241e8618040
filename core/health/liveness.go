package health

import (
	"net/http"

	"github.com/dmitrymomot/rtss/core/handler"
	"github.com/dmitrymomot/rtss/core/response"
)

// Liveness reports that the process is serving. It never checks
// dependencies.
func Liveness(*http.Request) handler.Response {
	return response.String("ALIVE")
}

// NoContent returns 204 without a body, for high-frequency probes.
func NoContent(*http.Request) handler.Response {
	return response.NoContent()
}
