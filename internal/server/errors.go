package server

import (
	"errors"
	"net/http"
)

var (
	// ErrRunInFlight is returned when a trigger arrives while this process
	// is still executing a run.
	ErrRunInFlight = errors.New("a run is already in progress")
	// ErrNotConfigured is returned when the pipeline could not be built
	// from the configuration.
	ErrNotConfigured = errors.New("pipeline is not configured")
	// ErrNotFound is returned for unknown run ids.
	ErrNotFound = errors.New("not found")
)

// ErrValidation indicates request validation failure.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return "validation error: " + e.Field + " - " + e.Message
}

// HTTPStatus returns the status code for an error.
func HTTPStatus(err error) int {
	var ve *ErrValidation
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.Is(err, ErrRunInFlight):
		return http.StatusConflict
	case errors.Is(err, ErrNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
