package reports

import (
	"errors"
	"net/http"
)

// Domain errors for grade report operations.
var (
	ErrNotFound  = errors.New("grade report not found")
	ErrDuplicate = errors.New("grade report already exists for submission")
	ErrInvalidID = errors.New("invalid report identifier")
)

// MapHTTPStatus maps grade report domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrInvalidID) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
