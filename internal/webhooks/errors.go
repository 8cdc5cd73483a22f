package webhooks

import (
	"errors"
	"net/http"
)

// Domain errors for webhook subscription operations.
var (
	ErrNotFound   = errors.New("webhook subscription not found")
	ErrDuplicate  = errors.New("webhook subscription already exists")
	ErrInvalidID  = errors.New("invalid subscription identifier")
	ErrInvalidURL = errors.New("invalid endpoint url")
)

// MapHTTPStatus maps webhook domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrInvalidID) || errors.Is(err, ErrInvalidURL) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
