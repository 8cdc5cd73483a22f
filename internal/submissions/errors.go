package submissions

import (
	"errors"
	"net/http"
)

// Domain errors for submission operations.
var (
	ErrNotFound     = errors.New("submission not found")
	ErrDuplicate    = errors.New("submission already exists")
	ErrInvalidState = errors.New("submission status precludes processing")
	ErrNoImages     = errors.New("submission has no images")
	ErrFileTooLarge = errors.New("photo exceeds maximum upload size")
	ErrInvalidFile  = errors.New("invalid photo upload")
	ErrInvalidID    = errors.New("invalid submission identifier")
)

// MapHTTPStatus maps submission domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) || errors.Is(err, ErrInvalidState) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrFileTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	if errors.Is(err, ErrInvalidFile) || errors.Is(err, ErrNoImages) || errors.Is(err, ErrInvalidID) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
