package models

import "errors"

var (
	// ErrInvalidInput marks parameters rejected before any state changes.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNoData is returned when a source has no bars for the request.
	ErrNoData = errors.New("no data")
)
