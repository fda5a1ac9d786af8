// Package service provides business logic services for the Ventra catalog backend.
package service

import "errors"

// Common service errors.
var (
	// Validation errors
	ErrInvalidEmail       = errors.New("invalid email format")
	ErrInvalidAuthUID     = errors.New("invalid auth UID: must be 1-255 characters")
	ErrInvalidDisplayName = errors.New("invalid display name: must be at most 255 characters")
	ErrInvalidName        = errors.New("invalid name: must be 1-255 characters")
	ErrInvalidPrice       = errors.New("invalid price: must not be negative")

	// General errors
	ErrInternalError = errors.New("internal server error")
)
