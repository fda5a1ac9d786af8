// Package domain contains the core business entities for the Ventra catalog backend.
package domain

import (
	"errors"
	"fmt"
	"time"
)

// Domain errors - these represent business rule violations.
// They are distinct from infrastructure errors (database, network, etc.).

var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists indicates a user with the same email or auth UID exists.
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrUserDisabled indicates the account is disabled.
	ErrUserDisabled = errors.New("user account is disabled")

	// ErrRateLimited indicates registration for the email is throttled.
	ErrRateLimited = errors.New("too many signup attempts")

	// ErrCategoryNotFound indicates the requested category does not exist.
	ErrCategoryNotFound = errors.New("category not found")

	// ErrCategoryAlreadyExists indicates a category with the same slug exists.
	ErrCategoryAlreadyExists = errors.New("category with this name already exists")

	// ErrProductNotFound indicates the requested product does not exist.
	ErrProductNotFound = errors.New("product not found")

	// ErrUploadMissingFile indicates the upload request carried no file part.
	ErrUploadMissingFile = errors.New("no file uploaded")

	// ErrUploadFailed indicates the media host rejected or failed the upload.
	ErrUploadFailed = errors.New("image upload failed")
)

// RateLimitError is returned when the signup gate rejects an attempt.
// It carries the duration after which the caller may retry and matches
// ErrRateLimited under errors.Is.
type RateLimitError struct {
	// RetryAfter is how long until the block lapses.
	RetryAfter time.Duration

	// HardBlock distinguishes a freshly issued block (specific retry
	// message) from rejection under an existing block (generic message).
	HardBlock bool
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	if e.HardBlock {
		return fmt.Sprintf("%v: please try again in %s", ErrRateLimited, e.RetryAfter.Round(time.Minute))
	}
	return fmt.Sprintf("%v: please try again later", ErrRateLimited)
}

// Is makes errors.Is(err, ErrRateLimited) hold for RateLimitError values.
func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}
