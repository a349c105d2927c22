// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import (
	"context"
	"errors"
	"fmt"
)

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates missing or malformed input.
	ErrValidation = errors.New("validation")

	// ErrUnauthorized indicates failed authentication/authorization.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRateLimited indicates temporary sign-in lock due to rate limiting.
	ErrRateLimited = errors.New("rate limited")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., email taken).
	ErrAlreadyExists = errors.New("already exists")

	// ErrStorage indicates a failure of a backend (database, object storage, network).
	ErrStorage = errors.New("storage")
)

// Validation returns an ErrValidation carrying a user-facing message.
func Validation(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

// Storage marks err as a backend failure. Errors that already carry a domain
// sentinel or a context cancellation are returned untouched.
func Storage(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrStorage),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrValidation),
		errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrRateLimited),
		errors.Is(err, ErrAlreadyExists),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return fmt.Errorf("%w: %w", ErrStorage, err)
}
