package errors

import (
	"errors"
	"fmt"
)

// Common error types for the portal
var (
	// Session errors
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidScope    = errors.New("invalid browser scope")
	ErrStoreClosed     = errors.New("session store is closed")

	// Navigation errors
	ErrRouteNotFound = errors.New("route not found")
	ErrInvalidRoutes = errors.New("invalid route table")
	ErrRedirectLoop  = errors.New("redirect loop")

	// Account errors
	ErrAccountNotFound = errors.New("account not found")
	ErrAccountExists   = errors.New("account already exists")
	ErrInvalidInput    = errors.New("invalid input")

	// Tool errors
	ErrUnknownTool      = errors.New("unknown tool")
	ErrMissingArguments = errors.New("missing required arguments")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrFetchFailed      = errors.New("failed to fetch images from unsplash")
	ErrNoteNotFound     = errors.New("note not found")

	// General errors
	ErrNotFound      = errors.New("not found")
	ErrInternal      = errors.New("internal error")
	ErrNotConfigured = errors.New("not configured")

	// Configuration errors
	ErrInsecureConfig = errors.New("insecure configuration")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
