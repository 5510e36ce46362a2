package users

import (
	"errors"
	"fmt"
)

// Sentinel errors for common user operations
var (
	// ErrUserNotFound is returned when a user lookup finds no matching record
	ErrUserNotFound = errors.New("user not found")

	// ErrProfileUnavailable is returned when a profile fetch failed recently and is not retried yet
	ErrProfileUnavailable = errors.New("user profile unavailable")
)

// InvalidUsernameError is returned for names that cannot belong to a real account.
type InvalidUsernameError struct {
	Name   string
	Reason string
}

func (e *InvalidUsernameError) Error() string {
	return fmt.Sprintf("invalid username %q: %s", e.Name, e.Reason)
}

// IsNotFound reports whether err means the user is not cached.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound)
}

// IsInvalidUsername reports whether err is an InvalidUsernameError.
func IsInvalidUsername(err error) bool {
	var e *InvalidUsernameError
	return errors.As(err, &e)
}
