package mediators

import "errors"

var (
	// ErrNoRemoteKey is returned when no remote key is stored for a post
	ErrNoRemoteKey = errors.New("remote key not found")

	// ErrInvalidScope is returned when a mediator is created for an unusable scope
	ErrInvalidScope = errors.New("invalid mediator scope")
)

// IsNoRemoteKey checks if an error is a missing remote key error
func IsNoRemoteKey(err error) bool {
	return errors.Is(err, ErrNoRemoteKey)
}
