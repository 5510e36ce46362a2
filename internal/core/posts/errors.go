package posts

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common post operations
var (
	// ErrPostNotFound is returned when a post is not cached locally
	ErrPostNotFound = errors.New("post not found")

	// ErrInvalidPostID is returned for ids that are not "t3_" fullnames
	ErrInvalidPostID = errors.New("invalid post id")
)

// IsNotFound reports whether err means the post is not cached.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPostNotFound)
}

// ValidateID checks that id is a post fullname ("t3_<id>").
func ValidateID(id string) error {
	rest, ok := strings.CutPrefix(id, "t3_")
	if !ok || rest == "" {
		return fmt.Errorf("%w: %q", ErrInvalidPostID, id)
	}
	return nil
}
