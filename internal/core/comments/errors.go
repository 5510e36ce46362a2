package comments

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrCommentNotFound indicates the requested comment is not cached
	ErrCommentNotFound = errors.New("comment not found")

	// ErrInvalidCommentID indicates the id is not a "t1_" fullname
	ErrInvalidCommentID = errors.New("invalid comment id")
)

// IsNotFound checks if an error is a "not found" error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrCommentNotFound)
}

// ValidateID checks that id is a comment fullname ("t1_<id>").
func ValidateID(id string) error {
	rest, ok := strings.CutPrefix(id, "t1_")
	if !ok || rest == "" {
		return fmt.Errorf("%w: %q", ErrInvalidCommentID, id)
	}
	return nil
}
