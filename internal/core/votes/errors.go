package votes

import "errors"

var (
	// ErrSubjectNotFound indicates the post/comment being voted on is not cached locally
	ErrSubjectNotFound = errors.New("subject not found")

	// ErrInvalidDirection indicates the vote direction is not -1, 0 or 1
	ErrInvalidDirection = errors.New("invalid vote direction: must be -1, 0 or 1")

	// ErrInvalidSubject indicates the subject is not a post (t3_) or comment (t1_) fullname
	ErrInvalidSubject = errors.New("invalid subject id")
)

// IsNotFound reports whether err means the subject is not cached.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSubjectNotFound)
}
