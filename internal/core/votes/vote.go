package votes

import (
	"fmt"
	"strings"
)

// Direction is a vote direction as accepted by the vote endpoint.
type Direction int

const (
	Down Direction = -1
	None Direction = 0
	Up   Direction = 1
)

// Valid reports whether d is -1, 0 or 1.
func (d Direction) Valid() bool {
	return d >= Down && d <= Up
}

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case None:
		return "none"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// ParseDirection accepts "up", "down", "none" (or "") and the numeric forms "1", "-1", "0".
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up", "1", "+1":
		return Up, nil
	case "down", "-1":
		return Down, nil
	case "none", "0", "":
		return None, nil
	default:
		return None, fmt.Errorf("%w: %q", ErrInvalidDirection, s)
	}
}

// FromLikes converts the tri-state likes flag to a direction.
func FromLikes(likes *bool) Direction {
	switch {
	case likes == nil:
		return None
	case *likes:
		return Up
	default:
		return Down
	}
}

// Likes converts a direction back to the tri-state likes flag.
func (d Direction) Likes() *bool {
	switch d {
	case Up:
		v := true
		return &v
	case Down:
		v := false
		return &v
	default:
		return nil
	}
}

// Apply computes the new score and likes flag for a vote.
// The previous vote contributes -1/0/+1 and is replaced by the new direction,
// so repeating the same vote leaves the score unchanged.
func Apply(score int, prev *bool, next Direction) (int, *bool) {
	return score + int(next) - int(FromLikes(prev)), next.Likes()
}

// State is the locally cached vote/save state of a post or comment.
type State struct {
	Likes *bool  `json:"likes"`
	ID    string `json:"id"`
	Score int    `json:"score"`
	Saved bool   `json:"saved"`
}
