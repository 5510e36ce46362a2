package comments

import (
	"bytes"
	"encoding/json"

	"Readout/internal/reddit"
)

type flattenFrame struct {
	parentID *string
	thing    reddit.Thing
	depth    int
}

// Flatten walks a nested comment tree in pre-order and returns flat rows with
// parent, depth and reply count assigned. Sort keys are taken from a counter
// starting at firstSortKey, so parents always precede their replies.
//
// Nodes that are not comments ("more" stubs), that cannot be decoded or that
// have no id are skipped. Replies that are "", null or malformed count as no
// replies. Traversal uses an explicit stack, so depth is not bounded by the
// goroutine stack.
func Flatten(children []reddit.Thing, postID string, firstSortKey int64) []*Comment {
	var out []*Comment
	next := firstSortKey

	stack := make([]flattenFrame, 0, len(children))
	stack = pushReversed(stack, children, nil, 0)

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if f.thing.Kind != reddit.KindComment {
			continue
		}
		var c reddit.Comment
		if err := json.Unmarshal(f.thing.Data, &c); err != nil {
			continue
		}
		id := c.Fullname()
		if id == "" {
			continue
		}

		replies := parseReplies(c.Replies)
		out = append(out, FromRemote(c, postID, f.parentID, f.depth, countComments(replies), next))
		next++

		stack = pushReversed(stack, replies, &id, f.depth+1)
	}
	return out
}

// pushReversed pushes things so that the first child is popped first.
func pushReversed(stack []flattenFrame, things []reddit.Thing, parentID *string, depth int) []flattenFrame {
	for i := len(things) - 1; i >= 0; i-- {
		stack = append(stack, flattenFrame{thing: things[i], parentID: parentID, depth: depth})
	}
	return stack
}

// parseReplies decodes an embedded reply listing. The API sends "" when a
// comment has no replies; anything that is not a listing object yields nil.
func parseReplies(raw json.RawMessage) []reddit.Thing {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil
	}
	var listing reddit.Listing
	if err := json.Unmarshal(raw, &listing); err != nil {
		return nil
	}
	return listing.Data.Children
}

func countComments(things []reddit.Thing) int {
	n := 0
	for _, t := range things {
		if t.Kind == reddit.KindComment {
			n++
		}
	}
	return n
}
