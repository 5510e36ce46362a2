package users

import (
	"regexp"
	"strings"

	"Readout/internal/reddit"

	"golang.org/x/net/html"
)

// Reddit usernames: 3-20 characters of letters, digits, underscore and hyphen.
// Older accounts may be shorter, so only the character set and upper bound are enforced.
var usernameRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{1,20}$`)

// ValidateUsername rejects names that cannot be fetched from the profile endpoint.
func ValidateUsername(name string) error {
	switch {
	case name == "":
		return &InvalidUsernameError{Name: name, Reason: "empty"}
	case name == DeletedAuthor:
		return &InvalidUsernameError{Name: name, Reason: "deleted account"}
	case !usernameRegex.MatchString(name):
		return &InvalidUsernameError{Name: name, Reason: "unexpected characters"}
	}
	return nil
}

// Enrichable reports whether name refers to an account whose profile can be fetched.
func Enrichable(name string) bool {
	return ValidateUsername(name) == nil
}

// FromRemote maps a profile response onto a user row.
// The icon falls back to the snoovatar and then to DefaultIconURL, so a
// fetched row is never mistaken for a placeholder.
func FromRemote(account reddit.Account) *User {
	u := &User{Name: account.Name}
	if snoo := cleanURL(account.SnoovatarImg); snoo != "" {
		u.SnoovatarURL = &snoo
	}

	u.IconURL = cleanURL(account.IconImg)
	if u.IconURL == "" && u.SnoovatarURL != nil {
		u.IconURL = *u.SnoovatarURL
	}
	if u.IconURL == "" {
		u.IconURL = DefaultIconURL
	}
	return u
}

// ToView converts a cached row into the API shape.
// A nil row (author never seen) renders like a placeholder.
func ToView(name string, u *User) *UserView {
	if u == nil || u.IsPlaceholder() {
		return &UserView{Name: name, IconURL: DefaultIconURL, Pending: true}
	}
	return &UserView{Name: u.Name, IconURL: u.IconURL}
}

// cleanURL unescapes HTML entities the API leaves in image URLs.
func cleanURL(raw string) string {
	return strings.TrimSpace(html.UnescapeString(raw))
}
