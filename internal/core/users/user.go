package users

// Table is the name of the users table; used for invalidation subscriptions.
const Table = "users"

// DefaultIconURL is shown for authors whose profile has not been fetched yet
// or whose profile has no avatar.
const DefaultIconURL = "https://www.redditstatic.com/avatars/defaults/v2/avatar_default_0.png"

// DeletedAuthor is the author name the API reports for deleted accounts.
const DeletedAuthor = "[deleted]"

// User is a cached author profile.
// Rows are created as placeholders (empty IconURL) the first time an author
// is seen during ingest and upgraded in place once the profile is fetched.
type User struct {
	SnoovatarURL *string `json:"snoovatarUrl,omitempty" db:"snoovatar_url"`
	Name         string  `json:"name" db:"name"`
	IconURL      string  `json:"iconUrl" db:"icon_url"`
}

// Placeholder returns an unfetched user row for name.
func Placeholder(name string) *User {
	return &User{Name: name}
}

// IsPlaceholder reports whether the profile still needs to be fetched.
// A non-empty icon means the profile was fetched and must not be fetched again.
func (u *User) IsPlaceholder() bool {
	return u.IconURL == ""
}

// UserView is the user shape handed to API callers.
type UserView struct {
	Name    string `json:"name"`
	IconURL string `json:"iconUrl"`
	Pending bool   `json:"pending"`
}
