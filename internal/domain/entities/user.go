package entities

import "strconv"

// User is a chat participant who answers quiz questions.
type User struct {
	ID   int64  // Telegram user ID
	Name string // display name at the time of answering
}

// DisplayName returns the user name or a fallback built from the ID.
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return "user " + strconv.FormatInt(u.ID, 10)
}
