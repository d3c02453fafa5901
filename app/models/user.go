package models

import (
	"strings"
	"time"
)

func (u *User) Validate() error {
	return validate.Struct(u)
}

func (u *User) BeforeCreate() {
	if u.DateJoined.IsZero() {
		u.DateJoined = time.Now()
	}
}

// FullName joins first and last name, falling back to the username.
func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// NormalizeUsername is the form usernames are indexed under.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
