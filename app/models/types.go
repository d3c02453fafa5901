package models

import "time"

// User is a registered author.
type User struct {
	ID           int       `json:"id" validate:"gte=0"`
	Username     string    `json:"username" validate:"required,max=150,username"`
	Email        string    `json:"email,omitempty" validate:"omitempty,email,max=254"`
	FirstName    string    `json:"first_name,omitempty" validate:"max=150"`
	LastName     string    `json:"last_name,omitempty" validate:"max=150"`
	PasswordHash string    `json:"-" validate:"required"`
	DateJoined   time.Time `json:"date_joined" validate:"required"`
}

// Group is a named category that posts may belong to.
type Group struct {
	ID          int    `json:"id" validate:"gte=0"`
	Title       string `json:"title" validate:"required,max=200"`
	Slug        string `json:"slug" validate:"required,max=50,slug"`
	Description string `json:"description" validate:"required"`
}

// Post is a user-authored text entry, optionally in a Group and optionally with an image.
type Post struct {
	ID       int        `json:"id" validate:"gte=0"`
	Text     string     `json:"text" validate:"required"`
	PubDate  time.Time  `json:"pub_date" validate:"required"`
	AuthorID int        `json:"author_id" validate:"required,gt=0"`
	GroupID  *int       `json:"group_id,omitempty" validate:"omitempty,gt=0"`
	Image    string     `json:"image,omitempty" validate:"max=255"`
	Author   *User      `json:"author,omitempty" validate:"-"`
	Group    *Group     `json:"group,omitempty" validate:"-"`
	Comments []*Comment `json:"comments,omitempty" validate:"-"`
}

// Comment is text attached to a Post by a user.
type Comment struct {
	ID       int       `json:"id" validate:"gte=0"`
	PostID   int       `json:"post_id" validate:"required,gt=0"`
	AuthorID int       `json:"author_id" validate:"required,gt=0"`
	Text     string    `json:"text" validate:"required"`
	Created  time.Time `json:"created" validate:"required"`
	Author   *User     `json:"author,omitempty" validate:"-"`
}

// Follow is a subscription of User to Author.
type Follow struct {
	UserID   int       `json:"user_id" validate:"required,gt=0"`
	AuthorID int       `json:"author_id" validate:"required,gt=0,nefield=UserID"`
	Created  time.Time `json:"created"`
}
