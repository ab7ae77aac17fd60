package models

import "time"

// Post is a single feed entry. Creator holds the owning user's id.
type Post struct {
	ID        string    `json:"_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	ImageURL  string    `json:"imageUrl"`
	Creator   string    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PostView is a Post as returned by the API, with creator display data.
type PostView struct {
	Post
	Creator Creator `json:"creator"`
}

// PostInput carries the validated text fields of a create or edit request.
type PostInput struct {
	Title   string `validate:"min=5"`
	Content string `validate:"min=5"`
}
