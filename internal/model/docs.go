package model

import "time"

// Document is a collaborative document mirrored from the docs backend.
// Editing happens in an external editor SDK; the client only manages the
// listing and metadata (title, timestamps).
type Document struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Kind       string    `json:"kind"` // "document", "spreadsheet", "presentation"
	OwnerEmail string    `json:"owner_email"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
}
