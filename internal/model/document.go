package model

import "time"

// Document represents one uploaded file and its metadata.
// This is a pure domain model with no database-specific dependencies or tags.
// It can be used across layers (HTTP, service, storage) without coupling to persistence.
//
// Filepath is the storage location of the blob (local path or object key).
// It is never serialized to clients; it is used only internally for
// streaming and deletion.
type Document struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Name        string    `json:"name"`
	Tag         string    `json:"tag"`
	Description string    `json:"description"`
	Filename    string    `json:"filename"`
	Filepath    string    `json:"-"`
	Mimetype    string    `json:"mimetype"`
	Filesize    int64     `json:"filesize"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
