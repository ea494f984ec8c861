package model

import "time"

// User owns zero or more documents. Email is the login identifier and is
// unique across all users. PasswordHash holds a bcrypt hash; it is never
// serialized and never compared outside the auth package.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
