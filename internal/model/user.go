package model

import (
	"time"
)

type User struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

// UserResponse never carries the password hash.
type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (u *User) Response() UserResponse {
	return UserResponse{ID: u.ID, Email: u.Email}
}
