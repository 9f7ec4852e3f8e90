package models

import "time"

type User struct {
	Id           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Identity is the claim produced by token verification.
type Identity struct {
	Id       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}
