package domain

import "time"

type User struct {
	Email        string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
}

// Principal is the identity carried by a validated bearer token.
type Principal struct {
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
}
