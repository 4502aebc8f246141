package domain

import "time"

// User is an account able to log in. Email doubles as the token subject.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity returns the identity a token for this user carries.
func (u *User) Identity() Identity {
	return Identity{Subject: u.Email, Role: u.Role}
}
