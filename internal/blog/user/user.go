// Package user defines the blog account record.
package user

import "time"

// User stores one registered blog account.
//
// PasswordHash is excluded from JSON so account records can be embedded in
// transport responses without leaking credential material.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
