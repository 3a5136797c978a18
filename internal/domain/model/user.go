package model

import "time"

// User represents a registered customer account.
type User struct {
	ID           int64
	UUID         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
