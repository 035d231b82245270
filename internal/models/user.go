package models

import "time"

type User struct {
	ID           int64
	UserID       string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
