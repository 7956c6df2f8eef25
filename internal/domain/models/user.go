package models

import "time"

type User struct {
	UserID       int64     `json:"user_id"`
	Name         string    `json:"name"`
	Age          *int      `json:"age"`
	Mobile       string    `json:"mobile"`
	Email        *string   `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
