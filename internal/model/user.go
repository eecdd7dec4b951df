package model

import "time"

// User is a registered account. Email is indexed but not unique.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	FirstName    string    `gorm:"size:30" json:"first_name"`
	LastName     string    `gorm:"size:30" json:"last_name"`
	Email        string    `gorm:"size:60;index" json:"email"`
	PasswordHash string    `gorm:"size:255" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
