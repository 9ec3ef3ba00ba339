package models

import "gorm.io/gorm"

// User represents a user in the system.
type User struct {
	gorm.Model
	FirstName    string `gorm:"size:255;not null"`
	LastName     string `gorm:"size:255;not null"`
	Email        string `gorm:"size:255;unique;not null"`
	AvatarURL    string `gorm:"size:512"`
	PasswordHash string `gorm:"size:255;not null"`
}
