package auth

import (
	"time"

	"blogd/internal/ident"

	"gorm.io/gorm"
)

type User struct {
	ID           string    `gorm:"primaryKey;size:24"`
	Email        string    `gorm:"uniqueIndex;not null"`
	PasswordHash string    `gorm:"not null"`
	Name         string    `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null;default:now()"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = ident.New()
	}
	return nil
}
