package auth

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var ErrNoUser = errors.New("user not found")
var ErrEmailTaken = errors.New("email already taken")

// Store is the gorm-backed user repository. The unique index on email is
// the single source of truth for registration conflicts.
type Store struct {
	DB *gorm.DB
}

func (s *Store) Create(ctx context.Context, u *User) error {
	if err := s.DB.WithContext(ctx).Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrEmailTaken
		}
		return err
	}
	return nil
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	if err := s.DB.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoUser
		}
		return nil, err
	}
	return &u, nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*User, error) {
	var u User
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoUser
		}
		return nil, err
	}
	return &u, nil
}
