package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"loginreg/internal/model"
)

// UserLookup is the outcome of an email lookup: either a found user or NotFound.
type UserLookup struct {
	User *model.User
}

// NotFound is the lookup result for a missing record.
var NotFound = UserLookup{}

// Found wraps a located user.
func Found(user *model.User) UserLookup {
	return UserLookup{User: user}
}

func (l UserLookup) Found() bool {
	return l.User != nil
}

// UserRepository persists users through GORM.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Insert creates the user; GORM fills ID, CreatedAt and UpdatedAt.
func (r *UserRepository) Insert(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// FindByEmail looks up by exact email. Duplicate emails resolve to the oldest record.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (UserLookup, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("email = ?", email).Order("id ASC").First(&user).Error
	switch {
	case err == nil:
		return Found(&user), nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return NotFound, nil
	default:
		return NotFound, fmt.Errorf("find user: %w", err)
	}
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.User{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// CountCreatedSince counts users created at or after since, in any time zone.
func (r *UserRepository) CountCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.User{}).Where("created_at >= ?", since.UTC()).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count recent users: %w", err)
	}
	return n, nil
}
