package repository

import (
	"context"

	"postboard/internal/domain"
)

// UserRepository defines persistence operations for User entities.
//
// Create returns ErrDuplicateUsername when the username is already stored;
// the lookups return ErrNotFound when nothing matches.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (int64, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}
