package repository

import (
	"context"

	"postboard/internal/domain"
)

// PostRepository exposes persistence operations for posts.
type PostRepository interface {
	Create(ctx context.Context, post *domain.Post) (int64, error)
	UpdateTitle(ctx context.Context, id int64, title string) (*domain.Post, error)
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*domain.Post, error)
	List(ctx context.Context) ([]domain.Post, error)
}
