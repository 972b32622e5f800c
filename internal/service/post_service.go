package service

import (
	"context"
	"errors"
	"fmt"

	"postboard/internal/domain"
	"postboard/internal/repository"
)

// PostService coordinates post level operations backed by a repository.
// Missing posts are reported as nil results, not errors.
type PostService interface {
	ListPosts(ctx context.Context) ([]domain.Post, error)
	GetPost(ctx context.Context, id int64) (*domain.Post, error)
	CreatePost(ctx context.Context, title string) (*domain.Post, error)
	// UpdatePost retitles a post; a nil title leaves it unchanged.
	UpdatePost(ctx context.Context, id int64, title *string) (*domain.Post, error)
	DeletePost(ctx context.Context, id int64) (bool, error)
}

type postService struct {
	posts repository.PostRepository
}

func NewPostService(posts repository.PostRepository) PostService {
	return &postService{posts: posts}
}

func (s *postService) ListPosts(ctx context.Context) ([]domain.Post, error) {
	return s.posts.List(ctx)
}

func (s *postService) GetPost(ctx context.Context, id int64) (*domain.Post, error) {
	post, err := s.posts.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return post, err
}

func (s *postService) CreatePost(ctx context.Context, title string) (*domain.Post, error) {
	post := &domain.Post{Title: title}
	if _, err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *postService) UpdatePost(ctx context.Context, id int64, title *string) (*domain.Post, error) {
	if title == nil {
		return s.GetPost(ctx, id)
	}
	post, err := s.posts.UpdateTitle(ctx, id, *title)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update post %d: %w", id, err)
	}
	return post, nil
}

// DeletePost reports true whether or not the post existed.
func (s *postService) DeletePost(ctx context.Context, id int64) (bool, error) {
	if err := s.posts.Delete(ctx, id); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return false, err
	}
	return true, nil
}
