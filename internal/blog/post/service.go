package post

import (
	"context"
	"errors"
	"strings"

	"github.com/inkstream/inkstream/internal/blog/storage"
	apperrors "github.com/inkstream/inkstream/internal/platform/errors"
	"github.com/inkstream/inkstream/internal/platform/pagination"
)

// Paging bounds applied before any store query.
const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// Store persists blog posts.
type Store interface {
	CreatePost(ctx context.Context, title, content string, authorID int64) (Post, error)
	GetPost(ctx context.Context, id int64) (Post, error)
	UpdatePost(ctx context.Context, id int64, title, content string, authorID int64) (Post, error)
	DeletePost(ctx context.Context, id, authorID int64) error
	ListPosts(ctx context.Context, limit, offset int64) ([]Post, error)
	CountPosts(ctx context.Context) (int64, error)
}

// Service implements post CRUD and listing over a post store.
//
// Ownership checks happen here, and every store mutation is additionally
// scoped to the author so a concurrent delete can never widen access.
type Service struct {
	posts Store
}

// NewService builds a post service over the provided store.
func NewService(posts Store) *Service {
	return &Service{posts: posts}
}

// Create persists a new post authored by the given user.
func (s *Service) Create(ctx context.Context, authorID int64, title, content string) (Post, error) {
	if s == nil || s.posts == nil {
		return Post{}, apperrors.New(apperrors.CodeUnknown, "post service is not configured")
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return Post{}, requiredField("title")
	}
	if content == "" {
		return Post{}, requiredField("content")
	}

	created, err := s.posts.CreatePost(ctx, title, content, authorID)
	if err != nil {
		return Post{}, err
	}
	return created, nil
}

// Get returns a single post by id.
func (s *Service) Get(ctx context.Context, id int64) (Post, error) {
	if s == nil || s.posts == nil {
		return Post{}, apperrors.New(apperrors.CodeUnknown, "post service is not configured")
	}

	found, err := s.posts.GetPost(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Post{}, apperrors.Wrap(apperrors.CodePostNotFound, "post not found", err)
		}
		return Post{}, err
	}
	return found, nil
}

// Update replaces the title and content of a post owned by the caller.
func (s *Service) Update(ctx context.Context, id, authorID int64, title, content string) (Post, error) {
	if s == nil || s.posts == nil {
		return Post{}, apperrors.New(apperrors.CodeUnknown, "post service is not configured")
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return Post{}, requiredField("title")
	}
	if content == "" {
		return Post{}, requiredField("content")
	}

	if err := s.authorize(ctx, id, authorID); err != nil {
		return Post{}, err
	}

	updated, err := s.posts.UpdatePost(ctx, id, title, content, authorID)
	if err != nil {
		// The post can vanish between the ownership check and the scoped
		// update; report the same outcome as a miss on first read.
		if errors.Is(err, storage.ErrNotFound) {
			return Post{}, apperrors.Wrap(apperrors.CodePostNotFound, "post not found", err)
		}
		return Post{}, err
	}
	return updated, nil
}

// Delete removes a post owned by the caller.
func (s *Service) Delete(ctx context.Context, id, authorID int64) error {
	if s == nil || s.posts == nil {
		return apperrors.New(apperrors.CodeUnknown, "post service is not configured")
	}

	if err := s.authorize(ctx, id, authorID); err != nil {
		return err
	}

	if err := s.posts.DeletePost(ctx, id, authorID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperrors.Wrap(apperrors.CodePostNotFound, "post not found", err)
		}
		return err
	}
	return nil
}

// List returns one page of posts in reverse chronological order.
//
// Limit and offset are defaulted and clamped before querying; the returned
// page echoes the effective values. Posts is never nil so an empty page
// serializes as an empty array.
func (s *Service) List(ctx context.Context, limit, offset int64) (Page, error) {
	if s == nil || s.posts == nil {
		return Page{}, apperrors.New(apperrors.CodeUnknown, "post service is not configured")
	}

	window := pagination.Clamp(limit, offset, pagination.Config{
		DefaultLimit: defaultPageLimit,
		MaxLimit:     maxPageLimit,
	})

	posts, err := s.posts.ListPosts(ctx, window.Limit, window.Offset)
	if err != nil {
		return Page{}, err
	}
	if posts == nil {
		posts = []Post{}
	}

	total, err := s.posts.CountPosts(ctx)
	if err != nil {
		return Page{}, err
	}

	return Page{
		Posts:  posts,
		Total:  total,
		Limit:  window.Limit,
		Offset: window.Offset,
	}, nil
}

// authorize confirms the post exists and belongs to the caller.
func (s *Service) authorize(ctx context.Context, id, authorID int64) error {
	found, err := s.posts.GetPost(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperrors.Wrap(apperrors.CodePostNotFound, "post not found", err)
		}
		return err
	}
	if found.AuthorID != authorID {
		return apperrors.New(apperrors.CodeForbidden, "post belongs to another author")
	}
	return nil
}

// requiredField reports a missing required input field.
func requiredField(name string) error {
	return apperrors.WithMetadata(
		apperrors.CodeInvalidArgument,
		name+" is required",
		map[string]string{"Field": name},
	)
}
