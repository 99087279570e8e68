package services

import (
	"context"
	"time"

	"github.com/connectingdots/erp-backend/internal/domain/blog"
	"github.com/connectingdots/erp-backend/internal/infrastructure/media"
	"github.com/connectingdots/erp-backend/internal/infrastructure/observability/logging"
	"github.com/connectingdots/erp-backend/internal/infrastructure/security"
)

// DefaultPostLimit caps GET /api/blogs when no limit is given.
const DefaultPostLimit = 100

// BlogService manages posts and their images.
type BlogService struct {
	posts  blog.PostRepository
	images *media.ImageProcessor
	logger *logging.ChanneledLogger
}

// NewBlogService creates a new blog post service
func NewBlogService(posts blog.PostRepository, images *media.ImageProcessor, logger *logging.ChanneledLogger) *BlogService {
	return &BlogService{posts: posts, images: images, logger: logger}
}

// List returns up to limit posts, newest first.
func (s *BlogService) List(ctx context.Context, limit int) ([]*blog.Post, error) {
	if limit <= 0 {
		limit = DefaultPostLimit
	}
	return s.posts.List(ctx, limit)
}

func (s *BlogService) BySlug(ctx context.Context, slug string) (*blog.Post, error) {
	p, err := s.posts.FindBySlug(ctx, blog.NormalizeSlug(slug))
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, blog.ErrPostNotFound
	}
	return p, nil
}

// Create stores a new post. Slugs are unique after normalization.
func (s *BlogService) Create(ctx context.Context, d blog.Draft) (*blog.Post, error) {
	if err := d.ValidateCreate(); err != nil {
		return nil, err
	}
	d.Normalize()

	existing, err := s.posts.FindBySlug(ctx, d.Slug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, blog.ErrSlugTaken
	}

	now := time.Now().UTC()
	p := &blog.Post{ID: security.NewObjectID(), CreatedAt: now, UpdatedAt: now}
	d.Apply(p)
	if err := s.posts.Create(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Blog().Info("Blog post created", "postId", p.ID, "slug", p.Slug)
	return p, nil
}

// Update replaces the editable fields of a post.
func (s *BlogService) Update(ctx context.Context, id string, d blog.Draft) (*blog.Post, error) {
	if err := d.ValidateUpdate(); err != nil {
		return nil, err
	}
	d.Normalize()

	p, err := s.posts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, blog.ErrPostNotFound
	}
	if d.Slug != p.Slug {
		other, err := s.posts.FindBySlug(ctx, d.Slug)
		if err != nil {
			return nil, err
		}
		if other != nil && other.ID != p.ID {
			return nil, blog.ErrSlugTaken
		}
	}

	d.Apply(p)
	p.UpdatedAt = time.Now().UTC()
	if err := s.posts.Update(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Blog().Info("Blog post updated", "postId", p.ID, "slug", p.Slug)
	return p, nil
}

func (s *BlogService) Delete(ctx context.Context, id string) error {
	deleted, err := s.posts.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return blog.ErrPostNotFound
	}
	s.logger.Blog().Info("Blog post deleted", "postId", id)
	return nil
}

// UploadImage stores a data-URI image and returns its public URL.
func (s *BlogService) UploadImage(data string) (string, error) {
	start := time.Now()
	url, err := s.images.ProcessBlogImage(data)
	if err != nil {
		s.logger.Blog().Warn("Blog image upload rejected", "error", err)
		return "", err
	}
	s.logger.Blog().Info("Blog image stored", "url", url, "duration", time.Since(start))
	return url, nil
}
