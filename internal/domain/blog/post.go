// Package blog is the content-management context: posts and the blog's own
// user accounts, separate from dashboard admins.
package blog

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

var (
	ErrPostNotFound  = errors.New("blog post not found")
	ErrSlugTaken     = errors.New("slug already exists")
	ErrMissingFields = errors.New("missing required fields")
)

// DefaultStatus is stored when a post is saved without a status.
const DefaultStatus = "None"

// Post is a blog article.
type Post struct {
	ID          string    `json:"_id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Content     string    `json:"content"`
	Category    string    `json:"category"`
	Subcategory string    `json:"subcategory"`
	Author      string    `json:"author"`
	Image       string    `json:"image,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// MarshalJSON adds featuredImage, which the site reads instead of image.
func (p *Post) MarshalJSON() ([]byte, error) {
	type plain Post
	return json.Marshal(struct {
		*plain
		FeaturedImage string `json:"featuredImage,omitempty"`
	}{(*plain)(p), p.Image})
}

// Draft is the writable part of a post.
type Draft struct {
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Content     string `json:"content"`
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
	Author      string `json:"author"`
	Image       string `json:"image"`
	Status      string `json:"status"`
}

// Normalize lower-cases and trims the slug and applies the default status.
func (d *Draft) Normalize() {
	d.Slug = NormalizeSlug(d.Slug)
	if d.Status == "" {
		d.Status = DefaultStatus
	}
}

// ValidateCreate requires every field of a new post except image and status.
func (d *Draft) ValidateCreate() error {
	if d.Subcategory == "" {
		return ErrMissingFields
	}
	return d.ValidateUpdate()
}

// ValidateUpdate requires the fields an edit must resend.
func (d *Draft) ValidateUpdate() error {
	if d.Title == "" || d.Slug == "" || d.Content == "" || d.Category == "" || d.Author == "" {
		return ErrMissingFields
	}
	return nil
}

// Apply copies the draft onto p. The subcategory is kept when the edit omits it.
func (d *Draft) Apply(p *Post) {
	p.Title = d.Title
	p.Slug = d.Slug
	p.Content = d.Content
	p.Category = d.Category
	if d.Subcategory != "" {
		p.Subcategory = d.Subcategory
	}
	p.Author = d.Author
	p.Image = d.Image
	p.Status = d.Status
}

// NormalizeSlug lower-cases and trims s.
func NormalizeSlug(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// PostRepository persists posts.
type PostRepository interface {
	Create(ctx context.Context, p *Post) error
	FindByID(ctx context.Context, id string) (*Post, error)
	FindBySlug(ctx context.Context, slug string) (*Post, error)
	List(ctx context.Context, limit int) ([]*Post, error)
	Update(ctx context.Context, p *Post) error
	Delete(ctx context.Context, id string) (bool, error)
}
