// Package blog provides the SQL implementations of the blog post and blog
// user repositories.
package blog

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/connectingdots/erp-backend/internal/domain/blog"
	"github.com/connectingdots/erp-backend/internal/infrastructure/observability/logging"
	"github.com/connectingdots/erp-backend/internal/infrastructure/persistence/database"
)

const postColumns = `id, title, slug, content, category, subcategory, author, image, status, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

// SQLPostRepository is the SQL-based implementation of blog.PostRepository.
type SQLPostRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

// NewSQLPostRepository creates a new instance of the repository.
func NewSQLPostRepository(db *database.DB, logger *logging.ChanneledLogger) *SQLPostRepository {
	return &SQLPostRepository{db: db, logger: logger}
}

// Create inserts a post. A taken slug yields blog.ErrSlugTaken.
func (r *SQLPostRepository) Create(ctx context.Context, p *blog.Post) error {
	const query = `INSERT INTO blog_posts (` + postColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	start := time.Now()
	r.logger.Database().Debug("Executing blog post insert", "id", p.ID, "slug", p.Slug)

	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.Title, p.Slug, p.Content, p.Category, p.Subcategory, p.Author, p.Image, p.Status,
		database.FormatTime(p.CreatedAt), database.FormatTime(p.UpdatedAt),
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return blog.ErrSlugTaken
		}
		r.logger.Database().Error("Blog post insert failed", "error", err.Error(), "slug", p.Slug)
		return err
	}

	r.logger.Database().Info("Blog post insert completed", "id", p.ID, "slug", p.Slug, "duration", time.Since(start))
	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return nil
}

// FindByID returns the post with id, or nil.
func (r *SQLPostRepository) FindByID(ctx context.Context, id string) (*blog.Post, error) {
	return r.findOne(ctx, `SELECT `+postColumns+` FROM blog_posts WHERE id = ?`, id)
}

// FindBySlug returns the post with slug, or nil.
func (r *SQLPostRepository) FindBySlug(ctx context.Context, slug string) (*blog.Post, error) {
	return r.findOne(ctx, `SELECT `+postColumns+` FROM blog_posts WHERE slug = ?`, slug)
}

func (r *SQLPostRepository) findOne(ctx context.Context, query string, arg string) (*blog.Post, error) {
	start := time.Now()
	r.logger.Database().Debug("Loading blog post", "key", arg)

	p, err := scanPost(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.Database().Error("Failed to load blog post", "error", err.Error(), "key", arg)
		return nil, err
	}

	r.logger.Database().Info("Blog post loaded", "id", p.ID, "duration", time.Since(start))
	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return p, nil
}

// List returns posts newest first. A limit of zero returns every post.
func (r *SQLPostRepository) List(ctx context.Context, limit int) ([]*blog.Post, error) {
	query := `SELECT ` + postColumns + ` FROM blog_posts ORDER BY created_at DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	start := time.Now()
	r.logger.Database().Debug("Listing blog posts", "limit", limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Database().Error("Failed to list blog posts", "error", err.Error())
		return nil, err
	}
	defer rows.Close()

	posts := []*blog.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	r.logger.Database().Info("Blog posts listed", "count", len(posts), "duration", time.Since(start))
	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return posts, nil
}

// Update writes every field of p.
func (r *SQLPostRepository) Update(ctx context.Context, p *blog.Post) error {
	const query = `
		UPDATE blog_posts
		SET title = ?, slug = ?, content = ?, category = ?, subcategory = ?, author = ?, image = ?, status = ?, updated_at = ?
		WHERE id = ?`

	start := time.Now()
	r.logger.Database().Debug("Executing blog post update", "id", p.ID)

	res, err := r.db.ExecContext(ctx, query,
		p.Title, p.Slug, p.Content, p.Category, p.Subcategory, p.Author, p.Image, p.Status,
		database.FormatTime(p.UpdatedAt), p.ID,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return blog.ErrSlugTaken
		}
		r.logger.Database().Error("Blog post update failed", "error", err.Error(), "id", p.ID)
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return blog.ErrPostNotFound
	}

	r.logger.Database().Info("Blog post update completed", "id", p.ID, "duration", time.Since(start))
	return nil
}

// Delete removes a post and reports whether it existed.
func (r *SQLPostRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM blog_posts WHERE id = ?`, id)
	if err != nil {
		r.logger.Database().Error("Blog post delete failed", "error", err.Error(), "id", id)
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	r.logger.Database().Info("Blog post delete completed", "id", id, "deleted", n)
	return n > 0, nil
}

func scanPost(row scanner) (*blog.Post, error) {
	var p blog.Post
	var createdAt, updatedAt string
	err := row.Scan(&p.ID, &p.Title, &p.Slug, &p.Content, &p.Category, &p.Subcategory, &p.Author, &p.Image, &p.Status, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if p.CreatedAt, err = database.ParseTime(createdAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = database.ParseTime(updatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
