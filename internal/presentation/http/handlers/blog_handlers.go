package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/connectingdots/erp-backend/internal/application/services"
	"github.com/connectingdots/erp-backend/internal/domain/blog"
	"github.com/connectingdots/erp-backend/internal/infrastructure/media"
	"github.com/connectingdots/erp-backend/internal/infrastructure/observability/logging"
	"github.com/gin-gonic/gin"
)

// BlogHandlers serves blog posts and image uploads
type BlogHandlers struct {
	blogService *services.BlogService
	logger      *logging.ChanneledLogger
}

// NewBlogHandlers creates blog handlers with injected dependencies
func NewBlogHandlers(blogService *services.BlogService, logger *logging.ChanneledLogger) *BlogHandlers {
	return &BlogHandlers{blogService: blogService, logger: logger}
}

// GetBlogs handles GET /api/blogs
func (h *BlogHandlers) GetBlogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	posts, err := h.blogService.List(c.Request.Context(), limit)
	if err != nil {
		h.logger.Blog().Error("Failed to list blog posts", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to fetch blogs"})
		return
	}
	if posts == nil {
		posts = []*blog.Post{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": posts})
}

// GetBlogBySlug handles GET /api/blogs/slug/:slug
func (h *BlogHandlers) GetBlogBySlug(c *gin.Context) {
	post, err := h.blogService.BySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, blog.ErrPostNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Blog post not found"})
			return
		}
		h.logger.Blog().Error("Failed to load blog post", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch blog post"})
		return
	}
	c.JSON(http.StatusOK, post)
}

// GetBlogPing handles GET /api/blogs/ping
func (h *BlogHandlers) GetBlogPing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Blog API is reachable"})
}

// PostBlog handles POST /api/blogs
func (h *BlogHandlers) PostBlog(c *gin.Context) {
	var draft blog.Draft
	if !bindJSON(c, &draft) {
		return
	}

	post, err := h.blogService.Create(c.Request.Context(), draft)
	if err != nil {
		h.postError(c, "create_blog", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "blog": post})
}

// PutBlog handles PUT /api/blogs/:id
func (h *BlogHandlers) PutBlog(c *gin.Context) {
	var draft blog.Draft
	if !bindJSON(c, &draft) {
		return
	}

	post, err := h.blogService.Update(c.Request.Context(), c.Param("id"), draft)
	if err != nil {
		h.postError(c, "update_blog", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "blog": post})
}

// DeleteBlog handles DELETE /api/blogs/:id
func (h *BlogHandlers) DeleteBlog(c *gin.Context) {
	if err := h.blogService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.postError(c, "delete_blog", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Blog deleted successfully"})
}

// PostBlogImage handles POST /api/blogs/upload
func (h *BlogHandlers) PostBlogImage(c *gin.Context) {
	var req struct {
		Image string `json:"image"`
	}
	if !bindJSON(c, &req) {
		return
	}

	url, err := h.blogService.UploadImage(req.Image)
	if err != nil {
		switch {
		case errors.Is(err, media.ErrEmptyImage):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "No image provided"})
		case errors.Is(err, media.ErrInvalidImageData):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid image data"})
		case errors.Is(err, media.ErrImageTooLarge):
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"success": false, "message": "Image is too large"})
		default:
			h.logger.Blog().Error("Image upload failed", "error", err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Image upload failed"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "url": url})
}

func (h *BlogHandlers) postError(c *gin.Context, operation string, err error) {
	switch {
	case errors.Is(err, blog.ErrMissingFields):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Missing required fields"})
	case errors.Is(err, blog.ErrSlugTaken):
		c.JSON(http.StatusConflict, gin.H{"success": false, "error": "Slug already exists"})
	case errors.Is(err, blog.ErrPostNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Blog not found"})
	default:
		h.logger.Blog().Error("Blog operation failed", "operation", operation, "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Internal server error"})
	}
}
