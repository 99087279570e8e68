// Package media provides image processing utilities
package media

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/chai2010/webp"
	"github.com/connectingdots/erp-backend/internal/infrastructure/security"
	"github.com/disintegration/imaging"
)

var (
	ErrEmptyImage       = errors.New("empty base64 data")
	ErrInvalidImageData = errors.New("invalid base64 image data")
	ErrImageTooLarge    = errors.New("image exceeds the upload size limit")
)

var dataURIPattern = regexp.MustCompile(`^data:image/[\w.+-]+;base64,`)

// ImageProcessor stores uploaded blog images as resized WebP files.
type ImageProcessor struct {
	basePath string
	maxWidth int
	quality  int
	maxBytes int
}

// NewImageProcessor creates a new ImageProcessor instance rooted at basePath.
func NewImageProcessor(basePath string, maxWidth, quality, maxBytes int) *ImageProcessor {
	return &ImageProcessor{
		basePath: basePath,
		maxWidth: maxWidth,
		quality:  quality,
		maxBytes: maxBytes,
	}
}

// BasePath is the directory served under /media.
func (p *ImageProcessor) BasePath() string {
	return p.basePath
}

// ProcessBlogImage decodes a data URI, scales it down to the maximum width
// and writes it as WebP under blog/. It returns the public URL path.
func (p *ImageProcessor) ProcessBlogImage(data string) (string, error) {
	decoded, err := decodeDataURI(data)
	if err != nil {
		return "", err
	}
	if p.maxBytes > 0 && len(decoded) > p.maxBytes {
		return "", ErrImageTooLarge
	}

	img, err := imaging.Decode(bytes.NewReader(decoded), imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidImageData, err)
	}
	if p.maxWidth > 0 && img.Bounds().Dx() > p.maxWidth {
		img = imaging.Resize(img, p.maxWidth, 0, imaging.Lanczos)
	}

	targetDir := filepath.Join(p.basePath, "blog")
	if err := os.MkdirAll(targetDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	filename := strings.ToLower(security.GenerateULID()) + ".webp"
	fullPath := filepath.Join(targetDir, filename)
	if err := webp.Save(fullPath, img, &webp.Options{Quality: float32(p.quality)}); err != nil {
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to save WebP image %s: %w", filename, err)
	}

	return "/media/blog/" + filename, nil
}

func decodeDataURI(data string) ([]byte, error) {
	if data == "" {
		return nil, ErrEmptyImage
	}
	if !dataURIPattern.MatchString(data) {
		return nil, ErrInvalidImageData
	}
	b64Data := dataURIPattern.ReplaceAllString(data, "")
	decoded, err := base64.StdEncoding.DecodeString(b64Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImageData, err)
	}
	return decoded, nil
}
