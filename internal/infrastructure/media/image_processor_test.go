package media

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngDataURI(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestProcessBlogImageWritesWebP(t *testing.T) {
	dir := t.TempDir()
	p := NewImageProcessor(dir, 32, 80, 0)

	url, err := p.ProcessBlogImage(pngDataURI(t, 64, 48))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/media/blog/"))
	assert.True(t, strings.HasSuffix(url, ".webp"))

	info, err := os.Stat(filepath.Join(dir, "blog", strings.TrimPrefix(url, "/media/blog/")))
	require.NoError(t, err)
	assert.Positive(t, info.Size())
	assert.Equal(t, dir, p.BasePath())
}

func TestProcessBlogImageRejections(t *testing.T) {
	p := NewImageProcessor(t.TempDir(), 0, 80, 64)

	_, err := p.ProcessBlogImage("")
	assert.ErrorIs(t, err, ErrEmptyImage)

	_, err = p.ProcessBlogImage("https://example.com/cat.png")
	assert.ErrorIs(t, err, ErrInvalidImageData)

	_, err = p.ProcessBlogImage("data:image/png;base64,!!!")
	assert.ErrorIs(t, err, ErrInvalidImageData)

	_, err = p.ProcessBlogImage("data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("plain text")))
	assert.ErrorIs(t, err, ErrInvalidImageData)

	_, err = p.ProcessBlogImage(pngDataURI(t, 40, 40))
	assert.ErrorIs(t, err, ErrImageTooLarge)
}
