// Package blob stores uploaded attachment images and serves them back.
package blob

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/pkordes/tripboard/internal/domain"
)

// MaxWidth is the widest image kept on disk; larger uploads are downscaled.
const MaxWidth = 1600

// PathPrefix is the URL path under which stored files are served.
const PathPrefix = "/files/"

// MaxPixels caps the declared dimensions of an upload. Decoding allocates
// in proportion to the pixel count, not the file size.
const MaxPixels = 40_000_000

// LocalStore keeps images in a directory on local disk.
type LocalStore struct {
	dir     string
	baseURL string
}

// NewLocalStore creates dir if needed. Returned URLs are baseURL +
// PathPrefix + file name; an empty baseURL yields root-relative URLs.
func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("blob.NewLocalStore: %w", err)
	}
	return &LocalStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Put decodes the image in r, downscales it to MaxWidth, stores it under a
// fresh name and returns its public URL. name only contributes the
// extension: PNG and GIF uploads are kept as PNG, everything else becomes
// JPEG.
func (s *LocalStore) Put(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("blob.LocalStore.Put: %w", err)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return "", fmt.Errorf("blob.LocalStore.Put: %w: %q is not an image", domain.ErrValidation, contentType)
	}

	// Read the header first and replay it into the full decode.
	var head bytes.Buffer
	cfg, _, err := image.DecodeConfig(io.TeeReader(r, &head))
	if err != nil {
		return "", fmt.Errorf("blob.LocalStore.Put: %w: decode image: %v", domain.ErrValidation, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return "", fmt.Errorf("blob.LocalStore.Put: %w: image is %dx%d, limit is %d pixels",
			domain.ErrValidation, cfg.Width, cfg.Height, MaxPixels)
	}

	img, err := imaging.Decode(io.MultiReader(&head, r), imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("blob.LocalStore.Put: %w: decode image: %v", domain.ErrValidation, err)
	}
	if img.Bounds().Dx() > MaxWidth {
		img = imaging.Resize(img, MaxWidth, 0, imaging.Lanczos)
	}

	ext := ".jpg"
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".gif":
		ext = ".png"
	}
	file := uuid.NewString() + ext
	if err := imaging.Save(img, filepath.Join(s.dir, file), imaging.JPEGQuality(85)); err != nil {
		return "", fmt.Errorf("blob.LocalStore.Put: save: %w", err)
	}
	return s.baseURL + PathPrefix + file, nil
}

// Handler serves stored files. Mount it at PathPrefix. Directory listings
// are not served.
func (s *LocalStore) Handler() http.Handler {
	files := http.StripPrefix(PathPrefix, http.FileServer(http.Dir(s.dir)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	})
}
