// Package storage fetches product images from the internal file store and the web.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/erp/marketplace/internal/domain/integration"
)

// ErrImageTooLarge is returned when an image exceeds the configured size limit
var ErrImageTooLarge = errors.New("storage: image exceeds size limit")

// Image is a fetched image held in memory
type Image struct {
	// Name is the file name used for the multipart upload
	Name    string
	Content []byte
}

// Fetcher loads the bytes behind an image reference
type Fetcher interface {
	Fetch(ctx context.Context, ref string) (*Image, error)
}

// ImageSource routes a reference to the store that holds it:
// s3:// and files-prefixed references go to the object store, http(s) URLs
// to the web fetcher.
type ImageSource struct {
	objects     Fetcher
	web         Fetcher
	filesPrefix string
}

// NewImageSource creates a router. objects may be nil when no object store is configured.
func NewImageSource(objects, web Fetcher, filesPrefix string) *ImageSource {
	return &ImageSource{objects: objects, web: web, filesPrefix: filesPrefix}
}

// Fetch implements Fetcher
func (s *ImageSource) Fetch(ctx context.Context, ref string) (*Image, error) {
	ref = strings.TrimSpace(ref)
	switch {
	case ref == "":
		return nil, integration.ErrImageSourceNotFound
	case strings.HasPrefix(ref, "s3://"), s.filesPrefix != "" && strings.HasPrefix(ref, s.filesPrefix):
		if s.objects == nil {
			return nil, fmt.Errorf("%w: no object store for %s", integration.ErrImageSourceNotFound, ref)
		}
		return s.objects.Fetch(ctx, ref)
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		if s.web == nil {
			return nil, fmt.Errorf("%w: %s", integration.ErrImageSourceNotFound, ref)
		}
		return s.web.Fetch(ctx, ref)
	default:
		return nil, fmt.Errorf("%w: unsupported reference %s", integration.ErrImageSourceNotFound, ref)
	}
}

// readLimited reads r fully, failing when more than limit bytes are present
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, ErrImageTooLarge
	}
	return data, nil
}

// fileName returns the last path element, falling back to "image"
func fileName(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	name := path.Base(p)
	if name == "." || name == "/" || name == "" {
		return "image"
	}
	return name
}

var _ Fetcher = (*ImageSource)(nil)
