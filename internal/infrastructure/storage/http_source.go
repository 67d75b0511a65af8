package storage

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/erp/marketplace/internal/domain/integration"
)

// HTTPImageFetcher downloads images published at public URLs
type HTTPImageFetcher struct {
	client   *http.Client
	maxBytes int64
}

// NewHTTPImageFetcher creates a fetcher with a per-request timeout and size limit
func NewHTTPImageFetcher(timeout time.Duration, maxBytes int64) *HTTPImageFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPImageFetcher{
		client:   &http.Client{Timeout: timeout},
		maxBytes: maxBytes,
	}
}

// Fetch implements Fetcher
func (f *HTTPImageFetcher) Fetch(ctx context.Context, ref string) (*Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build image request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", integration.ErrImageSourceNotFound, ref)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	data, err := readLimited(resp.Body, f.maxBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return &Image{Name: fileName(req.URL.Path), Content: data}, nil
}

var _ Fetcher = (*HTTPImageFetcher)(nil)
