package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erp/marketplace/internal/domain/integration"
	"github.com/erp/marketplace/internal/infrastructure/config"
)

type recordingFetcher struct {
	refs []string
}

func (r *recordingFetcher) Fetch(_ context.Context, ref string) (*Image, error) {
	r.refs = append(r.refs, ref)
	return &Image{Name: fileName(ref), Content: []byte(ref)}, nil
}

func TestImageSource_Routes(t *testing.T) {
	ctx := context.Background()
	objects := &recordingFetcher{}
	web := &recordingFetcher{}
	src := NewImageSource(objects, web, "/files/")

	_, err := src.Fetch(ctx, "/files/shirt.png")
	require.NoError(t, err)
	_, err = src.Fetch(ctx, "s3://erp/items/shirt.png")
	require.NoError(t, err)
	_, err = src.Fetch(ctx, "https://cdn.example.com/shirt.png")
	require.NoError(t, err)

	assert.Equal(t, []string{"/files/shirt.png", "s3://erp/items/shirt.png"}, objects.refs)
	assert.Equal(t, []string{"https://cdn.example.com/shirt.png"}, web.refs)

	for _, ref := range []string{"", "ftp://host/a.png", "relative.png"} {
		_, err := src.Fetch(ctx, ref)
		assert.ErrorIs(t, err, integration.ErrImageSourceNotFound, ref)
	}

	t.Run("no object store configured", func(t *testing.T) {
		_, err := NewImageSource(nil, web, "/files/").Fetch(ctx, "/files/shirt.png")
		assert.ErrorIs(t, err, integration.ErrImageSourceNotFound)
	})
}

func TestHTTPImageFetcher(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/img/shirt.png":
			_, _ = w.Write([]byte("png-bytes"))
		case "/img/big.png":
			_, _ = w.Write(make([]byte, 64))
		case "/img/broken.png":
			w.WriteHeader(http.StatusBadGateway)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	f := NewHTTPImageFetcher(time.Second, 32)
	ctx := context.Background()

	img, err := f.Fetch(ctx, server.URL+"/img/shirt.png?v=2")
	require.NoError(t, err)
	assert.Equal(t, "shirt.png", img.Name)
	assert.Equal(t, []byte("png-bytes"), img.Content)

	_, err = f.Fetch(ctx, server.URL+"/img/big.png")
	assert.ErrorIs(t, err, ErrImageTooLarge)

	_, err = f.Fetch(ctx, server.URL+"/img/missing.png")
	assert.ErrorIs(t, err, integration.ErrImageSourceNotFound)

	_, err = f.Fetch(ctx, server.URL+"/img/broken.png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestNewS3ImageStore_Validation(t *testing.T) {
	ctx := context.Background()

	_, err := NewS3ImageStore(ctx, nil)
	assert.ErrorContains(t, err, "configuration is required")

	_, err = NewS3ImageStore(ctx, &config.StorageConfig{})
	assert.ErrorContains(t, err, "bucket is required")

	store, err := NewS3ImageStore(ctx, &config.StorageConfig{Bucket: "erp-files", AccessKeyID: "k", SecretAccessKey: "s", Endpoint: "localhost:9000"})
	require.NoError(t, err)
	assert.Equal(t, "erp-files", store.Bucket())
}

func TestS3ImageStore_Locate(t *testing.T) {
	store := &S3ImageStore{bucket: "erp-files", filesPrefix: "/files/"}

	bucket, key, err := store.locate("/files/items/shirt.png")
	require.NoError(t, err)
	assert.Equal(t, "erp-files", bucket)
	assert.Equal(t, "files/items/shirt.png", key)

	bucket, key, err = store.locate("s3://media/items/shirt.png")
	require.NoError(t, err)
	assert.Equal(t, "media", bucket)
	assert.Equal(t, "items/shirt.png", key)

	_, _, err = store.locate("s3://media")
	assert.ErrorIs(t, err, integration.ErrImageSourceNotFound)
	_, _, err = store.locate("https://cdn/x.png")
	assert.ErrorIs(t, err, integration.ErrImageSourceNotFound)
}

func TestS3ImageStore_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/erp-files/files/shirt.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write([]byte("png-bytes"))
		default:
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`))
		}
	}))
	defer server.Close()

	store, err := NewS3ImageStore(context.Background(), &config.StorageConfig{
		Endpoint:        server.URL,
		Bucket:          "erp-files",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
		UsePathStyle:    true,
		FilesPrefix:     "/files/",
		DownloadTimeout: 5 * time.Second,
	})
	require.NoError(t, err)

	img, err := store.Fetch(context.Background(), "/files/shirt.png")
	require.NoError(t, err)
	assert.Equal(t, "shirt.png", img.Name)
	assert.Equal(t, []byte("png-bytes"), img.Content)

	_, err = store.Fetch(context.Background(), "/files/missing.png")
	assert.ErrorIs(t, err, integration.ErrImageSourceNotFound)
}
