// Package gcs fetches uploaded images from Cloud Storage.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/kailas-cloud/finder/internal/domain"
)

// DefaultMaxBytes bounds a single fetched object.
const DefaultMaxBytes = 20 << 20

// NewClient creates a storage client. Honors STORAGE_EMULATOR_HOST.
func NewClient(ctx context.Context, credentialsFile string) (*storage.Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	c, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return c, nil
}

// ObjectStore reads objects from one bucket.
type ObjectStore struct {
	bucket   *storage.BucketHandle
	maxBytes int64
}

// New creates an object store for bucket. maxBytes <= 0 uses DefaultMaxBytes.
func New(client *storage.Client, bucket string, maxBytes int64) *ObjectStore {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &ObjectStore{bucket: client.Bucket(bucket), maxBytes: maxBytes}
}

// Fetch downloads the object at path. A missing object yields domain.ErrNotFound.
// The MIME type comes from the object metadata, or is sniffed when metadata is generic.
func (s *ObjectStore) Fetch(ctx context.Context, path string) (domain.Image, error) {
	r, err := s.bucket.Object(path).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
			return domain.Image{}, fmt.Errorf("object %s: %w", path, domain.ErrNotFound)
		}
		return domain.Image{}, fmt.Errorf("open object %s: %w", path, err)
	}
	defer r.Close()

	if size := r.Attrs.Size; size > s.maxBytes {
		return domain.Image{}, fmt.Errorf("object %s is %d bytes, limit %d: %w", path, size, s.maxBytes, domain.ErrTooLarge)
	}

	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return domain.Image{}, fmt.Errorf("read object %s: %w", path, err)
	}
	if int64(len(data)) > s.maxBytes {
		return domain.Image{}, fmt.Errorf("object %s exceeds %d bytes: %w", path, s.maxBytes, domain.ErrTooLarge)
	}

	return domain.Image{Data: data, MIMEType: mimeType(r.Attrs.ContentType, data)}, nil
}

// mimeType prefers a specific image content type from metadata and falls back to sniffing.
func mimeType(declared string, data []byte) string {
	if strings.HasPrefix(declared, "image/") {
		return declared
	}
	sniffed := http.DetectContentType(data)
	if strings.HasPrefix(sniffed, "image/") {
		return sniffed
	}
	return "image/jpeg"
}
