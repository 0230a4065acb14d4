package finder

import (
	"errors"

	"github.com/kailas-cloud/finder/internal/domain"
)

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrValidation = domain.ErrValidation
	ErrNotFound   = domain.ErrNotFound
	ErrUpstream   = domain.ErrUpstream
)

// ErrImageInput is returned for a found item that carries only an image URL.
// Describing images needs the finder service; send those through its HTTP API.
var ErrImageInput = errors.New("finder: image input needs a description or an embedding")
