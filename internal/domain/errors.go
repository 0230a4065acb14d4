package domain

import "errors"

var (
	// ErrValidation signals a missing or malformed request field.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidReference signals a storage reference that does not follow the expected encoding.
	ErrInvalidReference = errors.New("invalid storage reference")
	// ErrNotFound signals a referenced object or record that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUpstream signals a description or embedding model failure, including unusable output.
	ErrUpstream = errors.New("upstream model error")
	// ErrTooLarge signals a stored object above the configured size limit.
	ErrTooLarge = errors.New("object too large")
	// ErrEvaluation signals a failed match evaluation pass. Never surfaced to a caller.
	ErrEvaluation = errors.New("match evaluation failed")
	// ErrRateLimited signals that a provider rate limit could not be satisfied before the deadline.
	ErrRateLimited = errors.New("rate limited")
)
