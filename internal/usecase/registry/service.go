// Package registry is the ingestion path for found items and lost-item alerts.
package registry

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"github.com/kailas-cloud/finder/internal/domain"
	"github.com/kailas-cloud/finder/internal/domain/alert"
	"github.com/kailas-cloud/finder/internal/domain/item"
)

// FoundInput describes a newly found object. Embedding is computed when absent:
// from the image when ImageURL is set, otherwise from the description.
type FoundInput struct {
	Description string
	ImageURL    string
	Embedding   []float32
}

// AlertInput describes a lost object to watch for. Embedding is computed from the
// description when absent.
type AlertInput struct {
	Email       string
	Description string
	Embedding   []float32
}

// Service validates, vectorizes and stores incoming records.
type Service struct {
	found   FoundWriter
	alerts  AlertWriter
	vectors Vectorizer
	newID   func() string
}

// New creates a registry service.
func New(f FoundWriter, a AlertWriter, v Vectorizer) *Service {
	return &Service{found: f, alerts: a, vectors: v, newID: uuid.NewString}
}

// ReportFound stores a found item; its creation event starts match evaluation.
func (s *Service) ReportFound(ctx context.Context, in FoundInput) (item.Found, error) {
	desc := strings.TrimSpace(in.Description)
	if desc == "" && in.ImageURL == "" {
		return item.Found{}, fmt.Errorf("%w: description or imageUrl is required", domain.ErrValidation)
	}

	vec := in.Embedding
	if len(vec) == 0 {
		if in.ImageURL != "" {
			res, err := s.vectors.EmbedImage(ctx, in.ImageURL)
			if err != nil {
				return item.Found{}, fmt.Errorf("vectorize found item: %w", err)
			}
			vec = res.Embedding
			if desc == "" {
				desc = res.Description
			}
		} else {
			v, err := s.vectors.EmbedText(ctx, desc)
			if err != nil {
				return item.Found{}, fmt.Errorf("vectorize found item: %w", err)
			}
			vec = v
		}
	}

	f := item.Reconstruct(s.newID(), desc, vec, in.ImageURL)
	if err := s.found.Create(ctx, &f); err != nil {
		return item.Found{}, fmt.Errorf("store found item: %w", err)
	}
	return f, nil
}

// RegisterAlert stores a lost-item alert.
func (s *Service) RegisterAlert(ctx context.Context, in AlertInput) (alert.Alert, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" {
		return alert.Alert{}, fmt.Errorf("%w: email is required", domain.ErrValidation)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return alert.Alert{}, fmt.Errorf("%w: email is invalid", domain.ErrValidation)
	}
	desc := strings.TrimSpace(in.Description)
	if desc == "" {
		return alert.Alert{}, fmt.Errorf("%w: description is required", domain.ErrValidation)
	}

	vec := in.Embedding
	if len(vec) == 0 {
		v, err := s.vectors.EmbedText(ctx, desc)
		if err != nil {
			return alert.Alert{}, fmt.Errorf("vectorize alert: %w", err)
		}
		vec = v
	}

	a := alert.Reconstruct(s.newID(), email, desc, vec)
	if err := s.alerts.Save(ctx, &a); err != nil {
		return alert.Alert{}, fmt.Errorf("store alert: %w", err)
	}
	return a, nil
}
