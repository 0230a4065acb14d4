package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	gochi "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/finder/internal/domain"
	"github.com/kailas-cloud/finder/internal/logger"
	healthuc "github.com/kailas-cloud/finder/internal/usecase/health"
	registryuc "github.com/kailas-cloud/finder/internal/usecase/registry"
)

// Timeouts bound the upstream work of a single request.
type Timeouts struct {
	Text  time.Duration // text embedding
	Image time.Duration // anything that fetches and describes an image
}

// Server serves the HTTP API.
type Server struct {
	vectors  Vectorizer
	registry Registry
	health   HealthChecker
	timeouts Timeouts
	maxBody  int64
	logger   *zap.Logger
}

// NewServer creates an HTTP API server. registry may be nil, in which case
// the ingestion routes are not mounted.
func NewServer(
	vectors Vectorizer,
	registry Registry,
	health HealthChecker,
	timeouts Timeouts,
	maxBody int64,
	logger *zap.Logger,
) *Server {
	if maxBody <= 0 {
		maxBody = 1 << 20
	}
	return &Server{
		vectors:  vectors,
		registry: registry,
		health:   health,
		timeouts: timeouts,
		maxBody:  maxBody,
		logger:   logger,
	}
}

// Routes mounts the API on r.
func (s *Server) Routes(r gochi.Router) {
	r.Get("/health", s.HealthCheck)

	r.Route("/v1", func(r gochi.Router) {
		r.Post("/image-description", s.ImageDescription)
		r.Post("/text-embedding", s.TextEmbedding)
		r.Post("/image-embedding", s.ImageEmbedding)
		if s.registry != nil {
			r.Post("/found-items", s.CreateFoundItem)
			r.Post("/lost-alerts", s.CreateLostAlert)
		}
	})

	// function-style names kept for existing mobile clients
	r.Post("/getImageDescription", s.ImageDescription)
	r.Post("/getTextEmbedding", s.TextEmbedding)
	r.Post("/getImageEmbedding", s.ImageEmbedding)
}

type imageRequest struct {
	ImageURL string `json:"imageUrl"`
}

type textRequest struct {
	Text string `json:"text"`
}

type descriptionResponse struct {
	Description string `json:"description"`
}

type embeddingResponse struct {
	Embedding []float32 `json:"embedding"`
}

type imageEmbeddingResponse struct {
	Embedding            []float32 `json:"embedding"`
	GeneratedDescription string    `json:"generatedDescription"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// ImageDescription handles POST /v1/image-description.
func (s *Server) ImageDescription(w http.ResponseWriter, r *http.Request) {
	var req imageRequest
	if !s.decode(w, r, &req) {
		return
	}
	if blank(req.ImageURL) {
		writeError(w, http.StatusBadRequest, "imageUrl is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeouts.Image)
	defer cancel()
	ctx, usage := domain.NewContextWithUsage(ctx)

	desc, err := s.vectors.DescribeImage(ctx, req.ImageURL)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	setUsageHeaders(w, usage)
	writeJSON(w, http.StatusOK, descriptionResponse{Description: desc})
}

// TextEmbedding handles POST /v1/text-embedding.
func (s *Server) TextEmbedding(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !s.decode(w, r, &req) {
		return
	}
	if blank(req.Text) {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeouts.Text)
	defer cancel()
	ctx, usage := domain.NewContextWithUsage(ctx)

	vec, err := s.vectors.EmbedText(ctx, req.Text)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	setUsageHeaders(w, usage)
	writeJSON(w, http.StatusOK, embeddingResponse{Embedding: vec})
}

// ImageEmbedding handles POST /v1/image-embedding.
func (s *Server) ImageEmbedding(w http.ResponseWriter, r *http.Request) {
	var req imageRequest
	if !s.decode(w, r, &req) {
		return
	}
	if blank(req.ImageURL) {
		writeError(w, http.StatusBadRequest, "imageUrl is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeouts.Image)
	defer cancel()
	ctx, usage := domain.NewContextWithUsage(ctx)

	res, err := s.vectors.EmbedImage(ctx, req.ImageURL)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	setUsageHeaders(w, usage)
	writeJSON(w, http.StatusOK, imageEmbeddingResponse{
		Embedding:            res.Embedding,
		GeneratedDescription: res.Description,
	})
}

type foundItemRequest struct {
	Description string    `json:"description"`
	ImageURL    string    `json:"imageUrl"`
	Embedding   []float32 `json:"embedding"`
}

type foundItemResponse struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl,omitempty"`
	Dimensions  int    `json:"dimensions"`
}

// CreateFoundItem handles POST /v1/found-items.
func (s *Server) CreateFoundItem(w http.ResponseWriter, r *http.Request) {
	var req foundItemRequest
	if !s.decode(w, r, &req) {
		return
	}
	if blank(req.Description) && blank(req.ImageURL) {
		writeError(w, http.StatusBadRequest, "description or imageUrl is required")
		return
	}

	timeout := s.timeouts.Text
	if !blank(req.ImageURL) {
		timeout = s.timeouts.Image
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()
	ctx, usage := domain.NewContextWithUsage(ctx)

	f, err := s.registry.ReportFound(ctx, registryuc.FoundInput{
		Description: req.Description,
		ImageURL:    strings.TrimSpace(req.ImageURL),
		Embedding:   req.Embedding,
	})
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	w.Header().Set("Location", "/v1/found-items/"+f.ID())
	setUsageHeaders(w, usage)
	writeJSON(w, http.StatusCreated, foundItemResponse{
		ID:          f.ID(),
		Description: f.Description(),
		ImageURL:    f.ImageURL(),
		Dimensions:  len(f.Embedding()),
	})
}

type lostAlertRequest struct {
	Email       string    `json:"email"`
	Description string    `json:"description"`
	Embedding   []float32 `json:"embedding"`
}

type lostAlertResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Description string `json:"description"`
	Dimensions  int    `json:"dimensions"`
}

// CreateLostAlert handles POST /v1/lost-alerts.
func (s *Server) CreateLostAlert(w http.ResponseWriter, r *http.Request) {
	var req lostAlertRequest
	if !s.decode(w, r, &req) {
		return
	}
	if blank(req.Email) {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}
	if blank(req.Description) {
		writeError(w, http.StatusBadRequest, "description is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeouts.Text)
	defer cancel()
	ctx, usage := domain.NewContextWithUsage(ctx)

	a, err := s.registry.RegisterAlert(ctx, registryuc.AlertInput{
		Email:       req.Email,
		Description: req.Description,
		Embedding:   req.Embedding,
	})
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	w.Header().Set("Location", "/v1/lost-alerts/"+a.ID())
	setUsageHeaders(w, usage)
	writeJSON(w, http.StatusCreated, lostAlertResponse{
		ID:          a.ID(),
		Email:       a.Email(),
		Description: a.Description(),
		Dimensions:  len(a.Embedding()),
	})
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// decode reads a size-limited JSON body into v. On failure the 400 response is already written.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, s.maxBody)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		logger.FromContext(r.Context()).Debug("Undecodable request body", zap.Error(err))
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// handleError maps a service error to a status code and a client-safe message.
func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	if errors.Is(err, domain.ErrValidation) {
		log.Warn("Request rejected", zap.Error(err))
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	log.Error("Request failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, safeMessage(err))
}

// domainErrors are sentinels whose wrapping messages are written by this service
// and safe to return verbatim.
var domainErrors = []error{
	domain.ErrInvalidReference,
	domain.ErrNotFound,
	domain.ErrUpstream,
	domain.ErrRateLimited,
	domain.ErrTooLarge,
}

func safeMessage(err error) string {
	for _, s := range domainErrors {
		if errors.Is(err, s) {
			return err.Error()
		}
	}
	return "internal error"
}

func setUsageHeaders(w http.ResponseWriter, u *domain.ModelUsage) {
	if u == nil || u.Calls == 0 {
		return
	}
	w.Header().Set("X-Model-Calls", strconv.Itoa(u.Calls))
	if u.DescriptionTokens > 0 {
		w.Header().Set("X-Description-Tokens", strconv.Itoa(u.DescriptionTokens))
	}
	if u.EmbeddingTokens > 0 {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(u.EmbeddingTokens))
	}
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
