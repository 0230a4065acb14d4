package chi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gochi "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/finder/internal/domain"
	"github.com/kailas-cloud/finder/internal/domain/alert"
	"github.com/kailas-cloud/finder/internal/domain/item"
	embeddinguc "github.com/kailas-cloud/finder/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/finder/internal/usecase/health"
	registryuc "github.com/kailas-cloud/finder/internal/usecase/registry"
)

type mockVectorizer struct {
	describeFn func(ctx context.Context, url string) (string, error)
	textFn     func(ctx context.Context, text string) ([]float32, error)
	imageFn    func(ctx context.Context, url string) (embeddinguc.ImageEmbedding, error)
}

func (m *mockVectorizer) DescribeImage(ctx context.Context, url string) (string, error) {
	if m.describeFn != nil {
		return m.describeFn(ctx, url)
	}
	domain.UsageFromContext(ctx).AddDescription(12)
	return "a red umbrella", nil
}

func (m *mockVectorizer) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if m.textFn != nil {
		return m.textFn(ctx, text)
	}
	domain.UsageFromContext(ctx).AddEmbedding(3)
	return []float32{0.1, 0.2, 0.3}, nil
}

func (m *mockVectorizer) EmbedImage(ctx context.Context, url string) (embeddinguc.ImageEmbedding, error) {
	if m.imageFn != nil {
		return m.imageFn(ctx, url)
	}
	return embeddinguc.ImageEmbedding{Embedding: []float32{1, 0}, Description: "a red umbrella"}, nil
}

type mockRegistry struct {
	foundIn []registryuc.FoundInput
	alertIn []registryuc.AlertInput
	err     error
}

func (m *mockRegistry) ReportFound(_ context.Context, in registryuc.FoundInput) (item.Found, error) {
	m.foundIn = append(m.foundIn, in)
	if m.err != nil {
		return item.Found{}, m.err
	}
	desc := in.Description
	if desc == "" {
		desc = "generated"
	}
	return item.Reconstruct("item-1", desc, []float32{1, 0, 0}, in.ImageURL), nil
}

func (m *mockRegistry) RegisterAlert(_ context.Context, in registryuc.AlertInput) (alert.Alert, error) {
	m.alertIn = append(m.alertIn, in)
	if m.err != nil {
		return alert.Alert{}, m.err
	}
	return alert.Reconstruct("alert-1", in.Email, in.Description, []float32{1, 0}), nil
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(context.Context) healthuc.Report {
	return m.report
}

type fixture struct {
	vectors  *mockVectorizer
	registry *mockRegistry
	health   *mockHealth
	router   http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		vectors:  &mockVectorizer{},
		registry: &mockRegistry{},
		health: &mockHealth{report: healthuc.Report{
			Status: healthuc.Healthy,
			Checks: map[string]healthuc.CheckResult{"database": healthuc.CheckOK},
		}},
	}
	srv := NewServer(f.vectors, f.registry, f.health,
		Timeouts{Text: time.Second, Image: 2 * time.Second}, 1024, zap.NewNop())
	r := gochi.NewRouter()
	srv.Routes(r)
	f.router = r
	return f
}

func (f *fixture) post(path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}
