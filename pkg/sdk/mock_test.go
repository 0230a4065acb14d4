package finder

import (
	"context"

	domalert "github.com/kailas-cloud/finder/internal/domain/alert"
	"github.com/kailas-cloud/finder/internal/domain/item"
	healthuc "github.com/kailas-cloud/finder/internal/usecase/health"
	registryuc "github.com/kailas-cloud/finder/internal/usecase/registry"
	triggeruc "github.com/kailas-cloud/finder/internal/usecase/trigger"
)

type mockEmbedder struct {
	fn func(ctx context.Context, text string) (EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	return m.fn(ctx, text)
}

// --- registryUseCase mock ---

type mockRegistry struct {
	reportFn   func(ctx context.Context, in registryuc.FoundInput) (item.Found, error)
	registerFn func(ctx context.Context, in registryuc.AlertInput) (domalert.Alert, error)
}

func (m *mockRegistry) ReportFound(ctx context.Context, in registryuc.FoundInput) (item.Found, error) {
	return m.reportFn(ctx, in)
}

func (m *mockRegistry) RegisterAlert(ctx context.Context, in registryuc.AlertInput) (domalert.Alert, error) {
	return m.registerFn(ctx, in)
}

// --- itemLoader mock ---

type mockItems struct {
	getFn func(ctx context.Context, id string) (item.Found, error)
}

func (m *mockItems) Get(ctx context.Context, id string) (item.Found, error) {
	return m.getFn(ctx, id)
}

// --- triggerUseCase mock ---

type mockTrigger struct {
	out  triggeruc.Outcome
	seen []string
}

func (m *mockTrigger) OnFoundItemCreated(_ context.Context, f *item.Found) triggeruc.Outcome {
	m.seen = append(m.seen, f.ID())
	return m.out
}

// --- textEmbedder mock ---

type mockVectors struct {
	calls []string
	err   error
}

func (m *mockVectors) EmbedText(_ context.Context, text string) ([]float32, error) {
	m.calls = append(m.calls, text)
	if m.err != nil {
		return nil, m.err
	}
	return []float32{0.5, 0.5}, nil
}

// --- healthUseCase mock ---

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(context.Context) healthuc.Report {
	return m.report
}
