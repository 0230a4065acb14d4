package embedding

import (
	"context"

	"github.com/kailas-cloud/finder/internal/domain"
)

const testURL = "https://firebasestorage.googleapis.com/v0/b/finder.appspot.com/o/uploads%2Fabc.jpg?alt=media&token=t"

type mockObjectStore struct {
	img   domain.Image
	err   error
	paths []string
}

func (m *mockObjectStore) Fetch(_ context.Context, path string) (domain.Image, error) {
	m.paths = append(m.paths, path)
	return m.img, m.err
}

type mockDescriber struct {
	result  domain.DescriptionResult
	err     error
	prompts []string
}

func (m *mockDescriber) Describe(_ context.Context, _ domain.Image, prompt string) (domain.DescriptionResult, error) {
	m.prompts = append(m.prompts, prompt)
	return m.result, m.err
}

type mockEmbedder struct {
	result domain.EmbeddingResult
	err    error
	texts  []string
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.texts = append(m.texts, text)
	return m.result, m.err
}

type fixture struct {
	objects   *mockObjectStore
	describer *mockDescriber
	embedder  *mockEmbedder
	svc       *Service
}

func newFixture() *fixture {
	f := &fixture{
		objects:   &mockObjectStore{img: domain.Image{Data: []byte{0xff, 0xd8}, MIMEType: "image/jpeg"}},
		describer: &mockDescriber{result: domain.DescriptionResult{Text: "black wallet", TotalTokens: 12}},
		embedder:  &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1, 0.2}, TotalTokens: 3}},
	}
	f.svc = New(f.describer, f.embedder, f.objects, Prompts{Describe: "describe-prompt", Search: "search-prompt"})
	return f
}
