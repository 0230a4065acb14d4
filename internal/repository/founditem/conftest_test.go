package founditem

import (
	"context"
	"testing"

	"github.com/kailas-cloud/finder/internal/db"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	jsonSetFn func(ctx context.Context, key, path string, data []byte) error
	jsonGetFn func(ctx context.Context, key string) ([]byte, error)
	xaddFn    func(ctx context.Context, stream string, fields map[string]string) (string, error)
	calls     []string
}

func (m *mockStore) JSONSet(ctx context.Context, key, path string, data []byte) error {
	m.calls = append(m.calls, "JSON.SET")
	if m.jsonSetFn != nil {
		return m.jsonSetFn(ctx, key, path, data)
	}
	return nil
}

func (m *mockStore) JSONGet(ctx context.Context, key string) ([]byte, error) {
	if m.jsonGetFn != nil {
		return m.jsonGetFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockStore) XAdd(ctx context.Context, stream string, fields map[string]string) (string, error) {
	m.calls = append(m.calls, "XADD")
	if m.xaddFn != nil {
		return m.xaddFn(ctx, stream, fields)
	}
	return "1-0", nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, "finder:", "finder:events:found_items"), ms
}
