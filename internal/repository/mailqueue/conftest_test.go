package mailqueue

import (
	"context"
	"testing"
	"time"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	jsonSetFn func(ctx context.Context, key, path string, data []byte) error
	xaddFn    func(ctx context.Context, stream string, fields map[string]string) (string, error)
}

func (m *mockStore) JSONSet(ctx context.Context, key, path string, data []byte) error {
	if m.jsonSetFn != nil {
		return m.jsonSetFn(ctx, key, path, data)
	}
	return nil
}

func (m *mockStore) XAdd(ctx context.Context, stream string, fields map[string]string) (string, error) {
	if m.xaddFn != nil {
		return m.xaddFn(ctx, stream, fields)
	}
	return "1-0", nil
}

func newTestQueue(t *testing.T) (*Queue, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	q := New(ms, "finder:")
	q.newID = func() string { return "m1" }
	q.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return q, ms
}
