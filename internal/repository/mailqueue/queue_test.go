package mailqueue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/kailas-cloud/finder/internal/domain/notification"
)

func testRequest() notification.Request {
	return notification.Reconstruct("owner@example.com", "subj", "<p>hi</p>", "a1", "f1")
}

func TestEnqueue(t *testing.T) {
	q, ms := newTestQueue(t)

	var rec Record
	ms.jsonSetFn = func(_ context.Context, key, path string, data []byte) error {
		if key != "finder:mail:m1" {
			t.Errorf("unexpected key: %s", key)
		}
		if path != "$" {
			t.Errorf("unexpected path: %s", path)
		}
		return json.Unmarshal(data, &rec)
	}
	var announced map[string]string
	ms.xaddFn = func(_ context.Context, stream string, fields map[string]string) (string, error) {
		if stream != "finder:mail_queue" {
			t.Errorf("unexpected stream: %s", stream)
		}
		announced = fields
		return "1-0", nil
	}

	if err := q.Enqueue(context.Background(), testRequest()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.To != "owner@example.com" || rec.Message.Subject != "subj" || rec.Message.HTML != "<p>hi</p>" {
		t.Errorf("unexpected record: %+v", rec)
	}
	if rec.AlertID != "a1" || rec.ItemID != "f1" || rec.CreatedAt != 1700000000000 {
		t.Errorf("unexpected metadata: %+v", rec)
	}
	if announced[StreamField] != "m1" {
		t.Errorf("unexpected announcement: %v", announced)
	}
}

func TestEnqueue_UniqueIDs(t *testing.T) {
	ms := &mockStore{}
	q := New(ms, "finder:")

	keys := map[string]bool{}
	ms.jsonSetFn = func(_ context.Context, key, _ string, _ []byte) error {
		keys[key] = true
		return nil
	}
	for range 3 {
		if err := q.Enqueue(context.Background(), testRequest()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if len(keys) != 3 {
		t.Errorf("expected 3 distinct keys, got %d", len(keys))
	}
}

func TestEnqueue_SetError(t *testing.T) {
	q, ms := newTestQueue(t)
	ms.jsonSetFn = func(_ context.Context, _, _ string, _ []byte) error { return errors.New("OOM") }
	xadd := false
	ms.xaddFn = func(_ context.Context, _ string, _ map[string]string) (string, error) {
		xadd = true
		return "", nil
	}

	if err := q.Enqueue(context.Background(), testRequest()); err == nil {
		t.Fatal("expected error")
	}
	if xadd {
		t.Error("must not announce a mail that was not stored")
	}
}

func TestEnqueue_AnnounceError(t *testing.T) {
	q, ms := newTestQueue(t)
	ms.xaddFn = func(_ context.Context, _ string, _ map[string]string) (string, error) {
		return "", errors.New("stream full")
	}

	if err := q.Enqueue(context.Background(), testRequest()); err == nil {
		t.Fatal("expected error")
	}
}
