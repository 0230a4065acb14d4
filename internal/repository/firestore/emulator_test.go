package firestore

import (
	"context"
	"errors"
	"os"
	"testing"

	fs "cloud.google.com/go/firestore"
	"github.com/google/uuid"

	"github.com/kailas-cloud/finder/internal/domain"
	"github.com/kailas-cloud/finder/internal/domain/alert"
	"github.com/kailas-cloud/finder/internal/domain/item"
	"github.com/kailas-cloud/finder/internal/domain/notification"
)

// newEmulatorClient connects to the Firestore emulator or skips the test.
func newEmulatorClient(t *testing.T) *fs.Client {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	c, err := NewClient(context.Background(), Config{ProjectID: "finder-test"})
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestEmulator_FoundItemRoundTrip(t *testing.T) {
	c := newEmulatorClient(t)
	repo := NewFoundItemRepo(c)
	ctx := context.Background()

	id := uuid.NewString()
	f := item.Reconstruct(id, "green scarf", []float32{0.5, 0.5}, "https://img/s.jpg")
	if err := repo.Create(ctx, &f); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Description() != "green scarf" || len(got.Embedding()) != 2 {
		t.Errorf("unexpected item %+v", got)
	}
}

func TestEmulator_FoundItemMissing(t *testing.T) {
	c := newEmulatorClient(t)
	_, err := NewFoundItemRepo(c).Get(context.Background(), uuid.NewString())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEmulator_AlertsAndMail(t *testing.T) {
	c := newEmulatorClient(t)
	ctx := context.Background()

	alerts := NewAlertRepo(c)
	a := alert.Reconstruct(uuid.NewString(), "x@example.com", "red bike", []float32{1, 0})
	if err := alerts.Save(ctx, &a); err != nil {
		t.Fatalf("save: %v", err)
	}
	list, err := alerts.List(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) == 0 {
		t.Fatal("expected at least one alert")
	}

	req := notification.Reconstruct("x@example.com", "s", "<p>b</p>", a.ID(), "f1")
	if err := NewMailQueue(c).Enqueue(ctx, req); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := NewPinger(c).Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
}
