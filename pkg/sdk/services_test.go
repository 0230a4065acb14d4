package finder

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/finder/internal/domain"
	domalert "github.com/kailas-cloud/finder/internal/domain/alert"
	"github.com/kailas-cloud/finder/internal/domain/item"
	healthuc "github.com/kailas-cloud/finder/internal/usecase/health"
	registryuc "github.com/kailas-cloud/finder/internal/usecase/registry"
	triggeruc "github.com/kailas-cloud/finder/internal/usecase/trigger"
)

func newTestClient(t *testing.T) (*Client, *mockVectors) {
	t.Helper()
	obs, err := newObserver(nil, prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("observer: %v", err)
	}
	vec := &mockVectors{}
	return &Client{vectors: vec, obs: obs}, vec
}

func TestRegisterAlert(t *testing.T) {
	c, _ := newTestClient(t)
	c.registry = &mockRegistry{
		registerFn: func(_ context.Context, in registryuc.AlertInput) (domalert.Alert, error) {
			if in.Email != "owner@example.com" || in.Description != "black wallet" {
				t.Errorf("unexpected input %+v", in)
			}
			return domalert.Reconstruct("a1", in.Email, in.Description, []float32{1, 0, 0}), nil
		},
	}

	got, err := c.RegisterAlert(context.Background(), AlertInput{Email: "owner@example.com", Description: "black wallet"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Alert{ID: "a1", Email: "owner@example.com", Description: "black wallet", Dimensions: 3}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestRegisterAlert_ValidationError(t *testing.T) {
	c, _ := newTestClient(t)
	c.registry = &mockRegistry{
		registerFn: func(context.Context, registryuc.AlertInput) (domalert.Alert, error) {
			return domalert.Alert{}, fmt.Errorf("%w: email is required", domain.ErrValidation)
		},
	}

	_, err := c.RegisterAlert(context.Background(), AlertInput{})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("got %v, want ErrValidation", err)
	}
	if got := testutil.ToFloat64(c.obs.metrics.operations.WithLabelValues("register_alert", "invalid")); got != 1 {
		t.Errorf("invalid counter = %v, want 1", got)
	}
}

func TestReportFound_TextOnly(t *testing.T) {
	c, vec := newTestClient(t)
	var seen registryuc.FoundInput
	c.registry = &mockRegistry{
		reportFn: func(_ context.Context, in registryuc.FoundInput) (item.Found, error) {
			seen = in
			return item.Reconstruct("f1", in.Description, []float32{1, 0}, in.ImageURL), nil
		},
	}

	got, err := c.ReportFound(context.Background(), FoundInput{Description: "keys"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "f1" || got.Dimensions != 2 {
		t.Errorf("unexpected item %+v", got)
	}
	if len(vec.calls) != 0 || seen.Embedding != nil {
		t.Error("text-only input is vectorized by the registry, not the client")
	}
}

func TestReportFound_ImageWithDescriptionEmbedsText(t *testing.T) {
	c, vec := newTestClient(t)
	var seen registryuc.FoundInput
	c.registry = &mockRegistry{
		reportFn: func(_ context.Context, in registryuc.FoundInput) (item.Found, error) {
			seen = in
			return item.Reconstruct("f2", in.Description, in.Embedding, in.ImageURL), nil
		},
	}

	got, err := c.ReportFound(context.Background(), FoundInput{Description: "umbrella", ImageURL: "https://img/u.jpg"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(vec.calls, []string{"umbrella"}) {
		t.Errorf("embed calls: got %v", vec.calls)
	}
	if !reflect.DeepEqual(seen.Embedding, []float32{0.5, 0.5}) || got.ImageURL != "https://img/u.jpg" {
		t.Errorf("unexpected registry input %+v", seen)
	}
}

func TestReportFound_ImageOnlyRejected(t *testing.T) {
	c, _ := newTestClient(t)
	c.registry = &mockRegistry{
		reportFn: func(context.Context, registryuc.FoundInput) (item.Found, error) {
			t.Fatal("registry must not be called")
			return item.Found{}, nil
		},
	}

	_, err := c.ReportFound(context.Background(), FoundInput{ImageURL: "https://img/u.jpg"})
	if !errors.Is(err, ErrImageInput) {
		t.Fatalf("got %v, want ErrImageInput", err)
	}
}

func TestMatch(t *testing.T) {
	c, _ := newTestClient(t)
	c.items = &mockItems{getFn: func(_ context.Context, id string) (item.Found, error) {
		return item.Reconstruct(id, "wallet", []float32{1, 0}, ""), nil
	}}
	trig := &mockTrigger{out: triggeruc.Outcome{Matches: 3, Enqueued: 2, Failed: 1}}
	c.trigger = trig

	out, err := c.Match(context.Background(), "f1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != (Outcome{Matches: 3, Enqueued: 2, Failed: 1}) {
		t.Errorf("outcome = %+v", out)
	}
	if !reflect.DeepEqual(trig.seen, []string{"f1"}) {
		t.Errorf("trigger calls: got %v", trig.seen)
	}
	if got := testutil.ToFloat64(c.obs.metrics.notifications.WithLabelValues("enqueued")); got != 2 {
		t.Errorf("enqueued counter = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.obs.metrics.notifications.WithLabelValues("failed")); got != 1 {
		t.Errorf("failed counter = %v, want 1", got)
	}
}

func TestMatch_MissingItem(t *testing.T) {
	c, _ := newTestClient(t)
	c.items = &mockItems{getFn: func(context.Context, string) (item.Found, error) {
		return item.Found{}, fmt.Errorf("found item x: %w", domain.ErrNotFound)
	}}
	trig := &mockTrigger{}
	c.trigger = trig

	_, err := c.Match(context.Background(), "x")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
	if len(trig.seen) != 0 {
		t.Error("trigger must not run for a missing item")
	}
}

func TestHealth(t *testing.T) {
	c, _ := newTestClient(t)
	c.healthSvc = &mockHealth{report: healthuc.Report{
		Status: healthuc.Unhealthy,
		Checks: map[string]healthuc.CheckResult{"database": healthuc.CheckError},
	}}

	got := c.Health(context.Background())
	if got.Status != "error" || got.Checks["database"] != "error" {
		t.Errorf("unexpected status %+v", got)
	}
}

func TestObserver_ReusesRegisteredMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("first observer: %v", err)
	}
	b, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("second observer: %v", err)
	}
	if a.metrics.operations != b.metrics.operations {
		t.Error("second observer must reuse the registered collectors")
	}
}

func TestObserver_Nil(t *testing.T) {
	var o *observer
	o.observe("ping", time.Now(), nil)
	o.observeOutcome(Outcome{Enqueued: 1})
}
