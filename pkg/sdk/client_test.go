package finder

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNew_NoAddress(t *testing.T) {
	_, err := New(context.Background())
	if err == nil {
		t.Fatal("expected error when no address provided")
	}
}

func TestNew_UnknownDriver(t *testing.T) {
	cfg := &clientConfig{driver: "unknown", addrs: []string{"localhost:1234"}}
	_, err := createStore(cfg)
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestWireClient_InvalidThreshold(t *testing.T) {
	cfg := &clientConfig{}
	WithThreshold(1.5).apply(cfg)

	if _, err := wireClient(nil, cfg, nil); err == nil {
		t.Fatal("expected error for threshold outside [-1, 1]")
	}
}

func TestNoopEmbedder(t *testing.T) {
	noop := &noopEmbedder{}
	_, err := noop.Embed(context.Background(), "test")
	if err == nil {
		t.Fatal("expected error from noopEmbedder")
	}
}

func TestEmbedderAdapter(t *testing.T) {
	called := false
	mock := &mockEmbedder{
		fn: func(_ context.Context, text string) (EmbeddingResult, error) {
			called = true
			return EmbeddingResult{
				Embedding:    []float32{1, 2, 3},
				PromptTokens: 5,
				TotalTokens:  10,
			}, nil
		},
	}

	adapter := &embedderAdapter{inner: mock}
	result, err := adapter.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("inner embedder was not called")
	}
	if len(result.Embedding) != 3 {
		t.Errorf("embedding len = %d, want 3", len(result.Embedding))
	}
	if result.TotalTokens != 10 {
		t.Errorf("total tokens = %d, want 10", result.TotalTokens)
	}
}

func TestTextVectorizer(t *testing.T) {
	empty := &embedderAdapter{inner: &mockEmbedder{
		fn: func(context.Context, string) (EmbeddingResult, error) { return EmbeddingResult{}, nil },
	}}
	v := &textVectorizer{embedder: empty}

	if _, err := v.EmbedText(context.Background(), "x"); !errors.Is(err, ErrUpstream) {
		t.Errorf("empty embedding: got %v, want ErrUpstream", err)
	}
	if _, err := v.EmbedImage(context.Background(), "https://x"); !errors.Is(err, ErrImageInput) {
		t.Errorf("image input: got %v, want ErrImageInput", err)
	}

	failing := &textVectorizer{embedder: &noopEmbedder{}}
	if _, err := failing.EmbedText(context.Background(), "x"); !errors.Is(err, ErrUpstream) {
		t.Errorf("embedder failure: got %v, want ErrUpstream", err)
	}
}

func TestClientOptions(t *testing.T) {
	cfg := &clientConfig{}

	WithValkey("localhost:6379", "secret").apply(cfg)
	if cfg.driver != "valkey" {
		t.Errorf("driver = %q, want valkey", cfg.driver)
	}
	if cfg.addrs[0] != "localhost:6379" {
		t.Errorf("addr = %q, want localhost:6379", cfg.addrs[0])
	}
	if cfg.password != "secret" {
		t.Errorf("password = %q, want secret", cfg.password)
	}

	cfg2 := &clientConfig{}
	WithRedis("localhost:6380", "pass").apply(cfg2)
	if cfg2.driver != "redis" {
		t.Errorf("driver = %q, want redis", cfg2.driver)
	}

	cfg3 := &clientConfig{}
	WithKeyPrefix("app:").apply(cfg3)
	WithThreshold(0.75).apply(cfg3)
	WithMaxAlerts(500).apply(cfg3)
	WithNotifyConcurrency(4, time.Second).apply(cfg3)
	if cfg3.keyPrefix != "app:" {
		t.Errorf("keyPrefix = %q, want app:", cfg3.keyPrefix)
	}
	if cfg3.threshold == nil || *cfg3.threshold != 0.75 {
		t.Errorf("threshold = %v, want 0.75", cfg3.threshold)
	}
	if cfg3.maxAlerts != 500 {
		t.Errorf("maxAlerts = %d, want 500", cfg3.maxAlerts)
	}
	if cfg3.notifyConcurrency != 4 || cfg3.notifyTimeout != time.Second {
		t.Errorf("notify = (%d, %v), want (4, 1s)", cfg3.notifyConcurrency, cfg3.notifyTimeout)
	}

	cfg4 := &clientConfig{}
	logger := slog.Default()
	WithLogger(logger).apply(cfg4)
	if cfg4.logger != logger {
		t.Error("expected logger to be set")
	}

	reg := prometheus.NewRegistry()
	WithPrometheus(reg).apply(cfg4)
	if cfg4.metricsReg != reg {
		t.Error("expected registerer to be set")
	}
}
