package finder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/finder/internal/db"
	dbRedis "github.com/kailas-cloud/finder/internal/db/redis"
	"github.com/kailas-cloud/finder/internal/domain"
	domalert "github.com/kailas-cloud/finder/internal/domain/alert"
	"github.com/kailas-cloud/finder/internal/domain/item"
	dommatch "github.com/kailas-cloud/finder/internal/domain/match"
	alertrepo "github.com/kailas-cloud/finder/internal/repository/alert"
	"github.com/kailas-cloud/finder/internal/repository/founditem"
	"github.com/kailas-cloud/finder/internal/repository/mailqueue"
	healthuc "github.com/kailas-cloud/finder/internal/usecase/health"
	matchuc "github.com/kailas-cloud/finder/internal/usecase/match"
	notifyuc "github.com/kailas-cloud/finder/internal/usecase/notify"
	registryuc "github.com/kailas-cloud/finder/internal/usecase/registry"
	triggeruc "github.com/kailas-cloud/finder/internal/usecase/trigger"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultKeyPrefix        = "finder:"
	defaultThreshold        = 0.60
	defaultMaxAlerts        = 10000
)

// Internal interfaces, swapped for mocks in tests.
type registryUseCase interface {
	ReportFound(ctx context.Context, in registryuc.FoundInput) (item.Found, error)
	RegisterAlert(ctx context.Context, in registryuc.AlertInput) (domalert.Alert, error)
}

type itemLoader interface {
	Get(ctx context.Context, id string) (item.Found, error)
}

type triggerUseCase interface {
	OnFoundItemCreated(ctx context.Context, found *item.Found) triggeruc.Outcome
}

type textEmbedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// Client is the finder SDK entry point.
type Client struct {
	store     db.Store
	registry  registryUseCase
	vectors   textEmbedder
	items     itemLoader
	trigger   triggerUseCase
	healthSvc healthUseCase
	obs       *observer
}

// New creates a finder Client and connects to the database.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("finder: database address required (use WithValkey or WithRedis)")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("finder: database not ready: %w", err)
	}

	return wireClient(store, cfg, obs)
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case "valkey", "redis":
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
		})
		if err != nil {
			return nil, fmt.Errorf("finder: create %s store: %w", cfg.driver, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("finder: unknown driver %q", cfg.driver)
	}
}

func wireClient(store db.Store, cfg *clientConfig, obs *observer) (*Client, error) {
	prefix := cfg.keyPrefix
	if prefix == "" {
		prefix = defaultKeyPrefix
	}

	t := defaultThreshold
	if cfg.threshold != nil {
		t = *cfg.threshold
	}
	threshold, err := dommatch.NewThreshold(t)
	if err != nil {
		return nil, fmt.Errorf("finder: %w", err)
	}

	maxAlerts := cfg.maxAlerts
	if maxAlerts <= 0 {
		maxAlerts = defaultMaxAlerts
	}

	// Embedder: noop if not set (inputs must then carry embeddings)
	var domEmb domain.Embedder = &noopEmbedder{}
	if cfg.embedder != nil {
		domEmb = &embedderAdapter{inner: cfg.embedder}
	}
	vectors := &textVectorizer{embedder: domEmb}

	alerts := alertrepo.New(store, prefix)
	items := founditem.New(store, prefix, prefix+"events:found_items")
	mail := mailqueue.New(store, prefix)

	matchSvc := matchuc.New(alerts, matchuc.Config{Threshold: threshold, MaxAlerts: maxAlerts})
	notifySvc := notifyuc.New(mail, cfg.notifyConcurrency, cfg.notifyTimeout)

	return &Client{
		store:     store,
		registry:  registryuc.New(items, alerts, vectors),
		vectors:   vectors,
		items:     items,
		trigger:   triggeruc.New(matchSvc, notifySvc, zap.NewNop()),
		healthSvc: healthuc.New(store, nil),
		obs:       obs,
	}, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// RegisterAlert stores a lost-item alert.
func (c *Client) RegisterAlert(ctx context.Context, in AlertInput) (_ Alert, err error) {
	start := time.Now()
	defer func() { c.obs.observe("register_alert", start, err) }()

	a, err := c.registry.RegisterAlert(ctx, registryuc.AlertInput{
		Email:       in.Email,
		Description: in.Description,
		Embedding:   in.Embedding,
	})
	if err != nil {
		return Alert{}, fmt.Errorf("register alert: %w", err)
	}
	return alertFromDomain(&a), nil
}

// ReportFound stores a found item and publishes its creation event.
// A running finder service picks the event up and notifies matching alert owners.
func (c *Client) ReportFound(ctx context.Context, in FoundInput) (_ FoundItem, err error) {
	start := time.Now()
	defer func() { c.obs.observe("report_found", start, err) }()

	vec := in.Embedding
	if len(vec) == 0 && in.ImageURL != "" {
		// the registry would describe the image; embed the text here instead
		if strings.TrimSpace(in.Description) == "" {
			return FoundItem{}, ErrImageInput
		}
		if vec, err = c.vectors.EmbedText(ctx, in.Description); err != nil {
			return FoundItem{}, fmt.Errorf("report found: %w", err)
		}
	}

	f, err := c.registry.ReportFound(ctx, registryuc.FoundInput{
		Description: in.Description,
		ImageURL:    in.ImageURL,
		Embedding:   vec,
	})
	if err != nil {
		return FoundItem{}, fmt.Errorf("report found: %w", err)
	}
	return foundFromDomain(&f), nil
}

// Match compares a stored found item with every alert and enqueues a notification
// for each match. Use it when no finder service consumes the event stream;
// running both notifies owners twice.
func (c *Client) Match(ctx context.Context, itemID string) (_ Outcome, err error) {
	start := time.Now()
	defer func() { c.obs.observe("match", start, err) }()

	f, err := c.items.Get(ctx, itemID)
	if err != nil {
		return Outcome{}, fmt.Errorf("match %s: %w", itemID, err)
	}
	res := c.trigger.OnFoundItemCreated(ctx, &f)
	out := Outcome{Matches: res.Matches, Enqueued: res.Enqueued, Failed: res.Failed}
	c.obs.observeOutcome(out)
	return out, nil
}
