// Package stream feeds found-item created events from a Valkey/Redis stream
// consumer group into the match trigger.
package stream

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/finder/internal/db"
	"github.com/kailas-cloud/finder/internal/domain"
	"github.com/kailas-cloud/finder/internal/metrics"
	"github.com/kailas-cloud/finder/internal/repository/founditem"
)

const (
	source = "redis"

	// pendingCursor starts a read of this consumer's unacknowledged entries.
	pendingCursor = "0"
	// newCursor reads entries never delivered to the group.
	newCursor = ">"

	defaultRetryDelay = time.Second
	defaultBlock      = 5 * time.Second
)

// Config names the stream and consumer group to read.
type Config struct {
	Stream    string
	Group     string
	Consumer  string
	Block     time.Duration
	BatchSize int
}

// Consumer delivers each stream entry to the trigger at least once.
//
// An entry is acknowledged after the trigger returns or when its item no longer
// exists. Entries whose item could not be loaded stay pending and are retried
// from the pending list after a delay, for as long as any of them fails.
type Consumer struct {
	store      streamStore
	items      ItemLoader
	trigger    Trigger
	cfg        Config
	retryDelay time.Duration
	logger     *zap.Logger

	// redrainAt is when the pending list is read again; zero while nothing failed.
	redrainAt time.Time
}

// New creates a stream consumer.
func New(s streamStore, items ItemLoader, t Trigger, cfg Config, logger *zap.Logger) *Consumer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 16
	}
	// BLOCK 0 waits forever and would ignore shutdown
	if cfg.Block <= 0 {
		cfg.Block = defaultBlock
	}
	return &Consumer{
		store:      s,
		items:      items,
		trigger:    t,
		cfg:        cfg,
		retryDelay: defaultRetryDelay,
		logger:     logger.With(zap.String("stream", cfg.Stream), zap.String("group", cfg.Group)),
	}
}

// Run consumes until ctx is cancelled. It first drains entries left pending by a
// previous run of the same consumer, then reads new ones.
func (c *Consumer) Run(ctx context.Context) error {
	if err := c.store.XGroupCreate(ctx, c.cfg.Stream, c.cfg.Group); err != nil {
		return fmt.Errorf("create consumer group: %w", err)
	}
	c.logger.Info("Event consumer started", zap.String("consumer", c.cfg.Consumer))

	cursor := pendingCursor
	for ctx.Err() == nil {
		if cursor == newCursor && c.redrainDue(time.Now()) {
			c.redrainAt = time.Time{}
			cursor = pendingCursor
		}
		next, err := c.poll(ctx, cursor)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			c.logger.Error("Stream read failed", zap.Error(err))
			c.sleep(ctx)
			continue
		}
		cursor = next
	}

	c.logger.Info("Event consumer stopped")
	return nil
}

// poll reads one batch from cursor, handles it and returns the cursor for the next read.
func (c *Consumer) poll(ctx context.Context, cursor string) (string, error) {
	entries, err := c.store.XReadGroup(ctx,
		c.cfg.Stream, c.cfg.Group, c.cfg.Consumer, cursor, c.cfg.BatchSize, c.cfg.Block)
	if err != nil {
		return cursor, fmt.Errorf("xreadgroup %s: %w", cursor, err)
	}

	if cursor != newCursor && len(entries) == 0 {
		// pending list drained
		return newCursor, nil
	}

	for _, e := range entries {
		if !c.handle(ctx, e) {
			c.scheduleRedrain(time.Now())
		}
	}

	if cursor != newCursor {
		// continue past the entries just seen; failures are picked up by the next drain
		return entries[len(entries)-1].ID, nil
	}
	return newCursor, nil
}

func (c *Consumer) scheduleRedrain(now time.Time) {
	if c.redrainAt.IsZero() {
		c.redrainAt = now.Add(c.retryDelay)
	}
}

func (c *Consumer) redrainDue(now time.Time) bool {
	return !c.redrainAt.IsZero() && !now.Before(c.redrainAt)
}

// handle processes one entry and reports whether it was acknowledged.
func (c *Consumer) handle(ctx context.Context, e db.StreamEntry) bool {
	log := c.logger.With(zap.String("entry_id", e.ID))

	id := e.Fields[founditem.EventField]
	if id == "" {
		log.Warn("Dropping event without item id")
		return c.ack(ctx, e, "dropped")
	}
	log = log.With(zap.String("item_id", id))

	found, err := c.items.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		log.Warn("Dropping event for missing item")
		return c.ack(ctx, e, "dropped")
	}
	if err != nil {
		log.Error("Failed to load found item, leaving event pending", zap.Error(err))
		metrics.EventsTotal.WithLabelValues(source, "retry").Inc()
		return false
	}

	out := c.trigger.OnFoundItemCreated(ctx, &found)
	log.Debug("Event handled",
		zap.Int("matches", out.Matches),
		zap.Int("enqueued", out.Enqueued),
		zap.Int("failed", out.Failed),
	)
	return c.ack(ctx, e, "handled")
}

func (c *Consumer) ack(ctx context.Context, e db.StreamEntry, result string) bool {
	if err := c.store.XAck(ctx, c.cfg.Stream, c.cfg.Group, e.ID); err != nil {
		c.logger.Error("Failed to ack event", zap.String("entry_id", e.ID), zap.Error(err))
		metrics.EventsTotal.WithLabelValues(source, "retry").Inc()
		return false
	}
	metrics.EventsTotal.WithLabelValues(source, result).Inc()
	return true
}

func (c *Consumer) sleep(ctx context.Context) {
	t := time.NewTimer(c.retryDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
