// Package firestore feeds found-item created events from a Firestore snapshot
// listener into the match trigger.
package firestore

import (
	"context"
	"fmt"
	"time"

	fs "cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/kailas-cloud/finder/internal/domain"
	"github.com/kailas-cloud/finder/internal/domain/item"
	"github.com/kailas-cloud/finder/internal/metrics"
	fsrepo "github.com/kailas-cloud/finder/internal/repository/firestore"
	"github.com/kailas-cloud/finder/internal/usecase/trigger"
)

const (
	source = "firestore"

	defaultRestartDelay = 5 * time.Second
)

// Trigger handles a created found item.
type Trigger interface {
	OnFoundItemCreated(ctx context.Context, found *item.Found) trigger.Outcome
}

// change is the part of a snapshot change the watcher acts on.
type change struct {
	kind fs.DocumentChangeKind
	id   string
	data map[string]any
}

// Watcher listens on the found items collection and runs the trigger for every
// document added after the listener started.
//
// The first snapshot lists documents that already exist and is skipped. When the
// listener fails it is reopened after a delay; documents added while it was down
// are not replayed.
type Watcher struct {
	client       *fs.Client
	trigger      Trigger
	restartDelay time.Duration
	logger       *zap.Logger
}

// NewWatcher creates a found-item watcher.
func NewWatcher(c *fs.Client, t Trigger, logger *zap.Logger) *Watcher {
	return &Watcher{
		client:       c,
		trigger:      t,
		restartDelay: defaultRestartDelay,
		logger:       logger.With(zap.String("collection", domain.FoundItemsCollection)),
	}
}

// Run listens until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Info("Snapshot listener started")
	for {
		err := w.listen(ctx)
		if ctx.Err() != nil {
			w.logger.Info("Snapshot listener stopped")
			return nil
		}
		w.logger.Error("Snapshot listener failed, restarting", zap.Error(err))

		t := time.NewTimer(w.restartDelay)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil
		case <-t.C:
		}
	}
}

func (w *Watcher) listen(ctx context.Context) error {
	it := w.client.Collection(domain.FoundItemsCollection).Snapshots(ctx)
	defer it.Stop()

	baseline := true
	for {
		snap, err := it.Next()
		if err != nil {
			return snapshotErr(ctx, err)
		}

		changes := make([]change, 0, len(snap.Changes))
		for _, ch := range snap.Changes {
			changes = append(changes, change{kind: ch.Kind, id: ch.Doc.Ref.ID, data: ch.Doc.Data()})
		}
		w.apply(ctx, baseline, changes)
		baseline = false
	}
}

// snapshotErr maps an iterator failure. Cancellation is a clean stop only once ctx is done.
func snapshotErr(ctx context.Context, err error) error {
	if status.Code(err) == codes.Canceled && ctx.Err() != nil {
		return nil
	}
	return fmt.Errorf("next snapshot: %w", err)
}

// apply runs the trigger for added documents. The baseline snapshot is only counted.
func (w *Watcher) apply(ctx context.Context, baseline bool, changes []change) int {
	if baseline {
		w.logger.Debug("Skipping baseline snapshot", zap.Int("documents", len(changes)))
		return 0
	}

	handled := 0
	for _, ch := range changes {
		if ch.kind != fs.DocumentAdded {
			continue
		}
		found := fsrepo.FoundFromData(ch.id, ch.data)
		out := w.trigger.OnFoundItemCreated(ctx, &found)
		metrics.EventsTotal.WithLabelValues(source, "handled").Inc()
		w.logger.Debug("Event handled",
			zap.String("item_id", ch.id),
			zap.Int("matches", out.Matches),
			zap.Int("enqueued", out.Enqueued),
		)
		handled++
	}
	return handled
}
