package stream

import (
	"context"
	"time"

	"github.com/kailas-cloud/finder/internal/db"
	"github.com/kailas-cloud/finder/internal/domain/item"
	"github.com/kailas-cloud/finder/internal/usecase/trigger"
)

// streamStore is the consumer group subset of db.StreamStore (ISP).
type streamStore interface {
	XGroupCreate(ctx context.Context, stream, group string) error
	XReadGroup(
		ctx context.Context, stream, group, consumer, id string, count int, block time.Duration,
	) ([]db.StreamEntry, error)
	XAck(ctx context.Context, stream, group string, ids ...string) error
}

// ItemLoader loads the found item named by an event.
type ItemLoader interface {
	Get(ctx context.Context, id string) (item.Found, error)
}

// Trigger handles a created found item.
type Trigger interface {
	OnFoundItemCreated(ctx context.Context, found *item.Found) trigger.Outcome
}
