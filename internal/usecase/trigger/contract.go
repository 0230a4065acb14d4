package trigger

import (
	"context"

	"github.com/kailas-cloud/finder/internal/domain/item"
	"github.com/kailas-cloud/finder/internal/domain/notification"
	"github.com/kailas-cloud/finder/internal/usecase/notify"
)

// Evaluator selects the alerts a found item matches.
type Evaluator interface {
	Evaluate(ctx context.Context, found *item.Found) ([]notification.Request, error)
}

// Dispatcher enqueues notifications and reports per-message failures.
type Dispatcher interface {
	Dispatch(ctx context.Context, reqs []notification.Request) notify.Report
}
