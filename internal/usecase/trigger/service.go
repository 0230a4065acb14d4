// Package trigger reacts to newly created found items: evaluate, then notify.
package trigger

import (
	"context"

	"go.uber.org/zap"

	"github.com/kailas-cloud/finder/internal/domain/item"
	"github.com/kailas-cloud/finder/internal/logger"
)

// Outcome summarizes one handled event.
type Outcome struct {
	Matches  int
	Enqueued int
	Failed   int
}

// Service runs the match pipeline for one created item.
type Service struct {
	evaluator  Evaluator
	dispatcher Dispatcher
	logger     *zap.Logger
}

// New creates the found-item trigger.
func New(e Evaluator, d Dispatcher, logger *zap.Logger) *Service {
	return &Service{evaluator: e, dispatcher: d, logger: logger}
}

// OnFoundItemCreated evaluates the item and dispatches the resulting notifications.
//
// It never fails the invocation: evaluation errors and enqueue failures are logged and
// counted, and the event is considered handled. Redelivering it would re-notify the
// alerts whose messages were already enqueued.
func (s *Service) OnFoundItemCreated(ctx context.Context, found *item.Found) Outcome {
	ctx = logger.With(ctx, s.logger, zap.String("item_id", found.ID()))
	log := logger.FromContext(ctx)

	reqs, err := s.evaluator.Evaluate(ctx, found)
	if err != nil {
		log.Error("Match evaluation failed", zap.Error(err))
		return Outcome{}
	}
	if len(reqs) == 0 {
		log.Debug("No matching alerts")
		return Outcome{}
	}

	rep := s.dispatcher.Dispatch(ctx, reqs)
	if rep.Err != nil {
		log.Error("Some notifications were not enqueued",
			zap.Int("enqueued", rep.Enqueued),
			zap.Int("failed", rep.Failed),
			zap.Error(rep.Err),
		)
	} else {
		log.Info("Notifications enqueued", zap.Int("count", rep.Enqueued))
	}

	return Outcome{Matches: len(reqs), Enqueued: rep.Enqueued, Failed: rep.Failed}
}
