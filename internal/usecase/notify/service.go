package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/finder/internal/domain/notification"
	"github.com/kailas-cloud/finder/internal/logger"
	"github.com/kailas-cloud/finder/internal/metrics"
)

// DefaultMaxConcurrency bounds in-flight enqueue calls.
const DefaultMaxConcurrency = 16

// Report summarizes one dispatch. Err joins every per-message failure.
type Report struct {
	Enqueued int
	Failed   int
	Err      error
}

// Service fans notification requests out to the mail queue.
type Service struct {
	queue          MailQueue
	maxConcurrency int
	timeout        time.Duration
}

// New creates a dispatcher. maxConcurrency <= 0 uses DefaultMaxConcurrency;
// timeout bounds each enqueue call (0 = caller deadline only).
func New(q MailQueue, maxConcurrency int, timeout time.Duration) *Service {
	if maxConcurrency <= 0 {
		maxConcurrency = DefaultMaxConcurrency
	}
	return &Service{queue: q, maxConcurrency: maxConcurrency, timeout: timeout}
}

// Dispatch enqueues every request concurrently and waits for all of them.
// A failed enqueue never cancels its siblings; failures are collected into the report.
func (s *Service) Dispatch(ctx context.Context, reqs []notification.Request) Report {
	if len(reqs) == 0 {
		return Report{}
	}
	log := logger.FromContext(ctx)

	var (
		mu   sync.Mutex
		rep  Report
		errs []error
	)

	var g errgroup.Group
	g.SetLimit(s.maxConcurrency)

	for i := range reqs {
		req := reqs[i]
		g.Go(func() error {
			err := s.enqueue(ctx, req)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				rep.Failed++
				errs = append(errs, fmt.Errorf("alert %s: %w", req.AlertID(), err))
				metrics.NotificationsTotal.WithLabelValues("failed").Inc()
				log.Warn("Failed to enqueue notification",
					zap.String("alert_id", req.AlertID()),
					zap.String("item_id", req.ItemID()),
					zap.Error(err),
				)
				return nil
			}
			rep.Enqueued++
			metrics.NotificationsTotal.WithLabelValues("enqueued").Inc()
			return nil
		})
	}
	_ = g.Wait() // tasks never return errors

	rep.Err = errors.Join(errs...)
	return rep
}

func (s *Service) enqueue(ctx context.Context, req notification.Request) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	if err := s.queue.Enqueue(ctx, req); err != nil {
		return fmt.Errorf("enqueue: %w", err)
	}
	return nil
}
