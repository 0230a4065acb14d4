package match

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/finder/internal/domain"
	"github.com/kailas-cloud/finder/internal/domain/item"
	dommatch "github.com/kailas-cloud/finder/internal/domain/match"
	"github.com/kailas-cloud/finder/internal/domain/notification"
	"github.com/kailas-cloud/finder/internal/domain/vector"
	"github.com/kailas-cloud/finder/internal/logger"
	"github.com/kailas-cloud/finder/internal/metrics"
)

// Config holds the match policy.
type Config struct {
	Threshold dommatch.Threshold
	MaxAlerts int    // 0 = unbounded
	Subject   string // empty = notification.DefaultSubject
}

// Service compares a found item against every alert and builds notifications for the matches.
type Service struct {
	alerts AlertRepository
	cfg    Config
}

// New creates a match evaluator.
func New(alerts AlertRepository, cfg Config) *Service {
	return &Service{alerts: alerts, cfg: cfg}
}

// Evaluate returns one notification per alert whose similarity to found strictly exceeds
// the threshold. An item without an embedding yields nothing and does not touch the store.
// A failed alert load aborts the pass with domain.ErrEvaluation; no partial set is returned.
func (s *Service) Evaluate(ctx context.Context, found *item.Found) ([]notification.Request, error) {
	log := logger.FromContext(ctx)

	if !found.Matchable() {
		metrics.EvaluationsTotal.WithLabelValues("skipped").Inc()
		log.Debug("Found item has no embedding, skipping", zap.String("item_id", found.ID()))
		return nil, nil
	}

	alerts, err := s.alerts.List(ctx, s.cfg.MaxAlerts)
	if err != nil {
		metrics.EvaluationsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: load alerts: %w", domain.ErrEvaluation, err)
	}
	metrics.AlertsScanned.Observe(float64(len(alerts)))

	var requests []notification.Request
	for i := range alerts {
		a := &alerts[i]
		if !a.Matchable() {
			continue
		}

		score := vector.Cosine(found.Embedding(), a.Embedding())
		metrics.MatchScores.Observe(score)
		if !s.cfg.Threshold.Qualifies(score) {
			continue
		}

		res := dommatch.NewResult(*a, *found, score)
		req, err := notification.FromMatch(&res, s.cfg.Subject)
		if err != nil {
			metrics.EvaluationsTotal.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("%w: alert %s: %w", domain.ErrEvaluation, a.ID(), err)
		}

		log.Info("Match found",
			zap.String("item_id", found.ID()),
			zap.String("alert_id", a.ID()),
			zap.Float64("score", score),
		)
		requests = append(requests, req)
	}

	outcome := "no_match"
	if len(requests) > 0 {
		outcome = "matched"
	}
	metrics.EvaluationsTotal.WithLabelValues(outcome).Inc()

	log.Debug("Evaluation completed",
		zap.String("item_id", found.ID()),
		zap.Int("alerts", len(alerts)),
		zap.Int("matches", len(requests)),
	)
	return requests, nil
}
