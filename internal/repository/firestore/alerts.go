package firestore

import (
	"context"
	"fmt"

	fs "cloud.google.com/go/firestore"

	"github.com/kailas-cloud/finder/internal/domain/alert"
)

// AlertRepo implements usecase/match.AlertRepository and usecase/registry.AlertWriter.
type AlertRepo struct {
	client *fs.Client
}

// NewAlertRepo creates a Firestore-backed alert repository.
func NewAlertRepo(c *fs.Client) *AlertRepo {
	return &AlertRepo{client: c}
}

// List reads up to limit alerts (limit <= 0 means all).
func (r *AlertRepo) List(ctx context.Context, limit int) ([]alert.Alert, error) {
	q := r.client.Collection(alertsCollection).Query
	if limit > 0 {
		q = q.Limit(limit)
	}

	it := q.Documents(ctx)
	defer it.Stop()

	var alerts []alert.Alert
	for {
		snap, err := it.Next()
		if isDone(err) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", alertsCollection, err)
		}
		alerts = append(alerts, alertFromData(snap.Ref.ID, snap.Data()))
	}
	return alerts, nil
}

// Save writes the alert document under its ID.
func (r *AlertRepo) Save(ctx context.Context, a *alert.Alert) error {
	data := map[string]any{
		fieldEmail:       a.Email(),
		fieldDescription: a.Description(),
		"createdAt":      fs.ServerTimestamp,
	}
	if e := embeddingToData(a.Embedding()); e != nil {
		data[fieldEmbedding] = e
	}
	if _, err := r.client.Collection(alertsCollection).Doc(a.ID()).Set(ctx, data); err != nil {
		return fmt.Errorf("save alert %s: %w", a.ID(), err)
	}
	return nil
}
