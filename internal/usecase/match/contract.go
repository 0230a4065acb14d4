package match

import (
	"context"

	"github.com/kailas-cloud/finder/internal/domain/alert"
)

// AlertRepository loads the standing alerts to compare against.
type AlertRepository interface {
	// List returns up to limit alerts (limit <= 0 means all).
	List(ctx context.Context, limit int) ([]alert.Alert, error)
}
