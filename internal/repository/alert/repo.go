// Package alert stores lost-item alerts as JSON documents in Valkey/Redis.
package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kailas-cloud/finder/internal/domain"
	domalert "github.com/kailas-cloud/finder/internal/domain/alert"
	"github.com/kailas-cloud/finder/internal/domain/vector"
)

// fetchChunk bounds the number of keys per pipelined JSON.GET round trip.
const fetchChunk = 100

// store is the consumer interface for alerts (ISP).
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGetMulti(ctx context.Context, keys []string) ([][]byte, error)
	Scan(ctx context.Context, pattern string, limit int) ([]string, error)
}

// Repo implements usecase/match.AlertRepository and usecase/registry.AlertWriter.
type Repo struct {
	store  store
	prefix string
}

// New creates an alert repository. prefix is the global key prefix (e.g. "finder:").
func New(s store, prefix string) *Repo {
	return &Repo{store: s, prefix: prefix}
}

type alertDoc struct {
	Email       string    `json:"email"`
	Description string    `json:"description"`
	Embedding   []float64 `json:"embedding,omitempty"`
}

// Save writes an alert document.
func (r *Repo) Save(ctx context.Context, a *domalert.Alert) error {
	data, err := json.Marshal(alertDoc{
		Email:       a.Email(),
		Description: a.Description(),
		Embedding:   vector.ToFloat64(a.Embedding()),
	})
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}

	key := r.key(a.ID())
	if err := r.store.JSONSet(ctx, key, "$", data); err != nil {
		return fmt.Errorf("json.set %s: %w", key, err)
	}
	return nil
}

// List returns up to limit alerts (limit <= 0 means all). Keys that vanish between
// SCAN and JSON.GET are skipped; unparseable documents come back without an embedding.
func (r *Repo) List(ctx context.Context, limit int) ([]domalert.Alert, error) {
	keys, err := r.store.Scan(ctx, r.key("*"), limit)
	if err != nil {
		return nil, fmt.Errorf("scan alerts: %w", err)
	}

	alerts := make([]domalert.Alert, 0, len(keys))
	for start := 0; start < len(keys); start += fetchChunk {
		end := min(start+fetchChunk, len(keys))
		chunk := keys[start:end]

		docs, err := r.store.JSONGetMulti(ctx, chunk)
		if err != nil {
			return nil, fmt.Errorf("load alerts: %w", err)
		}
		for i, raw := range docs {
			if raw == nil {
				continue
			}
			alerts = append(alerts, parseAlert(r.id(chunk[i]), raw))
		}
	}
	return alerts, nil
}

func parseAlert(id string, raw []byte) domalert.Alert {
	var doc alertDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return domalert.Reconstruct(id, "", "", nil)
	}
	return domalert.Reconstruct(id, doc.Email, doc.Description, vector.FromFloat64(doc.Embedding))
}

func (r *Repo) key(id string) string {
	return r.prefix + domain.LostAlertsCollection + ":" + id
}

func (r *Repo) id(key string) string {
	return strings.TrimPrefix(key, r.prefix+domain.LostAlertsCollection+":")
}
