// Package firestore implements the alert, found-item and mail repositories on Cloud Firestore,
// using the collection layout of the Firebase deployment (found_items, lost_alerts, mail).
package firestore

import (
	"context"
	"fmt"

	fs "cloud.google.com/go/firestore"
	"google.golang.org/api/option"
)

// Config holds Firestore connection parameters.
type Config struct {
	ProjectID       string
	CredentialsFile string // empty = application default credentials
}

// NewClient opens a Firestore client. Honors FIRESTORE_EMULATOR_HOST.
func NewClient(ctx context.Context, cfg Config) (*fs.Client, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("project id is required")
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := fs.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create firestore client: %w", err)
	}
	return client, nil
}

// Pinger checks Firestore reachability by reading a single alert document reference.
type Pinger struct {
	client *fs.Client
}

// NewPinger creates a Firestore health probe.
func NewPinger(c *fs.Client) *Pinger {
	return &Pinger{client: c}
}

// Ping lists at most one document; an empty collection is healthy.
func (p *Pinger) Ping(ctx context.Context) error {
	it := p.client.Collection(alertsCollection).Limit(1).Documents(ctx)
	defer it.Stop()
	if _, err := it.Next(); err != nil && !isDone(err) {
		return fmt.Errorf("firestore ping: %w", err)
	}
	return nil
}
