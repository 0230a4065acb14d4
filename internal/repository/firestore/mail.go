package firestore

import (
	"context"
	"fmt"

	fs "cloud.google.com/go/firestore"

	"github.com/kailas-cloud/finder/internal/domain/notification"
)

// MailQueue implements usecase/notify.MailQueue on the Trigger Email "mail" collection.
type MailQueue struct {
	client *fs.Client
}

// NewMailQueue creates a Firestore-backed mail queue.
func NewMailQueue(c *fs.Client) *MailQueue {
	return &MailQueue{client: c}
}

// Enqueue adds one mail document; delivery is owned by the mail extension.
func (q *MailQueue) Enqueue(ctx context.Context, req notification.Request) error {
	if _, _, err := q.client.Collection(mailCollection).Add(ctx, mailData(req)); err != nil {
		return fmt.Errorf("enqueue mail for alert %s: %w", req.AlertID(), err)
	}
	return nil
}

func mailData(req notification.Request) map[string]any {
	return map[string]any{
		"to": req.Recipient(),
		"message": map[string]any{
			"subject": req.Subject(),
			"html":    req.Body(),
		},
		"alertId":   req.AlertID(),
		"itemId":    req.ItemID(),
		"createdAt": fs.ServerTimestamp,
	}
}
