// Package mailqueue hands outbound notifications to a mail delivery worker via Valkey/Redis.
//
// Each message is a JSON document <prefix>mail:<uuid> in the Trigger Email shape
// ({to, message: {subject, html}}), announced on the <prefix>mail_queue stream.
package mailqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/finder/internal/domain"
	"github.com/kailas-cloud/finder/internal/domain/notification"
)

// StreamField is the stream entry field that carries the mail document ID.
const StreamField = "mail_id"

// store is the consumer interface for the mail queue (ISP).
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	XAdd(ctx context.Context, stream string, fields map[string]string) (string, error)
}

// Queue implements usecase/notify.MailQueue.
type Queue struct {
	store  store
	prefix string
	newID  func() string
	now    func() time.Time
}

// New creates a mail queue.
func New(s store, prefix string) *Queue {
	return &Queue{store: s, prefix: prefix, newID: uuid.NewString, now: time.Now}
}

// Record is the persisted mail document.
type Record struct {
	To        string  `json:"to"`
	Message   Message `json:"message"`
	AlertID   string  `json:"alertId,omitempty"`
	ItemID    string  `json:"itemId,omitempty"`
	CreatedAt int64   `json:"createdAt"`
}

// Message is the subject and HTML body of a mail record.
type Message struct {
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// Enqueue stores the message and announces it to delivery workers.
func (q *Queue) Enqueue(ctx context.Context, req notification.Request) error {
	id := q.newID()
	data, err := json.Marshal(Record{
		To:        req.Recipient(),
		Message:   Message{Subject: req.Subject(), HTML: req.Body()},
		AlertID:   req.AlertID(),
		ItemID:    req.ItemID(),
		CreatedAt: q.now().UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("marshal mail: %w", err)
	}

	key := q.prefix + domain.MailCollection + ":" + id
	if err := q.store.JSONSet(ctx, key, "$", data); err != nil {
		return fmt.Errorf("json.set %s: %w", key, err)
	}
	if _, err := q.store.XAdd(ctx, q.stream(), map[string]string{StreamField: id}); err != nil {
		return fmt.Errorf("announce mail %s: %w", id, err)
	}
	return nil
}

func (q *Queue) stream() string {
	return q.prefix + domain.MailCollection + "_queue"
}
