package notify

import (
	"context"

	"github.com/kailas-cloud/finder/internal/domain/notification"
)

// MailQueue hands a message to the asynchronous mail delivery mechanism.
type MailQueue interface {
	Enqueue(ctx context.Context, req notification.Request) error
}
