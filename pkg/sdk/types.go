package finder

import (
	"github.com/kailas-cloud/finder/internal/domain/alert"
	"github.com/kailas-cloud/finder/internal/domain/item"
)

// AlertInput describes a lost object to watch for. Embedding is computed from
// Description when empty.
type AlertInput struct {
	Email       string
	Description string
	Embedding   []float32
}

// FoundInput describes a found object. Embedding is computed from Description when empty.
type FoundInput struct {
	Description string
	ImageURL    string // stored and shown in notifications; never vectorized by the SDK
	Embedding   []float32
}

// Alert is a stored lost-item alert.
type Alert struct {
	ID          string
	Email       string
	Description string
	Dimensions  int
}

// FoundItem is a stored found item.
type FoundItem struct {
	ID          string
	Description string
	ImageURL    string
	Dimensions  int
}

// Outcome summarizes one match pass.
type Outcome struct {
	Matches  int // alerts above the threshold
	Enqueued int // notifications handed to the mail queue
	Failed   int // notifications that could not be enqueued
}

func alertFromDomain(a *alert.Alert) Alert {
	return Alert{
		ID:          a.ID(),
		Email:       a.Email(),
		Description: a.Description(),
		Dimensions:  len(a.Embedding()),
	}
}

func foundFromDomain(f *item.Found) FoundItem {
	return FoundItem{
		ID:          f.ID(),
		Description: f.Description(),
		ImageURL:    f.ImageURL(),
		Dimensions:  len(f.Embedding()),
	}
}
