// Package notification builds outbound match notifications.
package notification

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/kailas-cloud/finder/internal/domain/match"
)

// DefaultSubject is the subject line of match notifications.
const DefaultSubject = "We found a potential match for your lost item!"

var bodyTemplate = template.Must(template.New("match").Parse(`
<div style="font-family: Arial, sans-serif; padding: 20px; background-color: #f9f9f9; border-radius: 10px;">
  <h2 style="color: #2563EB;">Finder AI Match Alert</h2>
  <p>Good news! An item was just uploaded that matches the description of what you lost.</p>

  <div style="background-color: white; padding: 15px; border-radius: 8px; border: 1px solid #ddd; margin: 20px 0;">
    <p><strong>Your Search:</strong> "{{.Search}}"</p>
    <p><strong>Match Confidence:</strong> <span style="color: #10B981; font-weight: bold;">{{.Percent}}%</span></p>
  </div>

  <p><strong>Item Description:</strong> {{.Item}}</p>
  {{if .ImageURL}}<img src="{{.ImageURL}}" width="300" style="border-radius: 8px; margin-top: 10px;" />{{end}}

  <br/><br/>
  <p>Check the App for more details.</p>
</div>
`))

// Request is one outbound message, handed to the mail queue for asynchronous delivery.
type Request struct {
	recipient string
	subject   string
	body      string
	alertID   string
	itemID    string
}

// Reconstruct creates a Request without rendering (tests, queue hydration).
func Reconstruct(recipient, subject, body, alertID, itemID string) Request {
	return Request{recipient: recipient, subject: subject, body: body, alertID: alertID, itemID: itemID}
}

// Recipient returns the destination address.
func (r *Request) Recipient() string { return r.recipient }

// Subject returns the subject line.
func (r *Request) Subject() string { return r.subject }

// Body returns the HTML body.
func (r *Request) Body() string { return r.body }

// AlertID returns the matched alert identifier.
func (r *Request) AlertID() string { return r.alertID }

// ItemID returns the found item identifier.
func (r *Request) ItemID() string { return r.itemID }

// FromMatch renders the notification for a match result.
func FromMatch(res *match.Result, subject string) (Request, error) {
	if subject == "" {
		subject = DefaultSubject
	}
	a := res.Alert()
	f := res.Found()

	var buf bytes.Buffer
	err := bodyTemplate.Execute(&buf, struct {
		Search   string
		Percent  int
		Item     string
		ImageURL string
	}{
		Search:   a.Description(),
		Percent:  res.Percent(),
		Item:     f.Description(),
		ImageURL: f.ImageURL(),
	})
	if err != nil {
		return Request{}, fmt.Errorf("render notification: %w", err)
	}

	return Request{
		recipient: a.Email(),
		subject:   subject,
		body:      buf.String(),
		alertID:   a.ID(),
		itemID:    f.ID(),
	}, nil
}
