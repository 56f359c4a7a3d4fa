package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// WebhookNotifier hands the invitation to an external sender service
// (email/SMS/WhatsApp gateway) as a JSON POST.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

func NewWebhookNotifier(url string, timeout time.Duration) *WebhookNotifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

type webhookPayload struct {
	Contact     string `json:"contact"`
	MeetingID   string `json:"meeting_id"`
	JoinLink    string `json:"join_link"`
	ExpiresInMS int64  `json:"expires_in_ms"`
}

func (n *WebhookNotifier) Deliver(ctx context.Context, inv Invitation) error {
	body, err := json.Marshal(webhookPayload{
		Contact:     inv.Contact,
		MeetingID:   inv.MeetingID,
		JoinLink:    inv.JoinLink,
		ExpiresInMS: inv.ExpiresIn.Milliseconds(),
	})
	if err != nil {
		return fmt.Errorf("encode invitation: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("deliver invitation: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("webhook responded %d", res.StatusCode)
	}
	return nil
}
