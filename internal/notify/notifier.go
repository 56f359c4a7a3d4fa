package notify

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
)

// Invitation is everything a delivery channel needs to compose an
// invite message. Contact is opaque to us (phone number, email, ...).
type Invitation struct {
	Contact   string        `json:"contact"`
	MeetingID string        `json:"meeting_id"`
	JoinLink  string        `json:"join_link"`
	ExpiresIn time.Duration `json:"expires_in"`
}

// Notifier delivers an invitation through some out-of-band channel.
// Delivery is best-effort: a failure is reported to the caller but
// never invalidates the meeting itself.
type Notifier interface {
	Deliver(ctx context.Context, inv Invitation) error
}

// New selects a notifier by mode: "log" writes the invite to the
// process log (local/dev default), "webhook" posts it to an external
// sender service.
func New(mode, webhookURL string, timeout time.Duration) (Notifier, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "log":
		return &LogNotifier{}, nil
	case "webhook":
		if strings.TrimSpace(webhookURL) == "" {
			return nil, fmt.Errorf("NOTIFY_MODE=webhook but NOTIFY_WEBHOOK_URL is not set")
		}
		return NewWebhookNotifier(webhookURL, timeout), nil
	default:
		return nil, fmt.Errorf("invalid NOTIFY_MODE: %q (expected log|webhook)", mode)
	}
}

// LogNotifier prints the invitation instead of sending it. Useful
// when no delivery channel is wired up yet.
type LogNotifier struct{}

func (n *LogNotifier) Deliver(_ context.Context, inv Invitation) error {
	log.Printf("invitation for %s: meeting %s, link %s, expires in %s",
		inv.Contact, inv.MeetingID, inv.JoinLink, inv.ExpiresIn)
	return nil
}
