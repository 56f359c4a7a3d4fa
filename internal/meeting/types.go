package meeting

import (
	"errors"
	"time"
)

// Status tracks the invitee-facing lifecycle of an invitation. Expiry
// is not a status: it is recomputed from ExpiresAt on every read.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
)

var (
	ErrNotFound       = errors.New("meeting not found")
	ErrDuplicateID    = errors.New("meeting id already live")
	ErrMissingContact = errors.New("recipient contact is required")
	ErrInvalidSlot    = errors.New("slot time must match 24-hour HH:MM")
	ErrTokenExhausted = errors.New("meeting id space exhausted")
)

// Meeting is one scheduled-call invitation. The ID doubles as the
// signaling room name once both parties join the call.
type Meeting struct {
	ID               string    `json:"id"`
	RecipientContact string    `json:"recipient_contact"`
	SlotTime         string    `json:"slot_time,omitempty"`
	Status           Status    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
	ExpiresAt        time.Time `json:"expires_at"`
}

// Reason explains why a validation came back invalid.
type Reason string

const (
	ReasonNotFound Reason = "not_found"
	ReasonExpired  Reason = "expired"
)

// Validation is the result of checking an invitation link. NotFound
// and Expired are expected outcomes, not errors: stale links get
// validated all the time.
type Validation struct {
	Valid    bool   `json:"valid"`
	SlotTime string `json:"slot_time,omitempty"`
	Reason   Reason `json:"reason,omitempty"`
}

// CreateRequest defines payload for creating a new invitation.
type CreateRequest struct {
	RecipientContact string `json:"recipient_contact"`
}

// CreateResponse returns created invitation metadata. Notification
// delivery is best-effort; a failed delivery still leaves the meeting
// usable via its id.
type CreateResponse struct {
	ID                string    `json:"id"`
	Status            Status    `json:"status"`
	ExpiresAt         time.Time `json:"expires_at"`
	JoinLink          string    `json:"join_link"`
	NotificationSent  bool      `json:"notification_sent"`
	NotificationError string    `json:"notification_error,omitempty"`
}

// ConfirmSlotRequest carries the invitee's chosen time of day.
type ConfirmSlotRequest struct {
	SlotTime string `json:"slot_time"`
}
