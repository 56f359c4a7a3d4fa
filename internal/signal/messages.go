package signal

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MessageType identifies websocket payload variants.
type MessageType string

const (
	// Client → server.
	TypeJoinRoom    MessageType = "join-room"
	TypeSendOffer   MessageType = "send-offer"
	TypeAcceptOffer MessageType = "accept-offer"

	// Server → client.
	TypeConnected    MessageType = "connected"
	TypePeerJoined   MessageType = "peer-joined"
	TypePeerLeft     MessageType = "peer-left"
	TypeReceiveOffer MessageType = "receive-offer"
	TypeCallAccepted MessageType = "call-accepted"
	TypeErrorEvent   MessageType = "error-event"
)

var ErrUnsupportedType = errors.New("unsupported message type")

type Envelope struct {
	Type MessageType `json:"type"`
}

// JoinRoom puts the connection into the room named after the meeting
// id so peers can find each other.
type JoinRoom struct {
	Type   MessageType `json:"type"`
	RoomID string      `json:"room_id"`
}

// SendOffer asks the relay to forward an SDP offer to one target
// connection. Signal is opaque to the relay.
type SendOffer struct {
	Type         MessageType     `json:"type"`
	TargetConnID string          `json:"target_conn_id"`
	CallerID     string          `json:"caller_id"`
	Signal       json.RawMessage `json:"signal"`
}

// AcceptOffer answers a previously received offer back to the caller.
type AcceptOffer struct {
	Type     MessageType     `json:"type"`
	CallerID string          `json:"caller_id"`
	Signal   json.RawMessage `json:"signal"`
}

// Connected tells a freshly opened connection its own id, which peers
// will use as an offer target.
type Connected struct {
	Type   MessageType `json:"type"`
	ConnID string      `json:"conn_id"`
}

type PeerJoined struct {
	Type   MessageType `json:"type"`
	ConnID string      `json:"conn_id"`
}

type PeerLeft struct {
	Type   MessageType `json:"type"`
	ConnID string      `json:"conn_id"`
}

type ReceiveOffer struct {
	Type     MessageType     `json:"type"`
	CallerID string          `json:"caller_id"`
	Signal   json.RawMessage `json:"signal"`
}

type CallAccepted struct {
	Type        MessageType     `json:"type"`
	ResponderID string          `json:"responder_id"`
	Signal      json.RawMessage `json:"signal"`
}

type ErrorEvent struct {
	Type   MessageType `json:"type"`
	Code   string      `json:"code"`
	Detail string      `json:"detail"`
}

// ParseClientMessage decodes one client frame into its typed struct.
func ParseClientMessage(raw []byte) (any, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}

	switch env.Type {
	case TypeJoinRoom:
		var msg JoinRoom
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.RoomID == "" {
			return nil, errors.New("invalid join-room: missing room_id")
		}
		return msg, nil
	case TypeSendOffer:
		var msg SendOffer
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.TargetConnID == "" || len(msg.Signal) == 0 {
			return nil, errors.New("invalid send-offer: missing target_conn_id or signal")
		}
		return msg, nil
	case TypeAcceptOffer:
		var msg AcceptOffer
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.CallerID == "" || len(msg.Signal) == 0 {
			return nil, errors.New("invalid accept-offer: missing caller_id or signal")
		}
		return msg, nil
	default:
		return nil, ErrUnsupportedType
	}
}
