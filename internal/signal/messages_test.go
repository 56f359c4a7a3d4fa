package signal

import (
	"errors"
	"testing"
)

func TestParseClientMessageJoinRoom(t *testing.T) {
	raw := []byte(`{"type":"join-room","room_id":"ABCD2345"}`)
	msg, err := ParseClientMessage(raw)
	if err != nil {
		t.Fatalf("ParseClientMessage() error = %v", err)
	}

	join, ok := msg.(JoinRoom)
	if !ok {
		t.Fatalf("message type = %T, want JoinRoom", msg)
	}
	if join.RoomID != "ABCD2345" {
		t.Fatalf("RoomID = %q, want %q", join.RoomID, "ABCD2345")
	}
}

func TestParseClientMessageSendOffer(t *testing.T) {
	raw := []byte(`{"type":"send-offer","target_conn_id":"c2","caller_id":"c1","signal":{"sdp":"v=0"}}`)
	msg, err := ParseClientMessage(raw)
	if err != nil {
		t.Fatalf("ParseClientMessage() error = %v", err)
	}

	offer, ok := msg.(SendOffer)
	if !ok {
		t.Fatalf("message type = %T, want SendOffer", msg)
	}
	if offer.TargetConnID != "c2" || offer.CallerID != "c1" {
		t.Fatalf("unexpected offer routing: %+v", offer)
	}
	if string(offer.Signal) != `{"sdp":"v=0"}` {
		t.Fatalf("Signal = %s, want untouched payload", offer.Signal)
	}
}

func TestParseClientMessageAcceptOffer(t *testing.T) {
	raw := []byte(`{"type":"accept-offer","caller_id":"c1","signal":{"sdp":"answer"}}`)
	msg, err := ParseClientMessage(raw)
	if err != nil {
		t.Fatalf("ParseClientMessage() error = %v", err)
	}

	accept, ok := msg.(AcceptOffer)
	if !ok {
		t.Fatalf("message type = %T, want AcceptOffer", msg)
	}
	if accept.CallerID != "c1" {
		t.Fatalf("CallerID = %q, want %q", accept.CallerID, "c1")
	}
}

func TestParseClientMessageRejectsUnknownType(t *testing.T) {
	_, err := ParseClientMessage([]byte(`{"type":"wat"}`))
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("error = %v, want ErrUnsupportedType", err)
	}
}

func TestParseClientMessageRejectsInvalidEnvelope(t *testing.T) {
	if _, err := ParseClientMessage([]byte(`not json`)); err == nil {
		t.Fatalf("expected envelope error")
	}
}

func TestParseClientMessageRejectsMissingFields(t *testing.T) {
	cases := []string{
		`{"type":"join-room"}`,
		`{"type":"send-offer","caller_id":"c1","signal":{"a":1}}`,
		`{"type":"send-offer","target_conn_id":"c2"}`,
		`{"type":"accept-offer","signal":{"a":1}}`,
	}
	for _, raw := range cases {
		if _, err := ParseClientMessage([]byte(raw)); err == nil {
			t.Fatalf("ParseClientMessage(%s) expected validation error", raw)
		}
	}
}
