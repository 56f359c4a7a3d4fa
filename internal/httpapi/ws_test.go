package httpapi

import (
	"encoding/json"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/edoliveri/parley/internal/signal"
)

func dialSignal(t *testing.T, httpURL string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(httpURL, "http") + "/v1/signal/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial %s error = %v", wsURL, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame map[string]any
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read frame error = %v", err)
	}
	return frame
}

func readFrameOfType(t *testing.T, conn *websocket.Conn, want signal.MessageType) map[string]any {
	t.Helper()
	frame := readFrame(t, conn)
	if frame["type"] != string(want) {
		t.Fatalf("frame type = %v, want %s (frame: %+v)", frame["type"], want, frame)
	}
	return frame
}

func writeFrame(t *testing.T, conn *websocket.Conn, frame any) {
	t.Helper()
	_ = conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
	if err := conn.WriteJSON(frame); err != nil {
		t.Fatalf("write frame error = %v", err)
	}
}

// syncConn proves the server consumed every frame written so far on
// this connection: frames are handled in order, so once the deliberate
// bad frame comes back as an error-event, earlier frames are done.
func syncConn(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	writeFrame(t, conn, map[string]string{"type": "sync-probe"})
	readFrameOfType(t, conn, signal.TypeErrorEvent)
}

func TestSignalWSHandshakeBetweenTwoPeers(t *testing.T) {
	ts := newTestServer(t, nil)
	roomID := "WSROOM" + strconv.FormatInt(time.Now().UnixNano()%100, 10)

	caller := dialSignal(t, ts.URL)
	callerID := readFrameOfType(t, caller, signal.TypeConnected)["conn_id"].(string)

	responder := dialSignal(t, ts.URL)
	responderID := readFrameOfType(t, responder, signal.TypeConnected)["conn_id"].(string)
	if callerID == "" || callerID == responderID {
		t.Fatalf("conn ids not distinct: %q vs %q", callerID, responderID)
	}

	writeFrame(t, caller, signal.JoinRoom{Type: signal.TypeJoinRoom, RoomID: roomID})
	syncConn(t, caller)
	writeFrame(t, responder, signal.JoinRoom{Type: signal.TypeJoinRoom, RoomID: roomID})

	joined := readFrameOfType(t, caller, signal.TypePeerJoined)
	if joined["conn_id"] != responderID {
		t.Fatalf("peer-joined conn_id = %v, want %q", joined["conn_id"], responderID)
	}

	writeFrame(t, caller, signal.SendOffer{
		Type:         signal.TypeSendOffer,
		TargetConnID: responderID,
		CallerID:     callerID,
		Signal:       json.RawMessage(`{"sdp":"v=0 offer"}`),
	})
	offer := readFrameOfType(t, responder, signal.TypeReceiveOffer)
	if offer["caller_id"] != callerID {
		t.Fatalf("receive-offer caller_id = %v, want %q", offer["caller_id"], callerID)
	}

	writeFrame(t, responder, signal.AcceptOffer{
		Type:     signal.TypeAcceptOffer,
		CallerID: callerID,
		Signal:   json.RawMessage(`{"sdp":"answer"}`),
	})
	accepted := readFrameOfType(t, caller, signal.TypeCallAccepted)
	if accepted["responder_id"] != responderID {
		t.Fatalf("call-accepted responder_id = %v, want %q", accepted["responder_id"], responderID)
	}

	responder.Close()
	left := readFrameOfType(t, caller, signal.TypePeerLeft)
	if left["conn_id"] != responderID {
		t.Fatalf("peer-left conn_id = %v, want %q", left["conn_id"], responderID)
	}
}

func TestSignalWSRejectsMalformedFrameWithErrorEvent(t *testing.T) {
	ts := newTestServer(t, nil)

	conn := dialSignal(t, ts.URL)
	readFrameOfType(t, conn, signal.TypeConnected)

	writeFrame(t, conn, map[string]string{"type": "wat"})
	errFrame := readFrameOfType(t, conn, signal.TypeErrorEvent)
	if errFrame["code"] != "invalid_client_message" {
		t.Fatalf("error code = %v, want invalid_client_message", errFrame["code"])
	}
}

func TestSignalWSOfferToUnknownTargetIsSilent(t *testing.T) {
	ts := newTestServer(t, nil)

	conn := dialSignal(t, ts.URL)
	connID := readFrameOfType(t, conn, signal.TypeConnected)["conn_id"].(string)

	writeFrame(t, conn, signal.SendOffer{
		Type:         signal.TypeSendOffer,
		TargetConnID: "never-joined",
		CallerID:     connID,
		Signal:       json.RawMessage(`{"sdp":"x"}`),
	})

	// No error frame, no crash: the connection stays usable.
	writeFrame(t, conn, signal.JoinRoom{Type: signal.TypeJoinRoom, RoomID: "STILLOK1"})
	writeFrame(t, conn, map[string]string{"type": "wat"})
	errFrame := readFrameOfType(t, conn, signal.TypeErrorEvent)
	if errFrame["code"] != "invalid_client_message" {
		t.Fatalf("unexpected frame after silent drop: %+v", errFrame)
	}
}
