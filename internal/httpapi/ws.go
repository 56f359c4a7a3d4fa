package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/edoliveri/parley/internal/signal"
)

// handleSignalWS runs one signaling connection: a writer goroutine
// drains the relay client's outbound queue while the read loop parses
// client frames and drives the hub.
func (s *Server) handleSignalWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	client := s.hub.Register()
	s.metrics.RelayConnections.Set(float64(s.hub.ConnCount()))

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-client.Outbound():
				if !ok {
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
				if err := conn.WriteJSON(msg); err != nil {
					cancel()
					return
				}
				if t, ok := signalTypeOf(msg); ok {
					s.metrics.WSMessages.WithLabelValues("outbound", string(t)).Inc()
				}
			}
		}
	}()

	conn.SetReadLimit(64 << 10)
	_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		return nil
	})

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if msgType != websocket.TextMessage {
			continue
		}
		parsed, err := signal.ParseClientMessage(data)
		if err != nil {
			s.hub.SendError(client, "invalid_client_message", err.Error())
			continue
		}
		if t, ok := signalTypeOf(parsed); ok {
			s.metrics.WSMessages.WithLabelValues("inbound", string(t)).Inc()
		}

		switch m := parsed.(type) {
		case signal.JoinRoom:
			s.hub.Join(client, m.RoomID)
			s.metrics.RelayRooms.Set(float64(s.hub.RoomCount()))
		case signal.SendOffer:
			callerID := m.CallerID
			if callerID == "" {
				callerID = client.ID
			}
			s.hub.SendOffer(m.TargetConnID, callerID, m.Signal)
		case signal.AcceptOffer:
			s.hub.AcceptOffer(m.CallerID, client.ID, m.Signal)
		}
	}

	// Disconnect first so remaining room members get their peer-left
	// before this connection's writer is torn down.
	s.hub.Disconnect(client)
	cancel()
	<-writerDone
	s.metrics.RelayConnections.Set(float64(s.hub.ConnCount()))
	s.metrics.RelayRooms.Set(float64(s.hub.RoomCount()))
}

func signalTypeOf(v any) (signal.MessageType, bool) {
	switch m := v.(type) {
	case signal.JoinRoom:
		return m.Type, true
	case signal.SendOffer:
		return m.Type, true
	case signal.AcceptOffer:
		return m.Type, true
	case signal.Connected:
		return m.Type, true
	case signal.PeerJoined:
		return m.Type, true
	case signal.PeerLeft:
		return m.Type, true
	case signal.ReceiveOffer:
		return m.Type, true
	case signal.CallAccepted:
		return m.Type, true
	case signal.ErrorEvent:
		return m.Type, true
	default:
		return "", false
	}
}
