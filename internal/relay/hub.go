package relay

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	"github.com/edoliveri/parley/internal/signal"
)

// outboundBuffer bounds per-connection queueing. Handshake traffic is
// a handful of small frames; a full queue means the reader on the
// other side is gone and dropping is fine.
const outboundBuffer = 32

// Client is one connected signaling participant. The transport layer
// drains Outbound and writes frames to the socket.
type Client struct {
	ID   string
	out  chan any
	room string
}

func (c *Client) Outbound() <-chan any {
	return c.out
}

// Hub multiplexes signaling connections into rooms named after
// meeting ids and forwards handshake frames point-to-point. Delivery
// is fire-and-forget: a frame to an unknown or saturated target is
// dropped, never an error to the sender.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	rooms   map[string]map[string]*Client
	onEvent func(event, outcome string)
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[string]*Client),
	}
}

// SetDeliveryHook observes every delivery attempt by event type and
// outcome (delivered, drop_unknown, drop_full).
func (h *Hub) SetDeliveryHook(hook func(event, outcome string)) {
	h.onEvent = hook
}

// Register admits a new connection and queues its Connected frame so
// the client learns its own id before any peer events arrive.
func (h *Hub) Register() *Client {
	c := &Client{
		ID:  uuid.NewString(),
		out: make(chan any, outboundBuffer),
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.ID] = c
	h.deliver(c, signal.Connected{Type: signal.TypeConnected, ConnID: c.ID})
	return c
}

// Join moves the client into the given room and notifies existing
// members. Joins are serialized under the hub lock, so members see
// exactly one peer-joined per join, in join order.
func (h *Hub) Join(c *Client, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c.ID]; !ok {
		return
	}
	if c.room == roomID {
		return
	}
	h.leaveRoomLocked(c)

	members := h.rooms[roomID]
	if members == nil {
		members = make(map[string]*Client)
		h.rooms[roomID] = members
	}
	for _, peer := range members {
		h.deliver(peer, signal.PeerJoined{Type: signal.TypePeerJoined, ConnID: c.ID})
	}
	members[c.ID] = c
	c.room = roomID
}

// SendOffer forwards an SDP offer to the target connection. The
// target is looked up globally, not within the sender's room; the
// token is the only admission control.
func (h *Hub) SendOffer(targetConnID, callerID string, sig json.RawMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	target, ok := h.clients[targetConnID]
	if !ok {
		h.dropped("receive-offer", "drop_unknown")
		return
	}
	h.deliver(target, signal.ReceiveOffer{Type: signal.TypeReceiveOffer, CallerID: callerID, Signal: sig})
}

// AcceptOffer routes the responder's answer back to the caller.
func (h *Hub) AcceptOffer(callerConnID, responderID string, sig json.RawMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	caller, ok := h.clients[callerConnID]
	if !ok {
		h.dropped("call-accepted", "drop_unknown")
		return
	}
	h.deliver(caller, signal.CallAccepted{Type: signal.TypeCallAccepted, ResponderID: responderID, Signal: sig})
}

// SendError reports a client-fault (such as an unparsable frame) back
// on the client's own connection.
func (h *Hub) SendError(c *Client, code, detail string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[c.ID]; !ok {
		return
	}
	h.deliver(c, signal.ErrorEvent{Type: signal.TypeErrorEvent, Code: code, Detail: detail})
}

// Disconnect removes the client, tells remaining room members, and
// closes its outbound channel so the transport writer can exit.
func (h *Hub) Disconnect(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c.ID]; !ok {
		return
	}
	delete(h.clients, c.ID)
	h.leaveRoomLocked(c)
	close(c.out)
}

func (h *Hub) ConnCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

// leaveRoomLocked detaches the client from its current room, notifies
// the peers left behind, and tears down the room when it empties.
// Caller must hold h.mu.
func (h *Hub) leaveRoomLocked(c *Client) {
	if c.room == "" {
		return
	}
	members := h.rooms[c.room]
	delete(members, c.ID)
	for _, peer := range members {
		h.deliver(peer, signal.PeerLeft{Type: signal.TypePeerLeft, ConnID: c.ID})
	}
	if len(members) == 0 {
		delete(h.rooms, c.room)
	}
	c.room = ""
}

// deliver enqueues without blocking. Caller must hold h.mu in at
// least read mode, which is what keeps the send safe against a
// concurrent close in Disconnect.
func (h *Hub) deliver(c *Client, msg any) {
	event := "unknown"
	switch m := msg.(type) {
	case signal.Connected:
		event = string(m.Type)
	case signal.PeerJoined:
		event = string(m.Type)
	case signal.PeerLeft:
		event = string(m.Type)
	case signal.ReceiveOffer:
		event = string(m.Type)
	case signal.CallAccepted:
		event = string(m.Type)
	case signal.ErrorEvent:
		event = string(m.Type)
	}
	select {
	case c.out <- msg:
		if h.onEvent != nil {
			h.onEvent(event, "delivered")
		}
	default:
		h.dropped(event, "drop_full")
	}
}

func (h *Hub) dropped(event, outcome string) {
	if h.onEvent != nil {
		h.onEvent(event, outcome)
	}
}
