package realtime

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait are used for heartbeat (seconds).
	PingInterval = 30
	PongWait     = 60
)

// Hub maintains room_id -> set of connections and broadcasts messages.
// Rooms are keyed by the room's database ID, never the join code: codes are
// reused across sessions. Redis pub/sub fans events out across instances.
type Hub struct {
	// roomID -> map[clientID]*Client
	rooms    map[uuid.UUID]map[string]*Client
	subs     map[uuid.UUID]func() // cancel Redis subscription per room
	mu       sync.RWMutex
	logger   *zap.Logger
	redis    RedisPublisher
	redisSub RedisSubscriber
}

// RedisPublisher is the interface for publishing to Redis (for cross-instance broadcast).
type RedisPublisher interface {
	PublishRoomEvent(roomID uuid.UUID, event string, payload []byte) error
}

// RedisSubscriber subscribes to room channels and invokes handler for incoming events.
type RedisSubscriber interface {
	SubscribeRoom(roomID uuid.UUID, handler func(event string, payload []byte)) (cancel func(), err error)
}

// NewHub creates a new WebSocket hub.
func NewHub(logger *zap.Logger, redisPub RedisPublisher, redisSub RedisSubscriber) *Hub {
	return &Hub{
		rooms:    make(map[uuid.UUID]map[string]*Client),
		subs:     make(map[uuid.UUID]func()),
		logger:   logger,
		redis:    redisPub,
		redisSub: redisSub,
	}
}

// Join adds a client to a room channel. Starts the Redis subscription for the
// room when the first client arrives.
func (h *Hub) Join(roomID uuid.UUID, c *Client) {
	h.mu.Lock()
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[string]*Client)
		if h.redisSub != nil {
			cancel, err := h.redisSub.SubscribeRoom(roomID, func(event string, payload []byte) {
				h.BroadcastToRoom(roomID, event, json.RawMessage(payload))
			})
			if err == nil {
				h.subs[roomID] = cancel
			}
		}
	}
	h.rooms[roomID][c.ID] = c
	h.mu.Unlock()
	h.logger.Debug("client joined room channel",
		zap.String("client_id", c.ID), zap.String("room_id", roomID.String()))
}

// Leave removes a client from a room channel. Cancels the Redis subscription
// when the last client leaves.
func (h *Hub) Leave(roomID uuid.UUID, c *Client) {
	h.mu.Lock()
	if m, ok := h.rooms[roomID]; ok {
		delete(m, c.ID)
		if len(m) == 0 {
			delete(h.rooms, roomID)
			if cancel, ok := h.subs[roomID]; ok {
				cancel()
				delete(h.subs, roomID)
			}
		}
	}
	h.mu.Unlock()
	h.logger.Debug("client left room channel",
		zap.String("client_id", c.ID), zap.String("room_id", roomID.String()))
}

// BroadcastToRoom sends a message to all clients in a room (local only).
func (h *Hub) BroadcastToRoom(roomID uuid.UUID, event string, payload interface{}) {
	var data []byte
	switch v := payload.(type) {
	case []byte:
		data = v
	case json.RawMessage:
		data = v
	default:
		data, _ = json.Marshal(payload)
	}
	msg := WSMessage{Event: event, Data: data}

	h.mu.RLock()
	clients := h.rooms[roomID]
	h.mu.RUnlock()

	for _, c := range clients {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
}

// BroadcastToRoomAndPublish delivers an event to every instance's clients.
// With Redis configured it publishes only: the subscriber callback performs
// the broadcast once per instance (this one included), so local clients never
// see the event twice. Without Redis it broadcasts locally.
func (h *Hub) BroadcastToRoomAndPublish(roomID uuid.UUID, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if h.redis != nil {
		pubErr := h.redis.PublishRoomEvent(roomID, event, data)
		if pubErr == nil {
			return
		}
		h.logger.Warn("redis publish failed, broadcasting locally",
			zap.String("event", event), zap.Error(pubErr))
	}
	h.BroadcastToRoom(roomID, event, json.RawMessage(data))
}

// SendToClient sends a message to a single client in a room (e.g. direct host
// notifications keyed by the room's stored host client id).
func (h *Hub) SendToClient(roomID uuid.UUID, clientID string, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	msg := WSMessage{Event: event, Data: data}
	h.mu.RLock()
	c, ok := h.rooms[roomID][clientID]
	h.mu.RUnlock()
	if !ok || c == nil {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}

// FindClientByUser scans a room's connections for one belonging to a user.
func (h *Hub) FindClientByUser(roomID, userID uuid.UUID) *Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.rooms[roomID] {
		if c.UserID == userID {
			return c
		}
	}
	return nil
}

// DisconnectRoomExcept force-closes every connection in a room except the one
// with keepClientID. Used on session end, where only the host stays connected.
func (h *Hub) DisconnectRoomExcept(roomID uuid.UUID, keepClientID string) {
	h.mu.RLock()
	var victims []*Client
	for id, c := range h.rooms[roomID] {
		if id != keepClientID {
			victims = append(victims, c)
		}
	}
	h.mu.RUnlock()
	for _, c := range victims {
		c.CloseSend()
	}
}

// RoomSize returns the number of connected clients in a room.
func (h *Hub) RoomSize(roomID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}
