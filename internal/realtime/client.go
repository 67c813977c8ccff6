package realtime

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // allow all origins in dev; restrict in production
	},
}

// WSMessage is the WebSocket message envelope.
type WSMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// ErrorPayload is sent as an explicit "error" event when a request fails.
// Authorization failures are signaled, never silently dropped.
type ErrorPayload struct {
	Event   string `json:"event"` // the request event that failed
	Message string `json:"message"`
}

// Client represents a single authenticated WebSocket connection. A client
// joins at most one room channel at a time, after the join events run.
type Client struct {
	ID     string
	UserID uuid.UUID
	Email  string
	Role   string

	// roomID is the channel the client has joined; zero until a join event.
	// Only touched from the client's own read loop.
	roomID uuid.UUID

	hub       *Hub
	conn      *websocket.Conn
	send      chan WSMessage
	closeOnce sync.Once
	logger    *zap.Logger
}

// ServeWs handles the WebSocket upgrade and runs the client loop. The JWT is
// validated from the query token before the upgrade; bad tokens never reach an
// event handler.
func ServeWs(hub *Hub, coord *Coordinator, logger *zap.Logger,
	jwtValidate func(token string) (userID uuid.UUID, email, role string, err error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "token required"})
			return
		}
		userID, email, role, err := jwtValidate(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}

		client := &Client{
			ID:     uuid.New().String(),
			UserID: userID,
			Email:  email,
			Role:   role,
			hub:    hub,
			conn:   conn,
			send:   make(chan WSMessage, 256),
			logger: logger,
		}
		go client.writePump()
		client.readPump(coord)
	}
}

// Send queues a message directly for this client.
func (c *Client) Send(event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	select {
	case c.send <- WSMessage{Event: event, Data: data}:
	default:
	}
}

// SendError emits an explicit error event for a failed request.
func (c *Client) SendError(requestEvent, message string) {
	c.Send("error", ErrorPayload{Event: requestEvent, Message: message})
}

// CloseSend force-closes the connection; both pumps unwind from the conn error.
func (c *Client) CloseSend() {
	c.closeOnce.Do(func() {
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		_ = c.conn.Close()
	})
}

func (c *Client) readPump(coord *Coordinator) {
	defer func() {
		coord.Disconnect(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(65536)
	_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
		return nil
	})

	for {
		var msg WSMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			break
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))

		switch msg.Event {
		case "student-join-room":
			coord.StudentJoinRoom(c, msg.Data)
		case "host-join-room":
			coord.HostJoinRoom(c, msg.Data)
		case "host-launch-poll":
			coord.HostLaunchPoll(c, msg.Data)
		case "student-submit-vote":
			coord.StudentSubmitVote(c, msg.Data)
		case "host-end-poll":
			coord.HostEndPoll(c, msg.Data)
		case "host-get-participants":
			coord.HostGetParticipants(c, msg.Data)
		case "host-kick-participant":
			coord.HostKickParticipant(c, msg.Data)
		case "host-end-session":
			coord.HostEndSession(c, msg.Data)
		default:
			c.SendError(msg.Event, "unknown event")
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(PingInterval * time.Second)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
