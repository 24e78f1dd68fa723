package websocket

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/PepaPanda/uu-backend-project/internal/apperr"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512
)

// ClientMessage represents incoming messages from clients
type ClientMessage struct {
	Type   string      `json:"type"`
	ListID string      `json:"list_id,omitempty"`
	Data   interface{} `json:"data,omitempty"`
}

// Client message types
const (
	ClientMessageSubscribe   = "subscribe"
	ClientMessageUnsubscribe = "unsubscribe"
	ClientMessagePing        = "ping"
)

func (c *Client) logger() *logrus.Entry {
	return c.Hub.log.WithFields(logrus.Fields{"client_id": c.ID, "user_id": c.UserID})
}

// readPump pumps messages from the websocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		select {
		case c.Hub.Unregister <- c:
		case <-c.Hub.done:
		}
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, messageBytes, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger().WithError(err).Warn("websocket read failed")
			}
			break
		}

		var clientMessage ClientMessage
		if err := json.Unmarshal(messageBytes, &clientMessage); err != nil {
			c.logger().WithError(err).Debug("malformed client message")
			c.reply(Message{Type: MessageTypeError, Data: payload{"error": "Malformed message", "code": apperr.KindInvalidRequest}})
			continue
		}

		c.handleClientMessage(clientMessage)
	}
}

// writePump pumps messages from the hub to the websocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			message.Time = time.Now().Unix()
			if err := c.Conn.WriteJSON(message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

type payload = map[string]interface{}

// reply queues a message for this client only. The hub drops it if the client
// has already been unregistered.
func (c *Client) reply(m Message) {
	m.to = c
	c.Hub.enqueue(m)
}

// handleClientMessage processes incoming messages from the client
func (c *Client) handleClientMessage(message ClientMessage) {
	switch message.Type {
	case ClientMessageSubscribe:
		if message.ListID == "" {
			c.reply(Message{Type: MessageTypeError, Data: payload{"error": "list_id is required", "code": apperr.KindInvalidRequest}})
			return
		}
		if err := c.Hub.authorize(c.UserID, message.ListID); err != nil {
			c.logger().WithError(err).WithField("list_id", message.ListID).Debug("subscription denied")
			c.reply(Message{
				Type:   MessageTypeError,
				ListID: message.ListID,
				Data:   payload{"error": apperr.Message(err), "code": apperr.KindOf(err)},
			})
			return
		}
		c.SubscribeToList(message.ListID)
		c.logger().WithField("list_id", message.ListID).Debug("client subscribed")
		c.reply(Message{
			Type:   "subscribed",
			ListID: message.ListID,
			Data:   payload{"list_id": message.ListID, "status": "subscribed"},
		})

	case ClientMessageUnsubscribe:
		if message.ListID == "" {
			return
		}
		c.UnsubscribeFromList(message.ListID)
		c.reply(Message{
			Type:   "unsubscribed",
			ListID: message.ListID,
			Data:   payload{"list_id": message.ListID, "status": "unsubscribed"},
		})

	case ClientMessagePing:
		c.reply(Message{Type: "pong", Data: payload{"timestamp": time.Now().Unix()}})

	default:
		c.logger().WithField("type", message.Type).Debug("unknown client message type")
	}
}
