package websocket

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/PepaPanda/uu-backend-project/internal/models"
)

// Message types for real-time updates
const (
	MessageTypeListUpdate   = "list_update"
	MessageTypeItemUpdate   = "item_update"
	MessageTypeMemberUpdate = "member_update"
	MessageTypeNotification = "notification"
	MessageTypeUserOnline   = "user_online"
	MessageTypeUserOffline  = "user_offline"
	MessageTypeError        = "error"
)

// WebSocket message structure
type Message struct {
	Type   string      `json:"type"`
	UserID string      `json:"user_id,omitempty"`
	ListID string      `json:"list_id,omitempty"`
	Data   interface{} `json:"data"`
	Time   int64       `json:"time"`

	// unsubscribe drops the list subscription of UserID (or of everyone when
	// UserID is empty) after the message is delivered.
	unsubscribe bool
	// to addresses a reply to a single client.
	to *Client
}

// Authorizer decides whether a user may follow a list.
type Authorizer interface {
	Authorize(ctx context.Context, userID, listID string) error
}

// AuthorizerFunc adapts a function to Authorizer.
type AuthorizerFunc func(ctx context.Context, userID, listID string) error

func (f AuthorizerFunc) Authorize(ctx context.Context, userID, listID string) error {
	return f(ctx, userID, listID)
}

// Client represents a connected WebSocket client
type Client struct {
	ID     string
	UserID string
	Hub    *Hub
	Conn   *websocket.Conn
	Send   chan Message
	Lists  map[string]bool // Lists this client is subscribed to
	mutex  sync.RWMutex
}

// Hub maintains the set of active clients and broadcasts messages
type Hub struct {
	// Registered clients by user ID
	Clients map[string]map[*Client]bool

	Register   chan *Client
	Unregister chan *Client
	Broadcast  chan Message

	authz    Authorizer
	log      *logrus.Logger
	done     chan struct{}
	upgrader websocket.Upgrader
	mutex    sync.RWMutex
}

func NewHub(authz Authorizer, log *logrus.Logger, allowedOrigins []string) *Hub {
	h := &Hub{
		Clients:    make(map[string]map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Broadcast:  make(chan Message, 256),
		authz:      authz,
		log:        log,
		done:       make(chan struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

// Run starts the hub's main loop and returns when ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.Unregister:
			h.unregisterClient(client)

		case message := <-h.Broadcast:
			h.broadcastMessage(message)

		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			return
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.Clients[client.UserID] == nil {
		h.Clients[client.UserID] = make(map[*Client]bool)
	}
	h.Clients[client.UserID][client] = true

	h.log.WithFields(logrus.Fields{
		"client_id": client.ID,
		"user_id":   client.UserID,
		"clients":   len(h.Clients[client.UserID]),
	}).Debug("websocket client registered")

	h.broadcastUserStatus(client.UserID, MessageTypeUserOnline)
}

func (h *Hub) unregisterClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if clients, ok := h.Clients[client.UserID]; ok {
		if _, ok := clients[client]; ok {
			h.drop(client)
			if _, online := h.Clients[client.UserID]; !online {
				h.broadcastUserStatus(client.UserID, MessageTypeUserOffline)
			}

			h.log.WithFields(logrus.Fields{
				"client_id": client.ID,
				"user_id":   client.UserID,
			}).Debug("websocket client unregistered")
		}
	}
}

// drop removes client and closes its send channel. Callers hold h.mutex.
func (h *Hub) drop(client *Client) {
	clients := h.Clients[client.UserID]
	delete(clients, client)
	close(client.Send)
	if len(clients) == 0 {
		delete(h.Clients, client.UserID)
	}
}

func (h *Hub) closeAll() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for _, clients := range h.Clients {
		for client := range clients {
			h.drop(client)
		}
	}
}

// broadcastMessage sends a message to relevant clients. Clients whose buffer
// is full are disconnected.
func (h *Hub) broadcastMessage(message Message) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if message.to != nil {
		if h.Clients[message.to.UserID][message.to] {
			h.deliver(message.to, message)
		}
		return
	}

	switch message.Type {
	case MessageTypeListUpdate, MessageTypeItemUpdate, MessageTypeMemberUpdate:
		h.broadcastToListSubscribers(message)
	case MessageTypeNotification:
		h.broadcastToUser(message.UserID, message)
	case MessageTypeUserOnline, MessageTypeUserOffline:
		h.broadcastToAll(message)
	}

	if message.unsubscribe {
		h.unsubscribeAll(message.ListID, message.UserID)
	}
}

func (h *Hub) deliver(client *Client, message Message) {
	select {
	case client.Send <- message:
	default:
		h.log.WithField("client_id", client.ID).Warn("websocket client too slow, disconnecting")
		h.drop(client)
	}
}

func (h *Hub) broadcastToListSubscribers(message Message) {
	for _, clients := range h.Clients {
		for client := range clients {
			if client.IsSubscribed(message.ListID) {
				h.deliver(client, message)
			}
		}
	}
}

func (h *Hub) broadcastToUser(userID string, message Message) {
	for client := range h.Clients[userID] {
		h.deliver(client, message)
	}
}

func (h *Hub) broadcastToAll(message Message) {
	for _, clients := range h.Clients {
		for client := range clients {
			h.deliver(client, message)
		}
	}
}

// broadcastUserStatus notifies about user online/offline status
func (h *Hub) broadcastUserStatus(userID string, messageType string) {
	message := Message{
		Type:   messageType,
		UserID: userID,
		Data:   map[string]interface{}{"user_id": userID},
	}

	// Don't broadcast to self
	for otherUserID, clients := range h.Clients {
		if otherUserID == userID {
			continue
		}
		for client := range clients {
			h.deliver(client, message)
		}
	}
}

// unsubscribeAll drops listID from the subscriptions of userID's clients, or
// from every client when userID is empty.
func (h *Hub) unsubscribeAll(listID, userID string) {
	for uid, clients := range h.Clients {
		if userID != "" && uid != userID {
			continue
		}
		for client := range clients {
			client.UnsubscribeFromList(listID)
		}
	}
}

func (h *Hub) enqueue(message Message) {
	select {
	case h.Broadcast <- message:
	default:
		h.log.WithFields(logrus.Fields{"type": message.Type, "list_id": message.ListID}).
			Warn("websocket broadcast queue full, dropping message")
	}
}

// Notify turns a list change into websocket messages. It never blocks.
func (h *Hub) Notify(_ context.Context, n models.Notification) {
	switch n.Type {
	case models.NotificationItemChanged:
		h.enqueue(Message{Type: MessageTypeItemUpdate, ListID: n.ListID, Data: n.Data})
	case models.NotificationListUpdated:
		h.enqueue(Message{Type: MessageTypeListUpdate, ListID: n.ListID, Data: n.Data})
	case models.NotificationListDeleted:
		h.enqueue(Message{
			Type:        MessageTypeListUpdate,
			ListID:      n.ListID,
			Data:        map[string]interface{}{"list_id": n.ListID, "deleted": true},
			unsubscribe: true,
		})
	case models.NotificationMemberAdded:
		h.enqueue(Message{Type: MessageTypeMemberUpdate, ListID: n.ListID, UserID: n.UserID, Data: n})
	case models.NotificationMemberRemoved:
		h.enqueue(Message{Type: MessageTypeMemberUpdate, ListID: n.ListID, UserID: n.UserID, Data: n})
		h.enqueue(Message{Type: MessageTypeNotification, ListID: n.ListID, UserID: n.UserID, Data: n, unsubscribe: true})
	case models.NotificationInvitationSent, models.NotificationInvitationDropped:
		h.enqueue(Message{Type: MessageTypeNotification, ListID: n.ListID, UserID: n.UserID, Data: n})
	}
}

// GetOnlineUsers returns list of currently online user IDs
func (h *Hub) GetOnlineUsers() []string {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	onlineUsers := make([]string, 0, len(h.Clients))
	for userID := range h.Clients {
		onlineUsers = append(onlineUsers, userID)
	}
	return onlineUsers
}

func (c *Client) IsSubscribed(listID string) bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.Lists[listID]
}

// SubscribeToList subscribes a client to list updates
func (c *Client) SubscribeToList(listID string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.Lists == nil {
		c.Lists = make(map[string]bool)
	}
	c.Lists[listID] = true
}

// UnsubscribeFromList unsubscribes a client from list updates
func (c *Client) UnsubscribeFromList(listID string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.Lists, listID)
}

// ServeWS upgrades the request and attaches the connection to the hub.
func (h *Hub) ServeWS(c *gin.Context, userID string) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	client := &Client{
		ID:     "client_" + uuid.NewString(),
		UserID: userID,
		Hub:    h,
		Conn:   conn,
		Send:   make(chan Message, 256),
		Lists:  make(map[string]bool),
	}

	// Register client with hub
	select {
	case h.Register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

func (h *Hub) authorize(userID, listID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return h.authz.Authorize(ctx, userID, listID)
}
